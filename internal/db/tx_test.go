package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunTx_Commit(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE mockups").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = RunTx(context.Background(), conn, func(tx *sql.Tx) error {
		_, err := tx.Exec("UPDATE mockups SET view_count = 0")
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunTx_RollbackOnError(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()

	err = RunTx(context.Background(), conn, func(*sql.Tx) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// lockedWriteError returns the error a second connection gets when it
// writes while another connection holds the write lock of the same file.
func lockedWriteError(t *testing.T) error {
	t.Helper()
	path := filepath.Join(t.TempDir(), "busy.db")

	holder, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	holder.SetMaxOpenConns(1)
	t.Cleanup(func() { holder.Close() })
	_, err = holder.Exec(`CREATE TABLE t (v INTEGER)`)
	require.NoError(t, err)

	tx, err := holder.Begin()
	require.NoError(t, err)
	t.Cleanup(func() { _ = tx.Rollback() })
	_, err = tx.Exec(`INSERT INTO t VALUES (1)`)
	require.NoError(t, err)

	other, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	other.SetMaxOpenConns(1)
	t.Cleanup(func() { other.Close() })
	_, err = other.Exec(`PRAGMA busy_timeout = 0`)
	require.NoError(t, err)

	_, err = other.Exec(`INSERT INTO t VALUES (2)`)
	require.Error(t, err)
	return err
}

func TestRunTx_RetriesBusy(t *testing.T) {
	busy := lockedWriteError(t)
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectCommit()

	calls := 0
	err = RunTx(context.Background(), conn, func(*sql.Tx) error {
		calls++
		if calls == 1 {
			return fmt.Errorf("insert: %w", busy)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunTx_BeginError(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectBegin().WillReturnError(errors.New("conn refused"))

	err = RunTx(context.Background(), conn, func(*sql.Tx) error { return nil })
	assert.ErrorContains(t, err, "begin tx")
}

func TestRunTx_GivesUpAfterRetries(t *testing.T) {
	busy := lockedWriteError(t)
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	for range len(busyBackoff) + 1 {
		mock.ExpectBegin()
		mock.ExpectRollback()
	}

	calls := 0
	err = RunTx(context.Background(), conn, func(*sql.Tx) error {
		calls++
		return busy
	})
	assert.ErrorIs(t, err, busy)
	assert.Equal(t, len(busyBackoff)+1, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunTx_StopsRetryingOnCancel(t *testing.T) {
	busy := lockedWriteError(t)
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err = RunTx(ctx, conn, func(*sql.Tx) error {
		calls++
		cancel()
		return busy
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestIsBusy(t *testing.T) {
	busy := lockedWriteError(t)

	assert.False(t, IsBusy(nil))
	assert.True(t, IsBusy(busy))
	assert.True(t, IsBusy(fmt.Errorf("commit: %w", busy)))
	assert.False(t, IsBusy(errors.New("database is locked")), "only driver result codes count")
	assert.False(t, IsBusy(errors.New("syntax error")))
}
