package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// busyBackoff is the wait before each extra attempt of a transaction that
// lost a lock race. Its length is the number of retries.
var busyBackoff = []time.Duration{100 * time.Millisecond, 250 * time.Millisecond}

// IsBusy reports whether err carries an SQLite BUSY or LOCKED result code,
// including their extended variants.
func IsBusy(err error) bool {
	var liteErr *sqlite.Error
	if !errors.As(err, &liteErr) {
		return false
	}
	switch liteErr.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}

// RunTx executes fn inside a transaction. Either every statement of fn
// commits or none does. A transaction that fails with IsBusy is run again
// from the start after each busyBackoff wait.
func RunTx(ctx context.Context, conn *sql.DB, fn func(*sql.Tx) error) error {
	err := runOnce(ctx, conn, fn)
	for _, wait := range busyBackoff {
		if !IsBusy(err) {
			return err
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry transaction: %w", ctx.Err())
		case <-timer.C:
		}
		err = runOnce(ctx, conn, fn)
	}
	return err
}

func runOnce(ctx context.Context, conn *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
