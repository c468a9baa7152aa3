package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/mockshare/internal/db"
	"github.com/atinyakov/mockshare/internal/models"
)

// VersionRepository stores immutable version snapshots and performs the
// version cut transition.
type VersionRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
	// Dialect selects placeholder and locking syntax.
	Dialect db.Dialect
}

// NewVersionRepository creates a VersionRepository over conn.
func NewVersionRepository(conn *sql.DB, dialect db.Dialect) *VersionRepository {
	return &VersionRepository{DB: conn, Dialect: dialect}
}

// Cut archives the current version of a mockup and advances its counter.
// Within one transaction it:
//
//  1. locks the mockup row and reads its content and current version v
//  2. reads the live comments bound to v
//  3. inserts the snapshot {v, content, comments}
//  4. sets current_version to v+1, leaving content as is
//  5. deletes the live comments of v, so the ledger starts empty for v+1
//
// Nothing is visible unless all steps commit.
func (r *VersionRepository) Cut(ctx context.Context, mockupID, snapshotID string, now time.Time) (*models.VersionSnapshot, error) {
	var snap *models.VersionSnapshot
	err := db.RunTx(ctx, r.DB, func(tx *sql.Tx) error {
		var (
			content string
			current int
		)
		err := tx.QueryRowContext(ctx, r.Dialect.Rebind(`
			SELECT content, current_version FROM mockups WHERE id = ?`+r.Dialect.LockRow(),
		), mockupID).Scan(&content, &current)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("mockup %s: %w", mockupID, models.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("lock mockup: %w", err)
		}

		comments, err := listComments(ctx, tx, r.Dialect, mockupID, current)
		if err != nil {
			return err
		}
		frozen, err := json.Marshal(comments)
		if err != nil {
			return fmt.Errorf("encode comment snapshot: %w", err)
		}

		_, err = tx.ExecContext(ctx, r.Dialect.Rebind(`
			INSERT INTO version_snapshots (id, mockup_id, version_number, content, comment_snapshot, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`), snapshotID, mockupID, current, content, string(frozen), toMillis(now))
		if err != nil {
			if db.IsUniqueViolation(err) {
				return fmt.Errorf("snapshot %s v%d: %w", mockupID, current, models.ErrDuplicateID)
			}
			return fmt.Errorf("insert snapshot: %w", err)
		}

		res, err := tx.ExecContext(ctx, r.Dialect.Rebind(`
			UPDATE mockups SET current_version = current_version + 1, updated_at = ?, version_started_at = ?
			WHERE id = ? AND current_version = ?
		`), toMillis(now), toMillis(now), mockupID, current)
		if err != nil {
			return fmt.Errorf("advance version: %w", err)
		}
		if err := expectOne(res, "mockup "+mockupID); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, r.Dialect.Rebind(`
			DELETE FROM comments WHERE mockup_id = ? AND version_number = ?
		`), mockupID, current); err != nil {
			return fmt.Errorf("prune live comments: %w", err)
		}

		snap = &models.VersionSnapshot{
			ID:            snapshotID,
			MockupID:      mockupID,
			VersionNumber: current,
			Content:       json.RawMessage(content),
			Comments:      comments,
			CreatedAt:     fromMillis(toMillis(now)),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Get fetches the snapshot of an archived version with its frozen comments.
//
//	ctx:      context for cancellation and deadlines
//	mockupID: identifier of the mockup
//	version:  archived version number
//
// Returns the snapshot, models.ErrNotFound, or an error if the query or
// decoding of the comment snapshot fails.
func (r *VersionRepository) Get(ctx context.Context, mockupID string, version int) (*models.VersionSnapshot, error) {
	var (
		snap     models.VersionSnapshot
		content  string
		comments string
		created  int64
	)
	err := r.DB.QueryRowContext(ctx, r.Dialect.Rebind(`
		SELECT id, mockup_id, version_number, content, comment_snapshot, created_at
		FROM version_snapshots WHERE mockup_id = ? AND version_number = ?
	`), mockupID, version).Scan(&snap.ID, &snap.MockupID, &snap.VersionNumber, &content, &comments, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("mockup %s version %d: %w", mockupID, version, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	snap.Content = json.RawMessage(content)
	snap.CreatedAt = fromMillis(created)
	if err := json.Unmarshal([]byte(comments), &snap.Comments); err != nil {
		return nil, fmt.Errorf("decode comment snapshot: %w", err)
	}
	if snap.Comments == nil {
		snap.Comments = []models.Comment{}
	}
	return &snap, nil
}

// List returns the archived versions of a mockup in ascending order,
// without content. An unknown mockup yields an empty slice.
func (r *VersionRepository) List(ctx context.Context, mockupID string) ([]models.VersionSummary, error) {
	rows, err := r.DB.QueryContext(ctx, r.Dialect.Rebind(`
		SELECT id, version_number, created_at FROM version_snapshots
		WHERE mockup_id = ? ORDER BY version_number ASC
	`), mockupID)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	versions := make([]models.VersionSummary, 0)
	for rows.Next() {
		var (
			v       models.VersionSummary
			created int64
		)
		if err := rows.Scan(&v.ID, &v.VersionNumber, &created); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		v.CreatedAt = fromMillis(created)
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return versions, nil
}

// Delete removes an archived version. It returns
// models.ErrCannotDeleteCurrent when version is the live version or later,
// and models.ErrNotFound when the mockup or the snapshot does not exist.
func (r *VersionRepository) Delete(ctx context.Context, mockupID string, version int) error {
	return db.RunTx(ctx, r.DB, func(tx *sql.Tx) error {
		var current int
		err := tx.QueryRowContext(ctx, r.Dialect.Rebind(`
			SELECT current_version FROM mockups WHERE id = ?`+r.Dialect.LockRow(),
		), mockupID).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("mockup %s: %w", mockupID, models.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("lock mockup: %w", err)
		}
		if version >= current {
			return fmt.Errorf("version %d of %s: %w", version, mockupID, models.ErrCannotDeleteCurrent)
		}

		res, err := tx.ExecContext(ctx, r.Dialect.Rebind(`
			DELETE FROM version_snapshots WHERE mockup_id = ? AND version_number = ?
		`), mockupID, version)
		if err != nil {
			return fmt.Errorf("delete snapshot: %w", err)
		}
		return expectOne(res, fmt.Sprintf("mockup %s version %d", mockupID, version))
	})
}
