// Package repository persists mockups, version snapshots and comments
// through database/sql against PostgreSQL or SQLite.
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

// MockupRepository stores the live mockup records.
type MockupRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
	// Dialect selects placeholder and locking syntax.
	Dialect db.Dialect
}

// NewMockupRepository creates a MockupRepository over conn.
func NewMockupRepository(conn *sql.DB, dialect db.Dialect) *MockupRepository {
	return &MockupRepository{DB: conn, Dialect: dialect}
}

// Create inserts a new mockup with all its fields as given.
//
//	ctx: context for cancellation and deadlines
//	m:   the mockup to store; m.ID must be set
//
// Returns models.ErrDuplicateID when the id is already taken, or an error
// if the insert fails.
func (r *MockupRepository) Create(ctx context.Context, m *models.Mockup) error {
	_, err := r.DB.ExecContext(ctx, r.Dialect.Rebind(`
		INSERT INTO mockups (id, content, password_hash, view_count, current_version, created_at, updated_at, version_started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`), m.ID, string(m.Content), nullString(m.PasswordHash), m.ViewCount, m.CurrentVersion,
		toMillis(m.CreatedAt), toMillis(m.UpdatedAt), toMillis(m.VersionStartedAt))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return models.ErrDuplicateID
		}
		return fmt.Errorf("insert mockup: %w", err)
	}
	return nil
}

// Get fetches a single mockup including its content and password digest.
//
//	ctx: context for cancellation and deadlines
//	id:  identifier of the mockup
//
// Returns the mockup, models.ErrNotFound, or an error if the query fails.
func (r *MockupRepository) Get(ctx context.Context, id string) (*models.Mockup, error) {
	row := r.DB.QueryRowContext(ctx, r.Dialect.Rebind(`
		SELECT id, content, password_hash, view_count, current_version, created_at, updated_at, version_started_at
		FROM mockups WHERE id = ?
	`), id)
	m, err := scanMockup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("mockup %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get mockup: %w", err)
	}
	return m, nil
}

// List returns summaries of all mockups, most recently updated first.
// Content is not loaded.
func (r *MockupRepository) List(ctx context.Context) ([]models.MockupSummary, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, current_version, view_count, password_hash, created_at, updated_at
		FROM mockups ORDER BY updated_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list mockups: %w", err)
	}
	defer rows.Close()

	summaries := make([]models.MockupSummary, 0)
	for rows.Next() {
		var (
			s                models.MockupSummary
			hash             sql.NullString
			created, updated int64
		)
		if err := rows.Scan(&s.ID, &s.CurrentVersion, &s.ViewCount, &hash, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		s.PasswordProtected = hash.Valid && hash.String != ""
		s.CreatedAt = fromMillis(created)
		s.UpdatedAt = fromMillis(updated)
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list mockups: %w", err)
	}
	return summaries, nil
}

// Update replaces the live content of a mockup in place. The current
// version number is never touched.
//
//	ctx: context for cancellation and deadlines
//	id:  identifier of the mockup
//	u:   new content, edit time and the password change to apply
//
// Returns models.ErrNotFound when no mockup has that id.
func (r *MockupRepository) Update(ctx context.Context, id string, u models.MockupUpdate) error {
	query := `UPDATE mockups SET content = ?, updated_at = ?`
	args := []any{string(u.Content), toMillis(u.UpdatedAt)}
	switch {
	case u.PasswordHash != nil:
		query += `, password_hash = ?`
		args = append(args, *u.PasswordHash)
	case u.ClearPassword:
		query += `, password_hash = NULL`
	}
	query += ` WHERE id = ?`
	args = append(args, id)

	res, err := r.DB.ExecContext(ctx, r.Dialect.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("update mockup: %w", err)
	}
	return expectOne(res, "mockup "+id)
}

// IncrementViews adds one to the view counter in a single statement, so
// concurrent reads never lose an update.
//
// Returns the new count or models.ErrNotFound.
func (r *MockupRepository) IncrementViews(ctx context.Context, id string) (int64, error) {
	var views int64
	err := r.DB.QueryRowContext(ctx, r.Dialect.Rebind(`
		UPDATE mockups SET view_count = view_count + 1 WHERE id = ? RETURNING view_count
	`), id).Scan(&views)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("mockup %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("increment views: %w", err)
	}
	return views, nil
}

// Delete removes a mockup together with all its comments and version
// snapshots in one transaction. Children go first.
//
//	ctx: context for cancellation and deadlines
//	id:  identifier of the mockup
//
// Returns models.ErrNotFound when no mockup has that id; nothing is
// removed in that case.
func (r *MockupRepository) Delete(ctx context.Context, id string) error {
	return db.RunTx(ctx, r.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, r.Dialect.Rebind(`DELETE FROM comments WHERE mockup_id = ?`), id); err != nil {
			return fmt.Errorf("delete comments: %w", err)
		}
		if _, err := tx.ExecContext(ctx, r.Dialect.Rebind(`DELETE FROM version_snapshots WHERE mockup_id = ?`), id); err != nil {
			return fmt.Errorf("delete snapshots: %w", err)
		}
		res, err := tx.ExecContext(ctx, r.Dialect.Rebind(`DELETE FROM mockups WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("delete mockup: %w", err)
		}
		return expectOne(res, "mockup "+id)
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMockup(row rowScanner) (*models.Mockup, error) {
	var (
		m                         models.Mockup
		content                   string
		hash                      sql.NullString
		created, updated, started int64
	)
	if err := row.Scan(&m.ID, &content, &hash, &m.ViewCount, &m.CurrentVersion, &created, &updated, &started); err != nil {
		return nil, err
	}
	m.Content = json.RawMessage(content)
	if hash.Valid {
		h := hash.String
		m.PasswordHash = &h
	}
	m.CreatedAt = fromMillis(created)
	m.UpdatedAt = fromMillis(updated)
	m.VersionStartedAt = fromMillis(started)
	return &m, nil
}

func expectOne(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, models.ErrNotFound)
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
