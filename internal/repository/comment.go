package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/mockshare/internal/db"
	"github.com/atinyakov/mockshare/internal/models"
)

const commentColumns = `id, mockup_id, version_number, x, y, width, height, image_index,
	body, author_name, author_token, resolved, created_at`

// CommentRepository stores the live comment ledger. Only comments of a
// mockup's current version live here; past ones are kept in snapshots.
type CommentRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
	// Dialect selects placeholder and locking syntax.
	Dialect db.Dialect
}

// NewCommentRepository creates a CommentRepository over conn.
func NewCommentRepository(conn *sql.DB, dialect db.Dialect) *CommentRepository {
	return &CommentRepository{DB: conn, Dialect: dialect}
}

// Add binds c to the mockup's current version and inserts it. The version
// is read under the same row lock a cut takes, so a comment can never land
// on a version that has just been archived.
//
//	ctx: context for cancellation and deadlines
//	c:   the comment; c.VersionNumber is set on success
//
// Returns models.ErrNotFound for an unknown mockup, models.ErrDuplicateID
// on an id collision, or an error if the transaction fails.
func (r *CommentRepository) Add(ctx context.Context, c *models.Comment) error {
	return db.RunTx(ctx, r.DB, func(tx *sql.Tx) error {
		var current int
		err := tx.QueryRowContext(ctx, r.Dialect.Rebind(`
			SELECT current_version FROM mockups WHERE id = ?`+r.Dialect.LockRow(),
		), c.MockupID).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("mockup %s: %w", c.MockupID, models.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("lock mockup: %w", err)
		}

		_, err = tx.ExecContext(ctx, r.Dialect.Rebind(`
			INSERT INTO comments (`+commentColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`), c.ID, c.MockupID, current, c.X, c.Y, c.Width, c.Height, c.ImageIndex,
			c.Body, c.AuthorName, c.AuthorToken, c.Resolved, toMillis(c.CreatedAt))
		if err != nil {
			if db.IsUniqueViolation(err) {
				return models.ErrDuplicateID
			}
			return fmt.Errorf("insert comment: %w", err)
		}
		c.VersionNumber = current
		return nil
	})
}

// List returns the live comments of a mockup version in creation order.
func (r *CommentRepository) List(ctx context.Context, mockupID string, version int) ([]models.Comment, error) {
	return listComments(ctx, r.DB, r.Dialect, mockupID, version)
}

// Get fetches one comment of a mockup, author token included.
//
//	ctx:      context for cancellation and deadlines
//	mockupID: identifier of the mockup
//	id:       identifier of the comment
//
// Returns the comment or models.ErrNotFound.
func (r *CommentRepository) Get(ctx context.Context, mockupID, id string) (*models.Comment, error) {
	row := r.DB.QueryRowContext(ctx, r.Dialect.Rebind(`
		SELECT `+commentColumns+` FROM comments WHERE mockup_id = ? AND id = ?
	`), mockupID, id)
	c, err := scanComment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("comment %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return c, nil
}

// UpdateBody replaces the text of a comment. Returns models.ErrNotFound
// when the comment is not in the live ledger of mockupID.
func (r *CommentRepository) UpdateBody(ctx context.Context, mockupID, id, body string) error {
	res, err := r.DB.ExecContext(ctx, r.Dialect.Rebind(`
		UPDATE comments SET body = ? WHERE mockup_id = ? AND id = ?
	`), body, mockupID, id)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	return expectOne(res, "comment "+id)
}

// SetResolved sets the resolved flag of a comment. Returns
// models.ErrNotFound when the comment is not in the live ledger of mockupID.
func (r *CommentRepository) SetResolved(ctx context.Context, mockupID, id string, resolved bool) error {
	res, err := r.DB.ExecContext(ctx, r.Dialect.Rebind(`
		UPDATE comments SET resolved = ? WHERE mockup_id = ? AND id = ?
	`), resolved, mockupID, id)
	if err != nil {
		return fmt.Errorf("resolve comment: %w", err)
	}
	return expectOne(res, "comment "+id)
}

// Delete removes a single comment or returns models.ErrNotFound.
func (r *CommentRepository) Delete(ctx context.Context, mockupID, id string) error {
	res, err := r.DB.ExecContext(ctx, r.Dialect.Rebind(`
		DELETE FROM comments WHERE mockup_id = ? AND id = ?
	`), mockupID, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return expectOne(res, "comment "+id)
}

// DeleteAll clears the live ledger of a mockup and reports how many
// comments were removed.
func (r *CommentRepository) DeleteAll(ctx context.Context, mockupID string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, r.Dialect.Rebind(`
		DELETE FROM comments WHERE mockup_id = ?
	`), mockupID)
	if err != nil {
		return 0, fmt.Errorf("delete comments: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func listComments(ctx context.Context, q querier, dialect db.Dialect, mockupID string, version int) ([]models.Comment, error) {
	rows, err := q.QueryContext(ctx, dialect.Rebind(`
		SELECT `+commentColumns+` FROM comments
		WHERE mockup_id = ? AND version_number = ?
		ORDER BY created_at ASC, id ASC
	`), mockupID, version)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := make([]models.Comment, 0)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		comments = append(comments, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

func scanComment(row rowScanner) (*models.Comment, error) {
	var (
		c       models.Comment
		created int64
	)
	err := row.Scan(&c.ID, &c.MockupID, &c.VersionNumber, &c.X, &c.Y, &c.Width, &c.Height,
		&c.ImageIndex, &c.Body, &c.AuthorName, &c.AuthorToken, &c.Resolved, &created)
	if err != nil {
		return nil, err
	}
	c.CreatedAt = fromMillis(created)
	return &c, nil
}
