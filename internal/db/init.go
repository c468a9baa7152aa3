package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS mockups (
    id TEXT PRIMARY KEY,
    content TEXT NOT NULL,
    password_hash TEXT,
    view_count BIGINT NOT NULL DEFAULT 0,
    current_version INTEGER NOT NULL DEFAULT 1 CHECK (current_version >= 1),
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL,
    version_started_at BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS version_snapshots (
    id TEXT PRIMARY KEY,
    mockup_id TEXT NOT NULL REFERENCES mockups(id),
    version_number INTEGER NOT NULL,
    content TEXT NOT NULL,
    comment_snapshot TEXT NOT NULL,
    created_at BIGINT NOT NULL,
    UNIQUE (mockup_id, version_number)
);

CREATE TABLE IF NOT EXISTS comments (
    id TEXT PRIMARY KEY,
    mockup_id TEXT NOT NULL REFERENCES mockups(id),
    version_number INTEGER NOT NULL,
    x DOUBLE PRECISION NOT NULL,
    y DOUBLE PRECISION NOT NULL,
    width DOUBLE PRECISION NOT NULL,
    height DOUBLE PRECISION NOT NULL,
    image_index INTEGER NOT NULL DEFAULT 0,
    body TEXT NOT NULL,
    author_name TEXT NOT NULL,
    author_token TEXT NOT NULL,
    resolved BOOLEAN NOT NULL DEFAULT FALSE,
    created_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_comments_mockup_version
    ON comments (mockup_id, version_number, created_at);
`

// Open opens the database for the given driver and applies the schema.
func Open(dialect Dialect, dsn string) (*sql.DB, error) {
	switch dialect {
	case Postgres:
		return InitPostgres(dsn)
	case SQLite:
		return InitSQLite(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", dialect)
	}
}

// InitPostgres connects to PostgreSQL and creates the schema.
func InitPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return db, nil
}

// InitSQLite opens an embedded SQLite database at path (":memory:" allowed)
// and creates the schema. The pool is limited to one connection so writes
// are serialized and an in-memory database is shared by every query.
func InitSQLite(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("open sqlite: empty path")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite %s: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}
