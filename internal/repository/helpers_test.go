package repository

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/atinyakov/mockshare/internal/db"
	"github.com/atinyakov/mockshare/internal/models"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.InitSQLite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func setupMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn, mock
}

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newMockup(id, content string) *models.Mockup {
	return &models.Mockup{
		ID:               id,
		Content:          json.RawMessage(content),
		CurrentVersion:   models.FirstVersion,
		CreatedAt:        testNow,
		UpdatedAt:        testNow,
		VersionStartedAt: testNow,
	}
}

func newComment(id, mockupID, token string, at time.Time) *models.Comment {
	return &models.Comment{
		ID:          id,
		MockupID:    mockupID,
		Position:    models.Position{X: 0.1, Y: 0.2, Width: 0.3, Height: 0.4, ImageIndex: 1},
		Body:        "body " + id,
		AuthorName:  "Ann",
		AuthorToken: token,
		CreatedAt:   at,
	}
}
