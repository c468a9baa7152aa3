package service_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/atinyakov/mockshare/internal/db"
	"github.com/atinyakov/mockshare/internal/password"
	"github.com/atinyakov/mockshare/internal/repository"
	"github.com/atinyakov/mockshare/internal/service"
)

// newServices wires the services over a fresh in-memory SQLite database.
func newServices(t *testing.T, opts service.Options) *service.Services {
	t.Helper()
	conn, err := db.InitSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	if opts.Gate == nil {
		opts.Gate = password.New(bcrypt.MinCost)
	}
	return service.New(service.Repositories{
		Mockups:  repository.NewMockupRepository(conn, db.SQLite),
		Versions: repository.NewVersionRepository(conn, db.SQLite),
		Comments: repository.NewCommentRepository(conn, db.SQLite),
	}, opts)
}

func mustCreate(t *testing.T, svc *service.Services, content, pw string) string {
	t.Helper()
	m, err := svc.Mockups.Create(context.Background(), json.RawMessage(content), pw)
	require.NoError(t, err)
	return m.ID
}

func mustComment(t *testing.T, svc *service.Services, mockupID, token string) string {
	t.Helper()
	c, err := svc.Comments.Add(context.Background(), mockupID, service.NewComment{
		Body:        "looks off",
		AuthorName:  "Client",
		AuthorToken: token,
	})
	require.NoError(t, err)
	return c.ID
}
