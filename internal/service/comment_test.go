package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/mockshare/internal/models"
	"github.com/atinyakov/mockshare/internal/service"
)

func TestComment_EditRequiresAuthorToken(t *testing.T) {
	svc := newServices(t, service.Options{})
	ctx := context.Background()
	id := mustCreate(t, svc, `{}`, "")
	c1 := mustComment(t, svc, id, "tok1")

	_, err := svc.Comments.Edit(ctx, id, c1, "new body", "tok2")
	assert.ErrorIs(t, err, models.ErrForbidden)
	_, err = svc.Comments.Edit(ctx, id, c1, "new body", "")
	assert.ErrorIs(t, err, models.ErrForbidden)

	edited, err := svc.Comments.Edit(ctx, id, c1, "new body", "tok1")
	require.NoError(t, err)
	assert.Equal(t, "new body", edited.Body)

	list, err := svc.Comments.List(ctx, id, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "new body", list[0].Body)

	_, err = svc.Comments.Edit(ctx, id, "missing", "x", "tok1")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestComment_AddDefaults(t *testing.T) {
	svc := newServices(t, service.Options{})
	ctx := context.Background()
	id := mustCreate(t, svc, `{}`, "")

	c, err := svc.Comments.Add(ctx, id, service.NewComment{
		Position:   models.Position{X: 0.5, Y: 0.5, Width: 0.1, Height: 0.1, ImageIndex: 2},
		Body:       "  price looks wrong ",
		AuthorName: "Dana",
	})
	require.NoError(t, err)
	assert.Equal(t, "price looks wrong", c.Body)
	assert.False(t, c.Resolved)
	assert.Equal(t, 1, c.VersionNumber)
	assert.Len(t, c.AuthorToken, 32, "a token is issued when none is given")

	_, err = svc.Comments.Add(ctx, id, service.NewComment{Body: " ", AuthorName: "Dana"})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = svc.Comments.Add(ctx, "missing", service.NewComment{Body: "x", AuthorName: "Dana"})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestComment_CleanCutScenario(t *testing.T) {
	svc := newServices(t, service.Options{})
	ctx := context.Background()
	id := mustCreate(t, svc, `{}`, "")
	c1 := mustComment(t, svc, id, "tok1")

	before, err := svc.Comments.List(ctx, id, 1)
	require.NoError(t, err)
	require.Len(t, before, 1)

	res, err := svc.Coordinator.Cut(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, res.NewVersion)

	current, err := svc.Comments.List(ctx, id, 0)
	require.NoError(t, err)
	assert.Empty(t, current)

	archived, err := svc.Comments.List(ctx, id, 1)
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, c1, archived[0].ID)
	assert.Equal(t, before[0].Body, archived[0].Body)
	assert.Equal(t, before[0].Resolved, archived[0].Resolved)
	assert.Equal(t, 1, archived[0].VersionNumber)

	// frozen comments are out of the ledger's reach
	_, err = svc.Comments.Edit(ctx, id, c1, "rewrite", "tok1")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, svc.Comments.Resolve(ctx, id, c1, true), models.ErrNotFound)

	// new live comments do not leak into the snapshot
	mustComment(t, svc, id, "tok2")
	archived, err = svc.Comments.List(ctx, id, 1)
	require.NoError(t, err)
	assert.Len(t, archived, 1)

	_, err = svc.Comments.List(ctx, id, 5)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestComment_Resolve(t *testing.T) {
	svc := newServices(t, service.Options{})
	ctx := context.Background()
	id := mustCreate(t, svc, `{}`, "")
	c1 := mustComment(t, svc, id, "tok1")

	require.NoError(t, svc.Comments.Resolve(ctx, id, c1, true))
	list, err := svc.Comments.List(ctx, id, 0)
	require.NoError(t, err)
	assert.True(t, list[0].Resolved)

	require.NoError(t, svc.Comments.Resolve(ctx, id, c1, false))
	list, err = svc.Comments.List(ctx, id, 0)
	require.NoError(t, err)
	assert.False(t, list[0].Resolved)
}

func TestComment_Remove(t *testing.T) {
	svc := newServices(t, service.Options{})
	ctx := context.Background()
	id := mustCreate(t, svc, `{}`, "")
	c1 := mustComment(t, svc, id, "tok1")
	c2 := mustComment(t, svc, id, "tok2")

	assert.ErrorIs(t, svc.Comments.Remove(ctx, id, c1, "tok2", false), models.ErrForbidden)
	assert.ErrorIs(t, svc.Comments.Remove(ctx, id, c1, "", false), models.ErrForbidden)
	require.NoError(t, svc.Comments.Remove(ctx, id, c1, "tok1", false))
	require.NoError(t, svc.Comments.Remove(ctx, id, c2, "", true))
	assert.ErrorIs(t, svc.Comments.Remove(ctx, id, c2, "", true), models.ErrNotFound)

	list, err := svc.Comments.List(ctx, id, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestComment_RemoveAll(t *testing.T) {
	svc := newServices(t, service.Options{})
	ctx := context.Background()
	id := mustCreate(t, svc, `{}`, "")
	mustComment(t, svc, id, "a")
	mustComment(t, svc, id, "b")

	n, err := svc.Comments.RemoveAll(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	list, err := svc.Comments.List(ctx, id, 0)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.Comments.RemoveAll(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
