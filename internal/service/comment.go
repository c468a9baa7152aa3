package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/mockshare/internal/idgen"
	"github.com/atinyakov/mockshare/internal/models"
)

const authorTokenLength = 32

// CommentService is the comment ledger. The ledger only holds comments of
// the current version; comments of archived versions are served from the
// frozen snapshot.
type CommentService struct {
	repo     CommentRepository
	mockups  MockupRepository
	archive  *VersionService
	newID    idgen.Generator
	newToken idgen.Generator
	locks    *keyedMutex
	now      func() time.Time
	log      *zap.Logger
}

// NewComment is the viewer input for a comment. When AuthorToken is empty
// a fresh token is generated and returned on the stored comment.
type NewComment struct {
	models.Position
	Body        string
	AuthorName  string
	AuthorToken string
}

// Add stores a comment on the mockup's current version, unresolved.
func (s *CommentService) Add(ctx context.Context, mockupID string, in NewComment) (*models.Comment, error) {
	body := strings.TrimSpace(in.Body)
	author := strings.TrimSpace(in.AuthorName)
	if body == "" || author == "" {
		return nil, fmt.Errorf("%w: body and author name are required", models.ErrInvalidInput)
	}
	token := in.AuthorToken
	if token == "" {
		token = s.newToken()
	}

	unlock := s.locks.Lock(mockupID)
	defer unlock()

	c := &models.Comment{
		MockupID:    mockupID,
		Position:    in.Position,
		Body:        body,
		AuthorName:  author,
		AuthorToken: token,
		CreatedAt:   s.now().UTC().Truncate(time.Millisecond),
	}
	var err error
	for attempt := 1; attempt <= maxIDAttempts; attempt++ {
		c.ID = s.newID()
		if err = s.repo.Add(ctx, c); !errors.Is(err, models.ErrDuplicateID) {
			break
		}
	}
	if err != nil {
		return nil, storageErr("add comment", err)
	}
	s.log.Debug("comment added", zap.String("mockup_id", mockupID),
		zap.String("comment_id", c.ID), zap.Int("version", c.VersionNumber))
	return c, nil
}

// List returns the comments of a version in creation order. Version 0
// selects the current version. Past versions are answered from their
// snapshot, never from the live ledger.
func (s *CommentService) List(ctx context.Context, mockupID string, version int) ([]models.Comment, error) {
	m, err := s.mockups.Get(ctx, mockupID)
	if err != nil {
		return nil, storageErr("get mockup", err)
	}

	if version == 0 || version == m.CurrentVersion {
		list, err := s.repo.List(ctx, mockupID, m.CurrentVersion)
		if err != nil {
			return nil, storageErr("list comments", err)
		}
		return list, nil
	}
	if version > m.CurrentVersion {
		return nil, fmt.Errorf("version %d: %w", version, models.ErrNotFound)
	}

	snap, err := s.archive.Get(ctx, mockupID, version)
	if err != nil {
		return nil, err
	}
	if snap.Comments == nil {
		return []models.Comment{}, nil
	}
	return snap.Comments, nil
}

// Edit replaces a comment's body. Only the holder of the comment's author
// token may edit it.
func (s *CommentService) Edit(ctx context.Context, mockupID, commentID, body, authorToken string) (*models.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("%w: body is required", models.ErrInvalidInput)
	}

	unlock := s.locks.Lock(mockupID)
	defer unlock()

	c, err := s.repo.Get(ctx, mockupID, commentID)
	if err != nil {
		return nil, storageErr("get comment", err)
	}
	if !tokenMatches(c.AuthorToken, authorToken) {
		return nil, models.ErrForbidden
	}
	if err := s.repo.UpdateBody(ctx, mockupID, commentID, body); err != nil {
		return nil, storageErr("edit comment", err)
	}
	c.Body = body
	return c, nil
}

// Resolve sets the resolved flag. Callers must already have established
// that the requester is the designer.
func (s *CommentService) Resolve(ctx context.Context, mockupID, commentID string, resolved bool) error {
	unlock := s.locks.Lock(mockupID)
	defer unlock()

	if err := s.repo.SetResolved(ctx, mockupID, commentID, resolved); err != nil {
		return storageErr("resolve comment", err)
	}
	return nil
}

// Remove deletes a comment. The designer may remove any comment; anyone
// else needs the comment's author token.
func (s *CommentService) Remove(ctx context.Context, mockupID, commentID, authorToken string, designer bool) error {
	unlock := s.locks.Lock(mockupID)
	defer unlock()

	if !designer {
		c, err := s.repo.Get(ctx, mockupID, commentID)
		if err != nil {
			return storageErr("get comment", err)
		}
		if !tokenMatches(c.AuthorToken, authorToken) {
			return models.ErrForbidden
		}
	}
	if err := s.repo.Delete(ctx, mockupID, commentID); err != nil {
		return storageErr("remove comment", err)
	}
	return nil
}

// RemoveAll clears the live ledger of a mockup. Designer only.
func (s *CommentService) RemoveAll(ctx context.Context, mockupID string) (int64, error) {
	unlock := s.locks.Lock(mockupID)
	defer unlock()

	if _, err := s.mockups.Get(ctx, mockupID); err != nil {
		return 0, storageErr("get mockup", err)
	}
	n, err := s.repo.DeleteAll(ctx, mockupID)
	if err != nil {
		return 0, storageErr("remove comments", err)
	}
	s.log.Info("comments cleared", zap.String("mockup_id", mockupID), zap.Int64("removed", n))
	return n, nil
}

// tokenMatches compares author tokens in constant time. An empty presented
// token never matches.
func tokenMatches(stored, presented string) bool {
	if presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}
