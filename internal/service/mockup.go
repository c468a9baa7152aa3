package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/mockshare/internal/idgen"
	"github.com/atinyakov/mockshare/internal/models"
)

// maxIDAttempts bounds id regeneration after a storage collision.
const maxIDAttempts = 3

// CurrentVersion is the keyword selecting the live version in a read.
const CurrentVersion = "current"

// MockupService is the mockup store: create, read, edit and delete the live
// mockup record, with reads gated by the optional password.
type MockupService struct {
	repo    MockupRepository
	archive *VersionService
	gate    PasswordGate
	newID   idgen.Generator
	cache   SnapshotCache
	locks   *keyedMutex
	now     func() time.Time
	log     *zap.Logger
}

// UpdateInput is an in-place edit of a mockup. An empty Password keeps the
// existing digest; RemovePassword clears it.
type UpdateInput struct {
	Content        json.RawMessage
	Password       string
	RemovePassword bool
}

// Create stores a new mockup at version 1 with zero views and returns it.
// An empty password leaves the mockup public.
func (s *MockupService) Create(ctx context.Context, content json.RawMessage, password string) (*models.Mockup, error) {
	if err := validContent(content); err != nil {
		return nil, err
	}
	hash, err := s.digest(password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	m := &models.Mockup{
		Content:          content,
		PasswordHash:     hash,
		CurrentVersion:   models.FirstVersion,
		CreatedAt:        now,
		UpdatedAt:        now,
		VersionStartedAt: now,
	}
	for attempt := 1; ; attempt++ {
		m.ID = s.newID()
		err = s.repo.Create(ctx, m)
		if !errors.Is(err, models.ErrDuplicateID) || attempt == maxIDAttempts {
			break
		}
		s.log.Warn("mockup id collision, regenerating", zap.String("id", m.ID))
	}
	if err != nil {
		s.log.Error("failed to create mockup", zap.Error(err))
		return nil, storageErr("create mockup", err)
	}

	s.log.Info("mockup created", zap.String("mockup_id", m.ID), zap.Bool("password", hash != nil))
	return m, nil
}

// Get returns the live mockup without any password check or view count.
func (s *MockupService) Get(ctx context.Context, id string) (*models.Mockup, error) {
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, storageErr("get mockup", err)
	}
	return m, nil
}

// List returns summaries of all mockups for the designer dashboard.
func (s *MockupService) List(ctx context.Context) ([]models.MockupSummary, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, storageErr("list mockups", err)
	}
	return list, nil
}

// Authorize checks a viewer password against the mockup's digest without
// counting a view. A mockup without a digest admits everyone.
func (s *MockupService) Authorize(ctx context.Context, id, password string) (*models.Mockup, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkPassword(m, password); err != nil {
		return nil, err
	}
	return m, nil
}

// Read serves a viewer. It enforces the password, resolves the requested
// version ("" or "current" for the live one, otherwise a version number)
// and counts exactly one view per successful read. Failed reads count
// nothing and reveal no content.
func (s *MockupService) Read(ctx context.Context, id, password, requested string) (*models.ReadResult, error) {
	m, err := s.Authorize(ctx, id, password)
	if err != nil {
		return nil, err
	}

	res := &models.ReadResult{
		Content:        m.Content,
		CurrentVersion: m.CurrentVersion,
		ViewingVersion: m.CurrentVersion,
	}

	version, live, err := parseRequestedVersion(requested, m.CurrentVersion)
	if err != nil {
		return nil, err
	}
	if !live {
		snap, err := s.archive.Get(ctx, id, version)
		if err != nil {
			return nil, err
		}
		res.Content = snap.Content
		res.ViewingVersion = snap.VersionNumber
		res.IsArchived = true
	}

	views, err := s.repo.IncrementViews(ctx, id)
	if err != nil {
		return nil, storageErr("increment views", err)
	}
	res.ViewCount = views
	return res, nil
}

// Update replaces the live content in place. The version number never
// changes here.
func (s *MockupService) Update(ctx context.Context, id string, in UpdateInput) error {
	if err := validContent(in.Content); err != nil {
		return err
	}
	u := models.MockupUpdate{
		Content:       in.Content,
		ClearPassword: in.RemovePassword && in.Password == "",
		UpdatedAt:     s.now().UTC(),
	}
	hash, err := s.digest(in.Password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash

	if err := s.repo.Update(ctx, id, u); err != nil {
		return storageErr("update mockup", err)
	}
	s.log.Debug("mockup updated", zap.String("mockup_id", id),
		zap.Bool("password_set", hash != nil), zap.Bool("password_cleared", u.ClearPassword))
	return nil
}

// Delete removes the mockup together with its versions and comments.
func (s *MockupService) Delete(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	if err := s.repo.Delete(ctx, id); err != nil {
		return storageErr("delete mockup", err)
	}
	if err := s.cache.InvalidateMockup(ctx, id); err != nil {
		s.log.Warn("failed to invalidate snapshot cache", zap.String("mockup_id", id), zap.Error(err))
	}
	s.log.Info("mockup deleted", zap.String("mockup_id", id))
	return nil
}

func (s *MockupService) checkPassword(m *models.Mockup, password string) error {
	if !m.PasswordRequired() {
		return nil
	}
	if password == "" {
		return models.ErrPasswordRequired
	}
	if !s.gate.Verify(password, *m.PasswordHash) {
		return models.ErrInvalidPassword
	}
	return nil
}

func (s *MockupService) digest(password string) (*string, error) {
	if password == "" {
		return nil, nil
	}
	hash, err := s.gate.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	return &hash, nil
}

func validContent(content json.RawMessage) error {
	if len(content) == 0 || !json.Valid(content) {
		return fmt.Errorf("%w: content must be a JSON document", models.ErrInvalidInput)
	}
	return nil
}

// parseRequestedVersion resolves a read target. live is true for the
// current version; otherwise version names a past one.
func parseRequestedVersion(requested string, current int) (version int, live bool, err error) {
	requested = strings.TrimSpace(requested)
	if requested == "" || strings.EqualFold(requested, CurrentVersion) {
		return current, true, nil
	}
	n, err := strconv.Atoi(requested)
	if err != nil {
		return 0, false, fmt.Errorf("%w: version %q", models.ErrInvalidInput, requested)
	}
	if n == current {
		return current, true, nil
	}
	if n < models.FirstVersion || n > current {
		return 0, false, fmt.Errorf("version %d: %w", n, models.ErrNotFound)
	}
	return n, false, nil
}
