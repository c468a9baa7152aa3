package service

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/atinyakov/mockshare/internal/models"
)

// VersionService is the version archive: read-only access to immutable
// snapshots plus guarded deletion of past versions.
type VersionService struct {
	mockups  MockupRepository
	versions VersionRepository
	cache    SnapshotCache
	locks    *keyedMutex
	log      *zap.Logger
}

// Get returns the snapshot of a past version, served from the cache when
// possible.
func (s *VersionService) Get(ctx context.Context, mockupID string, version int) (*models.VersionSnapshot, error) {
	if version < models.FirstVersion {
		return nil, fmt.Errorf("version %d: %w", version, models.ErrNotFound)
	}

	snap, ok, err := s.cache.Get(ctx, mockupID, version)
	if err != nil {
		s.log.Warn("snapshot cache read failed", zap.String("mockup_id", mockupID), zap.Error(err))
	}
	if ok {
		return snap, nil
	}

	// Delete holds the same lock, so a removed snapshot is never re-cached.
	unlock := s.locks.Lock(mockupID)
	defer unlock()

	snap, err = s.versions.Get(ctx, mockupID, version)
	if err != nil {
		return nil, storageErr("get snapshot", err)
	}
	if err := s.cache.Set(ctx, snap); err != nil {
		s.log.Warn("snapshot cache write failed", zap.String("mockup_id", mockupID), zap.Error(err))
	}
	return snap, nil
}

// List returns the version history of a mockup. The live version is
// synthesized from the mockup itself and marked Current; it is never an
// archive row.
func (s *VersionService) List(ctx context.Context, mockupID string, descending bool) ([]models.VersionSummary, error) {
	m, err := s.mockups.Get(ctx, mockupID)
	if err != nil {
		return nil, storageErr("get mockup", err)
	}
	archived, err := s.versions.List(ctx, mockupID)
	if err != nil {
		return nil, storageErr("list versions", err)
	}

	list := append(archived, models.VersionSummary{
		VersionNumber: m.CurrentVersion,
		CreatedAt:     m.VersionStartedAt,
		Current:       true,
	})
	if descending {
		slices.Reverse(list)
	}
	return list, nil
}

// Delete removes a past version. The live version and anything after it
// are rejected with models.ErrCannotDeleteCurrent.
func (s *VersionService) Delete(ctx context.Context, mockupID string, version int) error {
	unlock := s.locks.Lock(mockupID)
	defer unlock()

	if err := s.versions.Delete(ctx, mockupID, version); err != nil {
		return storageErr("delete version", err)
	}
	if err := s.cache.Invalidate(ctx, mockupID, version); err != nil {
		s.log.Warn("failed to invalidate snapshot cache", zap.String("mockup_id", mockupID), zap.Error(err))
	}
	s.log.Info("version deleted", zap.String("mockup_id", mockupID), zap.Int("version", version))
	return nil
}
