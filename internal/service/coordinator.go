package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/mockshare/internal/idgen"
	"github.com/atinyakov/mockshare/internal/models"
)

// Coordinator performs the version cut: Editing(v) -> Editing(v+1).
type Coordinator struct {
	versions VersionRepository
	cache    SnapshotCache
	newID    idgen.Generator
	locks    *keyedMutex
	now      func() time.Time
	log      *zap.Logger
}

// Cut archives the current content and comments of a mockup as version v
// and makes v+1 the live version with the same content and an empty
// comment ledger. Concurrent cuts of one mockup run one after another.
func (c *Coordinator) Cut(ctx context.Context, mockupID string) (*models.CutResult, error) {
	unlock := c.locks.Lock(mockupID)
	defer unlock()

	var (
		snap *models.VersionSnapshot
		err  error
	)
	for attempt := 1; attempt <= maxIDAttempts; attempt++ {
		snap, err = c.versions.Cut(ctx, mockupID, c.newID(), c.now().UTC())
		if !errors.Is(err, models.ErrDuplicateID) {
			break
		}
	}
	if err != nil {
		if !models.IsDomainError(err) {
			c.log.Error("failed to cut version", zap.String("mockup_id", mockupID), zap.Error(err))
		}
		return nil, storageErr("cut version", err)
	}

	if err := c.cache.Set(ctx, snap); err != nil {
		c.log.Warn("snapshot cache write failed", zap.String("mockup_id", mockupID), zap.Error(err))
	}

	res := &models.CutResult{
		PreviousVersion: snap.VersionNumber,
		NewVersion:      snap.VersionNumber + 1,
	}
	c.log.Info("version cut",
		zap.String("mockup_id", mockupID),
		zap.Int("archived", res.PreviousVersion),
		zap.Int("current", res.NewVersion),
		zap.Int("comments", len(snap.Comments)),
	)
	return res, nil
}
