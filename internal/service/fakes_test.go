package service_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/atinyakov/mockshare/internal/models"
)

type fakeCache struct {
	mu                 sync.Mutex
	entries            map[string]*models.VersionSnapshot
	hits               int
	invalidated        []string
	invalidatedMockups []string
	failWrites         bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]*models.VersionSnapshot)}
}

func cacheKey(mockupID string, version int) string {
	return fmt.Sprintf("%s/%d", mockupID, version)
}

func (c *fakeCache) Get(_ context.Context, mockupID string, version int) (*models.VersionSnapshot, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap, ok := c.entries[cacheKey(mockupID, version)]
	if ok {
		c.hits++
	}
	return snap, ok, nil
}

func (c *fakeCache) Set(_ context.Context, snap *models.VersionSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWrites {
		return fmt.Errorf("redis down")
	}
	c.entries[cacheKey(snap.MockupID, snap.VersionNumber)] = snap
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, mockupID string, version int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey(mockupID, version))
	c.invalidated = append(c.invalidated, cacheKey(mockupID, version))
	return nil
}

func (c *fakeCache) InvalidateMockup(_ context.Context, mockupID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, snap := range c.entries {
		if snap.MockupID == mockupID {
			delete(c.entries, k)
		}
	}
	c.invalidatedMockups = append(c.invalidatedMockups, mockupID)
	return nil
}

// stubMockupRepo fails every call with err.
type stubMockupRepo struct {
	err error
}

func (s *stubMockupRepo) Create(context.Context, *models.Mockup) error { return s.err }
func (s *stubMockupRepo) Get(context.Context, string) (*models.Mockup, error) {
	return nil, s.err
}
func (s *stubMockupRepo) List(context.Context) ([]models.MockupSummary, error) {
	return nil, s.err
}
func (s *stubMockupRepo) Update(context.Context, string, models.MockupUpdate) error { return s.err }
func (s *stubMockupRepo) IncrementViews(context.Context, string) (int64, error) {
	return 0, s.err
}
func (s *stubMockupRepo) Delete(context.Context, string) error { return s.err }

type nopGate struct{}

func (nopGate) Hash(p string) (string, error) { return p, nil }
func (nopGate) Verify(p, d string) bool       { return p == d }
