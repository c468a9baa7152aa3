// Package cache keeps archived version snapshots in Redis. Snapshots never
// change once written, so a cached entry is valid until the version or the
// whole mockup is deleted.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/atinyakov/mockshare/internal/models"
)

const keyPrefix = "mockshare:snapshots:"

// SnapshotCache stores snapshots in one Redis hash per mockup, keyed by
// version number.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotCache wraps an existing client. A zero ttl disables expiry.
func NewSnapshotCache(client *redis.Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{client: client, ttl: ttl}
}

// Connect dials addr and verifies the server answers.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

func key(mockupID string) string {
	return keyPrefix + mockupID
}

// Get returns the cached snapshot, or ok=false on a miss.
func (c *SnapshotCache) Get(ctx context.Context, mockupID string, version int) (*models.VersionSnapshot, bool, error) {
	raw, err := c.client.HGet(ctx, key(mockupID), strconv.Itoa(version)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	var snap models.VersionSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, false, fmt.Errorf("cache decode: %w", err)
	}
	return &snap, true, nil
}

// Set stores a snapshot and refreshes the expiry of the mockup's hash.
func (c *SnapshotCache) Set(ctx context.Context, snap *models.VersionSnapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	k := key(snap.MockupID)
	_, err = c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, k, strconv.Itoa(snap.VersionNumber), raw)
		if c.ttl > 0 {
			p.Expire(ctx, k, c.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Invalidate drops a single version.
func (c *SnapshotCache) Invalidate(ctx context.Context, mockupID string, version int) error {
	if err := c.client.HDel(ctx, key(mockupID), strconv.Itoa(version)).Err(); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}

// InvalidateMockup drops every cached version of a mockup.
func (c *SnapshotCache) InvalidateMockup(ctx context.Context, mockupID string) error {
	if err := c.client.Del(ctx, key(mockupID)).Err(); err != nil {
		return fmt.Errorf("cache invalidate mockup: %w", err)
	}
	return nil
}
