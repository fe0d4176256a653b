// Package cache holds the Redis-backed cache for availability
// estimates.  Estimates are display-only and allowed to be stale
// (reservation writes re-check under a row lock anyway), so every
// cache failure degrades to a database read and is never surfaced.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// AvailabilityCache stores aggregate availability per variant,
// channel and destination country with a short TTL.  A nil Redis
// client disables the cache: Get always misses and Set is a no-op.
type AvailabilityCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewAvailabilityCache returns a cache over the given client.
func NewAvailabilityCache(rdb *redis.Client, ttl time.Duration) *AvailabilityCache {
	return &AvailabilityCache{rdb: rdb, ttl: ttl}
}

func key(variantID uint64, channel, country string) string {
	return fmt.Sprintf("avail:%s:%d:%s", channel, variantID, country)
}

// Get returns the cached estimate and whether one was present.
func (c *AvailabilityCache) Get(ctx context.Context, variantID uint64, channel, country string) (int, bool) {
	if c == nil || c.rdb == nil {
		return 0, false
	}
	v, err := c.rdb.Get(ctx, key(variantID, channel, country)).Result()
	if err != nil {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Set stores an estimate for the configured TTL.
func (c *AvailabilityCache) Set(ctx context.Context, variantID uint64, channel, country string, available int) {
	if c == nil || c.rdb == nil {
		return
	}
	_ = c.rdb.Set(ctx, key(variantID, channel, country), strconv.Itoa(available), c.ttl).Err()
}
