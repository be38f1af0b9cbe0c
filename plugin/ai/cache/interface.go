// Package cache provides bounded key/value caches with per-entry TTL.
// The session store keeps serialized sessions here.
package cache

import (
	"context"
	"time"
)

// CacheService defines the cache service interface.
type CacheService interface {
	// Get retrieves a value from cache.
	// Returns: value, whether it exists
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores a value in cache.
	// ttl <= 0 uses the implementation's default TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Stats is a point-in-time view of cache behaviour.
type Stats struct {
	Size        int    `json:"size"`
	Capacity    int    `json:"capacity"`
	Hits        uint64 `json:"hits"`
	Misses      uint64 `json:"misses"`
	Evictions   uint64 `json:"evictions"`
	Expirations uint64 `json:"expirations"`
}
