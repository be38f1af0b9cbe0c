package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ServiceConfig configures the in-memory cache service.
type ServiceConfig struct {
	Name            string        // Label used in log lines (default: "cache")
	Capacity        int           // Maximum number of entries (default: 1000)
	DefaultTTL      time.Duration // TTL applied when Set gets ttl <= 0 (default: 5 minutes)
	CleanupInterval time.Duration // Interval for expired entry sweeps (default: 1 minute)
}

// DefaultServiceConfig returns default cache service configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Name:            "cache",
		Capacity:        defaultCapacity,
		DefaultTTL:      defaultTTL,
		CleanupInterval: time.Minute,
	}
}

// Service implements CacheService over an LRUCache and sweeps expired
// entries in the background until Close is called.
type Service struct {
	name string
	lru  *LRUCache

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService creates a cache service and starts its cleanup loop.
func NewService(cfg ServiceConfig) *Service {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}
	if cfg.Name == "" {
		cfg.Name = "cache"
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		name:   cfg.Name,
		lru:    NewLRUCache(cfg.Capacity, cfg.DefaultTTL),
		cancel: cancel,
	}

	s.wg.Add(1)
	go s.cleanupLoop(ctx, cfg.CleanupInterval)

	return s
}

// Close stops the cleanup loop.
func (s *Service) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *Service) Get(_ context.Context, key string) ([]byte, bool) {
	return s.lru.Get(key)
}

func (s *Service) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.lru.Set(key, value, ttl)
	return nil
}

// Size returns the number of entries in the cache.
func (s *Service) Size() int {
	return s.lru.Size()
}

// Stats returns a snapshot of the cache counters.
func (s *Service) Stats() Stats {
	return s.lru.Stats()
}

func (s *Service) cleanupLoop(ctx context.Context, interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := s.lru.CleanupExpired()
			if removed == 0 {
				continue
			}
			stats := s.lru.Stats()
			slog.Debug("cache cleanup removed expired entries",
				"cache", s.name,
				"count", removed,
				"size", stats.Size,
				"evictions", stats.Evictions,
			)
		}
	}
}

// Ensure Service implements CacheService
var _ CacheService = (*Service)(nil)
