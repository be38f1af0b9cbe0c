package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultRetention is how long buckets are kept in memory.
	DefaultRetention = 24 * time.Hour
	// DefaultPruneInterval is the interval between prune runs.
	DefaultPruneInterval = 10 * time.Minute
)

// ServiceConfig holds configuration for the metrics service.
type ServiceConfig struct {
	Retention     time.Duration
	PruneInterval time.Duration
}

// DefaultServiceConfig returns the default configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Retention:     DefaultRetention,
		PruneInterval: DefaultPruneInterval,
	}
}

// Service implements MetricsService over an Aggregator and prunes buckets
// older than the retention window in the background.
type Service struct {
	aggregator *Aggregator
	retention  time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService creates a metrics service and starts its prune loop.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}
	if cfg.PruneInterval <= 0 {
		cfg.PruneInterval = DefaultPruneInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	svc := &Service{
		aggregator: NewAggregator(),
		retention:  cfg.Retention,
		cancel:     cancel,
	}

	svc.wg.Add(1)
	go svc.pruneLoop(ctx, cfg.PruneInterval)

	return svc
}

// Close stops the prune loop.
func (s *Service) Close() {
	s.cancel()
	s.wg.Wait()
}

// RecordOperation records a pipeline operation metric.
func (s *Service) RecordOperation(_ context.Context, op string, latency time.Duration, success bool) {
	s.aggregator.RecordOperation(op, latency, success)
}

// RecordCall records an outbound call metric.
func (s *Service) RecordCall(_ context.Context, name string, latency time.Duration, success bool) {
	s.aggregator.RecordCall(name, latency, success)
}

// Overview aggregates metrics within window, capped at the retention period.
func (s *Service) Overview(_ context.Context, window time.Duration) *Overview {
	if window <= 0 || window > s.retention {
		window = s.retention
	}
	return s.aggregator.Stats(s.aggregator.now().Add(-window))
}

func (s *Service) pruneLoop(ctx context.Context, interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if dropped := s.aggregator.Prune(s.aggregator.now().Add(-s.retention)); dropped > 0 {
				slog.Debug("metrics prune dropped buckets", "count", dropped)
			}
		}
	}
}

// Ensure Service implements MetricsService
var _ MetricsService = (*Service)(nil)
