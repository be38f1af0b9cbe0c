package metrics

import (
	"context"
	"sync"
	"time"
)

// MockMetricsService records every call for assertions in tests.
type MockMetricsService struct {
	mu         sync.RWMutex
	operations []Record
	calls      []Record
}

// Record is one recorded metric.
type Record struct {
	Name    string
	Latency time.Duration
	Success bool
}

// NewMockMetricsService creates a new MockMetricsService.
func NewMockMetricsService() *MockMetricsService {
	return &MockMetricsService{}
}

func (m *MockMetricsService) RecordOperation(_ context.Context, op string, latency time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operations = append(m.operations, Record{Name: op, Latency: latency, Success: success})
}

func (m *MockMetricsService) RecordCall(_ context.Context, name string, latency time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Record{Name: name, Latency: latency, Success: success})
}

// Overview aggregates the recorded metrics with a fresh Aggregator.
func (m *MockMetricsService) Overview(_ context.Context, _ time.Duration) *Overview {
	m.mu.RLock()
	defer m.mu.RUnlock()
	agg := NewAggregator()
	for _, r := range m.operations {
		agg.RecordOperation(r.Name, r.Latency, r.Success)
	}
	for _, r := range m.calls {
		agg.RecordCall(r.Name, r.Latency, r.Success)
	}
	return agg.Stats(time.Now().Add(-time.Hour))
}

// Operations returns the recorded operations in order.
func (m *MockMetricsService) Operations() []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Record(nil), m.operations...)
}

// Calls returns the recorded outbound calls in order.
func (m *MockMetricsService) Calls() []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Record(nil), m.calls...)
}

var _ MetricsService = (*MockMetricsService)(nil)
