// Package metrics aggregates latency and success of pipeline operations and
// their outbound calls in hourly in-memory buckets.
package metrics

import (
	"context"
	"time"
)

// Pipeline operations.
const (
	OpClassify     = "classify"
	OpPlan         = "plan"
	OpDeepAnalysis = "deep_analysis"
	OpSummarize    = "summarize"
)

// MetricsService defines the metrics service interface.
type MetricsService interface {
	// RecordOperation records one pipeline operation (classify, plan, ...).
	RecordOperation(ctx context.Context, op string, latency time.Duration, success bool)

	// RecordCall records one outbound call (model, github, slack).
	RecordCall(ctx context.Context, name string, latency time.Duration, success bool)

	// Overview aggregates everything recorded within window.
	Overview(ctx context.Context, window time.Duration) *Overview
}

// Overview is the aggregated view served by the metrics endpoint.
type Overview struct {
	WindowStart  time.Time                 `json:"window_start"`
	RequestCount int64                     `json:"request_count"`
	SuccessCount int64                     `json:"success_count"`
	SuccessRate  float32                   `json:"success_rate"`
	LatencyP50Ms int64                     `json:"latency_p50_ms"`
	LatencyP95Ms int64                     `json:"latency_p95_ms"`
	Operations   map[string]*OperationStat `json:"operations"`
	Calls        map[string]*CallStat      `json:"calls"`
}

// OperationStat represents statistics for a single pipeline operation.
type OperationStat struct {
	Count        int64   `json:"count"`
	SuccessRate  float32 `json:"success_rate"`
	AvgLatencyMs int64   `json:"avg_latency_ms"`
	LatencyP50Ms int64   `json:"latency_p50_ms"`
	LatencyP95Ms int64   `json:"latency_p95_ms"`
}

// CallStat represents statistics for a single outbound call kind.
type CallStat struct {
	Count        int64   `json:"count"`
	SuccessRate  float32 `json:"success_rate"`
	AvgLatencyMs int64   `json:"avg_latency_ms"`
}

// Observe records op with the latency since start; err == nil counts as success.
// A nil svc is ignored.
func Observe(ctx context.Context, svc MetricsService, op string, start time.Time, err error) {
	if svc == nil {
		return
	}
	svc.RecordOperation(ctx, op, time.Since(start), err == nil)
}

// ObserveCall is Observe for outbound calls.
func ObserveCall(ctx context.Context, svc MetricsService, name string, start time.Time, err error) {
	if svc == nil {
		return
	}
	svc.RecordCall(ctx, name, time.Since(start), err == nil)
}
