package metrics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregator_RecordOperation(t *testing.T) {
	t.Run("SingleRequest", func(t *testing.T) {
		agg := NewAggregator()
		agg.RecordOperation(OpClassify, 100*time.Millisecond, true)

		stats := agg.Stats(time.Now())
		assert.Equal(t, int64(1), stats.RequestCount)
		assert.Equal(t, int64(1), stats.SuccessCount)
		require.Contains(t, stats.Operations, OpClassify)
		assert.Equal(t, int64(1), stats.Operations[OpClassify].Count)
		assert.Equal(t, float32(1.0), stats.Operations[OpClassify].SuccessRate)
		assert.Equal(t, int64(100), stats.Operations[OpClassify].AvgLatencyMs)
	})

	t.Run("MultipleRequests", func(t *testing.T) {
		agg := NewAggregator()
		agg.RecordOperation(OpPlan, 50*time.Millisecond, true)
		agg.RecordOperation(OpPlan, 150*time.Millisecond, true)
		agg.RecordOperation(OpPlan, 200*time.Millisecond, false)

		stats := agg.Stats(time.Now())
		assert.Equal(t, int64(3), stats.RequestCount)
		assert.Equal(t, int64(2), stats.SuccessCount)

		planStat := stats.Operations[OpPlan]
		require.NotNil(t, planStat)
		assert.Equal(t, int64(3), planStat.Count)
		assert.InDelta(t, 0.666, planStat.SuccessRate, 0.01)
		assert.Equal(t, int64(133), planStat.AvgLatencyMs)
	})
}

func TestAggregator_RecordCall(t *testing.T) {
	agg := NewAggregator()

	agg.RecordCall("github.search", 30*time.Millisecond, true)
	agg.RecordCall("github.search", 40*time.Millisecond, false)
	agg.RecordCall("model", 100*time.Millisecond, true)

	// Calls are separate from operation totals
	stats := agg.Stats(time.Now())
	assert.Equal(t, int64(0), stats.RequestCount)
	require.Contains(t, stats.Calls, "github.search")
	assert.Equal(t, int64(2), stats.Calls["github.search"].Count)
	assert.InDelta(t, 0.5, stats.Calls["github.search"].SuccessRate, 0.001)
	assert.Equal(t, int64(35), stats.Calls["github.search"].AvgLatencyMs)
}

func TestAggregator_Percentiles(t *testing.T) {
	agg := NewAggregator()

	for i := 1; i <= 100; i++ {
		agg.RecordOperation(OpDeepAnalysis, time.Duration(i)*time.Millisecond, true)
	}

	stats := agg.Stats(time.Now())
	assert.InDelta(t, 50, stats.LatencyP50Ms, 5)
	assert.InDelta(t, 95, stats.LatencyP95Ms, 5)
	assert.InDelta(t, 95, stats.Operations[OpDeepAnalysis].LatencyP95Ms, 5)
}

func TestAggregator_WindowAndPrune(t *testing.T) {
	agg := NewAggregator()
	now := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	agg.now = func() time.Time { return now.Add(-3 * time.Hour) }
	agg.RecordOperation(OpSummarize, time.Millisecond, true)
	agg.RecordCall("slack", time.Millisecond, true)
	agg.now = func() time.Time { return now }
	agg.RecordOperation(OpSummarize, time.Millisecond, false)

	recent := agg.Stats(now.Add(-time.Hour))
	assert.Equal(t, int64(1), recent.RequestCount)
	assert.Empty(t, recent.Calls)

	all := agg.Stats(now.Add(-4 * time.Hour))
	assert.Equal(t, int64(2), all.RequestCount)

	assert.Equal(t, 2, agg.Prune(now.Add(-time.Hour)))
	assert.Equal(t, int64(1), agg.Stats(now.Add(-4*time.Hour)).RequestCount)
}

func TestAggregator_ConcurrentAccess(t *testing.T) {
	agg := NewAggregator()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			agg.RecordOperation(OpClassify, 10*time.Millisecond, true)
		}()
		go func() {
			defer wg.Done()
			agg.RecordCall("model", 5*time.Millisecond, true)
		}()
	}

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = agg.Stats(time.Now())
		}()
	}

	wg.Wait()

	stats := agg.Stats(time.Now())
	assert.Equal(t, int64(100), stats.RequestCount)
	assert.Equal(t, int64(100), stats.Calls["model"].Count)
}

func TestService_RecordAndOverview(t *testing.T) {
	svc := NewService(DefaultServiceConfig())
	defer svc.Close()

	ctx := context.Background()
	svc.RecordOperation(ctx, OpClassify, 100*time.Millisecond, true)
	svc.RecordOperation(ctx, OpClassify, 200*time.Millisecond, false)
	svc.RecordCall(ctx, "github.tree", 20*time.Millisecond, true)

	overview := svc.Overview(ctx, time.Hour)
	assert.Equal(t, int64(2), overview.RequestCount)
	assert.InDelta(t, 0.5, overview.SuccessRate, 0.001)
	assert.Equal(t, int64(1), overview.Calls["github.tree"].Count)

	// A zero window falls back to the retention period.
	assert.Equal(t, int64(2), svc.Overview(ctx, 0).RequestCount)
}

func TestObserve(t *testing.T) {
	ctx := context.Background()
	mock := NewMockMetricsService()

	Observe(ctx, mock, OpPlan, time.Now(), nil)
	Observe(ctx, mock, OpPlan, time.Now(), errors.New("boom"))
	ObserveCall(ctx, mock, "model", time.Now(), nil)
	Observe(ctx, nil, OpPlan, time.Now(), nil)

	ops := mock.Operations()
	require.Len(t, ops, 2)
	assert.True(t, ops[0].Success)
	assert.False(t, ops[1].Success)
	require.Len(t, mock.Calls(), 1)

	overview := mock.Overview(ctx, time.Hour)
	assert.Equal(t, int64(2), overview.RequestCount)
}
