package metrics

import (
	"sort"
	"sync"
	"time"
)

// Aggregator aggregates metrics in memory, bucketed by hour.
type Aggregator struct {
	mu  sync.RWMutex
	now func() time.Time

	// Operation metrics: key = "hourBucket|op"
	opMetrics map[string]*opBucket

	// Call metrics: key = "hourBucket|name"
	callMetrics map[string]*callBucket
}

type opBucket struct {
	hourBucket   time.Time
	op           string
	requestCount int64
	successCount int64
	latencies    []int64 // in milliseconds
}

type callBucket struct {
	hourBucket   time.Time
	name         string
	callCount    int64
	successCount int64
	latencySum   int64 // in milliseconds
}

// NewAggregator creates a new metrics aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		now:         time.Now,
		opMetrics:   make(map[string]*opBucket),
		callMetrics: make(map[string]*callBucket),
	}
}

// RecordOperation records a single pipeline operation.
func (a *Aggregator) RecordOperation(op string, latency time.Duration, success bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	hourBucket := truncateToHour(a.now())
	key := makeKey(hourBucket, op)

	bucket, exists := a.opMetrics[key]
	if !exists {
		bucket = &opBucket{
			hourBucket: hourBucket,
			op:         op,
			latencies:  make([]int64, 0, 100),
		}
		a.opMetrics[key] = bucket
	}

	bucket.requestCount++
	if success {
		bucket.successCount++
	}
	bucket.latencies = append(bucket.latencies, latency.Milliseconds())
}

// RecordCall records a single outbound call.
func (a *Aggregator) RecordCall(name string, latency time.Duration, success bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	hourBucket := truncateToHour(a.now())
	key := makeKey(hourBucket, name)

	bucket, exists := a.callMetrics[key]
	if !exists {
		bucket = &callBucket{
			hourBucket: hourBucket,
			name:       name,
		}
		a.callMetrics[key] = bucket
	}

	bucket.callCount++
	if success {
		bucket.successCount++
	}
	bucket.latencySum += latency.Milliseconds()
}

// Prune drops all buckets that started before the hour containing before.
// Returns the number of dropped buckets.
func (a *Aggregator) Prune(before time.Time) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	cutoff := truncateToHour(before)
	dropped := 0
	for key, bucket := range a.opMetrics {
		if bucket.hourBucket.Before(cutoff) {
			delete(a.opMetrics, key)
			dropped++
		}
	}
	for key, bucket := range a.callMetrics {
		if bucket.hourBucket.Before(cutoff) {
			delete(a.callMetrics, key)
			dropped++
		}
	}
	return dropped
}

// Stats aggregates every bucket from the hour containing since onwards.
func (a *Aggregator) Stats(since time.Time) *Overview {
	a.mu.RLock()
	defer a.mu.RUnlock()

	windowStart := truncateToHour(since)
	overview := &Overview{
		WindowStart: windowStart,
		Operations:  make(map[string]*OperationStat),
		Calls:       make(map[string]*CallStat),
	}

	allLatencies := make([]int64, 0)
	opLatencies := make(map[string][]int64)
	opSuccess := make(map[string]int64)
	for _, bucket := range a.opMetrics {
		if bucket.hourBucket.Before(windowStart) {
			continue
		}
		overview.RequestCount += bucket.requestCount
		overview.SuccessCount += bucket.successCount
		allLatencies = append(allLatencies, bucket.latencies...)

		stat, exists := overview.Operations[bucket.op]
		if !exists {
			stat = &OperationStat{}
			overview.Operations[bucket.op] = stat
		}
		stat.Count += bucket.requestCount
		opSuccess[bucket.op] += bucket.successCount
		opLatencies[bucket.op] = append(opLatencies[bucket.op], bucket.latencies...)
	}
	for op, stat := range overview.Operations {
		latencies := opLatencies[op]
		if stat.Count > 0 {
			stat.SuccessRate = float32(opSuccess[op]) / float32(stat.Count)
			stat.AvgLatencyMs = sumLatencies(latencies) / stat.Count
		}
		stat.LatencyP50Ms = percentile(latencies, 50)
		stat.LatencyP95Ms = percentile(latencies, 95)
	}

	callSuccess := make(map[string]int64)
	callLatency := make(map[string]int64)
	for _, bucket := range a.callMetrics {
		if bucket.hourBucket.Before(windowStart) {
			continue
		}
		stat, exists := overview.Calls[bucket.name]
		if !exists {
			stat = &CallStat{}
			overview.Calls[bucket.name] = stat
		}
		stat.Count += bucket.callCount
		callSuccess[bucket.name] += bucket.successCount
		callLatency[bucket.name] += bucket.latencySum
	}
	for name, stat := range overview.Calls {
		if stat.Count > 0 {
			stat.SuccessRate = float32(callSuccess[name]) / float32(stat.Count)
			stat.AvgLatencyMs = callLatency[name] / stat.Count
		}
	}

	if overview.RequestCount > 0 {
		overview.SuccessRate = float32(overview.SuccessCount) / float32(overview.RequestCount)
	}
	overview.LatencyP50Ms = percentile(allLatencies, 50)
	overview.LatencyP95Ms = percentile(allLatencies, 95)

	return overview
}

// Helper functions

func truncateToHour(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}

func makeKey(hourBucket time.Time, name string) string {
	return hourBucket.Format(time.RFC3339) + "|" + name
}

func sumLatencies(latencies []int64) int64 {
	var sum int64
	for _, l := range latencies {
		sum += l
	}
	return sum
}

func percentile(latencies []int64, p int) int64 {
	if len(latencies) == 0 {
		return 0
	}

	sorted := make([]int64, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := (len(sorted) - 1) * p / 100
	return sorted[idx]
}
