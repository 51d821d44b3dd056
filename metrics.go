package qgrover

import (
	"sort"
	"sync"
	"time"
)

// Metrics tracks pool and sweep activity
type Metrics struct {
	mu                 sync.RWMutex
	WorkerCount        int
	JobQueueSize       int
	SchedulingFailures int64

	BatchCount        int64
	IncompleteBatches int64
	TrialCount        int64
	TotalBatchTime    time.Duration

	AverageBatchLatency time.Duration
	P95BatchLatency     time.Duration
	P99BatchLatency     time.Duration

	latencies  []time.Duration
	windowSize int
}

func NewMetrics() *Metrics {
	return &Metrics{
		latencies:  make([]time.Duration, 0, 1000), // Store last 1000 measurements
		windowSize: 1000,
	}
}

func (m *Metrics) recordBatch(startTime time.Time, stats AggregateStats) {
	duration := time.Since(startTime)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.BatchCount++
	m.TotalBatchTime += duration
	if stats.Complete {
		m.TrialCount += int64(stats.Trials)
	} else {
		m.IncompleteBatches++
	}

	m.updateLatencyPercentiles(duration)
}

func (m *Metrics) recordSchedulingFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SchedulingFailures++
}

func (m *Metrics) updateLatencyPercentiles(duration time.Duration) {
	m.AverageBatchLatency = (m.AverageBatchLatency*time.Duration(m.BatchCount-1) + duration) / time.Duration(m.BatchCount)

	m.latencies = append(m.latencies, duration)
	if len(m.latencies) > m.windowSize {
		m.latencies = m.latencies[1:]
	}

	sorted := append([]time.Duration(nil), m.latencies...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	p95Index := min(int(float64(len(sorted))*0.95), len(sorted)-1)
	p99Index := min(int(float64(len(sorted))*0.99), len(sorted)-1)
	m.P95BatchLatency = sorted[p95Index]
	m.P99BatchLatency = sorted[p99Index]
}

// ExportMetrics returns a snapshot suitable for logging
func (m *Metrics) ExportMetrics() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"worker_count":        m.WorkerCount,
		"queue_size":          m.JobQueueSize,
		"scheduling_failures": m.SchedulingFailures,
		"batches":             m.BatchCount,
		"incomplete_batches":  m.IncompleteBatches,
		"trials":              m.TrialCount,
		"avg_batch_latency":   m.AverageBatchLatency.Milliseconds(),
		"p95_batch_latency":   m.P95BatchLatency.Milliseconds(),
		"p99_batch_latency":   m.P99BatchLatency.Milliseconds(),
	}
}
