package input

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics tracks event processing counts and dispatch latency.
type Metrics struct {
	// Event counters
	keyDowns       atomic.Uint64
	keyUps         atomic.Uint64
	blurs          atomic.Uint64
	candidates     atomic.Uint64
	fires          atomic.Uint64
	gateRejections atomic.Uint64
	handlerErrors  atomic.Uint64

	// Latency tracking
	mu                sync.RWMutex
	latencies         []time.Duration
	maxLatencySamples int
	latencyIdx        int

	// Peak latency (all time)
	peakLatency atomic.Int64

	// Start time for uptime calculation
	startTime time.Time
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{
		latencies:         make([]time.Duration, 256),
		maxLatencySamples: 256,
		startTime:         time.Now(),
	}
}

// RecordDispatch records the time taken to dispatch one key event.
func (m *Metrics) RecordDispatch(latency time.Duration) {
	latencyNs := latency.Nanoseconds()
	for {
		current := m.peakLatency.Load()
		if latencyNs <= current {
			break
		}
		if m.peakLatency.CompareAndSwap(current, latencyNs) {
			break
		}
	}

	// Store in circular buffer
	m.mu.Lock()
	m.latencies[m.latencyIdx] = latency
	m.latencyIdx = (m.latencyIdx + 1) % m.maxLatencySamples
	m.mu.Unlock()
}

// MetricsSnapshot holds a point-in-time view of metrics.
type MetricsSnapshot struct {
	// Counters
	KeyDowns       uint64
	KeyUps         uint64
	Blurs          uint64
	Candidates     uint64
	Fires          uint64
	GateRejections uint64
	HandlerErrors  uint64

	// Latency stats
	AvgLatency  time.Duration
	MaxLatency  time.Duration
	P99Latency  time.Duration
	PeakLatency time.Duration

	// Uptime
	Uptime time.Duration
}

// Snapshot returns a point-in-time view of all metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	latencies := slices.Clone(m.latencies)
	start := m.startTime
	m.mu.RUnlock()

	snap := MetricsSnapshot{
		KeyDowns:       m.keyDowns.Load(),
		KeyUps:         m.keyUps.Load(),
		Blurs:          m.blurs.Load(),
		Candidates:     m.candidates.Load(),
		Fires:          m.fires.Load(),
		GateRejections: m.gateRejections.Load(),
		HandlerErrors:  m.handlerErrors.Load(),
		PeakLatency:    time.Duration(m.peakLatency.Load()),
		Uptime:         time.Since(start),
	}
	snap.AvgLatency, snap.MaxLatency, snap.P99Latency = calculateLatencyStats(latencies)

	return snap
}

// calculateLatencyStats computes average, max, and p99 from a slice of latencies.
func calculateLatencyStats(latencies []time.Duration) (avg, maxLat, p99 time.Duration) {
	valid := slices.DeleteFunc(slices.Clone(latencies), func(l time.Duration) bool {
		return l <= 0
	})
	if len(valid) == 0 {
		return 0, 0, 0
	}

	var sum time.Duration
	for _, l := range valid {
		sum += l
	}
	avg = sum / time.Duration(len(valid))

	slices.Sort(valid)
	maxLat = valid[len(valid)-1]

	idx := int(float64(len(valid)) * 0.99)
	if idx >= len(valid) {
		idx = len(valid) - 1
	}
	p99 = valid[idx]

	return avg, maxLat, p99
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.keyDowns.Store(0)
	m.keyUps.Store(0)
	m.blurs.Store(0)
	m.candidates.Store(0)
	m.fires.Store(0)
	m.gateRejections.Store(0)
	m.handlerErrors.Store(0)
	m.peakLatency.Store(0)

	m.mu.Lock()
	clear(m.latencies)
	m.latencyIdx = 0
	m.startTime = time.Now()
	m.mu.Unlock()
}

// Fires returns the total number of handler invocations.
func (m *Metrics) Fires() uint64 {
	return m.fires.Load()
}

// Timer helps measure dispatch duration.
type Timer struct {
	start   time.Time
	metrics *Metrics
}

// StartTimer starts a dispatch timer.
func (m *Metrics) StartTimer() *Timer {
	return &Timer{
		start:   time.Now(),
		metrics: m,
	}
}

// Stop stops the timer and records the dispatch latency.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	t.metrics.RecordDispatch(elapsed)
	return elapsed
}
