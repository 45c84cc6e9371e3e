// Package metrics maintains per-gateway rolling counters and latency
// windows consumed by the router. The circuit breaker does not read
// them; it keeps its own outcome window.
package metrics

import (
	"sort"
	"sync"
	"time"
)

// Snapshot is a point-in-time read of a gateway's metrics, safe to
// share across goroutines since it holds no shared mutable state.
type Snapshot struct {
	Gateway          string
	Timestamp        time.Time
	TotalCalls       int64
	TotalSuccesses   int64
	TotalFailures    int64
	SuccessRate      float64
	AvgLatencyMs     float64
	P95LatencyMs     float64
	P99LatencyMs     float64
	AvgCost          float64
	LastFailureAt    time.Time
	HasLastFailureAt bool
}

// Collector holds one fixed-size latency window per gateway plus
// rolling totals, and emits a snapshot on every read.
type Collector struct {
	mu         sync.Mutex
	windowSize int

	samples map[string][]float64 // ring buffer, oldest overwritten first
	cursor  map[string]int

	totalCalls     map[string]int64
	totalSuccesses map[string]int64
	totalFailures  map[string]int64
	totalCost      map[string]float64
	lastFailureAt  map[string]time.Time

	history map[string][]Snapshot // 1-minute ticks, 24h retained
}

// NewCollector constructs a Collector with the given per-gateway
// latency window size. A windowSize <= 0 defaults to 1000 samples.
func NewCollector(windowSize int) *Collector {
	if windowSize <= 0 {
		windowSize = 1000
	}
	return &Collector{
		windowSize:     windowSize,
		samples:        make(map[string][]float64),
		cursor:         make(map[string]int),
		totalCalls:     make(map[string]int64),
		totalSuccesses: make(map[string]int64),
		totalFailures:  make(map[string]int64),
		totalCost:      make(map[string]float64),
		lastFailureAt:  make(map[string]time.Time),
		history:        make(map[string][]Snapshot),
	}
}

// Record registers the outcome of one gateway call.
func (c *Collector) Record(gateway string, success bool, latencyMs, cost float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totalCalls[gateway]++
	if success {
		c.totalSuccesses[gateway]++
	} else {
		c.totalFailures[gateway]++
		c.lastFailureAt[gateway] = time.Now()
	}
	c.totalCost[gateway] += cost

	buf := c.samples[gateway]
	if buf == nil {
		buf = make([]float64, 0, c.windowSize)
	}
	if len(buf) < c.windowSize {
		buf = append(buf, latencyMs)
	} else {
		buf[c.cursor[gateway]] = latencyMs
		c.cursor[gateway] = (c.cursor[gateway] + 1) % c.windowSize
	}
	c.samples[gateway] = buf
}

// Snapshot returns the current metrics for gateway.
func (c *Collector) Snapshot(gateway string) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked(gateway)
}

func (c *Collector) snapshotLocked(gateway string) Snapshot {
	total := c.totalCalls[gateway]
	successes := c.totalSuccesses[gateway]

	snap := Snapshot{
		Gateway:        gateway,
		TotalCalls:     total,
		TotalSuccesses: successes,
		TotalFailures:  c.totalFailures[gateway],
	}
	if total > 0 {
		snap.SuccessRate = float64(successes) / float64(total)
		snap.AvgCost = c.totalCost[gateway] / float64(total)
	} else {
		snap.SuccessRate = 1
	}
	if lf, ok := c.lastFailureAt[gateway]; ok {
		snap.LastFailureAt = lf
		snap.HasLastFailureAt = true
	}

	samples := append([]float64(nil), c.samples[gateway]...)
	if len(samples) > 0 {
		sort.Float64s(samples)
		sum := 0.0
		for _, s := range samples {
			sum += s
		}
		snap.AvgLatencyMs = sum / float64(len(samples))
		snap.P95LatencyMs = percentile(samples, 0.95)
		snap.P99LatencyMs = percentile(samples, 0.99)
	}

	return snap
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p * float64(len(sorted)-1))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// StartSnapshotTicker appends a Snapshot for every known gateway once
// per minute, pruning entries older than 24h. Stop the returned
// function at process shutdown.
func (c *Collector) StartSnapshotTicker() (stop func()) {
	ticker := time.NewTicker(time.Minute)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				ticker.Stop()
				return
			case <-ticker.C:
				c.tick()
			}
		}
	}()
	return func() { close(done) }
}

func (c *Collector) tick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := time.Now().Add(-24 * time.Hour)
	for gateway := range c.totalCalls {
		snap := c.snapshotLocked(gateway)
		snap.Timestamp = time.Now()
		hist := append(c.history[gateway], snap)
		c.history[gateway] = pruneOlderThan(hist, cutoff)
	}
}

func pruneOlderThan(hist []Snapshot, cutoff time.Time) []Snapshot {
	i := 0
	for ; i < len(hist); i++ {
		if hist[i].Timestamp.After(cutoff) {
			break
		}
	}
	return hist[i:]
}

// History returns the retained 1-minute-tick snapshots for gateway.
func (c *Collector) History(gateway string) []Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Snapshot(nil), c.history[gateway]...)
}
