package utils

import (
	"slices"
	"sync"
	"time"
)

// LatencyTracker keeps a sliding window of prediction durations so the
// service can log percentile latency without a metrics round trip.
type LatencyTracker struct {
	mu     sync.RWMutex
	window []time.Duration
	limit  int
}

// NewLatencyTracker creates a tracker holding up to limit samples.
func NewLatencyTracker(limit int) *LatencyTracker {
	if limit <= 0 {
		limit = 512
	}
	return &LatencyTracker{limit: limit}
}

// Observe appends a sample, evicting the oldest once the window is full.
func (l *LatencyTracker) Observe(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.window = append(l.window, d)
	if len(l.window) > l.limit {
		copy(l.window, l.window[1:])
		l.window = l.window[:l.limit]
	}
}

// Percentile reports the p-th percentile (0-100) over the current window,
// or zero when nothing has been observed yet.
func (l *LatencyTracker) Percentile(p float64) time.Duration {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.window) == 0 {
		return 0
	}
	sorted := slices.Clone(l.window)
	slices.Sort(sorted)
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	return sorted[int((p/100.0)*float64(len(sorted)-1))]
}

// Count reports how many samples the window currently holds.
func (l *LatencyTracker) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.window)
}
