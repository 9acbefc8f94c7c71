package slo

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"
)

// maxSamples caps the number of latency samples held per window.
// At one-minute flush intervals this covers well over a hundred
// requests per second before sampling saturates.
const maxSamples = 8192

// Tracker accumulates request outcomes between gauge refreshes.
// The HTTP metrics middleware records every completed request and a
// background updater periodically converts the accumulated window
// into the SLO gauges, then resets it.
type Tracker struct {
	mu        sync.Mutex
	total     int64
	errors5xx int64
	durations []float64 // seconds
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

var defaultTracker = NewTracker()

// Default returns the process-wide tracker shared by the HTTP middleware
// and the background updater started from main.
func Default() *Tracker {
	return defaultTracker
}

// Record adds one completed request to the current window.
// Status codes of 500 and above count against availability.
func (t *Tracker) Record(status int, seconds float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.total++
	if status >= 500 {
		t.errors5xx++
	}
	if len(t.durations) < maxSamples {
		t.durations = append(t.durations, seconds)
	}
}

// Flush publishes availability, error rate and latency percentiles for the
// current window to the SLO gauges, then resets the window.
// It is a no-op when no requests were recorded, so the gauges keep their
// last known values across idle periods.
func (t *Tracker) Flush() {
	t.mu.Lock()
	total := t.total
	errors := t.errors5xx
	durations := t.durations
	t.total = 0
	t.errors5xx = 0
	t.durations = nil
	t.mu.Unlock()

	if total == 0 {
		return
	}

	UpdateAvailability(float64(total-errors) / float64(total))
	UpdateErrorRate(float64(errors) / float64(total))

	if len(durations) > 0 {
		sort.Float64s(durations)
		UpdateLatencyP95(percentile(durations, 0.95))
		UpdateLatencyP99(percentile(durations, 0.99))
	}
}

// StartUpdater flushes the tracker on the given interval until ctx is
// cancelled. A final flush runs on shutdown so the last partial window
// is not lost.
//
// Run it as a goroutine from main:
//
//	go slo.Default().StartUpdater(ctx, time.Minute)
func (t *Tracker) StartUpdater(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.Flush()
			return
		case <-ticker.C:
			t.Flush()
		}
	}
}

// percentile returns the value at quantile q from an ascending-sorted slice
// using the nearest-rank method.
func percentile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(q*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
