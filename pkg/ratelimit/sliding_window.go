package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// SlidingWindow counts the exact requests inside a moving window rather than
// bucketing them, so limits hold precisely across window boundaries.
//
// The algorithm also guards against the system clock moving backwards (NTP
// step, manual adjustment): it remembers the newest timestamp seen per key
// and refuses to hand out an earlier one, which would otherwise let a client
// re-earn capacity by waiting out a clock rewind.
type SlidingWindow struct {
	clock Clock

	mu       sync.Mutex
	lastSeen map[string]time.Time
}

// NewSlidingWindow builds a sliding-window algorithm on the given clock.
// A nil clock means the system clock.
func NewSlidingWindow(clock Clock) *SlidingWindow {
	if clock == nil {
		clock = SystemClock{}
	}
	return &SlidingWindow{
		clock:    clock,
		lastSeen: make(map[string]time.Time),
	}
}

// Allow checks key against limit-per-window using store's state and records
// the request when admitted. Stores implementing AtomicStore get the check
// and the record in one critical section; plain stores fall back to
// count-then-add, which can overshoot the limit by a few requests under
// heavy concurrency.
func (a *SlidingWindow) Allow(ctx context.Context, key string, store Store, limit int, window time.Duration) (*Decision, error) {
	now := a.stepClock(key)
	cutoff := now.Add(-window)
	resetAt := now.Add(window)

	var (
		allowed bool
		count   int
		err     error
	)
	if atomic, ok := store.(AtomicStore); ok {
		allowed, count, err = atomic.CheckAndAdd(ctx, key, now, cutoff, limit)
		if err != nil {
			return nil, fmt.Errorf("check and add: %w", err)
		}
	} else {
		count, err = store.CountSince(ctx, key, cutoff)
		if err != nil {
			return nil, fmt.Errorf("count requests: %w", err)
		}
		allowed = count < limit
		if allowed {
			if err := store.AddRequest(ctx, key, now); err != nil {
				return nil, fmt.Errorf("record request: %w", err)
			}
			count++
		}
	}

	d := &Decision{
		Key:       key,
		Allowed:   allowed,
		Limit:     limit,
		Remaining: limit - count,
		ResetAt:   resetAt,
	}
	if !allowed {
		d.RetryAfter = resetAt.Sub(now)
	}
	return d, nil
}

// stepClock returns the current time, clamped so it never runs backwards for
// a given key.
func (a *SlidingWindow) stepClock(key string) time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.clock.Now()
	if last, ok := a.lastSeen[key]; ok && now.Before(last) {
		slog.Warn("clock moved backwards, clamping rate limit timestamp",
			slog.String("key", key),
			slog.Duration("skew", last.Sub(now)))
		return last
	}
	a.lastSeen[key] = now
	return now
}

// PruneStale drops clock-skew tracking entries older than maxAge and returns
// how many were removed. Run this alongside store cleanup or the lastSeen
// map grows with every key ever limited.
func (a *SlidingWindow) PruneStale(maxAge time.Duration) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	cutoff := a.clock.Now().Add(-maxAge)
	removed := 0
	for key, seen := range a.lastSeen {
		if seen.Before(cutoff) {
			delete(a.lastSeen, key)
			removed++
		}
	}
	return removed
}

// TrackedKeys reports the size of the clock-skew tracking map.
func (a *SlidingWindow) TrackedKeys() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.lastSeen)
}
