// Package ratelimit implements sliding-window request limiting with an
// in-memory LRU store, a fail-open circuit breaker, and pluggable metrics.
// It knows nothing about HTTP; the adapter in
// internal/handler/http/middleware maps requests onto keys.
package ratelimit

import (
	"context"
	"time"
)

// Store keeps request timestamps per key. Implementations must be safe for
// concurrent use.
type Store interface {
	// AddRequest records one request for key at the given time.
	AddRequest(ctx context.Context, key string, at time.Time) error

	// CountSince reports how many requests for key happened after cutoff.
	CountSince(ctx context.Context, key string, cutoff time.Time) (int, error)

	// Cleanup drops all timestamps at or before cutoff, removing keys that
	// end up empty.
	Cleanup(ctx context.Context, cutoff time.Time) error

	// KeyCount reports the number of keys currently held.
	KeyCount(ctx context.Context) (int, error)
}

// AtomicStore is a Store whose check-and-record step happens under one lock,
// closing the window where two concurrent requests could both pass a
// count-then-add check.
type AtomicStore interface {
	Store

	// CheckAndAdd counts requests after cutoff and, when the count is below
	// limit, records the new request in the same critical section. The
	// returned count includes the new request when it was admitted.
	CheckAndAdd(ctx context.Context, key string, at, cutoff time.Time, limit int) (allowed bool, count int, err error)
}

// Algorithm turns store state into an allow/deny decision.
type Algorithm interface {
	Allow(ctx context.Context, key string, store Store, limit int, window time.Duration) (*Decision, error)
}

// Metrics receives limiter observability events. The limiter label
// distinguishes independent limiter instances ("ip", "auth").
type Metrics interface {
	RecordAllowed(limiter, path string)
	RecordDenied(limiter, path string)
	RecordCheckDuration(limiter string, d time.Duration)
	SetActiveKeys(limiter string, n int)
	RecordBreakerState(limiter, state string)
	RecordEvictions(limiter string, n int)
}

// Clock abstracts time.Now so window arithmetic is testable.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the system time.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
