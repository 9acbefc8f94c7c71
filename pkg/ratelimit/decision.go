package ratelimit

import (
	"fmt"
	"time"
)

// Decision is the outcome of one rate limit check, carrying everything the
// HTTP layer needs for X-RateLimit-* and Retry-After headers.
type Decision struct {
	// Key the check was made for (an IP address here).
	Key string

	// Allowed reports whether the request may proceed.
	Allowed bool

	// Limit is the window capacity the check ran against.
	Limit int

	// Remaining is how many requests are left in the current window.
	// Zero or negative when the limit is reached.
	Remaining int

	// ResetAt is when a denied caller can expect capacity again.
	ResetAt time.Time

	// RetryAfter is ResetAt relative to the check time. Zero for allowed
	// decisions.
	RetryAfter time.Duration

	// Limiter names the limiter instance that produced the decision.
	Limiter string
}

// Denied reports whether the request must be rejected.
func (d *Decision) Denied() bool { return !d.Allowed }

// ResetUnix returns ResetAt as a Unix timestamp for the
// X-RateLimit-Reset header.
func (d *Decision) ResetUnix() int64 { return d.ResetAt.Unix() }

// RetryAfterSeconds returns RetryAfter rounded up to whole seconds, at least
// one second, matching the granularity of the Retry-After header.
func (d *Decision) RetryAfterSeconds() int64 {
	secs := int64(d.RetryAfter.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

func (d *Decision) String() string {
	if d.Allowed {
		return fmt.Sprintf("allow %s (%d/%d left, resets %s)",
			d.Key, d.Remaining, d.Limit, d.ResetAt.Format(time.RFC3339))
	}
	return fmt.Sprintf("deny %s (limit %d, retry in %s)", d.Key, d.Limit, d.RetryAfter)
}
