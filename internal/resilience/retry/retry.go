// Package retry runs operations again after transient failures, with
// exponential backoff and jitter between attempts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"syscall"
	"time"
)

// Config shapes the backoff schedule.
type Config struct {
	// MaxAttempts bounds the total number of calls, not just the retries.
	MaxAttempts int

	// InitialDelay is the wait before the second attempt.
	InitialDelay time.Duration

	// MaxDelay caps the backoff growth.
	MaxDelay time.Duration

	// Multiplier scales the delay after each failed attempt.
	Multiplier float64

	// JitterFraction is how much random slack (0.0 to 1.0) is added on top
	// of each delay.
	JitterFraction float64
}

// DefaultConfig suits one-off calls to external services: three attempts
// over roughly half a minute.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialDelay:   1 * time.Second,
		MaxDelay:       30 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

// DBConnectConfig returns configuration for the startup database
// connectivity probe. Patient enough to ride out a database container that
// is still booting, while auth and DSN mistakes fail fast because they are
// not classified as retryable.
func DBConnectConfig() Config {
	return Config{
		MaxAttempts:    10,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

// WithBackoff calls fn until it succeeds, returns a non-retryable error, or
// cfg.MaxAttempts is exhausted. Waiting between attempts respects ctx.
func WithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			if attempt > 1 {
				slog.Info("operation succeeded after retry",
					slog.Int("attempt", attempt))
			}
			return nil
		}

		if !IsRetryable(lastErr) {
			slog.Warn("non-retryable error, aborting",
				slog.Int("attempt", attempt),
				slog.Any("error", lastErr))
			return lastErr
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		slog.Warn("operation failed, retrying",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", cfg.MaxAttempts),
			slog.Duration("delay", delay),
			slog.Any("error", lastErr))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("retry aborted: %w", ctx.Err())
		}

		delay = nextDelay(delay, cfg)
	}

	return fmt.Errorf("max retry attempts (%d) exceeded: %w", cfg.MaxAttempts, lastErr)
}

// nextDelay grows the backoff, caps it, and adds jitter so concurrent
// clients spread out instead of retrying in lockstep.
func nextDelay(current time.Duration, cfg Config) time.Duration {
	next := time.Duration(float64(current) * cfg.Multiplier)
	if next > cfg.MaxDelay {
		next = cfg.MaxDelay
	}

	fraction := cfg.JitterFraction
	if fraction <= 0 {
		return next
	}
	if fraction > 1.0 {
		fraction = 1.0
	}
	// #nosec G404 -- backoff jitter does not need cryptographic randomness.
	return next + time.Duration(rand.Float64()*float64(next)*fraction)
}

// IsRetryable reports whether err looks transient: timeouts, connection
// level syscall errors, and the HTTP statuses that invite another try.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Cancellation means the caller gave up; retrying would fight them. The
	// deadline sentinel is compared by identity here because http.Client's
	// per-request timeout also matches it via errors.Is, and that timeout is
	// the upstream being slow, not the caller leaving.
	if errors.Is(err, context.Canceled) || err == context.DeadlineExceeded {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	for _, transient := range []error{
		syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ETIMEDOUT, syscall.ENETUNREACH,
	} {
		if errors.Is(err, transient) {
			return true
		}
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		code := httpErr.StatusCode
		return (code >= 500 && code < 600) ||
			code == http.StatusTooManyRequests ||
			code == http.StatusRequestTimeout
	}

	return false
}

// HTTPError carries a response status through the retry classification.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}
