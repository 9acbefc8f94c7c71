// Package circuitbreaker wraps github.com/sony/gobreaker for the two kinds
// of flaky dependencies this service talks to: announcement webhooks and the
// database pool used by the render-sweep worker.
package circuitbreaker

import (
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// Config tunes a single breaker.
type Config struct {
	// Name identifies the breaker in logs.
	Name string

	// MaxRequests caps probe requests while half-open.
	MaxRequests uint32

	// Interval resets the closed-state counters cyclically.
	Interval time.Duration

	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration

	// FailureThreshold is the failure ratio that trips the breaker
	// (0.6 trips at 60% failures).
	FailureThreshold float64

	// MinRequests is the sample size required before the ratio is evaluated.
	MinRequests uint32
}

// DefaultConfig returns the baseline tuning shared by breakers that have no
// dependency-specific profile.
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// WebhookConfig returns configuration optimized for announcement webhooks
// (Discord, Slack). Webhook endpoints fail either totally (revoked URL,
// outage) or not at all, so the breaker waits for a clear failure ratio and
// probes cautiously once open.
func WebhookConfig(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      2,
		Interval:         60 * time.Second,
		Timeout:          90 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      4,
	}
}

// CircuitBreaker is a named gobreaker instance with shared trip and logging
// behavior.
type CircuitBreaker struct {
	breaker *gobreaker.CircuitBreaker
	name    string
}

// readyToTrip evaluates the failure ratio against the configured threshold
// once the closed-state window holds at least MinRequests samples.
func (cfg Config) readyToTrip(counts gobreaker.Counts) bool {
	if counts.Requests < cfg.MinRequests {
		return false
	}
	return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
}

// logStateChange is wired as OnStateChange so an opened webhook or database
// circuit shows up in the logs without metrics access.
func logStateChange(name string, from, to gobreaker.State) {
	slog.Warn("circuit breaker state changed",
		slog.String("circuit", name),
		slog.String("from", from.String()),
		slog.String("to", to.String()))
}

// New builds a breaker from cfg.
func New(cfg Config) *CircuitBreaker {
	return &CircuitBreaker{
		name: cfg.Name,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:          cfg.Name,
			MaxRequests:   cfg.MaxRequests,
			Interval:      cfg.Interval,
			Timeout:       cfg.Timeout,
			ReadyToTrip:   cfg.readyToTrip,
			OnStateChange: logStateChange,
		}),
	}
}

// Execute runs fn through the breaker, returning gobreaker.ErrOpenState
// immediately while the circuit is open.
func (cb *CircuitBreaker) Execute(fn func() (interface{}, error)) (interface{}, error) {
	return cb.breaker.Execute(fn)
}

// State returns the current breaker state.
func (cb *CircuitBreaker) State() gobreaker.State {
	return cb.breaker.State()
}

// Name returns the breaker name.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// IsOpen reports whether the breaker is open.
func (cb *CircuitBreaker) IsOpen() bool {
	return cb.breaker.State() == gobreaker.StateOpen
}
