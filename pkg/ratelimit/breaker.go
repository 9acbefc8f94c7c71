package ratelimit

import (
	"log/slog"
	"sync"
	"time"
)

// BreakerState is the circuit breaker's position.
type BreakerState int

const (
	// BreakerClosed is normal operation: checks run and failures count.
	BreakerClosed BreakerState = iota

	// BreakerOpen means the limiter kept failing. Checks are skipped and
	// every request passes. Failing open trades strict limiting for
	// availability; a broken limiter must not take the blog down with it.
	BreakerOpen

	// BreakerHalfOpen lets checks through again to probe recovery.
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures a Breaker. Zero fields take defaults.
type BreakerConfig struct {
	// FailureThreshold is the consecutive failures that open the circuit.
	// Default 10.
	FailureThreshold int

	// RecoveryTimeout is how long the circuit stays open before probing.
	// Default 30s.
	RecoveryTimeout time.Duration

	Clock   Clock
	Metrics Metrics

	// Limiter labels state-change metrics and logs.
	Limiter string
}

// Breaker shields request handling from a misbehaving rate limiter. After
// FailureThreshold consecutive check failures it opens and stops calling the
// limiter at all; after RecoveryTimeout one probe decides whether to close
// again.
type Breaker struct {
	cfg BreakerConfig

	mu          sync.Mutex
	state       BreakerState
	failures    int
	lastChange  time.Time
	lastFailure time.Time
}

// NewBreaker builds a closed Breaker.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 10
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = 30 * time.Second
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NoOpMetrics{}
	}

	b := &Breaker{cfg: cfg, lastChange: cfg.Clock.Now()}
	cfg.Metrics.RecordBreakerState(cfg.Limiter, b.state.String())
	return b
}

// Execute runs op under breaker control. While open it returns nil without
// calling op (fail-open); half-open runs op as the recovery probe.
func (b *Breaker) Execute(op func() error) error {
	switch b.currentState() {
	case BreakerOpen:
		return nil
	case BreakerHalfOpen:
		err := op()
		if err != nil {
			b.transition(BreakerOpen, err)
			return err
		}
		b.transition(BreakerClosed, nil)
		return nil
	default:
		err := op()
		if err != nil {
			b.recordFailure(err)
			return err
		}
		b.recordSuccess()
		return nil
	}
}

// IsOpen reports whether the circuit is currently open.
func (b *Breaker) IsOpen() bool { return b.currentState() == BreakerOpen }

// State returns the breaker position after applying any due recovery
// transition.
func (b *Breaker) State() BreakerState { return b.currentState() }

// Reset forces the breaker closed. Test and operational hook.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = BreakerClosed
	b.failures = 0
	b.lastChange = b.cfg.Clock.Now()
	b.cfg.Metrics.RecordBreakerState(b.cfg.Limiter, b.state.String())
}

// currentState moves an open circuit to half-open once the recovery timeout
// has elapsed, then reports the state.
func (b *Breaker) currentState() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == BreakerOpen {
		now := b.cfg.Clock.Now()
		if now.Sub(b.lastChange) >= b.cfg.RecoveryTimeout {
			b.state = BreakerHalfOpen
			b.lastChange = now
			b.cfg.Metrics.RecordBreakerState(b.cfg.Limiter, b.state.String())
		}
	}
	return b.state
}

func (b *Breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
}

func (b *Breaker) recordFailure(err error) {
	b.mu.Lock()
	b.failures++
	b.lastFailure = b.cfg.Clock.Now()
	tripped := b.failures >= b.cfg.FailureThreshold && b.state == BreakerClosed
	failures := b.failures
	if tripped {
		b.state = BreakerOpen
		b.lastChange = b.cfg.Clock.Now()
	}
	b.mu.Unlock()

	if tripped {
		b.cfg.Metrics.RecordBreakerState(b.cfg.Limiter, BreakerOpen.String())
		slog.Warn("rate limiter circuit opened, requests pass unchecked",
			slog.String("limiter", b.cfg.Limiter),
			slog.Int("consecutive_failures", failures),
			slog.Duration("recovery_timeout", b.cfg.RecoveryTimeout),
			slog.Any("error", err))
	}
}

// transition flips half-open probes to their destination state.
func (b *Breaker) transition(to BreakerState, err error) {
	b.mu.Lock()
	from := b.state
	b.state = to
	b.lastChange = b.cfg.Clock.Now()
	if to == BreakerClosed {
		b.failures = 0
	} else {
		b.failures++
		b.lastFailure = b.lastChange
	}
	b.mu.Unlock()

	b.cfg.Metrics.RecordBreakerState(b.cfg.Limiter, to.String())
	slog.Warn("rate limiter circuit state changed",
		slog.String("limiter", b.cfg.Limiter),
		slog.String("from", from.String()),
		slog.String("to", to.String()),
		slog.Any("error", err))
}
