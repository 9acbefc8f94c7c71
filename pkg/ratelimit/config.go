package ratelimit

import (
	"fmt"
	"time"
)

// Config is the operator-facing tuning for the HTTP rate limiters. Loaded
// from environment variables by pkg/config.
type Config struct {
	// Enabled turns request limiting on. Off is for load tests and local
	// development only.
	Enabled bool

	// IPLimit / IPWindow bound requests per client IP on the public surface.
	IPLimit  int
	IPWindow time.Duration

	// AuthLimit / AuthWindow bound token requests per IP. Much tighter than
	// the general limit; this is the credential brute-force surface.
	AuthLimit  int
	AuthWindow time.Duration

	// MaxKeys caps the per-store key count before LRU eviction.
	MaxKeys int

	// CleanupInterval is how often expired timestamps are swept out.
	CleanupInterval time.Duration

	// BreakerFailureThreshold / BreakerRecoveryTimeout tune the fail-open
	// circuit around limiter checks.
	BreakerFailureThreshold int
	BreakerRecoveryTimeout  time.Duration
}

// DefaultConfig returns production defaults: 100 req/min per IP, 5 token
// requests per minute, 10k tracked keys.
func DefaultConfig() Config {
	return Config{
		Enabled:                 true,
		IPLimit:                 100,
		IPWindow:                time.Minute,
		AuthLimit:               5,
		AuthWindow:              time.Minute,
		MaxKeys:                 defaultMaxKeys,
		CleanupInterval:         5 * time.Minute,
		BreakerFailureThreshold: 10,
		BreakerRecoveryTimeout:  30 * time.Second,
	}
}

// Validate reports the first nonsensical field. A disabled config is always
// valid.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	switch {
	case c.IPLimit <= 0:
		return fmt.Errorf("IP limit must be positive, got %d", c.IPLimit)
	case c.IPWindow <= 0:
		return fmt.Errorf("IP window must be positive, got %s", c.IPWindow)
	case c.AuthLimit <= 0:
		return fmt.Errorf("auth limit must be positive, got %d", c.AuthLimit)
	case c.AuthWindow <= 0:
		return fmt.Errorf("auth window must be positive, got %s", c.AuthWindow)
	case c.MaxKeys <= 0:
		return fmt.Errorf("max keys must be positive, got %d", c.MaxKeys)
	case c.CleanupInterval <= 0:
		return fmt.Errorf("cleanup interval must be positive, got %s", c.CleanupInterval)
	case c.BreakerFailureThreshold <= 0:
		return fmt.Errorf("breaker failure threshold must be positive, got %d", c.BreakerFailureThreshold)
	case c.BreakerRecoveryTimeout <= 0:
		return fmt.Errorf("breaker recovery timeout must be positive, got %s", c.BreakerRecoveryTimeout)
	}
	return nil
}
