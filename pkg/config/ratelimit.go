package config

import (
	"log/slog"
	"time"

	"inkwell/pkg/ratelimit"
)

// LoadRateLimitConfig reads the rate limiter's settings from the
// environment. Bad values warn and fall back to the defaults; the limiter
// protects availability, so misconfiguration must never stop the server from
// booting.
//
// Variables:
//   - RATELIMIT_ENABLED (default true)
//   - RATELIMIT_IP_LIMIT / RATELIMIT_IP_WINDOW (default 100 per 1m)
//   - RATELIMIT_AUTH_LIMIT / RATELIMIT_AUTH_WINDOW (default 5 per 1m)
//   - RATELIMIT_MAX_KEYS (default 10000)
//   - RATELIMIT_CLEANUP_INTERVAL (default 5m)
//   - RATELIMIT_CB_FAILURE_THRESHOLD / RATELIMIT_CB_RECOVERY_TIMEOUT
//     (default 10 failures, 30s)
func LoadRateLimitConfig() ratelimit.Config {
	def := ratelimit.DefaultConfig()

	cfg := ratelimit.Config{
		Enabled:                 GetEnvBool("RATELIMIT_ENABLED", def.Enabled),
		IPLimit:                 GetEnvInt("RATELIMIT_IP_LIMIT", def.IPLimit),
		IPWindow:                GetEnvDuration("RATELIMIT_IP_WINDOW", def.IPWindow),
		AuthLimit:               GetEnvInt("RATELIMIT_AUTH_LIMIT", def.AuthLimit),
		AuthWindow:              GetEnvDuration("RATELIMIT_AUTH_WINDOW", def.AuthWindow),
		MaxKeys:                 GetEnvInt("RATELIMIT_MAX_KEYS", def.MaxKeys),
		CleanupInterval:         GetEnvDuration("RATELIMIT_CLEANUP_INTERVAL", def.CleanupInterval),
		BreakerFailureThreshold: GetEnvInt("RATELIMIT_CB_FAILURE_THRESHOLD", def.BreakerFailureThreshold),
		BreakerRecoveryTimeout:  GetEnvDuration("RATELIMIT_CB_RECOVERY_TIMEOUT", def.BreakerRecoveryTimeout),
	}

	if err := cfg.Validate(); err != nil {
		slog.Warn("rate limit configuration invalid, using defaults",
			slog.String("error", err.Error()))
		enabled := cfg.Enabled
		cfg = def
		cfg.Enabled = enabled
	}
	return cfg
}

// CSPConfig holds the Content-Security-Policy settings.
type CSPConfig struct {
	// Enabled controls whether CSP headers are set at all.
	Enabled bool

	// ReportOnly serves the policy as Content-Security-Policy-Report-Only,
	// logging violations without enforcing them. Useful when trying a
	// stricter policy against real traffic.
	ReportOnly bool
}

// LoadCSPConfig reads CSP_ENABLED (default true) and CSP_REPORT_ONLY
// (default false).
func LoadCSPConfig() CSPConfig {
	return CSPConfig{
		Enabled:    GetEnvBool("CSP_ENABLED", true),
		ReportOnly: GetEnvBool("CSP_REPORT_ONLY", false),
	}
}

// CleanupMaxAge bounds how long an idle rate-limit key survives before the
// background sweep forgets it.
const CleanupMaxAge = 1 * time.Hour
