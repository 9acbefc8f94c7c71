package http

import (
	"context"
	"log/slog"
	"time"

	"inkwell/internal/handler/http/middleware"
	"inkwell/pkg/config"
	"inkwell/pkg/ratelimit"
)

// DefaultCleanupInterval is used when RATELIMIT_CLEANUP_INTERVAL is unset.
const DefaultCleanupInterval = 5 * time.Minute

// memoryWarnBytes triggers a warning when the store is still large after a
// sweep. 80 MB of timestamps on a single-author blog means something is
// hammering the site.
const memoryWarnBytes = 80 << 20

// StartRateLimitCleanup sweeps the IP limiter's store every interval,
// dropping timestamps older than twice the window (the margin covers clock
// skew and in-flight checks) and pruning the algorithm's per-key skew state.
// Blocks until ctx is cancelled; run it in its own goroutine.
func StartRateLimitCleanup(
	ctx context.Context,
	store *ratelimit.MemoryStore,
	window *ratelimit.SlidingWindow,
	interval time.Duration,
	windowDuration time.Duration,
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("rate limit cleanup started",
		slog.Duration("interval", interval),
		slog.Duration("window", windowDuration))

	for {
		select {
		case <-ctx.Done():
			slog.Info("rate limit cleanup stopped")
			return

		case <-ticker.C:
			cutoff := time.Now().Add(-2 * windowDuration)

			keysBefore, _ := store.KeyCount(ctx)
			memoryBefore := store.EstimateMemory()

			if err := store.Cleanup(ctx, cutoff); err != nil {
				slog.Error("rate limit cleanup failed", slog.Any("error", err))
				continue
			}
			pruned := 0
			if window != nil {
				pruned = window.PruneStale(config.CleanupMaxAge)
			}

			keysAfter, _ := store.KeyCount(ctx)
			memoryAfter := store.EstimateMemory()

			slog.Debug("rate limit cleanup completed",
				slog.Int("keys_before", keysBefore),
				slog.Int("keys_after", keysAfter),
				slog.Int("skew_entries_pruned", pruned),
				slog.Int64("memory_freed_bytes", memoryBefore-memoryAfter),
				slog.Time("cutoff", cutoff))

			if memoryAfter > memoryWarnBytes {
				slog.Warn("rate limit store memory usage is high",
					slog.Int64("memory_bytes", memoryAfter),
					slog.Int("active_keys", keysAfter))
			}
		}
	}
}

// StartAuthLimiterCleanup periodically forgets idle IPs in the auth
// endpoint's limiter. Blocks until ctx is cancelled.
func StartAuthLimiterCleanup(ctx context.Context, limiter *middleware.AuthRateLimiter, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("auth rate limit cleanup started", slog.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			slog.Info("auth rate limit cleanup stopped")
			return
		case <-ticker.C:
			limiter.CleanupExpired()
			slog.Debug("auth rate limit cleanup completed",
				slog.Int("active_ips", limiter.ActiveIPs()))
		}
	}
}

// LoadCleanupInterval reads RATELIMIT_CLEANUP_INTERVAL, defaulting to five
// minutes. Invalid values warn and fall back inside GetEnvDuration.
func LoadCleanupInterval() time.Duration {
	return config.GetEnvDuration("RATELIMIT_CLEANUP_INTERVAL", DefaultCleanupInterval)
}
