package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"inkwell/pkg/ratelimit"
)

// IPRateLimiterConfig tunes the per-IP limiter on the public surface.
type IPRateLimiterConfig struct {
	// Limit per Window per client IP. Defaults: 100 per minute.
	Limit  int
	Window time.Duration

	// Enabled short-circuits the middleware when false.
	Enabled bool
}

// IPRateLimiter is the HTTP face of pkg/ratelimit: it keys requests by
// client IP, answers 429 with Retry-After when a window fills, and sets the
// X-RateLimit-* headers on every response it sees.
//
// Every failure mode fails open. A blog that cannot check limits still
// serves pages; the breaker and the error logs carry the alarm instead.
type IPRateLimiter struct {
	config    IPRateLimiterConfig
	extractor IPExtractor
	store     ratelimit.Store
	algorithm ratelimit.Algorithm
	metrics   ratelimit.Metrics
	breaker   *ratelimit.Breaker
}

// NewIPRateLimiter assembles the limiter. metrics and breaker may be nil.
func NewIPRateLimiter(
	config IPRateLimiterConfig,
	extractor IPExtractor,
	store ratelimit.Store,
	algorithm ratelimit.Algorithm,
	metrics ratelimit.Metrics,
	breaker *ratelimit.Breaker,
) *IPRateLimiter {
	if config.Limit <= 0 {
		config.Limit = 100
	}
	if config.Window <= 0 {
		config.Window = time.Minute
	}
	return &IPRateLimiter{
		config:    config,
		extractor: extractor,
		store:     store,
		algorithm: algorithm,
		metrics:   metrics,
		breaker:   breaker,
	}
}

// Middleware returns the wrapping function for the server's chain.
func (rl *IPRateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.config.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()

			ip, err := rl.extractor.ExtractIP(r)
			if err != nil {
				slog.Error("rate limiter could not resolve client IP, allowing request",
					slog.Any("error", err),
					slog.String("remote_addr", r.RemoteAddr),
					slog.String("path", r.URL.Path))
				next.ServeHTTP(w, r)
				return
			}

			if rl.breaker != nil && rl.breaker.IsOpen() {
				next.ServeHTTP(w, r)
				return
			}

			decision, err := rl.check(r, ip)
			if rl.metrics != nil {
				rl.metrics.RecordCheckDuration("ip", time.Since(start))
			}
			if err != nil {
				slog.Error("rate limit check failed, allowing request",
					slog.Any("error", err),
					slog.String("ip", ip),
					slog.String("path", r.URL.Path))
				next.ServeHTTP(w, r)
				return
			}
			if decision == nil {
				// Breaker swallowed the check (fail-open).
				next.ServeHTTP(w, r)
				return
			}

			setRateLimitHeaders(w, decision)

			if decision.Denied() {
				rl.reject(w, r, decision)
				return
			}

			if rl.metrics != nil {
				rl.metrics.RecordAllowed("ip", r.URL.Path)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (rl *IPRateLimiter) check(r *http.Request, ip string) (*ratelimit.Decision, error) {
	var decision *ratelimit.Decision
	op := func() error {
		var err error
		decision, err = rl.algorithm.Allow(r.Context(), ip, rl.store, rl.config.Limit, rl.config.Window)
		return err
	}

	if rl.breaker != nil {
		if err := rl.breaker.Execute(op); err != nil {
			return nil, err
		}
	} else if err := op(); err != nil {
		return nil, err
	}

	if decision != nil {
		decision.Limiter = "ip"
	}
	return decision, nil
}

func setRateLimitHeaders(w http.ResponseWriter, d *ratelimit.Decision) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(max(d.Remaining, 0)))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetUnix(), 10))
}

func (rl *IPRateLimiter) reject(w http.ResponseWriter, r *http.Request, d *ratelimit.Decision) {
	retryAfter := d.RetryAfterSeconds()
	w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	body := map[string]any{
		"error":       "rate_limit_exceeded",
		"message":     "Too many requests from this IP address",
		"retry_after": retryAfter,
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode rate limit response", slog.Any("error", err))
	}

	if rl.metrics != nil {
		rl.metrics.RecordDenied("ip", r.URL.Path)
	}
	slog.Warn("rate limit exceeded",
		slog.String("ip", d.Key),
		slog.Int("limit", d.Limit),
		slog.Int64("retry_after", retryAfter),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path))
}
