package middleware

import (
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// AuthRateLimiter is the small standalone limiter in front of /auth/token.
// The token endpoint is the brute-force surface, so it gets its own much
// tighter budget, a separate store, and a deny-on-failure posture: unlike
// the general IP limiter, an unresolvable client here is rejected rather
// than waved through.
type AuthRateLimiter struct {
	limit     int
	window    time.Duration
	extractor IPExtractor

	mu       sync.Mutex
	requests map[string][]time.Time
}

// NewAuthRateLimiter builds a limiter allowing limit requests per window per
// client IP.
func NewAuthRateLimiter(limit int, window time.Duration, extractor IPExtractor) *AuthRateLimiter {
	return &AuthRateLimiter{
		limit:     limit,
		window:    window,
		extractor: extractor,
		requests:  make(map[string][]time.Time),
	}
}

// Middleware wraps next with the auth rate limit.
func (rl *AuthRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, err := rl.extractor.ExtractIP(r)
		if err != nil {
			// Fall back to the raw peer address before giving up.
			ip, err = ipFromAddr(r.RemoteAddr)
			if err != nil {
				slog.Error("auth rate limiter could not resolve client",
					slog.Any("error", err),
					slog.String("remote_addr", r.RemoteAddr))
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
		}

		if !rl.allow(ip) {
			slog.Warn("auth rate limit exceeded",
				slog.String("ip", ip),
				slog.Int("limit", rl.limit),
				slog.Duration("window", rl.window))
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// allow applies a sliding window: expired timestamps fall out, and the
// request is recorded only when admitted.
func (rl *AuthRateLimiter) allow(ip string) bool {
	now := time.Now()
	cutoff := now.Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	kept := rl.requests[ip][:0]
	for _, ts := range rl.requests[ip] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= rl.limit {
		rl.requests[ip] = kept
		return false
	}
	rl.requests[ip] = append(kept, now)
	return true
}

// CleanupExpired forgets IPs whose requests have all aged out. Called
// periodically from the server's cleanup goroutine.
func (rl *AuthRateLimiter) CleanupExpired() {
	cutoff := time.Now().Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, timestamps := range rl.requests {
		kept := timestamps[:0]
		for _, ts := range timestamps {
			if ts.After(cutoff) {
				kept = append(kept, ts)
			}
		}
		if len(kept) == 0 {
			delete(rl.requests, ip)
		} else {
			rl.requests[ip] = kept
		}
	}
}

// ActiveIPs reports how many client IPs currently have tracked requests.
func (rl *AuthRateLimiter) ActiveIPs() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.requests)
}
