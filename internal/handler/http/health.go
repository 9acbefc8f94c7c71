// Package http wires the blog's HTTP surface: entry and archive handlers,
// the compose endpoints, auth, and the middleware chain around them.
package http

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"inkwell/pkg/ratelimit"
)

// HealthResponse is the JSON body of /health.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
	Version   string                 `json:"version"`
}

// CheckStatus reports one named check: "healthy", "degraded", or
// "unhealthy", with optional details.
type CheckStatus struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// RateLimiterHealthInfo surfaces the limiter's internals on /health so an
// operator can see key growth and breaker trips without scraping metrics.
type RateLimiterHealthInfo struct {
	ActiveKeys     int    `json:"active_keys"`
	MemoryBytes    int64  `json:"memory_bytes"`
	CircuitBreaker string `json:"circuit_breaker"`
}

// CSPHealthInfo mirrors the CSP configuration.
type CSPHealthInfo struct {
	Enabled    bool `json:"enabled"`
	ReportOnly bool `json:"report_only"`
}

// HealthHandler serves /health: database connectivity plus the operational
// state of the rate limiter and CSP. Only the database check can turn the
// overall status unhealthy; limiter and CSP entries are informational.
type HealthHandler struct {
	DB      *sql.DB
	Version string

	// Rate limiter internals, optional. The concrete MemoryStore is needed
	// for its memory estimate.
	RateLimiterEnabled bool
	IPStore            *ratelimit.MemoryStore
	IPBreaker          *ratelimit.Breaker
	AuthLimiterIPs     func() int

	// CSP status, optional.
	CSPEnabled    bool
	CSPReportOnly bool
}

// ServeHTTP runs all checks with a five-second budget. Returns 200 when
// healthy, 503 when the database check fails.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]CheckStatus{
		"database": h.checkDatabase(ctx),
	}
	if h.RateLimiterEnabled {
		checks["rate_limiter"] = h.checkRateLimiter(ctx)
	}
	if h.CSPEnabled {
		checks["csp"] = h.checkCSP()
	}

	// Only the database gates the overall verdict.
	status, statusCode := "healthy", http.StatusOK
	if checks["database"].Status == "unhealthy" {
		status, statusCode = "unhealthy", http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Version:   h.Version,
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("health: failed to encode response", slog.Any("error", err))
	}
}

// checkDatabase pings and inspects the connection pool. Utilization at 80%
// of max or a missing max reports "degraded", which does not fail the probe
// but shows up in the body.
func (h *HealthHandler) checkDatabase(ctx context.Context) CheckStatus {
	if h.DB == nil {
		return CheckStatus{Status: "unhealthy", Message: "not configured"}
	}
	if err := h.DB.PingContext(ctx); err != nil {
		return CheckStatus{Status: "unhealthy", Message: err.Error()}
	}

	stats := h.DB.Stats()
	details := poolDetails(stats)

	if stats.MaxOpenConnections == 0 {
		return CheckStatus{
			Status:  "degraded",
			Message: "connection pool max connections not configured",
			Details: details,
		}
	}

	utilization := float64(stats.InUse) / float64(stats.MaxOpenConnections) * 100
	details["utilization_percent"] = utilization
	if utilization >= 80.0 {
		return CheckStatus{
			Status:  "degraded",
			Message: "connection pool utilization above 80%",
			Details: details,
		}
	}

	return CheckStatus{Status: "healthy", Details: details}
}

func poolDetails(stats sql.DBStats) map[string]any {
	return map[string]any{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
		"max_idle_closed":      stats.MaxIdleClosed,
		"max_idle_time_closed": stats.MaxIdleTimeClosed,
		"max_lifetime_closed":  stats.MaxLifetimeClosed,
	}
}

// checkRateLimiter always reports healthy: an open breaker means the limiter
// is failing open, which is the designed behaviour, not an outage.
func (h *HealthHandler) checkRateLimiter(ctx context.Context) CheckStatus {
	details := make(map[string]any)

	if h.IPStore != nil {
		info := RateLimiterHealthInfo{CircuitBreaker: "not_configured"}
		if keys, err := h.IPStore.KeyCount(ctx); err == nil {
			info.ActiveKeys = keys
		}
		info.MemoryBytes = h.IPStore.EstimateMemory()
		if h.IPBreaker != nil {
			info.CircuitBreaker = h.IPBreaker.State().String()
		}
		details["ip"] = info
	}

	if h.AuthLimiterIPs != nil {
		details["auth"] = map[string]any{"active_ips": h.AuthLimiterIPs()}
	}

	return CheckStatus{Status: "healthy", Details: details}
}

func (h *HealthHandler) checkCSP() CheckStatus {
	return CheckStatus{
		Status: "healthy",
		Details: map[string]any{
			"config": CSPHealthInfo{Enabled: h.CSPEnabled, ReportOnly: h.CSPReportOnly},
		},
	}
}

// ReadyHandler is the readiness probe: 200 once the database answers a ping.
type ReadyHandler struct {
	DB *sql.DB
}

func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.DB == nil {
		http.Error(w, "database not configured", http.StatusServiceUnavailable)
		return
	}
	if err := h.DB.PingContext(ctx); err != nil {
		http.Error(w, "database not ready: "+err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ready")); err != nil {
		slog.Error("ready: failed to write response", slog.Any("error", err))
	}
}

// LiveHandler is the liveness probe: 200 whenever the process can respond.
type LiveHandler struct{}

func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("alive")); err != nil {
		slog.Error("alive: failed to write response", slog.Any("error", err))
	}
}
