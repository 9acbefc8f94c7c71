package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Auth metrics cover the two gates in front of the compose surface: token
// issuance (authentication) and the per-request role check (authorization).
// Roles are "admin", "viewer", or "unknown" when a request fails before a
// role could be identified.
var (
	authRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_requests_total",
			Help: "Total authentication requests by role and result",
		},
		[]string{"role", "result"}, // result: success | failure
	)

	authDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "auth_duration_seconds",
			Help:    "Authentication duration by role",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
		[]string{"role"},
	)

	// Authorization is an in-memory map lookup, hence the sub-millisecond
	// buckets.
	authzCheckDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "authz_check_duration_seconds",
			Help:    "Authorization check duration",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01},
		},
	)

	// A burst of forbidden attempts from the viewer role usually means
	// someone is probing the write endpoints with a read-only token.
	forbiddenAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forbidden_attempts_total",
			Help: "Forbidden access attempts by role and method",
		},
		[]string{"role", "method"},
	)
)

// RecordAuthRequest counts one token issuance attempt.
func RecordAuthRequest(role, result string) {
	authRequestsTotal.WithLabelValues(role, result).Inc()
}

// RecordAuthDuration observes how long a token issuance took.
func RecordAuthDuration(role string, durationSeconds float64) {
	authDuration.WithLabelValues(role).Observe(durationSeconds)
}

// RecordAuthzCheckDuration observes one role check on the request path.
func RecordAuthzCheckDuration(durationSeconds float64) {
	authzCheckDuration.Observe(durationSeconds)
}

// RecordForbiddenAttempt counts a request rejected by the role check.
func RecordForbiddenAttempt(role, method string) {
	forbiddenAttempts.WithLabelValues(role, method).Inc()
}
