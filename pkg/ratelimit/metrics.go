package ratelimit

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics records limiter events as Prometheus collectors.
type PrometheusMetrics struct {
	requests      *prometheus.CounterVec
	checkDuration *prometheus.HistogramVec
	activeKeys    *prometheus.GaugeVec
	breakerState  *prometheus.GaugeVec
	evictions     *prometheus.CounterVec
}

// NewPrometheusMetrics registers the limiter collectors on the default
// registerer, so they show up on the /metrics endpoint with the rest of the
// application's metrics.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsOn(prometheus.DefaultRegisterer)
}

// NewPrometheusMetricsOn registers the collectors on reg. Tests pass a fresh
// registry so parallel instances do not collide.
func NewPrometheusMetricsOn(reg prometheus.Registerer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blog_rate_limit_requests_total",
			Help: "Rate limit checks by limiter, outcome, and path.",
		}, []string{"limiter", "status", "path"}),
		checkDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "blog_rate_limit_check_duration_seconds",
			Help: "Duration of rate limit checks.",
			// Checks are in-memory; anything past a few ms is trouble.
			Buckets: []float64{0.0005, 0.001, 0.002, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}, []string{"limiter"}),
		activeKeys: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "blog_rate_limit_active_keys",
			Help: "Keys currently tracked per limiter.",
		}, []string{"limiter"}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "blog_rate_limit_breaker_state",
			Help: "Limiter circuit breaker state (0=closed, 1=open, 2=half-open).",
		}, []string{"limiter"}),
		evictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blog_rate_limit_evictions_total",
			Help: "Keys evicted from limiter stores at capacity.",
		}, []string{"limiter"}),
	}
	reg.MustRegister(m.requests, m.checkDuration, m.activeKeys, m.breakerState, m.evictions)
	return m
}

func (m *PrometheusMetrics) RecordAllowed(limiter, path string) {
	m.requests.WithLabelValues(limiter, "allowed", path).Inc()
}

func (m *PrometheusMetrics) RecordDenied(limiter, path string) {
	m.requests.WithLabelValues(limiter, "denied", path).Inc()
}

func (m *PrometheusMetrics) RecordCheckDuration(limiter string, d time.Duration) {
	m.checkDuration.WithLabelValues(limiter).Observe(d.Seconds())
}

func (m *PrometheusMetrics) SetActiveKeys(limiter string, n int) {
	m.activeKeys.WithLabelValues(limiter).Set(float64(n))
}

func (m *PrometheusMetrics) RecordBreakerState(limiter, state string) {
	var v float64
	switch state {
	case "open":
		v = 1
	case "half-open":
		v = 2
	}
	m.breakerState.WithLabelValues(limiter).Set(v)
}

func (m *PrometheusMetrics) RecordEvictions(limiter string, n int) {
	m.evictions.WithLabelValues(limiter).Add(float64(n))
}

// NoOpMetrics discards every event. Default when no metrics sink is wired.
type NoOpMetrics struct{}

func (NoOpMetrics) RecordAllowed(limiter, path string)                 {}
func (NoOpMetrics) RecordDenied(limiter, path string)                  {}
func (NoOpMetrics) RecordCheckDuration(limiter string, d time.Duration) {}
func (NoOpMetrics) SetActiveKeys(limiter string, n int)                {}
func (NoOpMetrics) RecordBreakerState(limiter, state string)           {}
func (NoOpMetrics) RecordEvictions(limiter string, n int)              {}
