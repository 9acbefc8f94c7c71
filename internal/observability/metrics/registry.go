// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// requestLatencyBuckets spans 5ms to 10s so p95/p99 stay sharp for both
// cached reads and the slower compose writes.
var requestLatencyBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

func gauge(name, help string) prometheus.Gauge {
	return promauto.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
}

func counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, labels)
}

func histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.NewHistogramVec(
		prometheus.HistogramOpts{Name: name, Help: help, Buckets: buckets}, labels)
}

func histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.NewHistogram(
		prometheus.HistogramOpts{Name: name, Help: help, Buckets: buckets})
}

// HTTP surface.
var (
	HTTPRequestsTotal = counterVec("http_requests_total",
		"Total number of HTTP requests",
		"method", "path", "status")

	HTTPRequestDuration = histogramVec("http_request_duration_seconds",
		"HTTP request duration in seconds",
		requestLatencyBuckets,
		"method", "path", "status")

	HTTPRequestsInFlight = gauge("http_requests_in_flight",
		"Current number of HTTP requests being served")

	HTTPRequestSize = histogramVec("http_request_size_bytes",
		"HTTP request size in bytes",
		prometheus.ExponentialBuckets(100, 10, 8),
		"method", "path")

	HTTPResponseSize = histogramVec("http_response_size_bytes",
		"HTTP response size in bytes",
		prometheus.ExponentialBuckets(100, 10, 8),
		"method", "path")

	ActiveConnections = gauge("http_active_connections",
		"Number of active HTTP connections")
)

// Publishing and rendering.
var (
	EntriesTotal = gauge("entries_total",
		"Total number of published entries in the database")

	EntriesPublishedTotal = counterVec("entries_published_total",
		"Total number of publish operations",
		"action") // create|republish

	EntriesRenderedTotal = counterVec("entries_rendered_total",
		"Total number of entries processed by the re-render sweep",
		"status") // refreshed|unchanged|failure

	RenderDuration = histogram("render_duration_seconds",
		"Time taken to render a markdown body to HTML",
		prometheus.ExponentialBuckets(0.001, 2, 10))

	RenderSweepDuration = histogram("render_sweep_duration_seconds",
		"Time taken by a full re-render sweep",
		prometheus.ExponentialBuckets(0.01, 2, 12))
)

// Database pool.
var (
	DBQueryDuration = histogramVec("db_query_duration_seconds",
		"Database query duration in seconds",
		prometheus.ExponentialBuckets(0.001, 2, 10),
		"operation")

	DBConnectionsActive = gauge("db_connections_active",
		"Number of active database connections")

	DBConnectionsIdle = gauge("db_connections_idle",
		"Number of idle database connections")
)

// RecordHTTPRequest records one served request. Body sizes are only
// observed when known; chunked requests report -1 and are skipped.
func RecordHTTPRequest(method, path, status string, duration time.Duration, requestSize, responseSize int) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())

	if requestSize > 0 {
		HTTPRequestSize.WithLabelValues(method, path).Observe(float64(requestSize))
	}
	if responseSize > 0 {
		HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
	}
}
