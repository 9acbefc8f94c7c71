package slo

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Service level objectives for the public read path (entry pages, the home
// listing and the Atom feed). The admin compose surface shares the same
// targets since it rides the same stack.
const (
	// AvailabilitySLO is the target uptime percentage (99.9% allows about
	// 43 minutes of downtime per month).
	AvailabilitySLO = 99.9

	// LatencyP95SLO is the 95th percentile latency target in seconds.
	LatencyP95SLO = 0.200

	// LatencyP99SLO is the 99th percentile latency target in seconds.
	LatencyP99SLO = 0.500

	// ErrorRateSLO is the maximum acceptable 5xx ratio (0.1%).
	ErrorRateSLO = 0.001
)

func sloGauge(name, help string) prometheus.Gauge {
	return promauto.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
}

// Gauges reporting how the service is doing against its targets.
// The Tracker flushes a fresh window into them on a fixed interval;
// nothing else should write them directly.
var (
	// SLOAvailability is (total - 5xx) / total for the last window.
	SLOAvailability = sloGauge("slo_availability_ratio",
		"Current availability ratio (0-1), target: 0.999")

	// SLOLatencyP95 is the p95 request latency of the last window.
	SLOLatencyP95 = sloGauge("slo_latency_p95_seconds",
		"Current p95 latency in seconds, target: 0.200")

	// SLOLatencyP99 is the p99 request latency of the last window.
	SLOLatencyP99 = sloGauge("slo_latency_p99_seconds",
		"Current p99 latency in seconds, target: 0.500")

	// SLOErrorRate is 5xx / total for the last window.
	SLOErrorRate = sloGauge("slo_error_rate_ratio",
		"Current error rate ratio (0-1), target: 0.001")
)

// UpdateAvailability sets the availability gauge. Called by Tracker.Flush
// with the ratio computed over the window that just closed.
func UpdateAvailability(ratio float64) {
	SLOAvailability.Set(ratio)
}

// UpdateLatencyP95 sets the p95 latency gauge in seconds.
func UpdateLatencyP95(seconds float64) {
	SLOLatencyP95.Set(seconds)
}

// UpdateLatencyP99 sets the p99 latency gauge in seconds.
func UpdateLatencyP99(seconds float64) {
	SLOLatencyP99.Set(seconds)
}

// UpdateErrorRate sets the error rate gauge.
func UpdateErrorRate(ratio float64) {
	SLOErrorRate.Set(ratio)
}
