package notify

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func channelCounter(name, help string, extraLabels ...string) *prometheus.CounterVec {
	return promauto.NewCounterVec(
		prometheus.CounterOpts{Name: name, Help: help},
		append([]string{"channel"}, extraLabels...),
	)
}

func channelHistogram(name, help string, buckets []float64) *prometheus.HistogramVec {
	return promauto.NewHistogramVec(
		prometheus.HistogramOpts{Name: name, Help: help, Buckets: buckets},
		[]string{"channel"},
	)
}

// Announcement delivery metrics. Labeled by channel name ("Discord", "Slack")
// so a single misbehaving webhook shows up on its own.
var (
	dispatchedTotal = channelCounter("notification_dispatched_total",
		"Total number of notifications dispatched")

	sentTotal = channelCounter("notification_sent_total",
		"Total number of notifications sent",
		"status") // success|failure

	droppedTotal = channelCounter("notification_dropped_total",
		"Total number of dropped notifications",
		"reason") // pool_full|circuit_open|disabled

	breakerOpenTotal = channelCounter("notification_circuit_breaker_open_total",
		"Total number of circuit breaker open events")

	sendDuration = channelHistogram("notification_duration_seconds",
		"Notification send duration in seconds",
		[]float64{0.1, 0.5, 1, 5, 10, 30})

	activeGoroutines = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "notification_active_goroutines",
		Help: "Number of active notification goroutines",
	})

	enabledChannels = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "notification_channels_enabled",
		Help: "Number of enabled notification channels",
	})
)

// RecordDispatch counts an announcement handed to a channel worker.
func RecordDispatch(channel string) {
	dispatchedTotal.WithLabelValues(channel).Inc()
}

// RecordSuccess counts a delivered announcement and its send duration.
func RecordSuccess(channel string, duration time.Duration) {
	sentTotal.WithLabelValues(channel, "success").Inc()
	sendDuration.WithLabelValues(channel).Observe(duration.Seconds())
}

// RecordFailure counts a failed delivery. The duration still feeds the
// histogram; timeouts are the interesting part of that distribution.
func RecordFailure(channel string, duration time.Duration) {
	sentTotal.WithLabelValues(channel, "failure").Inc()
	sendDuration.WithLabelValues(channel).Observe(duration.Seconds())
}

// RecordDropped counts an announcement discarded before any send attempt.
func RecordDropped(channel string, reason string) {
	droppedTotal.WithLabelValues(channel, reason).Inc()
}

// RecordCircuitBreakerOpen counts a channel breaker tripping open.
func RecordCircuitBreakerOpen(channel string) {
	breakerOpenTotal.WithLabelValues(channel).Inc()
}

// SetActiveGoroutines overwrites the in-flight worker gauge.
func SetActiveGoroutines(count float64) {
	activeGoroutines.Set(count)
}

// IncrementActiveGoroutines bumps the in-flight worker gauge.
func IncrementActiveGoroutines() {
	activeGoroutines.Inc()
}

// DecrementActiveGoroutines drops the in-flight worker gauge.
func DecrementActiveGoroutines() {
	activeGoroutines.Dec()
}

// SetChannelsEnabled records how many channels survived configuration.
func SetChannelsEnabled(count float64) {
	enabledChannels.Set(count)
}
