package config

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes configuration health: when the config was last loaded,
// which fields failed validation, and whether any fallback default is
// currently live. A nonzero fallback_active gauge on a dashboard is the
// signal that the process is running on defaults instead of its intended
// settings.
//
// Metric names are prefixed with a component name ("worker_config_..."), so
// each binary registers its own set.
type Metrics struct {
	LoadTimestamp         prometheus.Gauge
	ValidationErrorsTotal *prometheus.CounterVec
	FallbacksTotal        *prometheus.CounterVec
	FallbackActive        prometheus.Gauge
}

// NewMetrics registers the metric set on the default registry. Panics on a
// duplicate component name, like promauto does.
func NewMetrics(component string) *Metrics {
	return NewMetricsOn(component, prometheus.DefaultRegisterer)
}

// NewMetricsOn registers on reg; tests pass their own registry to avoid
// cross-test collisions.
func NewMetricsOn(component string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		LoadTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_config_load_timestamp", component),
			Help: fmt.Sprintf("Unix timestamp of the last %s configuration load", component),
		}),
		ValidationErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_config_validation_errors_total", component),
			Help: fmt.Sprintf("Total %s configuration validation errors", component),
		}, []string{"field"}),
		FallbacksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_config_fallbacks_total", component),
			Help: fmt.Sprintf("Total %s configuration fallbacks applied", component),
		}, []string{"field"}),
		FallbackActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_config_fallback_active", component),
			Help: fmt.Sprintf("1 when any %s configuration fallback is active", component),
		}),
	}
}

// RecordLoadTimestamp marks now as the last configuration load.
func (m *Metrics) RecordLoadTimestamp() {
	m.LoadTimestamp.SetToCurrentTime()
}

// RecordValidationError counts a validation failure for field.
func (m *Metrics) RecordValidationError(field string) {
	m.ValidationErrorsTotal.WithLabelValues(field).Inc()
}

// RecordFallback counts a fallback applied for field.
func (m *Metrics) RecordFallback(field string) {
	m.FallbacksTotal.WithLabelValues(field).Inc()
}

// SetFallbackActive flips the fallback_active gauge.
func (m *Metrics) SetFallbackActive(active bool) {
	if active {
		m.FallbackActive.Set(1)
	} else {
		m.FallbackActive.Set(0)
	}
}
