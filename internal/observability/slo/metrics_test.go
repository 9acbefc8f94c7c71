package slo

import (
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestUpdateFunctions_SetGauges(t *testing.T) {
	tests := []struct {
		name   string
		gauge  prometheus.Gauge
		update func(float64)
		value  float64
	}{
		{"availability", SLOAvailability, UpdateAvailability, 0.9995},
		{"latency p95", SLOLatencyP95, UpdateLatencyP95, 0.150},
		{"latency p99", SLOLatencyP99, UpdateLatencyP99, 0.450},
		{"error rate", SLOErrorRate, UpdateErrorRate, 0.0005},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.gauge.Set(0)
			tt.update(tt.value)

			if got := testutil.ToFloat64(tt.gauge); got != tt.value {
				t.Errorf("gauge = %v, want %v", got, tt.value)
			}
		})
	}
}

// The targets relate to each other: an inverted p95/p99 pair or an error
// budget looser than the availability target means someone edited one
// constant without the others.
func TestTargetsAreInternallyConsistent(t *testing.T) {
	if AvailabilitySLO < 90.0 || AvailabilitySLO > 100.0 {
		t.Errorf("AvailabilitySLO = %v, should be between 90 and 100", AvailabilitySLO)
	}
	if LatencyP95SLO <= 0 || LatencyP95SLO > 1.0 {
		t.Errorf("LatencyP95SLO = %v, should be between 0 and 1 second", LatencyP95SLO)
	}
	if LatencyP99SLO <= LatencyP95SLO || LatencyP99SLO > 2.0 {
		t.Errorf("LatencyP99SLO = %v, should be greater than P95 (%v) and less than 2 seconds",
			LatencyP99SLO, LatencyP95SLO)
	}
	if ErrorRateSLO < 0 || ErrorRateSLO > 0.01 {
		t.Errorf("ErrorRateSLO = %v, should be between 0 and 0.01 (1%%)", ErrorRateSLO)
	}

	// The error budget implied by availability must match ErrorRateSLO.
	if budget := (100.0 - AvailabilitySLO) / 100.0; math.Abs(budget-ErrorRateSLO) > 1e-9 {
		t.Errorf("availability %v%% implies error budget %v, but ErrorRateSLO = %v",
			AvailabilitySLO, budget, ErrorRateSLO)
	}
}
