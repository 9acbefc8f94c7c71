package metrics

import (
	"time"
)

// RecordEntryPublished records one publish operation.
// Action should be either "create" or "republish".
func RecordEntryPublished(action string) {
	EntriesPublishedTotal.WithLabelValues(action).Inc()
}

// RecordRenderDuration records the time taken to render one markdown body.
func RecordRenderDuration(duration time.Duration) {
	RenderDuration.Observe(duration.Seconds())
}

// RecordRenderSweep records the outcome of a full re-render sweep.
// Entries whose stored HTML already matched are counted as "unchanged".
//
// Example:
//
//	start := time.Now()
//	scanned, refreshed, err := svc.RenderAll(ctx, parallelism)
//	if err == nil {
//	    metrics.RecordRenderSweep(time.Since(start), scanned, refreshed)
//	}
func RecordRenderSweep(duration time.Duration, scanned, refreshed int) {
	RenderSweepDuration.Observe(duration.Seconds())
	EntriesRenderedTotal.WithLabelValues("refreshed").Add(float64(refreshed))
	if unchanged := scanned - refreshed; unchanged > 0 {
		EntriesRenderedTotal.WithLabelValues("unchanged").Add(float64(unchanged))
	}
}

// RecordRenderFailure records an entry the re-render sweep could not process.
func RecordRenderFailure() {
	EntriesRenderedTotal.WithLabelValues("failure").Inc()
}

// UpdateEntriesTotal updates the total count of published entries.
// This gauge should be updated periodically to reflect the current state.
func UpdateEntriesTotal(count int64) {
	EntriesTotal.Set(float64(count))
}

// RecordDBQuery records the duration of a database query operation.
// Operation should describe the query type (e.g., "list_recent", "save_entry").
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateDBConnectionStats updates database connection pool statistics.
func UpdateDBConnectionStats(active, idle int) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}
