// Package metrics owns the Prometheus registry for the blog: HTTP request
// metrics, publish and render counters, database query timings, and the
// notification delivery series recorded by the worker.
//
// Everything registers against the default registry at init time and is
// scraped through the /metrics endpoint. Handlers and usecases call the
// Record* helpers instead of touching collectors directly:
//
//	metrics.RecordEntryPublished("create")
//	metrics.RecordRenderDuration(time.Since(start))
package metrics
