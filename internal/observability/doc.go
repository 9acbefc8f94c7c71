// Package observability groups the telemetry layers of the blog service:
// structured logging, Prometheus metrics, SLO tracking, and OpenTelemetry
// tracing. Handlers and usecases import the subpackages directly.
//
//   - logging: slog setup and helpers
//   - metrics: Prometheus registry and recorders
//   - slo: availability and latency objective window
//   - tracing: OpenTelemetry wiring
//
// Typical call site:
//
//	metrics.RecordEntryPublished("create")
package observability
