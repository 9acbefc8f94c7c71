// Package tracing wires OpenTelemetry server spans into the HTTP stack.
//
// Middleware opens a span per request, honors incoming W3C Trace Context
// headers, and echoes the trace ID back in X-Trace-Id so a caller can quote
// it when reporting a problem. Handlers that need child spans grab the
// shared tracer:
//
//	ctx, span := tracing.GetTracer().Start(ctx, "render-markdown")
//	defer span.End()
//
// Exporter configuration is left to the environment; without one the spans
// are no-ops and the middleware only costs the header propagation.
package tracing
