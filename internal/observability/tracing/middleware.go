package tracing

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// statusRecorder wraps http.ResponseWriter so the middleware can attach
// the final status code to the span after the handler returns.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

// newStatusRecorder returns a recorder that reports 200 until the handler
// writes an explicit status.
func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{
		ResponseWriter: w,
		status:         http.StatusOK,
	}
}

// WriteHeader records the status code before delegating to the wrapped writer.
func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// Middleware wraps an HTTP handler with an OpenTelemetry server span.
//
// Incoming W3C Trace Context headers are honored, so a request that was
// already traced upstream continues the same trace. The span's trace ID is
// echoed back in the X-Trace-Id response header, which lets a reader
// correlate a slow page load with the server-side trace. Method, path and
// final status code are recorded as span attributes, and 5xx responses
// flag the span as an error.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(
			r.Context(),
			propagation.HeaderCarrier(r.Header),
		)

		ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
		)
		defer span.End()

		traceID := span.SpanContext().TraceID().String()
		w.Header().Set("X-Trace-Id", traceID)

		sr := newStatusRecorder(w)

		r = r.WithContext(ctx)
		next.ServeHTTP(sr, r)

		// Attributes are attached after the handler runs so the recorded
		// status reflects what was actually written.
		span.SetAttributes(
			attribute.Int("http.status_code", sr.status),
			attribute.String("http.method", r.Method),
			attribute.String("http.path", r.URL.Path),
		)

		if sr.status >= 500 {
			span.SetAttributes(attribute.Bool("error", true))
		}
	})
}
