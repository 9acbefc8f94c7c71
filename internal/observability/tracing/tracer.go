package tracing

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("inkwell")

// GetTracer returns the service-wide tracer. Spans opened from it attach to
// the globally registered provider (a no-op one unless the deployment sets
// up an exporter):
//
//	ctx, span := tracing.GetTracer().Start(ctx, "render-entry")
//	defer span.End()
func GetTracer() trace.Tracer {
	return tracer
}
