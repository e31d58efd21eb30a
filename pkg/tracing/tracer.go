// Package tracing provides a shared OTel tracer helper for all domain packages.
//
// When no TracerProvider is registered (tests, local dev without OTel), the
// global no-op provider is used automatically and all calls are inert.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "quill"

// Start creates a new OTel span as a child of the span in ctx, or a root span
// when ctx carries no active span. The caller must call span.End() when the
// operation is done (typically via defer span.End()).
//
// Example:
//
//	ctx, span := tracing.Start(ctx, "relations.create",
//	    attribute.String("quill.definition.id", defID.String()),
//	)
//	defer span.End()
func Start(ctx context.Context, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, spanName, trace.WithAttributes(attrs...))
}
