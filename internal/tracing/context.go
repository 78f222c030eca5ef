// Package tracing wires OpenTelemetry for tourscout: provider setup with
// file, stdout and OTLP exporters, plus the attribute and span names used
// by the search controller.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// TraceIDFromContext returns the trace id of the span in ctx, or "" when
// ctx carries no valid span.
func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}
