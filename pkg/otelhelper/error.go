package otelhelper

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SetError marks the span failed and records err with optional attributes.
func SetError(span trace.Span, err error, attrs ...attribute.KeyValue) {
	span.RecordError(err, trace.WithAttributes(attrs...))
	span.SetStatus(codes.Error, err.Error())
}

// NodeFailed records a failed node evaluation. The error stays on the node
// span; the pass span only counts failures.
func NodeFailed(span trace.Span, nodeID, kind string, err error) {
	SetError(span, err,
		attribute.String(NodeIDKey, nodeID),
		attribute.String(NodeKindKey, kind),
	)
}
