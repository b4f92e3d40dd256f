package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys used by torch.
const (
	AttrRequestID    = "torch.request_id"
	AttrMetricName   = "torch.metric.name"
	AttrMetricKind   = "torch.metric.kind"
	AttrMetricOp     = "torch.metric.op"
	AttrLabelCount   = "torch.metric.label_count"
	AttrEvicted      = "torch.registry.evicted"
	AttrErrorMessage = "error.message"
)

// SetMetricAttributes annotates a span with the mutation it performed.
func SetMetricAttributes(span trace.Span, name, kind, op string, labelCount int) {
	span.SetAttributes(
		attribute.String(AttrMetricName, name),
		attribute.String(AttrMetricKind, kind),
		attribute.String(AttrMetricOp, op),
		attribute.Int(AttrLabelCount, labelCount),
	)
}

// SetRequestID annotates a span with the request ID.
func SetRequestID(span trace.Span, requestID string) {
	if requestID == "" {
		return
	}
	span.SetAttributes(attribute.String(AttrRequestID, requestID))
}
