package logging

import (
	"context"
	"testing"
)

func TestContextAccessors(t *testing.T) {
	ctx := context.Background()
	if GetRequestID(ctx) != "" || GetMetric(ctx) != "" || GetTraceID(ctx) != "" || GetSpanID(ctx) != "" {
		t.Fatal("expected empty values on a bare context")
	}

	ctx = WithRequestID(ctx, "r")
	ctx = WithMetric(ctx, "m")
	ctx = WithTraceID(ctx, "t")
	ctx = WithSpanID(ctx, "s")

	if GetRequestID(ctx) != "r" || GetMetric(ctx) != "m" || GetTraceID(ctx) != "t" || GetSpanID(ctx) != "s" {
		t.Error("context values not round-tripped")
	}
	if n := len(contextAttrs(ctx)); n != 4 {
		t.Errorf("contextAttrs() returned %d attrs, want 4", n)
	}
}
