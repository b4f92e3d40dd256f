package tracing

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"torch-hq/torch/pkg/config"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNew_Disabled(t *testing.T) {
	tracer, err := New(&config.TracingConfig{Enabled: false}, "test")
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if tracer.Enabled() {
		t.Error("expected disabled tracer")
	}

	ctx, span := tracer.Start(context.Background(), "noop")
	span.End()
	if TraceID(ctx) != "" {
		t.Error("noop span should not carry a valid trace ID")
	}
	if err := tracer.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error: %v", err)
	}
}

func TestNew_NilConfig(t *testing.T) {
	if _, err := New(nil, "test"); err == nil {
		t.Error("expected error for nil config")
	}
}

func newRecordingTracer(t *testing.T, sampler string) (*Tracer, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tracer, err := newWithExporter(&config.TracingConfig{
		Enabled:     true,
		Sampler:     sampler,
		SampleRatio: 1.0,
		ServiceName: "torch-test",
	}, "test", exporter)
	if err != nil {
		t.Fatalf("newWithExporter() error: %v", err)
	}
	t.Cleanup(func() { _ = tracer.Shutdown(context.Background()) })
	return tracer, exporter
}

func TestTracer_RecordsSpans(t *testing.T) {
	tracer, exporter := newRecordingTracer(t, SamplerAlways)

	ctx, span := tracer.Start(context.Background(), "collector.counter")
	SetMetricAttributes(span, "jobs_total", "counter", "inc", 2)
	SetRequestID(span, "req-1")
	SetError(span, errors.New("boom"))
	span.End()

	if TraceID(ctx) == "" || SpanID(ctx) == "" {
		t.Error("expected valid trace and span IDs")
	}

	if err := tracer.provider.ForceFlush(context.Background()); err != nil {
		t.Fatal(err)
	}
	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	got := spans[0]
	if got.Name != "collector.counter" {
		t.Errorf("span name = %q", got.Name)
	}
	if got.Status.Code != codes.Error {
		t.Errorf("status = %v, want error", got.Status.Code)
	}

	attrs := map[string]string{}
	for _, kv := range got.Attributes {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	if attrs[AttrMetricName] != "jobs_total" || attrs[AttrMetricOp] != "inc" || attrs[AttrRequestID] != "req-1" {
		t.Errorf("unexpected attributes %v", attrs)
	}
}

func TestTracer_NeverSampler(t *testing.T) {
	tracer, exporter := newRecordingTracer(t, SamplerNever)

	_, span := tracer.Start(context.Background(), "dropped")
	span.End()
	_ = tracer.provider.ForceFlush(context.Background())

	if n := len(exporter.GetSpans()); n != 0 {
		t.Errorf("got %d spans, want 0", n)
	}
}

func TestPropagation_RoundTrip(t *testing.T) {
	tracer, _ := newRecordingTracer(t, SamplerAlways)

	ctx, span := tracer.Start(context.Background(), "client.push")
	defer span.End()

	headers := http.Header{}
	Inject(ctx, headers)
	if headers.Get("traceparent") == "" {
		t.Fatal("expected traceparent header")
	}

	remote := Extract(context.Background(), headers)
	_, child := tracer.Start(remote, "server.handle")
	defer child.End()

	if child.SpanContext().TraceID() != span.SpanContext().TraceID() {
		t.Error("extracted span did not join the trace")
	}
}

func TestCreateSampler(t *testing.T) {
	tests := []struct {
		strategy string
		ratio    float64
		wantErr  bool
	}{
		{SamplerAlways, 0, false},
		{SamplerNever, 0, false},
		{SamplerRatio, 0.5, false},
		{"", 1, false},
		{SamplerRatio, 1.5, true},
		{SamplerRatio, -0.1, true},
		{"sometimes", 0.5, true},
	}

	for _, tt := range tests {
		_, err := createSampler(tt.strategy, tt.ratio)
		if (err != nil) != tt.wantErr {
			t.Errorf("createSampler(%q, %v) error = %v, wantErr %v", tt.strategy, tt.ratio, err, tt.wantErr)
		}
	}
}

func TestExporterOptions(t *testing.T) {
	opts := exporterOptions(&config.TracingConfig{Endpoint: "localhost:4317", Insecure: true, Timeout: 1})
	if len(opts) != 3 {
		t.Errorf("got %d options, want 3", len(opts))
	}
}
