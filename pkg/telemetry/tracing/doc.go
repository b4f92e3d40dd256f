// Package tracing bootstraps OpenTelemetry tracing for torch.
//
// When telemetry.tracing.enabled is set, spans are batched and exported to
// an OTLP gRPC collector; otherwise a no-op tracer is used and span calls
// cost almost nothing. Incoming requests continue traces from their W3C
// traceparent header, and the push client propagates its own context.
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
package tracing
