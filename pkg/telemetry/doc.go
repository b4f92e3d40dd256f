// Package telemetry groups the observability packages used by torch itself.
//
// # Components
//
//   - logging: structured slog logging with request-scoped context
//   - metrics: Prometheus self-metrics about pushes, scrapes and sweeps
//   - tracing: OpenTelemetry distributed tracing
//   - health: liveness, readiness and version endpoints
//
// These packages describe the aggregator process. The metrics that clients
// push live in pkg/metrics and never mix with
// the self-metrics registry.
//
// # Usage
//
//	self := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
package telemetry
