// Package metrics provides Prometheus self-instrumentation for torch.
//
// # Overview
//
// Metrics pushed by clients live in the aggregation registry (package
// torch-hq/torch/pkg/metrics). This package instead describes the aggregator
// itself using client_golang: HTTP traffic, pushed mutations, TTL sweeps,
// configuration reloads, registry size, and the Go runtime.
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	collector.WatchRegistry(registry)
//	mux.Handle("/internal/metrics", collector.Handler())
//
// # Cardinality
//
// The metric label of torch_pushes_total is capped; names beyond the cap
// are folded into "other".
package metrics
