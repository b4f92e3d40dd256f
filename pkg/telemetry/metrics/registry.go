package metrics

import (
	torchmetrics "torch-hq/torch/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

// StatsSource is implemented by *metrics.Registry.
type StatsSource interface {
	Stats() torchmetrics.Stats
}

// WatchRegistry exports the size and lifetime totals of an aggregation
// registry. The values are read from src at scrape time. Only the first
// call has an effect.
//
// Metrics:
//   - torch_registry_families: Number of registered metric families
//   - torch_registry_series: Number of live label sets
//   - torch_registry_evicted_series_total: Label sets removed by TTL sweeps
//   - torch_registry_renders_total: Exposition renders served
func (c *Collector) WatchRegistry(src StatsSource) {
	if !c.enabled() || src == nil {
		return
	}

	c.registryOnce.Do(func() {
		ns := c.config.Namespace
		c.registry.MustRegister(
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Namespace: ns,
					Subsystem: "registry",
					Name:      "families",
					Help:      "Number of registered metric families",
				},
				func() float64 { return float64(src.Stats().Families) },
			),
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Namespace: ns,
					Subsystem: "registry",
					Name:      "series",
					Help:      "Number of live label sets across all families",
				},
				func() float64 { return float64(src.Stats().Series) },
			),
			prometheus.NewCounterFunc(
				prometheus.CounterOpts{
					Namespace: ns,
					Subsystem: "registry",
					Name:      "evicted_series_total",
					Help:      "Total number of label sets evicted by TTL sweeps",
				},
				func() float64 { return float64(src.Stats().Evicted) },
			),
			prometheus.NewCounterFunc(
				prometheus.CounterOpts{
					Namespace: ns,
					Subsystem: "registry",
					Name:      "renders_total",
					Help:      "Total number of exposition renders",
				},
				func() float64 { return float64(src.Stats().Renders) },
			),
		)
	})
}
