// Package metrics implements the in-memory metrics model of the aggregator.
//
// # Overview
//
// External processes push counter, gauge, summary and histogram observations
// into a Registry; a scrape renders the whole Registry in the text exposition
// format. The package provides:
//   - LabelSet: canonical, order-independent label identity
//   - Counter, Gauge, Summary, Histogram: the four series variants
//   - Family: all label-set variants of one metric name, with TTL eviction
//   - Registry: name to family mapping with kind-conflict detection
//
// # Usage
//
//	reg, err := metrics.NewRegistry(metrics.WithTTL(24 * time.Hour))
//	if err != nil {
//	    return err
//	}
//
//	fam, err := reg.AddMetric(metrics.KindCounter, "jobs_total", "Jobs processed")
//	if err != nil {
//	    return err
//	}
//	c, err := fam.Counter(map[string]string{"queue": "default"})
//	if err != nil {
//	    return err
//	}
//	c.Inc()
//
//	body := reg.Render()
//
// # Exposition
//
// Each family renders two header lines followed by its series:
//
//	# HELP jobs_total Jobs processed
//	# TYPE jobs_total counter
//	jobs_total{queue="default"} 1.0
//
// Families are rendered sorted by name; series within a family in the order
// they were first seen. Histograms add _count, _sum and one _bucket line per
// upper bound, with the bound in an le label ("+Inf" for the last bucket).
//
// # Eviction
//
// Every call to Family.Labels stamps the series' last-seen time. Render
// sweeps each family once after producing its text and drops series that
// have not been touched for longer than the registry TTL. Sweep runs the same
// pass without rendering.
//
// # Thread Safety
//
// Registry, Family and every metric variant are safe for concurrent use.
package metrics
