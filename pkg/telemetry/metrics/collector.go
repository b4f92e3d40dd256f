package metrics

import (
	"strconv"
	"sync"
	"time"

	"torch-hq/torch/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// maxMetricNames bounds the metric label of torch_pushes_total. Names past
// the limit are counted as "other".
const maxMetricNames = 1000

// Collector owns the aggregator's own Prometheus metrics. These describe
// the aggregator process and are served apart from the aggregated
// exposition.
//
// A nil *Collector, or one built from a disabled config, accepts every
// Record call and does nothing.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	requestMetrics  *RequestMetrics
	mutationMetrics *MutationMetrics

	// Sweep and reload outcomes
	sweepsTotal   *prometheus.CounterVec
	sweepDuration prometheus.Histogram
	reloadsTotal  *prometheus.CounterVec

	registryOnce sync.Once

	names *CardinalityLimiter
}

// NewCollector creates a collector and registers its metrics plus the Go
// runtime and process collectors with registry. If registry is nil a new
// one is created.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.RequestDurationBuckets) == 0 {
		cfg.RequestDurationBuckets = append([]float64(nil), config.DefaultRequestDurationBuckets...)
	}

	c := &Collector{
		config:   cfg,
		registry: registry,
		names:    NewCardinalityLimiter(maxMetricNames),
	}

	c.requestMetrics = NewRequestMetrics(cfg, registry)
	c.mutationMetrics = NewMutationMetrics(cfg, registry)

	c.sweepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "sweeps_total",
			Help:      "Total number of TTL sweeps by trigger",
		},
		[]string{"trigger"},
	)
	c.sweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Duration of scheduled TTL sweeps in seconds",
			Buckets:   cfg.RequestDurationBuckets,
		},
	)
	c.reloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "config_reloads_total",
			Help:      "Total number of configuration reloads by result",
		},
		[]string{"result"},
	)

	registry.MustRegister(
		c.sweepsTotal,
		c.sweepDuration,
		c.reloadsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// RecordRequest records a completed HTTP request.
//
// Parameters:
//   - route: Route name (e.g., "counter", "scrape", "health")
//   - method: HTTP method
//   - status: HTTP status code
//   - duration: Time spent serving the request
func (c *Collector) RecordRequest(route, method string, status int, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.requestMetrics.RecordRequest(route, method, strconv.Itoa(status), duration)
}

// RecordMutation records one pushed mutation.
//
// Parameters:
//   - name: Metric name the client pushed to
//   - kind: Metric kind ("counter", "gauge", "summary", "histogram")
//   - op: Operation ("inc", "dec", "set", "observe")
//   - result: "ok", "invalid", or "conflict"
func (c *Collector) RecordMutation(name, kind, op, result string) {
	if !c.enabled() {
		return
	}
	if !c.names.Allow(name) {
		name = "other"
	}
	c.mutationMetrics.RecordMutation(name, kind, op, result)
}

// RecordSweep records a TTL sweep.
//
// Parameters:
//   - trigger: "schedule" or "manual"
//   - duration: Time taken by the sweep
func (c *Collector) RecordSweep(trigger string, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.sweepsTotal.WithLabelValues(trigger).Inc()
	c.sweepDuration.Observe(duration.Seconds())
}

// RecordReload records a configuration reload attempt.
func (c *Collector) RecordReload(success bool) {
	if !c.enabled() {
		return
	}
	result := "success"
	if !success {
		result = "error"
	}
	c.reloadsTotal.WithLabelValues(result).Inc()
}

// Registry returns the underlying Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label values a metric accepts.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether value may be used as a label value: it was seen
// before or the limit has not been reached yet.
func (cl *CardinalityLimiter) Allow(value string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[value]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[value]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[value] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
