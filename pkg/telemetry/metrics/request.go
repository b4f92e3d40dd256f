package metrics

import (
	"time"

	"torch-hq/torch/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// RequestMetrics tracks HTTP traffic served by the aggregator.
//
// Metrics:
//   - torch_http_requests_total: Request count by route, method, code
//   - torch_http_request_duration_seconds: Request duration histogram by route
type RequestMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewRequestMetrics creates and registers request metrics with the provided registry.
func NewRequestMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RequestMetrics {
	rm := &RequestMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests served",
			},
			[]string{"route", "method", "code"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"route"},
		),
	}

	registry.MustRegister(rm.requestsTotal, rm.requestDuration)
	return rm
}

// RecordRequest records a single HTTP request.
func (rm *RequestMetrics) RecordRequest(route, method, code string, duration time.Duration) {
	rm.requestsTotal.WithLabelValues(route, method, code).Inc()
	rm.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// MutationMetrics tracks metric mutations pushed by clients.
//
// Metrics:
//   - torch_pushes_total: Mutation count by metric name, kind, op, result
type MutationMetrics struct {
	pushesTotal *prometheus.CounterVec
}

// NewMutationMetrics creates and registers mutation metrics with the provided registry.
func NewMutationMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *MutationMetrics {
	mm := &MutationMetrics{
		pushesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "pushes_total",
				Help:      "Total number of pushed metric mutations",
			},
			[]string{"metric", "kind", "op", "result"},
		),
	}

	registry.MustRegister(mm.pushesTotal)
	return mm
}

// RecordMutation records a single mutation.
func (mm *MutationMetrics) RecordMutation(name, kind, op, result string) {
	mm.pushesTotal.WithLabelValues(name, kind, op, result).Inc()
}
