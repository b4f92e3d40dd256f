package config

import (
	"time"

	"torch-hq/torch/pkg/metrics"
)

// Config is the root configuration structure for the torch aggregator.
// It contains the HTTP server, registry, telemetry and service discovery
// sections.
type Config struct {
	// Server contains HTTP server configuration including listen address,
	// timeouts and the mount prefix of the collector routes.
	Server ServerConfig `yaml:"server"`

	// Registry contains metric registry configuration: the label-set TTL
	// and the optional sweep schedule.
	Registry RegistryConfig `yaml:"registry"`

	// Telemetry contains configuration for the aggregator's own logging,
	// metrics, tracing and health endpoints.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Discovery contains Consul service registration settings.
	Discovery DiscoveryConfig `yaml:"discovery"`

	// Watch controls hot reloading of the configuration file.
	Watch WatchConfig `yaml:"watch"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Format: "host:port" (e.g., "0.0.0.0:8080").
	// Default: "0.0.0.0:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits the size of request headers.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// MaxBodyBytes limits the size of a mutation request body.
	// Default: 1048576 (1MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// MetricsPrefix is the mount point of the collector routes. Mutations
	// are posted below it and scrapes read it.
	// Default: "/metrics"
	MetricsPrefix string `yaml:"metrics_prefix"`
}

// RegistryConfig contains configuration for the metric registry.
type RegistryConfig struct {
	// TTL is how long a label set may go untouched before it is evicted.
	// Accepts Go durations ("90m") or a bare number of hours ("24").
	// "0" disables eviction.
	// Default: "24h"
	TTL string `yaml:"ttl"`

	// SweepSchedule is an optional cron expression on which eviction runs
	// in addition to the sweep that follows every scrape.
	// Default: "" (sweep on scrape only)
	SweepSchedule string `yaml:"sweep_schedule"`
}

// TTLDuration returns the parsed TTL.
func (c RegistryConfig) TTLDuration() (time.Duration, error) {
	return metrics.ParseTTL(c.TTL)
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains self-instrumentation configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`

	// Health contains health check configuration.
	Health HealthConfig `yaml:"health"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains configuration for the aggregator's own metrics.
// These describe the aggregator itself and are served separately from
// the aggregated exposition.
type MetricsConfig struct {
	// Enabled controls whether self-metrics are collected and served.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path of the self-metrics endpoint. It must not
	// overlap the collector prefix.
	// Default: "/internal/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "torch"
	Namespace string `yaml:"namespace"`

	// RequestDurationBuckets defines histogram buckets for request duration (seconds).
	// Default: [0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0]
	RequestDurationBuckets []float64 `yaml:"request_duration_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint, e.g. "localhost:4317".
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "torch"
	ServiceName string `yaml:"service_name"`

	// Insecure disables TLS for the OTLP connection.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// Timeout is the timeout for OTLP exports.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// HealthConfig contains health check endpoint configuration.
type HealthConfig struct {
	// Enabled controls whether health check endpoints are enabled.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// LivenessPath is the path for the liveness probe endpoint.
	// Default: "/health"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the path for the readiness probe endpoint.
	// Default: "/ready"
	ReadinessPath string `yaml:"readiness_path"`

	// VersionPath is the path for the version information endpoint.
	// Default: "/version"
	VersionPath string `yaml:"version_path"`

	// CheckTimeout is the timeout for individual component health checks.
	// Default: 5s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}

// DiscoveryConfig contains Consul registration settings.
type DiscoveryConfig struct {
	// Enabled registers the service with the local Consul agent on startup
	// and deregisters it on shutdown.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Address is the Consul agent HTTP address.
	// Default: "127.0.0.1:8500"
	Address string `yaml:"address"`

	// Owner is published as the "owner-<owner>" tag.
	Owner string `yaml:"owner"`

	// ServiceType is the Consul service name and the "servicetype-" tag.
	// Default: "torch"
	ServiceType string `yaml:"service_type"`

	// HealthPath is the HTTP path Consul polls. Defaults to the liveness
	// path.
	HealthPath string `yaml:"health_path"`

	// CheckInterval is how often Consul polls the health path.
	// Default: 1s
	CheckInterval time.Duration `yaml:"check_interval"`

	// CheckTimeout bounds each Consul health poll.
	// Default: 1s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}

// WatchConfig contains configuration file hot-reload settings.
type WatchConfig struct {
	// Enabled watches the configuration file and applies the registry TTL
	// and logging level when it changes.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Debounce is the quiet period after the last file event before a
	// reload runs.
	// Default: 100ms
	Debounce time.Duration `yaml:"debounce"`
}
