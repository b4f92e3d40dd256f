// Package client pushes metric observations to a torch aggregator.
//
// Metrics must be declared with AddMetric before use; the declared
// description travels with every push so the aggregator can create the
// family on first sight.
//
//	c := client.New("http://torch:8080")
//	c.AddMetric("jobs_total", "Jobs processed")
//	if err := c.IncCounter(ctx, "jobs_total", map[string]string{"queue": "io"}, 1); err != nil {
//	    return err
//	}
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"torch-hq/torch/pkg/telemetry/tracing"
)

// ErrUndefinedMetric is returned when pushing to a name AddMetric was never
// called for.
var ErrUndefinedMetric = errors.New("undefined metric")

// DefaultPrefix is the path prefix of the push routes.
const DefaultPrefix = "/metrics"

// StatusError is returned when the aggregator rejects a push.
type StatusError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("torch returned %d", e.StatusCode)
	}
	return fmt.Sprintf("torch returned %d: %s", e.StatusCode, e.Message)
}

type definition struct {
	description string
	buckets     []float64
}

// finiteBuckets drops +Inf bounds, which JSON cannot carry. The aggregator
// appends +Inf to every histogram itself.
func finiteBuckets(buckets []float64) []float64 {
	out := make([]float64, 0, len(buckets))
	for _, b := range buckets {
		if !math.IsInf(b, 1) {
			out = append(out, b)
		}
	}
	return out
}

// Client pushes observations over HTTP. It is safe for concurrent use.
type Client struct {
	baseURL    string
	prefix     string
	httpClient *http.Client

	mu      sync.RWMutex
	metrics map[string]definition
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithPrefix sets the push route prefix. Defaults to DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(c *Client) { c.prefix = strings.TrimRight(prefix, "/") }
}

// New creates a client for the aggregator at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		prefix:     DefaultPrefix,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		metrics:    make(map[string]definition),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddMetric declares a metric. Buckets are only used by Histogram pushes.
// Declaring a name again replaces its description and buckets.
func (c *Client) AddMetric(name, description string, buckets ...float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics[name] = definition{description: description, buckets: buckets}
}

// IncCounter adds amount to a counter.
func (c *Client) IncCounter(ctx context.Context, name string, labels map[string]string, amount float64) error {
	return c.push(ctx, "/counter", name, labels, amount, false)
}

// IncGauge adds amount to a gauge.
func (c *Client) IncGauge(ctx context.Context, name string, labels map[string]string, amount float64) error {
	return c.push(ctx, "/gauge/inc", name, labels, amount, false)
}

// DecGauge subtracts amount from a gauge.
func (c *Client) DecGauge(ctx context.Context, name string, labels map[string]string, amount float64) error {
	return c.push(ctx, "/gauge/dec", name, labels, amount, false)
}

// SetGauge sets a gauge.
func (c *Client) SetGauge(ctx context.Context, name string, labels map[string]string, value float64) error {
	return c.push(ctx, "/gauge/set", name, labels, value, false)
}

// Summary records one summary observation.
func (c *Client) Summary(ctx context.Context, name string, labels map[string]string, value float64) error {
	return c.push(ctx, "/summary", name, labels, value, false)
}

// Histogram records one histogram observation, sending the declared
// buckets if there are any.
func (c *Client) Histogram(ctx context.Context, name string, labels map[string]string, value float64) error {
	return c.push(ctx, "/histogram", name, labels, value, true)
}

type pushBody struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Labels      map[string]string `json:"labels"`
	Value       float64           `json:"value"`
	Buckets     []float64         `json:"buckets,omitempty"`
}

func (c *Client) push(ctx context.Context, route, name string, labels map[string]string, value float64, withBuckets bool) error {
	c.mu.RLock()
	def, ok := c.metrics[name]
	c.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUndefinedMetric, name)
	}

	if labels == nil {
		labels = map[string]string{}
	}
	body := pushBody{
		Name:        name,
		Description: def.description,
		Labels:      labels,
		Value:       value,
	}
	if withBuckets && len(def.buckets) > 0 {
		body.Buckets = finiteBuckets(def.buckets)
		if len(body.Buckets) == 0 {
			return fmt.Errorf("histogram %s needs at least one finite bucket", name)
		}
	}

	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode push for %s: %w", name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.prefix+route, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	tracing.Inject(ctx, req.Header)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("push %s to %s: %w", name, route, err)
	}
	defer resp.Body.Close()

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}
	return nil
}
