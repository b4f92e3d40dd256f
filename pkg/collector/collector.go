package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"torch-hq/torch/pkg/metrics"
	"torch-hq/torch/pkg/telemetry/logging"
	"torch-hq/torch/pkg/telemetry/tracing"
)

// ContentType is the content type of the scrape response.
const ContentType = "text/plain; version=0.0.4; charset=utf-8"

// Mutation outcomes reported to the MutationRecorder.
const (
	ResultOK       = "ok"
	ResultInvalid  = "invalid"
	ResultConflict = "conflict"
	ResultError    = "error"
)

// MutationRecorder receives one observation per push.
type MutationRecorder interface {
	RecordMutation(name, kind, op, result string)
}

// Collector serves the push and scrape routes of the aggregator over a
// single metrics.Registry. All routes live under the collector's prefix:
//
//	POST {prefix}/counter
//	POST {prefix}/gauge/inc
//	POST {prefix}/gauge/dec
//	POST {prefix}/gauge/set
//	POST {prefix}/summary
//	POST {prefix}/histogram
//	GET  {prefix}/
//
// Collector is safe for concurrent use; the registry does the locking.
type Collector struct {
	prefix       string
	registry     *metrics.Registry
	routes       map[string]http.Handler
	logger       *slog.Logger
	recorder     MutationRecorder
	tracer       *tracing.Tracer
	maxBodyBytes int64
}

// Option configures a Collector.
type Option func(*Collector)

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Collector) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRecorder reports every push to rec.
func WithRecorder(rec MutationRecorder) Option {
	return func(c *Collector) { c.recorder = rec }
}

// WithTracer wraps every push in a span.
func WithTracer(tracer *tracing.Tracer) Option {
	return func(c *Collector) { c.tracer = tracer }
}

// WithMaxBodyBytes bounds push request bodies. Zero or less means no limit.
func WithMaxBodyBytes(n int64) Option {
	return func(c *Collector) { c.maxBodyBytes = n }
}

// New creates a Collector serving registry under prefix. A trailing slash
// on prefix is ignored.
func New(prefix string, registry *metrics.Registry, opts ...Option) *Collector {
	c := &Collector{
		prefix:   strings.TrimRight(prefix, "/"),
		registry: registry,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.routes = map[string]http.Handler{
		c.prefix + "/":          http.HandlerFunc(c.report),
		c.prefix + "/counter":   c.mutation(metrics.KindCounter, opInc, false, applyCounter),
		c.prefix + "/gauge/inc": c.mutation(metrics.KindGauge, opInc, false, applyGaugeInc),
		c.prefix + "/gauge/dec": c.mutation(metrics.KindGauge, opDec, false, applyGaugeDec),
		c.prefix + "/gauge/set": c.mutation(metrics.KindGauge, opSet, true, applyGaugeSet),
		c.prefix + "/summary":   c.mutation(metrics.KindSummary, opObserve, true, applySummary),
		c.prefix + "/histogram": c.mutation(metrics.KindHistogram, opObserve, true, applyHistogram),
	}
	if c.prefix != "" {
		c.routes[c.prefix] = http.HandlerFunc(c.report)
	}
	return c
}

// Prefix returns the path prefix the collector serves under.
func (c *Collector) Prefix() string {
	return c.prefix
}

// ServeHTTP dispatches on the exact request path.
func (c *Collector) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h, ok := c.routes[r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}
	h.ServeHTTP(w, r)
}

// report renders the registry. Rendering also evicts expired series.
func (c *Collector) report(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body := c.registry.Render()
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = io.WriteString(w, body)
}

// pushRequest is the JSON body accepted by every mutation route.
type pushRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Labels      map[string]any `json:"labels"`
	Value       *float64       `json:"value"`
	Buckets     []float64      `json:"buckets"`
}

// errBadRequest marks request-shape problems caught before the registry is
// touched.
var errBadRequest = errors.New("bad request")

// mutation builds the handler for one push route. If valueRequired is
// false a missing value defaults to 1.
func (c *Collector) mutation(kind metrics.Kind, op string, valueRequired bool, apply applyFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		req, err := c.decode(w, r, valueRequired)
		if err != nil {
			c.fail(r.Context(), w, req.Name, kind, op, err)
			return
		}

		ctx := logging.WithMetric(r.Context(), req.Name)
		span := trace.SpanFromContext(ctx)
		if c.tracer != nil {
			ctx, span = c.tracer.Start(ctx, "collector."+kind.String()+"."+op)
			defer span.End()
		}
		tracing.SetMetricAttributes(span, req.Name, kind.String(), op, len(req.Labels))

		if err = c.apply(req, kind, apply); err != nil {
			tracing.SetError(span, err)
			c.fail(ctx, w, req.Name, kind, op, err)
			return
		}

		c.record(req.Name, kind, op, ResultOK)
		c.logger.DebugContext(ctx, "mutation applied",
			"kind", kind.String(),
			"op", op,
			"value", *req.Value,
		)
		w.WriteHeader(http.StatusOK)
	})
}

// decode reads and checks the push body. The returned request is usable
// for logging even when err is non-nil.
func (c *Collector) decode(w http.ResponseWriter, r *http.Request, valueRequired bool) (pushRequest, error) {
	var req pushRequest

	body := r.Body
	if c.maxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, c.maxBodyBytes)
	}
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return req, fmt.Errorf("%w: malformed JSON body: %w", errBadRequest, err)
	}

	if req.Name == "" {
		return req, fmt.Errorf("%w: missing metric name", errBadRequest)
	}
	if req.Value == nil {
		if valueRequired {
			return req, fmt.Errorf("%w: missing value", errBadRequest)
		}
		one := 1.0
		req.Value = &one
	}
	return req, nil
}

// apply runs every check a push can fail before creating the family, so a
// rejected push leaves the registry untouched.
func (c *Collector) apply(req pushRequest, kind metrics.Kind, apply applyFunc) error {
	labels, err := metrics.Normalize(req.Labels)
	if err != nil {
		return err
	}
	if err := validate(kind, labels, *req.Value, req.Buckets); err != nil {
		return err
	}

	var opts []metrics.FamilyOption
	if kind == metrics.KindHistogram && req.Buckets != nil {
		opts = append(opts, metrics.WithBuckets(req.Buckets))
	}

	family, err := c.registry.AddMetric(kind, req.Name, req.Description, opts...)
	if err != nil {
		return err
	}
	return apply(family, labels, *req.Value)
}

// fail maps err to a status code and reports the failed push.
func (c *Collector) fail(ctx context.Context, w http.ResponseWriter, name string, kind metrics.Kind, op string, err error) {
	status, result := statusFor(err)
	c.record(name, kind, op, result)
	if name != "" {
		ctx = logging.WithMetric(ctx, name)
	}

	logFn := c.logger.WarnContext
	if status >= http.StatusInternalServerError {
		logFn = c.logger.ErrorContext
	}
	logFn(ctx, "mutation rejected",
		"kind", kind.String(),
		"op", op,
		"status", status,
		"error", err,
	)

	http.Error(w, err.Error(), status)
}

func (c *Collector) record(name string, kind metrics.Kind, op, result string) {
	if c.recorder == nil {
		return
	}
	if name == "" {
		name = "unknown"
	}
	c.recorder.RecordMutation(name, kind.String(), op, result)
}

// statusFor maps a push error onto an HTTP status and a recorder result.
func statusFor(err error) (int, string) {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge, ResultInvalid
	case errors.Is(err, metrics.ErrMetricConflict):
		return http.StatusConflict, ResultConflict
	case errors.Is(err, errBadRequest), metrics.IsClientError(err):
		return http.StatusBadRequest, ResultInvalid
	default:
		return http.StatusInternalServerError, ResultError
	}
}
