package metrics

import (
	"fmt"
	"strings"
	"sync"
)

// Kind identifies one of the four metric variants.
type Kind int

const (
	// KindCounter is a monotonically non-decreasing value.
	KindCounter Kind = iota
	// KindGauge is a value that can go up and down.
	KindGauge
	// KindSummary tracks the count and sum of observations.
	KindSummary
	// KindHistogram tracks count, sum and cumulative bucket counts.
	KindHistogram
)

// String returns the exposition TYPE word for the kind.
func (k Kind) String() string {
	switch k {
	case KindCounter:
		return "counter"
	case KindGauge:
		return "gauge"
	case KindSummary:
		return "summary"
	case KindHistogram:
		return "histogram"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind parses a TYPE word back into a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "counter":
		return KindCounter, nil
	case "gauge":
		return KindGauge, nil
	case "summary":
		return KindSummary, nil
	case "histogram":
		return KindHistogram, nil
	default:
		return 0, fmt.Errorf("unknown metric kind %q", s)
	}
}

// Metric is a single time series: a name, a label set and mutable state.
// The set of implementations is closed: *Counter, *Gauge, *Summary and
// *Histogram. Mutators live on the concrete types.
type Metric interface {
	Name() string
	Labels() LabelSet
	Kind() Kind

	// Render returns the exposition lines for this series, newline
	// separated, without a trailing newline.
	Render() string

	sealed()
}

// series holds the identity shared by every variant.
type series struct {
	name   string
	labels LabelSet
}

func (s series) Name() string     { return s.name }
func (s series) Labels() LabelSet { return s.labels }
func (series) sealed()            {}

// Counter is a monotonically non-decreasing value.
type Counter struct {
	series

	mu    sync.Mutex
	value float64
}

// NewCounter creates a counter at zero.
func NewCounter(name string, labels LabelSet) *Counter {
	return &Counter{series: series{name: name, labels: labels}}
}

// Kind returns KindCounter.
func (c *Counter) Kind() Kind { return KindCounter }

// Inc increments the counter by 1.
func (c *Counter) Inc() {
	c.mu.Lock()
	c.value++
	c.mu.Unlock()
}

// Add increments the counter by amount. A negative or NaN amount fails with
// ErrInvalidArgument and leaves the value unchanged.
func (c *Counter) Add(amount float64) error {
	if err := CheckIncrement(amount); err != nil {
		return err
	}
	c.mu.Lock()
	c.value += amount
	c.mu.Unlock()
	return nil
}

// Value returns the current value.
func (c *Counter) Value() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Render renders the single counter line.
func (c *Counter) Render() string {
	return RenderLine(c.name, c.labels.pairs, c.Value())
}

// Gauge is a value that can be set, increased and decreased freely.
type Gauge struct {
	series

	mu    sync.Mutex
	value float64
}

// NewGauge creates a gauge at zero.
func NewGauge(name string, labels LabelSet) *Gauge {
	return &Gauge{series: series{name: name, labels: labels}}
}

// Kind returns KindGauge.
func (g *Gauge) Kind() Kind { return KindGauge }

// Inc increments the gauge by 1.
func (g *Gauge) Inc() { g.Add(1) }

// Dec decrements the gauge by 1.
func (g *Gauge) Dec() { g.Add(-1) }

// Add adds amount to the gauge.
func (g *Gauge) Add(amount float64) {
	g.mu.Lock()
	g.value += amount
	g.mu.Unlock()
}

// Sub subtracts amount from the gauge.
func (g *Gauge) Sub(amount float64) {
	g.mu.Lock()
	g.value -= amount
	g.mu.Unlock()
}

// Set replaces the gauge value.
func (g *Gauge) Set(value float64) {
	g.mu.Lock()
	g.value = value
	g.mu.Unlock()
}

// Value returns the current value.
func (g *Gauge) Value() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.value
}

// Render renders the single gauge line.
func (g *Gauge) Render() string {
	return RenderLine(g.name, g.labels.pairs, g.Value())
}

// Summary tracks how many observations were made and their sum.
type Summary struct {
	series

	mu    sync.Mutex
	count uint64
	sum   float64
}

// NewSummary creates an empty summary.
func NewSummary(name string, labels LabelSet) *Summary {
	return &Summary{series: series{name: name, labels: labels}}
}

// Kind returns KindSummary.
func (s *Summary) Kind() Kind { return KindSummary }

// Observe records one observation.
func (s *Summary) Observe(amount float64) {
	s.mu.Lock()
	s.count++
	s.sum += amount
	s.mu.Unlock()
}

// Count returns the number of observations.
func (s *Summary) Count() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Sum returns the sum of observations.
func (s *Summary) Sum() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sum
}

// Render renders the _count and _sum lines.
func (s *Summary) Render() string {
	s.mu.Lock()
	count, sum := s.count, s.sum
	s.mu.Unlock()

	return RenderLine(s.name+"_count", s.labels.pairs, float64(count)) + "\n" +
		RenderLine(s.name+"_sum", s.labels.pairs, sum)
}
