package metrics

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// FamilyOption configures kind-specific construction arguments of a family.
type FamilyOption func(*familyOptions)

type familyOptions struct {
	buckets []float64
	now     func() time.Time
}

// WithBuckets sets histogram bucket upper bounds for every series of the
// family. It is ignored for other kinds.
func WithBuckets(buckets []float64) FamilyOption {
	return func(o *familyOptions) {
		o.buckets = buckets
	}
}

// withClock overrides the family's time source.
func withClock(now func() time.Time) FamilyOption {
	return func(o *familyOptions) {
		o.now = now
	}
}

// entry pairs a series with the last time it was touched.
type entry struct {
	metric   Metric
	lastSeen time.Time
}

// Family groups every label-set variant of one named metric. All series in
// a family share its kind and construction arguments.
//
// Family is safe for concurrent use. Get-or-create, last-seen stamping,
// eviction and rendering all happen under the family lock, so a series
// cannot be evicted while Labels is refreshing it.
type Family struct {
	name        string
	description string
	kind        Kind
	buckets     []float64
	now         func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
	order   []*entry
}

// NewFamily creates an empty family. Histogram buckets are validated here
// so that a family with unusable bounds is never created.
func NewFamily(kind Kind, name, description string, opts ...FamilyOption) (*Family, error) {
	o := familyOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	f := &Family{
		name:        name,
		description: description,
		kind:        kind,
		now:         o.now,
		entries:     make(map[string]*entry),
	}

	switch kind {
	case KindCounter, KindGauge, KindSummary:
	case KindHistogram:
		buckets := o.buckets
		if buckets == nil {
			buckets = DefBuckets
		}
		bounds, err := normalizeBuckets(buckets)
		if err != nil {
			return nil, fmt.Errorf("histogram %q: %w", name, err)
		}
		f.buckets = bounds
	default:
		return nil, fmt.Errorf("%w: unknown metric kind %d", ErrInvalidArgument, int(kind))
	}

	return f, nil
}

// Name returns the metric name.
func (f *Family) Name() string { return f.name }

// Description returns the HELP text.
func (f *Family) Description() string { return f.description }

// Kind returns the kind shared by all series.
func (f *Family) Kind() Kind { return f.kind }

// Buckets returns the normalized histogram bounds, or nil for other kinds.
func (f *Family) Buckets() []float64 {
	if f.buckets == nil {
		return nil
	}
	out := make([]float64, len(f.buckets))
	copy(out, f.buckets)
	return out
}

// Labels returns the series for the given labels, creating it on first use,
// and stamps its last-seen time. Equal label sets always yield the same
// Metric instance until the series is evicted.
func (f *Family) Labels(key any) (Metric, error) {
	labels, err := Normalize(key)
	if err != nil {
		return nil, err
	}
	if err := CheckLabels(f.kind, labels); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.entries[labels.Key()]
	if !ok {
		m, err := f.newMetric(labels)
		if err != nil {
			return nil, err
		}
		e = &entry{metric: m}
		f.entries[labels.Key()] = e
		f.order = append(f.order, e)
	}
	e.lastSeen = f.now()
	return e.metric, nil
}

func (f *Family) newMetric(labels LabelSet) (Metric, error) {
	switch f.kind {
	case KindCounter:
		return NewCounter(f.name, labels), nil
	case KindGauge:
		return NewGauge(f.name, labels), nil
	case KindSummary:
		return NewSummary(f.name, labels), nil
	case KindHistogram:
		return newHistogramWithBounds(f.name, labels, f.buckets), nil
	default:
		return nil, fmt.Errorf("%w: unknown metric kind %d", ErrInvalidArgument, int(f.kind))
	}
}

// Counter is Labels for counter families.
func (f *Family) Counter(key any) (*Counter, error) {
	m, err := f.typed(KindCounter, key)
	if err != nil {
		return nil, err
	}
	return m.(*Counter), nil
}

// Gauge is Labels for gauge families.
func (f *Family) Gauge(key any) (*Gauge, error) {
	m, err := f.typed(KindGauge, key)
	if err != nil {
		return nil, err
	}
	return m.(*Gauge), nil
}

// Summary is Labels for summary families.
func (f *Family) Summary(key any) (*Summary, error) {
	m, err := f.typed(KindSummary, key)
	if err != nil {
		return nil, err
	}
	return m.(*Summary), nil
}

// Histogram is Labels for histogram families.
func (f *Family) Histogram(key any) (*Histogram, error) {
	m, err := f.typed(KindHistogram, key)
	if err != nil {
		return nil, err
	}
	return m.(*Histogram), nil
}

func (f *Family) typed(want Kind, key any) (Metric, error) {
	if f.kind != want {
		return nil, fmt.Errorf("%w: %q is a %s, not a %s", ErrMetricConflict, f.name, f.kind, want)
	}
	return f.Labels(key)
}

// Cleanup evicts every series whose last-seen time is more than ttl ago and
// returns how many were removed. A zero or negative ttl disables eviction.
func (f *Family) Cleanup(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	kept := f.order[:0]
	evicted := 0
	for _, e := range f.order {
		if now.Sub(e.lastSeen) > ttl {
			delete(f.entries, e.metric.Labels().Key())
			evicted++
			continue
		}
		kept = append(kept, e)
	}
	// Drop references held past the new length.
	for i := len(kept); i < len(f.order); i++ {
		f.order[i] = nil
	}
	f.order = kept
	return evicted
}

// Len returns the number of live series.
func (f *Family) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.order)
}

// Series returns the live series in creation order.
func (f *Family) Series() []Metric {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Metric, len(f.order))
	for i, e := range f.order {
		out[i] = e.metric
	}
	return out
}

// LastSeen returns when the series with the given labels was last touched.
func (f *Family) LastSeen(key any) (time.Time, bool) {
	labels, err := Normalize(key)
	if err != nil {
		return time.Time{}, false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.entries[labels.Key()]
	if !ok {
		return time.Time{}, false
	}
	return e.lastSeen, true
}

// Render returns the HELP and TYPE headers followed by every series in
// creation order, newline separated, without a trailing newline.
func (f *Family) Render() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	lines := make([]string, 0, len(f.order)+2)
	lines = append(lines,
		"# HELP "+f.name+" "+f.description,
		"# TYPE "+f.name+" "+f.kind.String(),
	)
	for _, e := range f.order {
		lines = append(lines, e.metric.Render())
	}
	return strings.Join(lines, "\n")
}
