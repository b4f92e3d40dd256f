package metrics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
)

// bucketLabel is the label carrying a bucket's upper bound ("less or equal").
const bucketLabel = "le"

// DefBuckets are the default histogram bucket upper bounds.
var DefBuckets = []float64{
	.005, .01, .025, .05, .075, .1, .25, .5, .75, 1.0, 2.5, 5.0, 7.5, 10.0, math.Inf(1),
}

// Bucket is a snapshot of one cumulative histogram bucket.
type Bucket struct {
	UpperBound float64
	Count      uint64
}

// Histogram counts observations into cumulative buckets and tracks their
// count and sum.
type Histogram struct {
	series

	// bounds is strictly ascending and always ends with +Inf.
	bounds []float64

	mu     sync.Mutex
	counts []uint64
	count  uint64
	sum    float64
}

// NewHistogram creates a histogram with the given bucket upper bounds. A nil
// slice selects DefBuckets.
func NewHistogram(name string, labels LabelSet, buckets []float64) (*Histogram, error) {
	if buckets == nil {
		buckets = DefBuckets
	}
	bounds, err := normalizeBuckets(buckets)
	if err != nil {
		return nil, err
	}
	return newHistogramWithBounds(name, labels, bounds), nil
}

// newHistogramWithBounds shares already normalized bounds between series.
func newHistogramWithBounds(name string, labels LabelSet, bounds []float64) *Histogram {
	return &Histogram{
		series: series{name: name, labels: labels},
		bounds: bounds,
		counts: make([]uint64, len(bounds)),
	}
}

// normalizeBuckets validates, deduplicates and sorts bucket bounds and
// appends +Inf when the top bound is finite. The input is not modified.
func normalizeBuckets(buckets []float64) ([]float64, error) {
	if len(buckets) == 0 {
		return nil, fmt.Errorf("%w: at least one bucket is required", ErrInvalidBuckets)
	}

	bounds := make([]float64, 0, len(buckets)+1)
	finite := false
	for _, b := range buckets {
		if math.IsNaN(b) {
			return nil, fmt.Errorf("%w: NaN is not a valid bucket bound", ErrInvalidBuckets)
		}
		if !math.IsInf(b, 1) {
			finite = true
		}
		bounds = append(bounds, b)
	}
	if !finite {
		return nil, fmt.Errorf("%w: at least one finite bucket bound is required", ErrInvalidBuckets)
	}

	sort.Float64s(bounds)
	out := bounds[:1]
	for _, b := range bounds[1:] {
		if b != out[len(out)-1] {
			out = append(out, b)
		}
	}
	if !math.IsInf(out[len(out)-1], 1) {
		out = append(out, math.Inf(1))
	}
	return out, nil
}

// Kind returns KindHistogram.
func (h *Histogram) Kind() Kind { return KindHistogram }

// Observe records one observation. Every bucket whose upper bound is greater
// than or equal to amount is incremented.
func (h *Histogram) Observe(amount float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.count++
	h.sum += amount
	for i := len(h.bounds) - 1; i >= 0; i-- {
		if amount > h.bounds[i] || math.IsNaN(amount) {
			break
		}
		h.counts[i]++
	}
}

// UpperBounds returns a copy of the bucket upper bounds in ascending order.
func (h *Histogram) UpperBounds() []float64 {
	out := make([]float64, len(h.bounds))
	copy(out, h.bounds)
	return out
}

// Buckets returns a snapshot of the buckets in ascending bound order.
func (h *Histogram) Buckets() []Bucket {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Bucket, len(h.bounds))
	for i, b := range h.bounds {
		out[i] = Bucket{UpperBound: b, Count: h.counts[i]}
	}
	return out
}

// Count returns the number of observations.
func (h *Histogram) Count() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

// Sum returns the sum of observations.
func (h *Histogram) Sum() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sum
}

// Render renders _count, _sum and one _bucket line per bound in ascending
// order, each bucket line carrying an extra le label.
func (h *Histogram) Render() string {
	h.mu.Lock()
	count, sum := h.count, h.sum
	counts := make([]uint64, len(h.counts))
	copy(counts, h.counts)
	h.mu.Unlock()

	lines := make([]string, 0, len(h.bounds)+2)
	lines = append(lines,
		RenderLine(h.name+"_count", h.labels.pairs, float64(count)),
		RenderLine(h.name+"_sum", h.labels.pairs, sum),
	)

	bucketName := h.name + "_bucket"
	for i, bound := range h.bounds {
		bl := h.labels.With(bucketLabel, FormatValue(bound))
		lines = append(lines, RenderLine(bucketName, bl.pairs, float64(counts[i])))
	}
	return strings.Join(lines, "\n")
}
