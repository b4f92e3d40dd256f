package metrics

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func bucketCount(t *testing.T, h *Histogram, bound float64) uint64 {
	t.Helper()
	for _, b := range h.Buckets() {
		if b.UpperBound == bound {
			return b.Count
		}
	}
	t.Fatalf("no bucket with bound %v", bound)
	return 0
}

func TestHistogram_Observe(t *testing.T) {
	h, err := NewHistogram("h", testLabels(), nil)
	if err != nil {
		t.Fatalf("NewHistogram() error: %v", err)
	}
	inf := math.Inf(1)

	for _, b := range []float64{1.0, 2.5, 5.0, inf} {
		if n := bucketCount(t, h, b); n != 0 {
			t.Errorf("bucket %v = %d before observations", b, n)
		}
	}

	h.Observe(2)
	checks := map[float64]uint64{1.0: 0, 2.5: 1, 5.0: 1, inf: 1}
	for b, want := range checks {
		if got := bucketCount(t, h, b); got != want {
			t.Errorf("after Observe(2) bucket %v = %d, want %d", b, got, want)
		}
	}
	if h.Count() != 1 || h.Sum() != 2 {
		t.Errorf("count/sum = %d/%v, want 1/2", h.Count(), h.Sum())
	}

	h.Observe(2.5)
	checks = map[float64]uint64{1.0: 0, 2.5: 2, 5.0: 2, inf: 2}
	for b, want := range checks {
		if got := bucketCount(t, h, b); got != want {
			t.Errorf("after Observe(2.5) bucket %v = %d, want %d", b, got, want)
		}
	}
	if h.Sum() != 4.5 {
		t.Errorf("sum = %v, want 4.5", h.Sum())
	}

	h.Observe(inf)
	checks = map[float64]uint64{1.0: 0, 2.5: 2, 5.0: 2, inf: 3}
	for b, want := range checks {
		if got := bucketCount(t, h, b); got != want {
			t.Errorf("after Observe(+Inf) bucket %v = %d, want %d", b, got, want)
		}
	}
	if h.Count() != 3 {
		t.Errorf("count = %d, want 3", h.Count())
	}
	if !math.IsInf(h.Sum(), 1) {
		t.Errorf("sum = %v, want +Inf", h.Sum())
	}
}

func TestHistogram_BelowSmallestBound(t *testing.T) {
	h, err := NewHistogram("h", LabelSet{}, []float64{1, 2})
	if err != nil {
		t.Fatalf("NewHistogram() error: %v", err)
	}
	h.Observe(-5)
	for _, b := range h.Buckets() {
		if b.Count != 1 {
			t.Errorf("bucket %v = %d, want 1", b.UpperBound, b.Count)
		}
	}
}

func TestHistogram_Buckets(t *testing.T) {
	inf := math.Inf(1)

	tests := []struct {
		name    string
		buckets []float64
		want    []float64
		wantErr bool
	}{
		{name: "appends +Inf", buckets: []float64{0, 1, 2}, want: []float64{0, 1, 2, inf}},
		{name: "keeps +Inf", buckets: []float64{0, 1, 2, inf}, want: []float64{0, 1, 2, inf}},
		{name: "sorts", buckets: []float64{2, 0, 1}, want: []float64{0, 1, 2, inf}},
		{name: "dedups", buckets: []float64{1, 1, 2, 2, inf, inf}, want: []float64{1, 2, inf}},
		{name: "empty", buckets: []float64{}, wantErr: true},
		{name: "only +Inf", buckets: []float64{inf}, wantErr: true},
		{name: "repeated +Inf", buckets: []float64{inf, inf}, wantErr: true},
		{name: "NaN", buckets: []float64{1, math.NaN()}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := NewHistogram("h", testLabels(), tt.buckets)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidBuckets) {
					t.Fatalf("NewHistogram() error = %v, want ErrInvalidBuckets", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewHistogram() unexpected error: %v", err)
			}
			if got := h.UpperBounds(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("UpperBounds() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHistogram_DoesNotMutateInput(t *testing.T) {
	in := []float64{3, 1, 2}
	if _, err := NewHistogram("h", LabelSet{}, in); err != nil {
		t.Fatalf("NewHistogram() error: %v", err)
	}
	if !reflect.DeepEqual(in, []float64{3, 1, 2}) {
		t.Errorf("input was modified: %v", in)
	}
}

func TestHistogram_Render(t *testing.T) {
	h, err := NewHistogram("h", testLabels(), []float64{1, 2})
	if err != nil {
		t.Fatalf("NewHistogram() error: %v", err)
	}
	h.Observe(1.5)

	want := "h_count{foo=\"bar\"} 1.0\n" +
		"h_sum{foo=\"bar\"} 1.5\n" +
		"h_bucket{foo=\"bar\",le=\"1.0\"} 0.0\n" +
		"h_bucket{foo=\"bar\",le=\"2.0\"} 1.0\n" +
		"h_bucket{foo=\"bar\",le=\"+Inf\"} 1.0"
	if got := h.Render(); got != want {
		t.Errorf("Render() =\n%s\nwant\n%s", got, want)
	}
}
