package metrics

import (
	"fmt"
	"math"
)

// CheckLabels reports whether labels may select a series of the given kind.
// Histograms reserve the le label for their buckets.
func CheckLabels(kind Kind, labels LabelSet) error {
	if kind != KindHistogram {
		return nil
	}
	if _, ok := labels.Get(bucketLabel); ok {
		return fmt.Errorf("%w: %q is not allowed as label name in histograms", ErrInvalidLabels, bucketLabel)
	}
	return nil
}

// CheckIncrement reports whether amount is a legal counter increment.
func CheckIncrement(amount float64) error {
	if amount < 0 || math.IsNaN(amount) {
		return fmt.Errorf("%w: counter cannot increment by %s", ErrInvalidArgument, FormatValue(amount))
	}
	return nil
}

// CheckBuckets validates histogram bucket bounds the way NewHistogram does,
// without building anything.
func CheckBuckets(buckets []float64) error {
	_, err := normalizeBuckets(buckets)
	return err
}
