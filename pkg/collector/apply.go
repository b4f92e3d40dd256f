package collector

import "torch-hq/torch/pkg/metrics"

// Operation names used in self-metrics and spans.
const (
	opInc     = "inc"
	opDec     = "dec"
	opSet     = "set"
	opObserve = "observe"
)

// validate checks labels, value and buckets against kind without touching
// any registry state. Once it passes, the matching applyFunc cannot fail on
// input.
func validate(kind metrics.Kind, labels metrics.LabelSet, value float64, buckets []float64) error {
	if err := metrics.CheckLabels(kind, labels); err != nil {
		return err
	}
	switch kind {
	case metrics.KindCounter:
		return metrics.CheckIncrement(value)
	case metrics.KindHistogram:
		if buckets != nil {
			return metrics.CheckBuckets(buckets)
		}
	}
	return nil
}

// applyFunc performs one mutation on the series labels selects in family.
type applyFunc func(family *metrics.Family, labels metrics.LabelSet, value float64) error

func applyCounter(family *metrics.Family, labels metrics.LabelSet, value float64) error {
	c, err := family.Counter(labels)
	if err != nil {
		return err
	}
	return c.Add(value)
}

func applyGaugeInc(family *metrics.Family, labels metrics.LabelSet, value float64) error {
	g, err := family.Gauge(labels)
	if err != nil {
		return err
	}
	g.Add(value)
	return nil
}

func applyGaugeDec(family *metrics.Family, labels metrics.LabelSet, value float64) error {
	g, err := family.Gauge(labels)
	if err != nil {
		return err
	}
	g.Sub(value)
	return nil
}

func applyGaugeSet(family *metrics.Family, labels metrics.LabelSet, value float64) error {
	g, err := family.Gauge(labels)
	if err != nil {
		return err
	}
	g.Set(value)
	return nil
}

func applySummary(family *metrics.Family, labels metrics.LabelSet, value float64) error {
	s, err := family.Summary(labels)
	if err != nil {
		return err
	}
	s.Observe(value)
	return nil
}

func applyHistogram(family *metrics.Family, labels metrics.LabelSet, value float64) error {
	h, err := family.Histogram(labels)
	if err != nil {
		return err
	}
	h.Observe(value)
	return nil
}
