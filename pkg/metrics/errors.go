package metrics

import "errors"

var (
	// ErrInvalidLabels is returned when label input has an unrecognized shape.
	ErrInvalidLabels = errors.New("invalid labels")

	// ErrInvalidArgument is returned when a mutation argument is illegal for
	// the metric kind, e.g. a negative counter increment.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidBuckets is returned when histogram bucket boundaries are
	// empty or contain no finite bound.
	ErrInvalidBuckets = errors.New("invalid buckets")

	// ErrMetricConflict is returned when a name is registered again under a
	// different kind.
	ErrMetricConflict = errors.New("metric type conflict")

	// ErrInvalidTTL is returned when the registry TTL is malformed.
	ErrInvalidTTL = errors.New("invalid ttl")
)

// IsClientError reports whether err was caused by caller input rather than
// by the aggregator itself. Transports map these to 4xx responses.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidLabels) ||
		errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrInvalidBuckets) ||
		errors.Is(err, ErrMetricConflict)
}
