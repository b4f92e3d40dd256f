// Package collector implements the HTTP push protocol of the aggregator.
//
// Short-lived clients push individual observations as JSON:
//
//	POST /metrics/counter
//	{"name": "jobs_total", "description": "Jobs run", "labels": {"queue": "io"}, "value": 1}
//
// and a Prometheus server scrapes the aggregated state from GET /metrics/.
// Counter and gauge inc/dec pushes default to a value of 1; gauge set,
// summary and histogram pushes require one. Histogram pushes may carry
// "buckets", which only take effect when the push creates the family.
//
// Malformed bodies and values the registry rejects answer 400, a name
// already bound to another kind answers 409, and unknown paths answer 404.
// A successful push answers 200 with an empty body.
package collector
