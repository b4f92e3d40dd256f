// Torch is a push-receiving Prometheus aggregator.
//
// Short-lived jobs push counter, gauge, summary and histogram observations
// to torch over HTTP; Prometheus scrapes the aggregated state from
// /metrics/. Series that are not touched within the TTL are evicted.
//
// Usage:
//
//	# Start the aggregator on $SERVICE_PORT (or the configured address)
//	torch run
//
//	# Start with a configuration file
//	torch run --config /etc/torch/torch.yaml
//
//	# Push an observation
//	torch push counter jobs_total 1 --url http://localhost:8080 --label queue=io
//
//	# Show version information
//	torch version
package main

import "os"

func main() {
	os.Exit(Execute())
}
