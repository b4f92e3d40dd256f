// Package health provides liveness, readiness and version endpoints.
//
// Liveness only says the process is serving HTTP and is what the Consul
// agent polls. Readiness runs registered component checks and fails while
// the server drains during shutdown.
//
//	checker := health.New(5 * time.Second)
//	checker.RegisterCheck("registry", func(ctx context.Context) error { return nil })
//	mux.Handle("/health", checker.LivenessHandler())
//	mux.Handle("/ready", checker.ReadinessHandler())
package health
