// Package middleware provides the HTTP middleware chain used by the torch
// server.
//
// The chain, outermost first, is:
//
//	Recovery -> RequestID -> Logging -> Tracing -> router
//
// Recovery turns handler panics into 500 responses. RequestID assigns or
// propagates X-Request-ID and stores it in the context, where the logging
// package picks it up. Logging writes one structured line per request and
// feeds the self-instrumentation request metrics. Tracing continues an
// incoming W3C trace and annotates the log context with trace and span IDs.
//
// Chain composes them:
//
//	handler := middleware.Chain(router,
//	    middleware.Recovery(logger),
//	    middleware.RequestID,
//	    middleware.Logging(logger, collector, router.Route),
//	    middleware.Tracing(tracer),
//	)
package middleware
