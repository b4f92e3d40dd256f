package server

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrInvalidPrefix is returned when a mount prefix does not start with "/".
	ErrInvalidPrefix = errors.New("route prefix must start with /")

	// ErrOverlappingPrefix is returned when a mount prefix is a string
	// prefix of an existing one, or the other way round.
	ErrOverlappingPrefix = errors.New("overlapping route prefix")
)

// RouteUnmatched is the route label for requests no mount accepted.
const RouteUnmatched = "unmatched"

// Router dispatches requests to applications mounted under path prefixes.
// Matching is a plain string-prefix test on the request path, so "/metrics"
// also receives "/metricsfoo"; overlapping prefixes are rejected at mount
// time, which makes the match unique. The exact path "/" always goes to the
// root handler, and anything else unmatched answers 404.
type Router struct {
	mu     sync.RWMutex
	mounts map[string]http.Handler
	root   http.Handler
}

// NewRouter creates a router with no mounts and a 404 root.
func NewRouter() *Router {
	return &Router{
		mounts: make(map[string]http.Handler),
		root:   http.NotFoundHandler(),
	}
}

// AddApplication mounts handler under prefix.
func (rt *Router) AddApplication(prefix string, handler http.Handler) error {
	if !strings.HasPrefix(prefix, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidPrefix, prefix)
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	for existing := range rt.mounts {
		if strings.HasPrefix(prefix, existing) || strings.HasPrefix(existing, prefix) {
			return fmt.Errorf("%w: %q conflicts with %q", ErrOverlappingPrefix, prefix, existing)
		}
	}
	rt.mounts[prefix] = handler
	return nil
}

// SetRoot sets the handler for the exact path "/". A nil handler restores
// the 404 default.
func (rt *Router) SetRoot(handler http.Handler) {
	if handler == nil {
		handler = http.NotFoundHandler()
	}
	rt.mu.Lock()
	rt.root = handler
	rt.mu.Unlock()
}

// Prefixes returns the mounted prefixes in sorted order.
func (rt *Router) Prefixes() []string {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	out := make([]string, 0, len(rt.mounts))
	for prefix := range rt.mounts {
		out = append(out, prefix)
	}
	sort.Strings(out)
	return out
}

// Route returns the mount that serves r: its prefix, "/" for the root, or
// RouteUnmatched. It is the bounded route label used in request metrics.
func (rt *Router) Route(r *http.Request) string {
	if r.URL.Path == "/" {
		return "/"
	}
	if prefix, _ := rt.match(r.URL.Path); prefix != "" {
		return prefix
	}
	return RouteUnmatched
}

func (rt *Router) match(path string) (string, http.Handler) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	for prefix, h := range rt.mounts {
		if strings.HasPrefix(path, prefix) {
			return prefix, h
		}
	}
	return "", nil
}

// ServeHTTP implements http.Handler.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/" {
		rt.mu.RLock()
		root := rt.root
		rt.mu.RUnlock()
		root.ServeHTTP(w, r)
		return
	}

	if _, h := rt.match(r.URL.Path); h != nil {
		h.ServeHTTP(w, r)
		return
	}
	http.NotFound(w, r)
}
