package metrics

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Option configures a Registry.
type Option func(*Registry) error

// WithTTL sets how long a label set may go untouched before it is evicted
// on the next sweep. Zero disables eviction; negative values fail with
// ErrInvalidTTL.
func WithTTL(ttl time.Duration) Option {
	return func(r *Registry) error {
		if ttl < 0 {
			return fmt.Errorf("%w: %s is negative", ErrInvalidTTL, ttl)
		}
		r.ttl = ttl
		return nil
	}
}

// WithClock replaces the time source used for last-seen stamps and sweeps.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) error {
		if now == nil {
			return fmt.Errorf("clock must not be nil")
		}
		r.now = now
		return nil
	}
}

// ParseTTL parses a TTL setting. It accepts Go duration strings ("90m",
// "24h") and bare integers, which are taken as hours. The empty string
// means no TTL.
func ParseTTL(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if hours, err := strconv.ParseInt(s, 10, 64); err == nil {
		if hours < 0 {
			return 0, fmt.Errorf("%w: %q is negative", ErrInvalidTTL, s)
		}
		return time.Duration(hours) * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidTTL, s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: %q is negative", ErrInvalidTTL, s)
	}
	return d, nil
}

// Stats is a point-in-time summary of a registry.
type Stats struct {
	Families int
	Series   int
	Evicted  uint64
	Renders  uint64
}

// Registry owns every metric family of the process. A name is bound to the
// kind it was first registered with for the registry's lifetime.
//
// Create one Registry at startup and pass it to whatever serves mutations
// and scrapes. Registry is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	families map[string]*Family
	ttl      time.Duration
	now      func() time.Time

	// sweepMu serializes render and sweep passes.
	sweepMu sync.Mutex

	evicted atomic.Uint64
	renders atomic.Uint64
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) (*Registry, error) {
	r := &Registry{
		families: make(map[string]*Family),
		now:      time.Now,
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// AddMetric returns the family registered under name, creating it on first
// use. Registering an existing name with a different kind fails with
// ErrMetricConflict. Re-registering with the same kind returns the existing
// family unchanged; description and options of the first call win.
func (r *Registry) AddMetric(kind Kind, name, description string, opts ...FamilyOption) (*Family, error) {
	r.mu.RLock()
	f, ok := r.families[name]
	r.mu.RUnlock()
	if ok {
		return checkKind(f, kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock
	if f, ok := r.families[name]; ok {
		return checkKind(f, kind)
	}

	f, err := NewFamily(kind, name, description, append([]FamilyOption{withClock(r.now)}, opts...)...)
	if err != nil {
		return nil, err
	}
	r.families[name] = f
	return f, nil
}

func checkKind(f *Family, kind Kind) (*Family, error) {
	if f.kind != kind {
		return nil, fmt.Errorf("%w: %q is registered as %s, not %s", ErrMetricConflict, f.name, f.kind, kind)
	}
	return f, nil
}

// Family returns the family registered under name.
func (r *Registry) Family(name string) (*Family, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.families[name]
	return f, ok
}

// Families returns every family sorted by name.
func (r *Registry) Families() []*Family {
	r.mu.RLock()
	out := make([]*Family, 0, len(r.families))
	for _, f := range r.families {
		out = append(out, f)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Len returns the number of families.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.families)
}

// TTL returns the current eviction TTL.
func (r *Registry) TTL() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ttl
}

// SetTTL replaces the eviction TTL. It takes effect on the next sweep.
func (r *Registry) SetTTL(ttl time.Duration) error {
	if ttl < 0 {
		return fmt.Errorf("%w: %s is negative", ErrInvalidTTL, ttl)
	}
	r.mu.Lock()
	r.ttl = ttl
	r.mu.Unlock()
	return nil
}

// Render returns the exposition document: every family sorted by name, each
// followed by a newline. Once the text is produced, every family is swept
// exactly once with the registry TTL.
func (r *Registry) Render() string {
	r.sweepMu.Lock()
	defer r.sweepMu.Unlock()

	families := r.Families()

	var sb strings.Builder
	for _, f := range families {
		sb.WriteString(f.Render())
		sb.WriteByte('\n')
	}

	r.renders.Add(1)
	r.sweep(families)
	return sb.String()
}

// Sweep runs the TTL eviction pass without rendering and returns the number
// of evicted series.
func (r *Registry) Sweep() int {
	r.sweepMu.Lock()
	defer r.sweepMu.Unlock()
	return r.sweep(r.Families())
}

func (r *Registry) sweep(families []*Family) int {
	ttl := r.TTL()
	total := 0
	for _, f := range families {
		total += f.Cleanup(ttl)
	}
	r.evicted.Add(uint64(total))
	return total
}

// Stats returns counts of families and live series plus lifetime eviction
// and render totals.
func (r *Registry) Stats() Stats {
	families := r.Families()
	s := Stats{
		Families: len(families),
		Evicted:  r.evicted.Load(),
		Renders:  r.renders.Load(),
	}
	for _, f := range families {
		s.Series += f.Len()
	}
	return s
}
