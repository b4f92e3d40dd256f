// Package sweeper evicts expired series from the registry on a cron
// schedule.
//
// Without a schedule the registry is swept only when it is rendered, so a
// rarely scraped aggregator can keep stale series for a long time. Setting
// registry.sweep_schedule (e.g. "*/5 * * * *" or "@every 1m") bounds that.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweep triggers reported to the Recorder.
const (
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
)

// Registry is the part of metrics.Registry the sweeper needs.
type Registry interface {
	Sweep() int
}

// Recorder receives one observation per sweep.
type Recorder interface {
	RecordSweep(trigger string, duration time.Duration)
}

// Sweeper runs Registry.Sweep on a cron schedule.
type Sweeper struct {
	registry Registry
	schedule string
	recorder Recorder
	cron     *cron.Cron
	mu       sync.Mutex
	logger   *slog.Logger
	running  bool
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sweeper) {
		if logger != nil {
			s.logger = logger.With("component", "sweeper")
		}
	}
}

// WithRecorder reports every sweep to rec.
func WithRecorder(rec Recorder) Option {
	return func(s *Sweeper) { s.recorder = rec }
}

// New creates a sweeper for registry. An empty schedule makes Start a
// no-op.
func New(registry Registry, schedule string, opts ...Option) *Sweeper {
	s := &Sweeper{
		registry: registry,
		schedule: schedule,
		cron:     cron.New(),
		logger:   slog.Default().With("component", "sweeper"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start schedules sweeps and returns immediately. The sweeper stops when
// ctx is cancelled or Stop is called.
//
// Common schedules:
//   - "*/5 * * * *"  - Every 5 minutes
//   - "0 * * * *"    - Hourly
//   - "@every 30s"   - Every 30 seconds
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("sweep schedule not configured, expired series are evicted on scrape")
		return nil
	}
	if s.running {
		return fmt.Errorf("sweeper is already running")
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.run(TriggerSchedule)
	}); err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("sweeper started", "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// RunOnce sweeps immediately and returns the number of evicted series.
func (s *Sweeper) RunOnce() int {
	return s.run(TriggerManual)
}

func (s *Sweeper) run(trigger string) int {
	start := time.Now()
	evicted := s.registry.Sweep()
	elapsed := time.Since(start)

	if s.recorder != nil {
		s.recorder.RecordSweep(trigger, elapsed)
	}

	if evicted > 0 {
		s.logger.Info("sweep completed",
			"trigger", trigger,
			"evicted", evicted,
			"duration_ms", elapsed.Milliseconds(),
		)
	} else {
		s.logger.Debug("sweep completed, nothing expired", "trigger", trigger)
	}
	return evicted
}

// Stop stops the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		<-s.cron.Stop().Done()
		s.running = false
		s.logger.Info("sweeper stopped")
	}
}

// IsRunning returns true if the schedule is active.
func (s *Sweeper) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled sweep, or nil if none is scheduled.
func (s *Sweeper) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if !s.running || len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
