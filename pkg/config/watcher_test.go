package config

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"
)

func TestWatcher_ReloadsOnChange(t *testing.T) {
	resetGlobals()
	t.Cleanup(resetGlobals)

	path := writeConfig(t, "registry:\n  ttl: \"1h\"\n")

	w, err := NewWatcher(path, 20*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error: %v", err)
	}
	defer w.Stop()

	changes := make(chan *Config, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = w.Watch(ctx, func(cfg *Config) { changes <- cfg })
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte("registry:\n  ttl: \"3h\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-changes:
		if cfg.Registry.TTL != "3h" {
			t.Errorf("expected reloaded ttl %q, got %q", "3h", cfg.Registry.TTL)
		}
		if GetConfig() != cfg {
			t.Error("expected reload to update the global config")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestWatcher_SkipsInvalidFile(t *testing.T) {
	resetGlobals()
	t.Cleanup(resetGlobals)

	path := writeConfig(t, "registry:\n  ttl: \"1h\"\n")

	w, err := NewWatcher(path, 20*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error: %v", err)
	}
	defer w.Stop()

	var calls, failures atomic.Int32
	w.OnError(func(error) { failures.Add(1) })
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = w.Watch(ctx, func(*Config) { calls.Add(1) })
	}()
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte("registry:\n  ttl: \"whenever\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)

	if calls.Load() != 0 {
		t.Errorf("expected no reload callback for invalid file, got %d", calls.Load())
	}
	if failures.Load() == 0 {
		t.Error("expected the error callback for an invalid file")
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	path := writeConfig(t, "")
	w, err := NewWatcher(path, 0, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("first Stop() error: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("second Stop() error: %v", err)
	}
	if err := w.Watch(context.Background(), nil); err == nil {
		t.Error("expected Watch after Stop to fail")
	}
}

func TestNewWatcher_RequiresPath(t *testing.T) {
	if _, err := NewWatcher("", time.Second, nil); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestDebouncer_CoalescesBursts(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Stop()

	var calls atomic.Int32
	done := make(chan struct{}, 1)
	for i := 0; i < 5; i++ {
		d.Trigger(func() {
			calls.Add(1)
			done <- struct{}{}
		})
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced callback never ran")
	}
	time.Sleep(60 * time.Millisecond)

	if got := calls.Load(); got != 1 {
		t.Errorf("expected 1 call, got %d", got)
	}
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	var calls atomic.Int32
	d.Trigger(func() { calls.Add(1) })
	d.Stop()
	d.Trigger(func() { calls.Add(1) })

	time.Sleep(60 * time.Millisecond)
	if calls.Load() != 0 {
		t.Errorf("expected no calls after Stop, got %d", calls.Load())
	}
}
