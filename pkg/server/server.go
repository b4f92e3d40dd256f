// Package server runs the torch HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"torch-hq/torch/pkg/collector"
	"torch-hq/torch/pkg/config"
	"torch-hq/torch/pkg/metrics"
	"torch-hq/torch/pkg/server/middleware"
	"torch-hq/torch/pkg/telemetry/health"
	telemetrymetrics "torch-hq/torch/pkg/telemetry/metrics"
	"torch-hq/torch/pkg/telemetry/tracing"
)

// Dependencies are the components the server mounts and instruments.
// Registry is required; the rest may be nil.
type Dependencies struct {
	Registry  *metrics.Registry
	Telemetry *telemetrymetrics.Collector
	Health    *health.Checker
	Tracer    *tracing.Tracer
	Logger    *slog.Logger

	Version   string
	Commit    string
	BuildTime string
}

// Server is the torch HTTP server: the push and scrape routes, the health
// probes and the self-metrics endpoint behind the middleware chain.
type Server struct {
	config     *config.Config
	deps       Dependencies
	logger     *slog.Logger
	router     *Router
	handler    http.Handler
	httpServer *http.Server

	mu           sync.RWMutex
	isRunning    bool
	addr         net.Addr
	shutdownOnce sync.Once
	stopped      chan struct{}
}

// NewServer creates a server and builds its routes. It fails if the
// configured mount paths overlap.
func NewServer(cfg *config.Config, deps Dependencies) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if deps.Registry == nil {
		return nil, errors.New("registry is nil")
	}

	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	s := &Server{
		config:  cfg,
		deps:    deps,
		logger:  deps.Logger.With("component", "server"),
		router:  NewRouter(),
		stopped: make(chan struct{}),
	}

	handler, err := s.setupRoutes()
	if err != nil {
		return nil, err
	}
	s.handler = handler
	return s, nil
}

// setupRoutes mounts every application on the router and wraps it in the
// middleware chain.
func (s *Server) setupRoutes() (http.Handler, error) {
	srv := &s.config.Server
	tel := &s.config.Telemetry

	push := collector.New(srv.MetricsPrefix, s.deps.Registry,
		collector.WithLogger(s.deps.Logger.With("component", "collector")),
		collector.WithRecorder(s.deps.Telemetry),
		collector.WithTracer(s.deps.Tracer),
		collector.WithMaxBodyBytes(srv.MaxBodyBytes),
	)
	if err := s.router.AddApplication(srv.MetricsPrefix, push); err != nil {
		return nil, fmt.Errorf("mount collector: %w", err)
	}

	if tel.Metrics.Enabled && s.deps.Telemetry != nil {
		s.deps.Telemetry.WatchRegistry(s.deps.Registry)
		if err := s.router.AddApplication(tel.Metrics.Path, s.deps.Telemetry.Handler()); err != nil {
			return nil, fmt.Errorf("mount self-metrics: %w", err)
		}
	}

	if tel.Health.Enabled && s.deps.Health != nil {
		probes := map[string]http.Handler{
			tel.Health.LivenessPath:  s.deps.Health.LivenessHandler(),
			tel.Health.ReadinessPath: s.deps.Health.ReadinessHandler(),
			tel.Health.VersionPath:   health.VersionHandler(s.deps.Version, s.deps.Commit, s.deps.BuildTime),
		}
		for path, h := range probes {
			if err := s.router.AddApplication(path, h); err != nil {
				return nil, fmt.Errorf("mount health probe: %w", err)
			}
		}
		s.deps.Health.RegisterCheck("server", func(ctx context.Context) error {
			if !s.IsRunning() {
				return errors.New("server is not running")
			}
			return nil
		})
	}

	return middleware.Chain(s.router,
		middleware.Recovery(s.logger),
		middleware.RequestID,
		middleware.Logging(s.logger, s.deps.Telemetry, s.router.Route),
		middleware.Tracing(s.deps.Tracer),
	), nil
}

// Start listens on the configured address and serves until ctx is
// cancelled, Shutdown is called or the listener fails. On cancellation it
// shuts down gracefully and returns the shutdown error, if any.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}

	srv := &s.config.Server
	ln, err := net.Listen("tcp", srv.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", srv.ListenAddress, err)
	}

	s.httpServer = &http.Server{
		Handler:        s.handler,
		ReadTimeout:    srv.ReadTimeout,
		WriteTimeout:   srv.WriteTimeout,
		IdleTimeout:    srv.IdleTimeout,
		MaxHeaderBytes: srv.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	s.addr = ln.Addr()
	s.isRunning = true
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting torch server",
			"address", ln.Addr().String(),
			"metrics_prefix", srv.MetricsPrefix,
			"mounts", s.router.Prefixes(),
		)
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case <-s.stopped:
		return nil
	case err := <-errChan:
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	}
}

// Shutdown marks the server as draining, so the readiness probe fails,
// then gracefully stops the HTTP server within the configured timeout.
// Only the first call has any effect.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.RLock()
		running := s.isRunning
		s.mu.RUnlock()
		if !running {
			return
		}

		if s.deps.Health != nil {
			s.deps.Health.SetDraining(true)
		}

		timeout := s.config.Server.ShutdownTimeout
		s.logger.Info("initiating graceful shutdown", "timeout", timeout.String())

		shutdownCtx := ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			shutdownCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		close(s.stopped)

		s.logger.Info("torch server stopped")
	})

	return shutdownErr
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Addr returns the address the server listens on, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Router returns the mount table, e.g. to add a root handler.
func (s *Server) Router() *Router {
	return s.router
}
