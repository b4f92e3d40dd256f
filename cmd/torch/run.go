package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/spf13/cobra"

	"torch-hq/torch/pkg/cli"
	"torch-hq/torch/pkg/config"
	"torch-hq/torch/pkg/discovery"
	"torch-hq/torch/pkg/metrics"
	"torch-hq/torch/pkg/server"
	"torch-hq/torch/pkg/sweeper"
	"torch-hq/torch/pkg/telemetry/health"
	"torch-hq/torch/pkg/telemetry/logging"
	telemetrymetrics "torch-hq/torch/pkg/telemetry/metrics"
	"torch-hq/torch/pkg/telemetry/tracing"
)

// startupTimeout bounds how long run waits for the listener.
const startupTimeout = 5 * time.Second

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the torch aggregator",
	Long: `Start the torch aggregator with the specified configuration.

The server accepts pushes under the metrics prefix (default /metrics) and
serves the aggregated exposition at GET /metrics/. SERVICE_PORT and
TORCH_TTL (hours) are honored as in earlier releases.

Examples:
  # Start with defaults and environment
  SERVICE_PORT=9123 torch run

  # Start with a config file
  torch run --config /etc/torch/torch.yaml

  # Override listen address
  torch run --listen 0.0.0.0:9123

  # Validate config without starting the server
  torch run --config torch.yaml --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("config", err.Error())
	}
	cfg := config.GetConfig()

	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if err := config.Validate(cfg); err != nil {
		return cli.NewConfigError("flags", err.Error())
	}

	logger, err := logging.New(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
		Writer:    os.Stdout,
	})
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}

	out := cmd.OutOrStdout()
	if runFlags.dryRun {
		fmt.Fprintln(out, "✓ Configuration valid")
		return nil
	}

	printBanner(out, cfg)

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	if err := serve(ctx, cfg, logger); err != nil {
		return cli.NewCommandError("run", err)
	}
	fmt.Fprintln(out, "✓ Server stopped")
	return nil
}

// serve runs the aggregator until ctx is cancelled. On cancellation
// readiness switches to draining, the service is deregistered from Consul,
// and then the server shuts down.
func serve(ctx context.Context, cfg *config.Config, logger *logging.Logger) error {
	log := logger.Component("run")

	ttl, err := cfg.Registry.TTLDuration()
	if err != nil {
		return err
	}
	registry, err := metrics.NewRegistry(metrics.WithTTL(ttl))
	if err != nil {
		return err
	}

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		if err := tracer.Shutdown(context.Background()); err != nil {
			log.Warn("tracer shutdown failed", "error", err)
		}
	}()

	self := telemetrymetrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	checker := health.New(cfg.Telemetry.Health.CheckTimeout)

	srv, err := server.NewServer(cfg, server.Dependencies{
		Registry:  registry,
		Telemetry: self,
		Health:    checker,
		Tracer:    tracer,
		Logger:    logger.Slog(),
		Version:   Version,
		Commit:    GitCommit,
		BuildTime: BuildDate,
	})
	if err != nil {
		return err
	}
	log.Debug("health checks registered", "checks", checker.ListChecks())

	sw := sweeper.New(registry, cfg.Registry.SweepSchedule,
		sweeper.WithLogger(logger.Slog()),
		sweeper.WithRecorder(self),
	)
	if err := sw.Start(ctx); err != nil {
		return err
	}
	defer sw.Stop()

	if cfg.Watch.Enabled && config.ConfigPath() != "" {
		watcher, err := config.NewWatcher(config.ConfigPath(), cfg.Watch.Debounce, logger.Slog())
		if err != nil {
			return err
		}
		watcher.OnError(func(error) { self.RecordReload(false) })
		go func() {
			if err := watcher.Watch(ctx, applyReload(registry, logger, self)); err != nil {
				log.Error("config watcher exited", "error", err)
			}
		}()
		defer watcher.Stop()
	}

	serverCtx, cancelServer := context.WithCancel(context.Background())
	defer cancelServer()

	errChan := make(chan error, 1)
	go func() { errChan <- srv.Start(serverCtx) }()

	addr, err := waitForServerReady(srv, errChan, startupTimeout)
	if err != nil {
		return fmt.Errorf("server failed to start: %w", err)
	}

	var registrar *discovery.Registrar
	if cfg.Discovery.Enabled {
		port, err := discovery.PortFromAddress(addr.String())
		if err == nil {
			registrar, err = discovery.NewRegistrar(&cfg.Discovery, port, logger.Slog())
		}
		if err != nil {
			cancelServer()
			return errors.Join(err, <-errChan)
		}
		if err := registrar.Register(ctx); err != nil {
			cancelServer()
			return errors.Join(err, <-errChan)
		}
	}

	select {
	case err := <-errChan:
		deregister(registrar, log)
		return err
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	drain(checker, registrar, log)
	cancelServer()
	return <-errChan
}

// applyReload returns the hot-reload callback. Only the registry TTL and
// the log level take effect without a restart.
func applyReload(registry *metrics.Registry, logger *logging.Logger, self *telemetrymetrics.Collector) func(*config.Config) {
	log := logger.Component("reload")
	return func(cfg *config.Config) {
		ttl, err := cfg.Registry.TTLDuration()
		if err == nil {
			err = registry.SetTTL(ttl)
		}
		if err == nil {
			err = logger.SetLevel(cfg.Telemetry.Logging.Level)
		}
		if err != nil {
			log.Error("failed to apply reloaded config", "error", err)
			self.RecordReload(false)
			return
		}
		config.SetConfig(cfg)
		log.Info("applied reloaded config",
			"ttl", ttl.String(),
			"log_level", cfg.Telemetry.Logging.Level,
		)
		self.RecordReload(true)
	}
}

// drain takes the instance out of rotation: readiness reports draining
// before the Consul registration is removed.
func drain(checker *health.Checker, r *discovery.Registrar, log *slog.Logger) {
	checker.SetDraining(true)
	deregister(r, log)
}

func deregister(r *discovery.Registrar, log *slog.Logger) {
	if r == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Deregister(ctx); err != nil {
		log.Warn("consul deregistration failed", "error", err)
	}
}

// waitForServerReady polls until the server is listening or fails.
func waitForServerReady(srv *server.Server, errChan <-chan error, timeout time.Duration) (net.Addr, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()

	for {
		if addr := srv.Addr(); addr != nil {
			return addr, nil
		}
		select {
		case err := <-errChan:
			if err == nil {
				err = errors.New("server exited during startup")
			}
			return nil, err
		case <-deadline.C:
			return nil, fmt.Errorf("not listening after %s", timeout)
		case <-tick.C:
		}
	}
}

func printBanner(w io.Writer, cfg *config.Config) {
	fmt.Fprintf(w, "Torch v%s\n", Version)
	if cfgFile != "" {
		fmt.Fprintf(w, "Loading configuration from: %s\n", cfgFile)
	}
	fmt.Fprintln(w, "✓ Configuration loaded")
	fmt.Fprintf(w, "✓ Listening on %s (push prefix %s, ttl %s)\n",
		cfg.Server.ListenAddress, cfg.Server.MetricsPrefix, cfg.Registry.TTL)
	if cfg.Discovery.Enabled {
		fmt.Fprintf(w, "✓ Consul registration via %s as %s\n", cfg.Discovery.Address, cfg.Discovery.ServiceType)
	}
	fmt.Fprintln(w, "\nPress Ctrl+C to stop")
}
