package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "torch.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	configPath := writeConfig(t, `
server:
  listen_address: "127.0.0.1:9000"
  read_timeout: "60s"
  metrics_prefix: "/push"

registry:
  ttl: "2h"
  sweep_schedule: "*/5 * * * *"

telemetry:
  logging:
    level: "debug"
    format: "text"
  metrics:
    enabled: false

discovery:
  enabled: true
  owner: "platform"
`)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.ListenAddress != "127.0.0.1:9000" {
		t.Errorf("expected listen address %q, got %q", "127.0.0.1:9000", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != 60*time.Second {
		t.Errorf("expected read timeout %v, got %v", 60*time.Second, cfg.Server.ReadTimeout)
	}
	if cfg.Server.MetricsPrefix != "/push" {
		t.Errorf("expected metrics prefix %q, got %q", "/push", cfg.Server.MetricsPrefix)
	}
	if ttl, _ := cfg.Registry.TTLDuration(); ttl != 2*time.Hour {
		t.Errorf("expected ttl 2h, got %v", ttl)
	}
	if cfg.Registry.SweepSchedule != "*/5 * * * *" {
		t.Errorf("unexpected sweep schedule %q", cfg.Registry.SweepSchedule)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected logging level %q, got %q", "debug", cfg.Telemetry.Logging.Level)
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("expected self-metrics to be disabled")
	}
	if !cfg.Telemetry.Health.Enabled {
		t.Error("expected health endpoints to stay enabled by default")
	}
	if !cfg.Discovery.Enabled || cfg.Discovery.Owner != "platform" {
		t.Errorf("unexpected discovery config %+v", cfg.Discovery)
	}
	// Defaults fill what the file leaves out.
	if cfg.Server.WriteTimeout != DefaultWriteTimeout {
		t.Errorf("expected default write timeout, got %v", cfg.Server.WriteTimeout)
	}
	if cfg.Discovery.HealthPath != DefaultLivenessPath {
		t.Errorf("expected discovery health path %q, got %q", DefaultLivenessPath, cfg.Discovery.HealthPath)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/torch.yaml")
	if err == nil {
		t.Fatal("expected error for nonexistent file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected file not found error, got: %v", err)
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	configPath := writeConfig(t, `
server:
  listen_address: "0.0.0.0:8080"
  invalid yaml here: [
`)

	if _, err := LoadConfig(configPath); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	configPath := writeConfig(t, `
registry:
  ttl: "forever"
telemetry:
  logging:
    level: "invalid"
`)

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Fatal("expected validation error")
	}

	var validationErr ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError in error chain, got %T: %v", err, err)
	}
	if len(validationErr.Errors) != 2 {
		t.Errorf("expected 2 field errors, got %d: %v", len(validationErr.Errors), validationErr)
	}
}

func TestLoadConfigWithEnvOverrides_NoFile(t *testing.T) {
	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("failed to load defaults: %v", err)
	}
	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("expected default listen address, got %q", cfg.Server.ListenAddress)
	}
	if cfg.Registry.TTL != DefaultRegistryTTL {
		t.Errorf("expected default ttl, got %q", cfg.Registry.TTL)
	}
}

func TestLoadConfigWithEnvOverrides_BasicOverrides(t *testing.T) {
	configPath := writeConfig(t, `
server:
  listen_address: "127.0.0.1:8080"
telemetry:
  logging:
    level: "info"
`)

	t.Setenv("TORCH_SERVER_METRICS_PREFIX", "/agg")
	t.Setenv("TORCH_TELEMETRY_LOGGING_LEVEL", "debug")
	t.Setenv("TORCH_SERVER_READ_TIMEOUT", "5s")
	t.Setenv("TORCH_DISCOVERY_ENABLED", "true")
	t.Setenv("TORCH_DISCOVERY_OWNER", "team-a")

	cfg, err := LoadConfigWithEnvOverrides(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.MetricsPrefix != "/agg" {
		t.Errorf("expected metrics prefix %q from env, got %q", "/agg", cfg.Server.MetricsPrefix)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected logging level %q from env, got %q", "debug", cfg.Telemetry.Logging.Level)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("expected read timeout 5s from env, got %v", cfg.Server.ReadTimeout)
	}
	if !cfg.Discovery.Enabled || cfg.Discovery.Owner != "team-a" {
		t.Errorf("unexpected discovery config %+v", cfg.Discovery)
	}
}

func TestLoadConfigWithEnvOverrides_BootstrapVariables(t *testing.T) {
	t.Setenv("SERVICE_PORT", "9123")
	t.Setenv("TORCH_TTL", "6")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9123" {
		t.Errorf("expected listen address %q, got %q", "0.0.0.0:9123", cfg.Server.ListenAddress)
	}
	ttl, err := cfg.Registry.TTLDuration()
	if err != nil {
		t.Fatalf("TTLDuration() error: %v", err)
	}
	if ttl != 6*time.Hour {
		t.Errorf("expected ttl 6h, got %v", ttl)
	}
}

func TestLoadConfigWithEnvOverrides_RegistryTTLWinsOverLegacy(t *testing.T) {
	t.Setenv("TORCH_TTL", "6")
	t.Setenv("TORCH_REGISTRY_TTL", "15m")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Registry.TTL != "15m" {
		t.Errorf("expected ttl %q, got %q", "15m", cfg.Registry.TTL)
	}
}

func TestLoadConfigWithEnvOverrides_InvalidServicePort(t *testing.T) {
	for _, port := range []string{"http", "0", "70000"} {
		t.Run(port, func(t *testing.T) {
			t.Setenv("SERVICE_PORT", port)
			_, err := LoadConfigWithEnvOverrides("")
			if err == nil || !strings.Contains(err.Error(), "SERVICE_PORT") {
				t.Errorf("expected SERVICE_PORT error, got %v", err)
			}
		})
	}
}

func TestLoadConfigWithEnvOverrides_MalformedTypedValuesIgnored(t *testing.T) {
	t.Setenv("TORCH_SERVER_READ_TIMEOUT", "soon")
	t.Setenv("TORCH_TELEMETRY_METRICS_ENABLED", "maybe")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Server.ReadTimeout != DefaultReadTimeout {
		t.Errorf("expected default read timeout, got %v", cfg.Server.ReadTimeout)
	}
	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("expected self-metrics to stay enabled")
	}
}

func TestWithPort(t *testing.T) {
	tests := []struct {
		addr string
		port string
		want string
	}{
		{"0.0.0.0:8080", "9000", "0.0.0.0:9000"},
		{"127.0.0.1:8080", "1", "127.0.0.1:1"},
		{":8080", "9000", ":9000"},
		{"[::1]:8080", "9000", "[::1]:9000"},
		{"garbage", "9000", ":9000"},
	}

	for _, tt := range tests {
		got, err := withPort(tt.addr, tt.port)
		if err != nil {
			t.Errorf("withPort(%q, %q) error: %v", tt.addr, tt.port, err)
			continue
		}
		if got != tt.want {
			t.Errorf("withPort(%q, %q) = %q, want %q", tt.addr, tt.port, got, tt.want)
		}
	}
}
