package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// parse decodes YAML on top of the seeded defaults and fills the rest.
func parse(data []byte) (*Config, error) {
	cfg := seededConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(cfg)
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. An empty path skips the file and starts
// from defaults. Environment variables follow the naming convention
// TORCH_SECTION_FIELD (e.g., TORCH_SERVER_LISTEN_ADDRESS) and always take
// precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = NewDefaultConfig()
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		cfg, err = parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables use the format TORCH_SECTION_FIELD. The bootstrap
// variables SERVICE_PORT and TORCH_TTL are honoured as well.
//
// Malformed typed values are ignored, except SERVICE_PORT which is an error
// since the server cannot pick a sensible port on its own.
func applyEnvOverrides(cfg *Config) error {
	// Server overrides
	if val := os.Getenv("TORCH_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("SERVICE_PORT"); val != "" {
		addr, err := withPort(cfg.Server.ListenAddress, val)
		if err != nil {
			return err
		}
		cfg.Server.ListenAddress = addr
	}
	if val := os.Getenv("TORCH_SERVER_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if val := os.Getenv("TORCH_SERVER_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if val := os.Getenv("TORCH_SERVER_SHUTDOWN_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ShutdownTimeout = d
		}
	}
	if val := os.Getenv("TORCH_SERVER_MAX_BODY_BYTES"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Server.MaxBodyBytes = i
		}
	}
	if val := os.Getenv("TORCH_SERVER_METRICS_PREFIX"); val != "" {
		cfg.Server.MetricsPrefix = val
	}

	// Registry overrides. TORCH_TTL is the legacy spelling.
	if val := os.Getenv("TORCH_TTL"); val != "" {
		cfg.Registry.TTL = val
	}
	if val := os.Getenv("TORCH_REGISTRY_TTL"); val != "" {
		cfg.Registry.TTL = val
	}
	if val := os.Getenv("TORCH_REGISTRY_SWEEP_SCHEDULE"); val != "" {
		cfg.Registry.SweepSchedule = val
	}

	// Telemetry overrides
	if val := os.Getenv("TORCH_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("TORCH_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("TORCH_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("TORCH_TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
	if val := os.Getenv("TORCH_TELEMETRY_TRACING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Tracing.Enabled = b
		}
	}
	if val := os.Getenv("TORCH_TELEMETRY_TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}
	if val := os.Getenv("TORCH_TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}

	// Discovery overrides
	if val := os.Getenv("TORCH_DISCOVERY_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Discovery.Enabled = b
		}
	}
	if val := os.Getenv("TORCH_DISCOVERY_ADDRESS"); val != "" {
		cfg.Discovery.Address = val
	}
	if val := os.Getenv("TORCH_DISCOVERY_OWNER"); val != "" {
		cfg.Discovery.Owner = val
	}
	if val := os.Getenv("TORCH_DISCOVERY_SERVICE_TYPE"); val != "" {
		cfg.Discovery.ServiceType = val
	}

	return nil
}

// withPort replaces the port of a host:port listen address.
func withPort(addr, port string) (string, error) {
	p, err := strconv.Atoi(port)
	if err != nil || p < 1 || p > 65535 {
		return "", fmt.Errorf("invalid SERVICE_PORT %q: must be a port number between 1 and 65535", port)
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = ""
	}
	return net.JoinHostPort(host, strconv.Itoa(p)), nil
}
