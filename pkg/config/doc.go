// Package config provides configuration management for the torch aggregator.
//
// Configuration is read from a YAML file, filled with defaults, overridden
// from the environment and validated before use. Every section can be
// omitted; torch runs with no configuration file at all.
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention TORCH_SECTION_FIELD:
//
//   - TORCH_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - TORCH_REGISTRY_TTL overrides registry.ttl
//   - TORCH_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Two bootstrap variables are also recognised. SERVICE_PORT replaces the
// port of the listen address and TORCH_TTL sets the registry TTL (a bare
// number is read as hours).
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from the YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Hot Reload
//
// A Watcher observes the configuration file and reloads it after edits.
// Only settings that can change safely at runtime, the registry TTL and the
// logging level, are applied by the server; the rest take effect on restart.
//
// # Example Configuration
//
//	server:
//	  listen_address: "0.0.0.0:8080"
//	  metrics_prefix: "/metrics"
//
//	registry:
//	  ttl: "24h"
//	  sweep_schedule: "*/5 * * * *"
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
//
//	discovery:
//	  enabled: true
//	  owner: "platform"
//	  service_type: "torch"
package config
