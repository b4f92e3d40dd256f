package config

import (
	"sync"
	"testing"
)

func resetGlobals() {
	configMutex.Lock()
	globalConfig = nil
	globalPath = ""
	configMutex.Unlock()
	initOnce = *new(sync.Once)
}

func TestInitialize(t *testing.T) {
	resetGlobals()
	t.Cleanup(resetGlobals)

	configPath := writeConfig(t, `
server:
  listen_address: "127.0.0.1:8081"
`)

	if err := Initialize(configPath); err != nil {
		t.Fatalf("failed to initialize config: %v", err)
	}

	cfg := GetConfig()
	if cfg == nil {
		t.Fatal("expected non-nil config after initialization")
	}
	if cfg.Server.ListenAddress != "127.0.0.1:8081" {
		t.Errorf("expected listen address %q, got %q", "127.0.0.1:8081", cfg.Server.ListenAddress)
	}
	if ConfigPath() != configPath {
		t.Errorf("expected config path %q, got %q", configPath, ConfigPath())
	}
}

func TestInitialize_MultipleCallsIgnored(t *testing.T) {
	resetGlobals()
	t.Cleanup(resetGlobals)

	first := writeConfig(t, "server:\n  listen_address: \"127.0.0.1:1111\"\n")
	second := writeConfig(t, "server:\n  listen_address: \"127.0.0.1:2222\"\n")

	if err := Initialize(first); err != nil {
		t.Fatal(err)
	}
	if err := Initialize(second); err != nil {
		t.Fatal(err)
	}

	if got := GetConfig().Server.ListenAddress; got != "127.0.0.1:1111" {
		t.Errorf("expected first config to win, got %q", got)
	}
}

func TestReloadConfig(t *testing.T) {
	resetGlobals()
	t.Cleanup(resetGlobals)

	path := writeConfig(t, "registry:\n  ttl: \"1h\"\n")
	if err := Initialize(path); err != nil {
		t.Fatal(err)
	}

	good := writeConfig(t, "registry:\n  ttl: \"2h\"\n")
	cfg, err := ReloadConfig(good)
	if err != nil {
		t.Fatalf("ReloadConfig() error: %v", err)
	}
	if cfg.Registry.TTL != "2h" || GetConfig().Registry.TTL != "2h" {
		t.Errorf("reload not applied: %q", GetConfig().Registry.TTL)
	}

	bad := writeConfig(t, "registry:\n  ttl: \"never\"\n")
	if _, err := ReloadConfig(bad); err == nil {
		t.Fatal("expected reload of invalid file to fail")
	}
	if GetConfig().Registry.TTL != "2h" {
		t.Errorf("failed reload replaced config: %q", GetConfig().Registry.TTL)
	}
}

func TestSetConfig(t *testing.T) {
	resetGlobals()
	t.Cleanup(resetGlobals)

	cfg := NewDefaultConfig()
	SetConfig(cfg)
	if GetConfig() != cfg {
		t.Error("SetConfig did not replace the global config")
	}
}
