package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("SAMSARA_API_TOKEN", "")
	_, err := Load("")
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestLoadDefaultsAndEnvOverride(t *testing.T) {
	t.Setenv("SAMSARA_API_TOKEN", "tok")
	t.Setenv("PORT", "9090")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != ":9090" {
		t.Errorf("listen = %q", cfg.Listen)
	}
	if cfg.RosterTTLSec != 3600 || cfg.DynamicTTLSec != 55 || cfg.PollIntervalSec != 60 {
		t.Errorf("bad TTL defaults: %+v", cfg)
	}
	if cfg.IDChunkSize != 100 || cfg.TypeChunkSize != 4 {
		t.Errorf("bad chunk defaults: %+v", cfg)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	t.Setenv("SAMSARA_API_TOKEN", "tok")
	t.Setenv("PORT", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("listen: \":7000\"\ndynamicTtlSec: 40\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != ":7000" || cfg.DynamicTTLSec != 40 {
		t.Errorf("yaml not applied: %+v", cfg)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("SAMSARA_API_TOKEN", "tok")
	t.Setenv("PORT", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}
	if cfg.Listen != ":8080" {
		t.Errorf("listen = %q", cfg.Listen)
	}
}
