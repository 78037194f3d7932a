// Package config loads service configuration from an optional YAML file with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ConfigError marks a fatal startup misconfiguration. Nothing is fetched
// once one is raised.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s %s", e.Field, e.Reason)
}

// Config holds everything the service needs. Durations are in seconds in the
// YAML file.
type Config struct {
	APIToken string `yaml:"apiToken"`
	BaseURL  string `yaml:"baseUrl"`
	Listen   string `yaml:"listen"`
	RedisURL string `yaml:"redisUrl"`

	PollIntervalSec int `yaml:"pollIntervalSec"`
	RosterTTLSec    int `yaml:"rosterTtlSec"`
	DynamicTTLSec   int `yaml:"dynamicTtlSec"`

	IDChunkSize   int     `yaml:"idChunkSize"`
	TypeChunkSize int     `yaml:"typeChunkSize"`
	Concurrency   int     `yaml:"concurrency"`
	RateLimitRPS  float64 `yaml:"rateLimitRps"`

	DTCDefinitionsPath string `yaml:"dtcDefinitionsPath"`
	LogLevel           string `yaml:"logLevel"`
}

// Load reads path (if it exists), applies env overrides, validates, and
// fills defaults. A missing API token is fatal.
func Load(path string) (*Config, error) {
	cfg := &Config{
		BaseURL:            "https://api.samsara.com",
		Listen:             ":8080",
		PollIntervalSec:    60,
		RosterTTLSec:       3600,
		DynamicTTLSec:      55,
		IDChunkSize:        100,
		TypeChunkSize:      4,
		Concurrency:        4,
		RateLimitRPS:       25,
		DTCDefinitionsPath: "dtc_definitions.json",
		LogLevel:           "info",
	}

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, cfg); err != nil {
				return nil, errors.Wrapf(err, "parse %s", path)
			}
		case !os.IsNotExist(err):
			return nil, errors.Wrapf(err, "read %s", path)
		}
	}

	if v := os.Getenv("SAMSARA_API_TOKEN"); v != "" {
		cfg.APIToken = v
	}
	if v := os.Getenv("SAMSARA_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Listen = ":" + v
	}
	if v := os.Getenv("POLL_INTERVAL_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PollIntervalSec = n
		}
	}

	if cfg.APIToken == "" {
		return nil, &ConfigError{Field: "apiToken", Reason: "is required (set SAMSARA_API_TOKEN)"}
	}
	if cfg.IDChunkSize < 1 || cfg.TypeChunkSize < 1 {
		return nil, &ConfigError{Field: "chunk sizes", Reason: "must be >= 1"}
	}
	return cfg, nil
}

// PollInterval returns the outer refresh cadence.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSec) * time.Second
}

// RosterTTL returns the roster cache lifetime.
func (c *Config) RosterTTL() time.Duration {
	return time.Duration(c.RosterTTLSec) * time.Second
}

// DynamicTTL returns the dynamic-data cache lifetime; kept under the poll
// interval so each refresh triggers at most one upstream round trip.
func (c *Config) DynamicTTL() time.Duration {
	return time.Duration(c.DynamicTTLSec) * time.Second
}
