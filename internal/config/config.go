// Package config provides configuration management for asanasync.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	syncerrors "github.com/oknozoka/asanasync/internal/errors"
)

const (
	// ConfigFileName is the default config file name
	ConfigFileName = "asanasync.yaml"
	// ConfigDir is the asanasync configuration directory
	ConfigDir = ".asanasync"
)

// RateFormula selects how actual effort is derived from an achievement-rate
// field. The source data carries both interpretations, so the choice stays
// explicit rather than hard-coded.
type RateFormula string

const (
	// RateDivide computes actual = estimated / rate (rate = estimated / actual).
	RateDivide RateFormula = "divide"
	// RateMultiply computes actual = estimated * rate.
	RateMultiply RateFormula = "multiply"
)

// AsanaConfig holds connection settings for the remote task source.
type AsanaConfig struct {
	// BaseURL is the Asana API root (default: https://app.asana.com/api/1.0).
	BaseURL string `yaml:"base_url"`

	// AccessToken is the personal access token. Usually set via
	// ASANA_ACCESS_TOKEN rather than the config file.
	AccessToken string `yaml:"access_token,omitempty"`

	// WorkspaceID scopes project listing.
	WorkspaceID string `yaml:"workspace_id"`

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `yaml:"timeout"`
}

// StoreConfig holds durable store settings.
type StoreConfig struct {
	// Dialect is "sqlite" or "postgres".
	Dialect string `yaml:"dialect"`

	// DSN is the database path (sqlite) or connection string (postgres).
	DSN string `yaml:"dsn"`
}

// RetryConfig defines the remote fetch retry policy.
type RetryConfig struct {
	// MaxAttempts caps retries for transient remote failures.
	MaxAttempts int `yaml:"max_attempts"`

	// BaseDelay is the first backoff delay; doubles per attempt.
	BaseDelay time.Duration `yaml:"base_delay"`

	// MaxDelay caps a single backoff sleep.
	MaxDelay time.Duration `yaml:"max_delay"`
}

// SyncConfig controls a sync run.
type SyncConfig struct {
	// Workers bounds the per-project fetch parallelism.
	Workers int `yaml:"workers"`

	// FullHorizon is the completed_since bound used by a full fetch.
	FullHorizon string `yaml:"full_horizon"`

	// ProjectFilter restricts the run to projects whose name contains it.
	ProjectFilter string `yaml:"project_filter,omitempty"`
}

// NormalizeConfig controls field normalization.
type NormalizeConfig struct {
	// RateFormula is "divide" or "multiply" (see RateFormula).
	RateFormula RateFormula `yaml:"rate_formula"`
}

// Config represents the asanasync configuration.
type Config struct {
	// Version is the config file version
	Version int `yaml:"version"`

	Asana     AsanaConfig     `yaml:"asana"`
	Store     StoreConfig     `yaml:"store"`
	Retry     RetryConfig     `yaml:"retry"`
	Sync      SyncConfig      `yaml:"sync"`
	Normalize NormalizeConfig `yaml:"normalize"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: 1,
		Asana: AsanaConfig{
			BaseURL: "https://app.asana.com/api/1.0",
			Timeout: 30 * time.Second,
		},
		Store: StoreConfig{
			Dialect: "sqlite",
			DSN:     filepath.Join(ConfigDir, "warehouse.db"),
		},
		Retry: RetryConfig{
			MaxAttempts: 6,
			BaseDelay:   time.Second,
			MaxDelay:    30 * time.Second,
		},
		Sync: SyncConfig{
			Workers:     4,
			FullHorizon: "2023-01-01T00:00:00.000Z",
		},
		Normalize: NormalizeConfig{
			RateFormula: RateDivide,
		},
	}
}

// Validate checks the fields a sync run cannot proceed without.
func (c *Config) Validate() error {
	if c.Asana.AccessToken == "" {
		return syncerrors.ErrConfigMissing("asana.access_token")
	}
	if c.Asana.WorkspaceID == "" {
		return syncerrors.ErrConfigMissing("asana.workspace_id")
	}
	if c.Retry.MaxAttempts < 1 {
		return syncerrors.ErrConfigInvalid("retry.max_attempts", "must be at least 1")
	}
	if c.Sync.Workers < 1 {
		return syncerrors.ErrConfigInvalid("sync.workers", "must be at least 1")
	}
	switch c.Normalize.RateFormula {
	case RateDivide, RateMultiply:
	default:
		return syncerrors.ErrConfigInvalid("normalize.rate_formula",
			fmt.Sprintf("unknown formula %q (want divide or multiply)", c.Normalize.RateFormula))
	}
	return nil
}

// Load loads the config from the default location.
func Load() (*Config, error) {
	return LoadFrom(filepath.Join(ConfigDir, ConfigFileName))
}

// LoadFrom loads the config from a specific path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return default config if file doesn't exist
			cfg := Default()
			ApplyEnvVars(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default() // Start with defaults
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	ApplyEnvVars(cfg)
	return cfg, nil
}

// Save saves the config to the default location.
func (c *Config) Save() error {
	return c.SaveTo(filepath.Join(ConfigDir, ConfigFileName))
}

// SaveTo saves the config to a specific path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}
