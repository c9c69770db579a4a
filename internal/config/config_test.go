package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Asana.BaseURL != "https://app.asana.com/api/1.0" {
		t.Errorf("unexpected base URL: %s", cfg.Asana.BaseURL)
	}
	if cfg.Retry.MaxAttempts != 6 {
		t.Errorf("MaxAttempts = %d, want 6", cfg.Retry.MaxAttempts)
	}
	if cfg.Normalize.RateFormula != RateDivide {
		t.Errorf("RateFormula = %q, want divide", cfg.Normalize.RateFormula)
	}
	if cfg.Store.Dialect != "sqlite" {
		t.Errorf("Dialect = %q, want sqlite", cfg.Store.Dialect)
	}
}

func TestLoadFrom_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Sync.Workers != 4 {
		t.Errorf("Workers = %d, want default 4", cfg.Sync.Workers)
	}
}

func TestLoadFrom_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "asanasync.yaml")

	cfg := Default()
	cfg.Asana.WorkspaceID = "12345"
	cfg.Sync.Workers = 8
	cfg.Retry.BaseDelay = 2 * time.Second
	cfg.Normalize.RateFormula = RateMultiply
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if loaded.Asana.WorkspaceID != "12345" {
		t.Errorf("WorkspaceID = %q", loaded.Asana.WorkspaceID)
	}
	if loaded.Sync.Workers != 8 {
		t.Errorf("Workers = %d, want 8", loaded.Sync.Workers)
	}
	if loaded.Retry.BaseDelay != 2*time.Second {
		t.Errorf("BaseDelay = %v, want 2s", loaded.Retry.BaseDelay)
	}
	if loaded.Normalize.RateFormula != RateMultiply {
		t.Errorf("RateFormula = %q, want multiply", loaded.Normalize.RateFormula)
	}
}

func TestApplyEnvVars(t *testing.T) {
	t.Setenv(EnvAccessToken, "tok-abc")
	t.Setenv(EnvWorkers, "12")
	t.Setenv(EnvRateFormula, "multiply")

	cfg := Default()
	applied := ApplyEnvVars(cfg)

	if cfg.Asana.AccessToken != "tok-abc" {
		t.Errorf("AccessToken = %q", cfg.Asana.AccessToken)
	}
	if cfg.Sync.Workers != 12 {
		t.Errorf("Workers = %d, want 12", cfg.Sync.Workers)
	}
	if cfg.Normalize.RateFormula != RateMultiply {
		t.Errorf("RateFormula = %q, want multiply", cfg.Normalize.RateFormula)
	}
	if len(applied) != 3 {
		t.Errorf("applied = %v, want 3 entries", applied)
	}
}

func TestValidate(t *testing.T) {
	// Make sure ambient env vars don't leak into validation tests.
	os.Unsetenv(EnvAccessToken)
	os.Unsetenv(EnvWorkspaceID)

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name: "valid",
			mutate: func(c *Config) {
				c.Asana.AccessToken = "tok"
				c.Asana.WorkspaceID = "ws"
			},
			wantErr: false,
		},
		{
			name:    "missing token",
			mutate:  func(c *Config) { c.Asana.WorkspaceID = "ws" },
			wantErr: true,
		},
		{
			name:    "missing workspace",
			mutate:  func(c *Config) { c.Asana.AccessToken = "tok" },
			wantErr: true,
		},
		{
			name: "bad rate formula",
			mutate: func(c *Config) {
				c.Asana.AccessToken = "tok"
				c.Asana.WorkspaceID = "ws"
				c.Normalize.RateFormula = "half"
			},
			wantErr: true,
		},
		{
			name: "zero workers",
			mutate: func(c *Config) {
				c.Asana.AccessToken = "tok"
				c.Asana.WorkspaceID = "ws"
				c.Sync.Workers = 0
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
