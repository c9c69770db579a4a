package config

import (
	"os"
	"strconv"
	"time"
)

// Environment variables recognized by asanasync. Values here override the
// config file, which overrides defaults.
const (
	EnvAccessToken = "ASANA_ACCESS_TOKEN"
	EnvWorkspaceID = "ASANA_WORKSPACE_ID"
	EnvDBDialect   = "ASYNC_DB_DIALECT"
	EnvDBDSN       = "ASYNC_DB_DSN"
	EnvWorkers     = "ASYNC_WORKERS"
	EnvMaxAttempts = "ASYNC_RETRY_MAX_ATTEMPTS"
	EnvBaseDelay   = "ASYNC_RETRY_BASE_DELAY"
	EnvRateFormula = "ASYNC_RATE_FORMULA"
)

// ApplyEnvVars applies environment variable overrides to cfg.
// Returns the list of variables that were applied.
func ApplyEnvVars(cfg *Config) []string {
	var applied []string

	apply := func(name string, set func(string)) {
		if v := os.Getenv(name); v != "" {
			set(v)
			applied = append(applied, name)
		}
	}

	apply(EnvAccessToken, func(v string) { cfg.Asana.AccessToken = v })
	apply(EnvWorkspaceID, func(v string) { cfg.Asana.WorkspaceID = v })
	apply(EnvDBDialect, func(v string) { cfg.Store.Dialect = v })
	apply(EnvDBDSN, func(v string) { cfg.Store.DSN = v })
	apply(EnvRateFormula, func(v string) { cfg.Normalize.RateFormula = RateFormula(v) })
	apply(EnvWorkers, func(v string) {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Sync.Workers = n
		}
	})
	apply(EnvMaxAttempts, func(v string) {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Retry.MaxAttempts = n
		}
	})
	apply(EnvBaseDelay, func(v string) {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Retry.BaseDelay = d
		}
	})

	return applied
}
