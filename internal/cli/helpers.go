package cli

import (
	"context"
	"log/slog"

	"github.com/oknozoka/asanasync/internal/asana"
	"github.com/oknozoka/asanasync/internal/config"
	"github.com/oknozoka/asanasync/internal/syncer"
	"github.com/oknozoka/asanasync/internal/warehouse"
)

// loadConfig loads and validates the configuration, honoring --config.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.LoadFrom(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openStore opens the configured warehouse and applies migrations.
func openStore(ctx context.Context, cfg *config.Config) (*warehouse.Store, error) {
	return warehouse.Open(ctx, cfg.Store.Dialect, cfg.Store.DSN)
}

// newRemoteClient builds the API client from config.
func newRemoteClient(cfg *config.Config, logger *slog.Logger) (*asana.Client, error) {
	return asana.NewClient(asana.ClientConfig{
		BaseURL:     cfg.Asana.BaseURL,
		AccessToken: cfg.Asana.AccessToken,
		WorkspaceID: cfg.Asana.WorkspaceID,
		FullHorizon: cfg.Sync.FullHorizon,
		Timeout:     cfg.Asana.Timeout,
		Retry: asana.RetryPolicy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.Retry.BaseDelay,
			MaxDelay:    cfg.Retry.MaxDelay,
		},
	}, logger)
}

// newEngine wires client, store, and config into a sync engine.
func newEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*syncer.Engine, *warehouse.Store, error) {
	client, err := newRemoteClient(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return syncer.New(syncer.NewFetcher(client), store, cfg, logger), store, nil
}
