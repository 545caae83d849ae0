package cmd

import (
	"context"
	"time"

	"ioc-sync/core/config"
	"ioc-sync/core/database"
	"ioc-sync/core/feed"
	"ioc-sync/core/history"
	"ioc-sync/core/inventory"
	"ioc-sync/core/metrics"
	"ioc-sync/core/storage"
	"ioc-sync/feature/indicators"

	"go.uber.org/zap"
)

// settingsFrom extracts the pipeline settings from the loaded configuration.
func settingsFrom(cfg *config.Config) indicators.Settings {
	return indicators.Settings{
		Policy:  cfg.Policy,
		Rollout: cfg.Rollout,
		Safety:  cfg.Safety,
		Apply:   cfg.Apply,
	}
}

// newService wires the inventory client and the optional run history,
// summary archive and metrics into an indicators service.
func newService(ctx context.Context, cfg *config.Config, l *zap.Logger, m *metrics.Metrics, snapshotTTL time.Duration) (*indicators.Service, error) {
	if !cfg.API.HasCredentials() {
		return nil, errMissingCredentials
	}

	client, err := inventory.New(cfg.API, l)
	if err != nil {
		return nil, err
	}

	opts := []indicators.Option{
		indicators.WithMetrics(m),
		indicators.WithSnapshotTTL(snapshotTTL),
	}

	// Run history is optional; a database failure only disables it
	if cfg.History.Enabled {
		if db, err := database.Connect(cfg.Database); err != nil {
			l.Warn("Optional database connection failed, run history disabled", zap.Error(err))
		} else {
			store := history.NewStore(db)
			if err := store.Migrate(ctx); err != nil {
				l.Warn("Run history migration failed, run history disabled", zap.Error(err))
			} else {
				opts = append(opts, indicators.WithHistory(store))
			}
		}
	}

	if cfg.Storage.Enabled {
		store, err := storage.NewClient(cfg.Storage)
		if err != nil {
			l.Warn("Failed to create storage client, summary archive disabled", zap.Error(err))
		} else {
			opts = append(opts, indicators.WithArchive(store, cfg.Storage.Bucket, cfg.History.Prefix, cfg.History.Keep))
		}
	}

	return indicators.NewService(feed.NewFetcher(cfg.Feed), client, settingsFrom(cfg), l, opts...), nil
}

// writeMetrics writes the metrics textfile when configured.
func writeMetrics(cfg *config.Config, l *zap.Logger, m *metrics.Metrics) {
	if cfg.Metrics.Textfile == "" {
		return
	}
	if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		l.Warn("Failed to write metrics textfile", zap.String("path", cfg.Metrics.Textfile), zap.Error(err))
	}
}
