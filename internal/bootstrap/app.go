// Package bootstrap wires the newsfeed components together.
//
// The bootstrap process follows these phases:
//   - Phase 1: Config & Logger - Load configuration and create logger
//   - Phase 2: Storage - Connect Postgres, Redis and Elasticsearch (each optional)
//   - Phase 3: Services - Adapters, aggregator, deduplicator, tagger, ingestion
//   - Phase 4: Server - HTTP API and cron scheduler, run until interrupted
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jonesrussell/newsfeed/infrastructure/logger"
	"github.com/jonesrussell/newsfeed/internal/config"
)

// App holds every constructed component. Storage fields are nil when the
// matching backend is disabled.
type App struct {
	Config  *config.Config
	Logger  logger.Logger
	Storage *StorageComponents
	*Services
}

// New runs phases 1 to 3.
func New(ctx context.Context, configPath, version string) (*App, error) {
	// Phase 1: Config & Logger
	cfg, log, err := LoadConfig(configPath, version)
	if err != nil {
		return nil, err
	}

	// Phase 2: Storage
	storage, err := SetupStorage(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to setup storage: %w", err)
	}

	// Phase 3: Services
	services, err := SetupServices(ctx, cfg, storage, log)
	if err != nil {
		storage.Close(log)
		return nil, fmt.Errorf("failed to setup services: %w", err)
	}

	return &App{
		Config:   cfg,
		Logger:   log,
		Storage:  storage,
		Services: services,
	}, nil
}

// Close releases storage connections and flushes the logger.
func (a *App) Close() {
	a.Storage.Close(a.Logger)
	_ = a.Logger.Sync()
}
