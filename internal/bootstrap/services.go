package bootstrap

import (
	"context"
	"fmt"

	infrahttp "github.com/jonesrussell/newsfeed/infrastructure/http"
	"github.com/jonesrussell/newsfeed/infrastructure/logger"
	"github.com/jonesrussell/newsfeed/internal/aggregator"
	"github.com/jonesrussell/newsfeed/internal/cache"
	"github.com/jonesrussell/newsfeed/internal/config"
	"github.com/jonesrussell/newsfeed/internal/dedup"
	"github.com/jonesrussell/newsfeed/internal/ingest"
	"github.com/jonesrussell/newsfeed/internal/sources"
	"github.com/jonesrussell/newsfeed/internal/tagger"
	"github.com/jonesrussell/newsfeed/internal/telemetry"
)

// Services holds the domain components. Ingest is nil without a database.
type Services struct {
	Telemetry  *telemetry.Provider
	Cache      *cache.Cache
	Adapters   []sources.Adapter
	Aggregator *aggregator.Aggregator
	Dedup      *dedup.Deduplicator
	Tagger     *tagger.Tagger
	Ingest     *ingest.Service
}

// SetupServices builds the pipeline on top of whatever storage is present.
func SetupServices(
	ctx context.Context,
	cfg *config.Config,
	storage *StorageComponents,
	log logger.Logger,
) (*Services, error) {
	s := &Services{
		Telemetry: telemetry.NewProvider(),
		Cache:     cache.New(storage.Redis, cfg.Redis.KeyPrefix, log),
	}

	tg, err := tagger.New(cfg.Tagger, log)
	if err != nil {
		return nil, fmt.Errorf("tagger: %w", err)
	}
	s.Tagger = tg

	// Assigned only when set so that a missing backend stays a nil interface.
	var store dedup.Store
	if storage.Repo != nil {
		store = storage.Repo
	}
	var searcher dedup.TextSearcher
	if storage.Index != nil {
		searcher = storage.Index
	}
	s.Dedup = dedup.New(cfg.Dedup, store, searcher, log)

	httpClient := infrahttp.NewClient(&infrahttp.ClientConfig{Timeout: cfg.Aggregator.AdapterTimeout})
	s.Adapters = sources.Build(cfg.Sources, httpClient, log)

	s.Aggregator = aggregator.New(cfg.Aggregator, s.Adapters, s.Cache, log,
		aggregator.WithTagger(tg),
		aggregator.WithTelemetry(s.Telemetry),
	)

	if storage.Repo != nil {
		if initErr := tg.Initialize(ctx, storage.Repo); initErr != nil {
			log.Warn("Tagger corpus not seeded", logger.Error(initErr))
		}
		s.Telemetry.SetCorpusDocuments(tg.Stats().TotalDocuments)

		opts := []ingest.Option{
			ingest.WithCache(s.Cache),
			ingest.WithTelemetry(s.Telemetry),
		}
		if storage.Index != nil {
			opts = append(opts, ingest.WithIndexer(storage.Index))
		}
		s.Ingest = ingest.NewService(s.Aggregator, s.Dedup, tg, storage.Repo, log, opts...)
	}

	return s, nil
}
