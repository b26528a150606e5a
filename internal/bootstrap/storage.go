package bootstrap

import (
	"context"
	"errors"
	"fmt"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/jmoiron/sqlx"
	infraes "github.com/jonesrussell/newsfeed/infrastructure/elasticsearch"
	"github.com/jonesrussell/newsfeed/infrastructure/logger"
	infraredis "github.com/jonesrussell/newsfeed/infrastructure/redis"
	"github.com/jonesrussell/newsfeed/internal/config"
	"github.com/jonesrussell/newsfeed/internal/database"
	"github.com/jonesrussell/newsfeed/internal/search"
	"github.com/redis/go-redis/v9"
)

// StorageComponents holds the optional backends.
type StorageComponents struct {
	DB     *sqlx.DB
	Repo   *database.ArticleRepository
	Redis  *redis.Client
	ES     *es.Client
	Index  *search.ArticleIndex
	esConf infraes.Config
}

// SetupStorage connects every enabled backend. Postgres and Elasticsearch
// failures are fatal once enabled; Redis failures only disable caching.
func SetupStorage(ctx context.Context, cfg *config.Config, log logger.Logger) (*StorageComponents, error) {
	s := &StorageComponents{esConf: cfg.Elasticsearch.Config}

	if cfg.Database.Enabled {
		db, err := database.NewPostgresConnection(ctx, cfg.Database.Config)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		s.DB = db
		s.Repo = database.NewArticleRepository(db)
		log.Info("Connected to Postgres",
			logger.String("host", cfg.Database.Host),
			logger.String("database", cfg.Database.DBName),
		)
	}

	if cfg.Redis.Enabled {
		client, err := infraredis.NewClient(cfg.Redis.Config)
		if err != nil {
			log.Warn("Redis unavailable, caching disabled",
				logger.String("address", cfg.Redis.Address),
				logger.Error(err),
			)
		} else {
			s.Redis = client
			log.Info("Connected to Redis", logger.String("address", cfg.Redis.Address))
		}
	}

	if cfg.Elasticsearch.Enabled {
		client, err := infraes.NewClient(ctx, cfg.Elasticsearch.Config, log)
		if err != nil {
			s.Close(log)
			return nil, fmt.Errorf("elasticsearch: %w", err)
		}
		s.ES = client
		s.Index = search.NewArticleIndex(client, cfg.Elasticsearch.Index, log)
		if err = s.Index.EnsureIndex(ctx); err != nil {
			s.Close(log)
			return nil, fmt.Errorf("elasticsearch: %w", err)
		}
	}

	return s, nil
}

// PingElasticsearch checks the search cluster. It fails when search is
// disabled.
func (s *StorageComponents) PingElasticsearch(ctx context.Context) error {
	if s.ES == nil {
		return errors.New("elasticsearch disabled")
	}
	return infraes.Ping(ctx, s.ES, s.esConf)
}

// Close closes open connections.
func (s *StorageComponents) Close(log logger.Logger) {
	if s == nil {
		return
	}
	if s.DB != nil {
		if err := database.Close(s.DB); err != nil {
			log.Warn("Failed to close Postgres", logger.Error(err))
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Warn("Failed to close Redis", logger.Error(err))
		}
	}
}
