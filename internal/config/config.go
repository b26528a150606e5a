// Package config holds the newsfeed service configuration, loaded from YAML
// and overridden from the environment.
package config

import (
	"errors"
	"fmt"

	infraconfig "github.com/jonesrussell/newsfeed/infrastructure/config"
	"github.com/jonesrussell/newsfeed/infrastructure/elasticsearch"
	infragin "github.com/jonesrussell/newsfeed/infrastructure/gin"
	"github.com/jonesrussell/newsfeed/infrastructure/logger"
	infraredis "github.com/jonesrussell/newsfeed/infrastructure/redis"
	"github.com/jonesrussell/newsfeed/internal/aggregator"
	"github.com/jonesrussell/newsfeed/internal/cache"
	"github.com/jonesrussell/newsfeed/internal/database"
	"github.com/jonesrussell/newsfeed/internal/dedup"
	"github.com/jonesrussell/newsfeed/internal/ingest"
	"github.com/jonesrussell/newsfeed/internal/search"
	"github.com/jonesrussell/newsfeed/internal/sources"
	"github.com/jonesrussell/newsfeed/internal/tagger"
)

const defaultServiceName = "newsfeed"

// Config is the complete service configuration.
type Config struct {
	Service       ServiceConfig          `yaml:"service"`
	Server        infragin.Config        `yaml:"server"`
	Logging       logger.Config          `yaml:"logging"`
	Database      DatabaseConfig         `yaml:"database"`
	Redis         RedisConfig            `yaml:"redis"`
	Elasticsearch ElasticsearchConfig    `yaml:"elasticsearch"`
	Aggregator    aggregator.Config      `yaml:"aggregator"`
	Dedup         dedup.Config           `yaml:"dedup"`
	Tagger        tagger.Config          `yaml:"tagger"`
	Sources       sources.Config         `yaml:"sources"`
	Scheduler     ingest.SchedulerConfig `yaml:"scheduler"`
}

// ServiceConfig identifies the running service.
type ServiceConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"-"`
}

// DatabaseConfig enables the Postgres store. Without it the service still
// aggregates live news but nothing is persisted.
type DatabaseConfig struct {
	database.Config `yaml:",inline"`
	Enabled         bool `env:"DATABASE_ENABLED" yaml:"enabled"`
}

// RedisConfig enables the shared cache. Without it every cache operation
// is a no-op.
type RedisConfig struct {
	infraredis.Config `yaml:",inline"`
	Enabled           bool   `env:"REDIS_ENABLED" yaml:"enabled"`
	KeyPrefix         string `yaml:"key_prefix"`
}

// ElasticsearchConfig enables the search index used for similarity
// candidates. Postgres full-text search is used when it is disabled.
type ElasticsearchConfig struct {
	elasticsearch.Config `yaml:",inline"`
	Enabled              bool   `env:"ELASTICSEARCH_ENABLED" yaml:"enabled"`
	Index                string `env:"ELASTICSEARCH_INDEX"   yaml:"index"`
}

// Load reads path and applies defaults. Environment variables win over
// both the file and the defaults.
func Load(path string) (*Config, error) {
	cfg, err := infraconfig.LoadWithDefaults[Config](path, setDefaults)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Service.Name == "" {
		cfg.Service.Name = defaultServiceName
	}
	cfg.Server.ServiceName = cfg.Service.Name
	cfg.Server.SetDefaults()

	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == "" {
		cfg.Database.Port = "5432"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "newsfeed"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}

	if cfg.Redis.Address == "" {
		cfg.Redis.Address = "localhost:6379"
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = cache.DefaultPrefix
	}

	cfg.Elasticsearch.SetDefaults()
	if cfg.Elasticsearch.Index == "" {
		cfg.Elasticsearch.Index = search.DefaultIndex
	}

	cfg.Aggregator.SetDefaults()
	cfg.Aggregator.TrackingParams = cfg.Dedup.TrackingParams
	cfg.Sources.TrackingParams = cfg.Dedup.TrackingParams
	if cfg.Dedup.SimilarityThreshold == 0 {
		cfg.Dedup.SimilarityThreshold = dedup.DefaultSimilarityThreshold
	}
	if cfg.Dedup.CacheCapacity == 0 {
		cfg.Dedup.CacheCapacity = dedup.DefaultCacheCapacity
	}
	if cfg.Tagger.MaxKeywords == 0 {
		cfg.Tagger.MaxKeywords = tagger.DefaultMaxKeywords
	}

	cfg.Scheduler.SetDefaults()
}

// Validate rejects values that would make a component misbehave. Missing
// API keys are not errors; they leave the adapter unavailable.
func (c *Config) Validate() error {
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	add(infraconfig.ValidatePort("server.port", c.Server.Port))

	add(infraconfig.ValidatePositive("aggregator.cache_ttl", c.Aggregator.CacheTTL))
	add(infraconfig.ValidatePositive("aggregator.adapter_timeout", c.Aggregator.AdapterTimeout))
	add(infraconfig.ValidatePositive("aggregator.default_limit", c.Aggregator.DefaultLimit))
	add(infraconfig.ValidatePositive("aggregator.max_limit", c.Aggregator.MaxLimit))
	if c.Aggregator.DefaultLimit > c.Aggregator.MaxLimit {
		add(&infraconfig.ValidationError{Field: "aggregator.default_limit", Message: "must not exceed max_limit"})
	}
	add(infraconfig.ValidateUnitInterval("aggregator.similarity_threshold", c.Aggregator.SimilarityThreshold, false))

	add(infraconfig.ValidatePositive("dedup.cache_capacity", c.Dedup.CacheCapacity))
	add(infraconfig.ValidateUnitInterval("dedup.similarity_threshold", c.Dedup.SimilarityThreshold, false))

	add(infraconfig.ValidatePositive("tagger.max_keywords", c.Tagger.MaxKeywords))

	add(validateWeight("sources.newsapi.weight", c.Sources.NewsAPI.Weight))
	add(validateWeight("sources.guardian.weight", c.Sources.Guardian.Weight))
	add(validateWeight("sources.nytimes.weight", c.Sources.NYTimes.Weight))
	for i, feed := range c.Sources.Feeds {
		field := fmt.Sprintf("sources.feeds[%d]", i)
		if feed.URL == "" {
			add(&infraconfig.ValidationError{Field: field + ".url", Message: "is required"})
		}
		add(validateWeight(field+".weight", feed.Weight))
		if !feed.Category.Valid() {
			add(&infraconfig.ValidationError{Field: field + ".category", Message: "unknown category"})
		}
	}

	if c.Elasticsearch.Enabled && c.Elasticsearch.URL == "" {
		add(&infraconfig.ValidationError{Field: "elasticsearch.url", Message: "is required when enabled"})
	}

	return errors.Join(errs...)
}

// validateWeight accepts zero, which means "use the adapter default".
func validateWeight(field string, w float64) error {
	return infraconfig.ValidateUnitInterval(field, w, true)
}
