package bootstrap

import (
	"fmt"

	"github.com/jonesrussell/newsfeed/infrastructure/logger"
	"github.com/jonesrussell/newsfeed/internal/config"
)

// LoadConfig loads and validates configuration and builds the base logger
// carrying service and version fields.
func LoadConfig(path, version string) (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err = cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	cfg.Service.Version = version
	cfg.Server.ServiceVersion = version

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	log = log.With(
		logger.String("service", cfg.Service.Name),
		logger.String("version", version),
	)

	log.Info("Configuration loaded",
		logger.String("config_path", path),
		logger.Bool("database_enabled", cfg.Database.Enabled),
		logger.Bool("redis_enabled", cfg.Redis.Enabled),
		logger.Bool("elasticsearch_enabled", cfg.Elasticsearch.Enabled),
		logger.Int("feeds", len(cfg.Sources.Feeds)),
	)
	return cfg, log, nil
}
