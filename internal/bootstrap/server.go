package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	infragin "github.com/jonesrussell/newsfeed/infrastructure/gin"
	"github.com/jonesrussell/newsfeed/infrastructure/logger"
	"github.com/jonesrussell/newsfeed/internal/api"
	"github.com/jonesrussell/newsfeed/internal/ingest"
)

// ErrIngestDisabled is returned by commands that need the database.
var ErrIngestDisabled = errors.New("ingestion requires database.enabled")

// NewServer builds the HTTP server with every API route.
func (a *App) NewServer() *infragin.Server {
	deps := api.Deps{
		News:      a.Aggregator,
		Dedup:     a.Dedup,
		Tagger:    a.Tagger,
		Cache:     a.Cache,
		Telemetry: a.Telemetry,
		Health: infragin.HealthOptions{
			ServiceName:    a.Config.Service.Name,
			ServiceVersion: a.Config.Service.Version,
			StartTime:      time.Now(),
			Checks:         a.healthChecks(),
		},
	}
	if a.Ingest != nil {
		deps.Ingest = a.Ingest
	}
	if a.Storage.Repo != nil {
		deps.Articles = a.Storage.Repo
	}

	router := api.NewRouter(deps, a.Logger)
	return infragin.NewServer(&a.Config.Server, a.Logger, router.Register)
}

func (a *App) healthChecks() map[string]infragin.HealthChecker {
	checks := make(map[string]infragin.HealthChecker)
	if a.Storage.Repo != nil {
		checks["database"] = infragin.PingChecker(a.Storage.Repo.Ping, false)
	}
	if a.Storage.Redis != nil {
		checks["redis"] = infragin.PingChecker(func(ctx context.Context) error {
			return a.Storage.Redis.Ping(ctx).Err()
		}, true)
	}
	if a.Storage.ES != nil {
		checks["elasticsearch"] = infragin.PingChecker(a.Storage.PingElasticsearch, true)
	}
	return checks
}

// Serve runs the HTTP server and, when enabled, the scheduler until an
// interrupt signal or ctx ends.
func (a *App) Serve(ctx context.Context) error {
	var scheduler *ingest.Scheduler
	switch {
	case !a.Config.Scheduler.Enabled:
	case a.Ingest == nil:
		a.Logger.Warn("Scheduler enabled but database disabled, not scheduling jobs")
	default:
		s, err := ingest.NewScheduler(a.Config.Scheduler, a.Ingest, a.Logger)
		if err != nil {
			return fmt.Errorf("failed to create scheduler: %w", err)
		}
		scheduler = s
		scheduler.Start()
	}

	serveErr := a.NewServer().RunWithGracefulShutdown(ctx)

	if scheduler != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
		defer cancel()
		if err := scheduler.Stop(stopCtx); err != nil {
			a.Logger.Error("Failed to stop scheduler", logger.Error(err))
		}
	}
	return serveErr
}
