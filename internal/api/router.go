// Package api exposes the aggregation, dedupe, tagging and cache
// operations over HTTP.
package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	infragin "github.com/jonesrussell/newsfeed/infrastructure/gin"
	"github.com/jonesrussell/newsfeed/infrastructure/logger"
	"github.com/jonesrussell/newsfeed/internal/aggregator"
	"github.com/jonesrussell/newsfeed/internal/cache"
	"github.com/jonesrussell/newsfeed/internal/dedup"
	"github.com/jonesrussell/newsfeed/internal/domain"
	"github.com/jonesrussell/newsfeed/internal/ingest"
	"github.com/jonesrussell/newsfeed/internal/tagger"
	"github.com/jonesrussell/newsfeed/internal/telemetry"
)

const statsCacheTTL = 30 * time.Second

// NewsService is the live aggregation surface.
type NewsService interface {
	FetchLiveNews(ctx context.Context, req aggregator.Request) aggregator.Result
	AvailableSources() []aggregator.SourceInfo
	HealthCheck(ctx context.Context) aggregator.Health
}

// DedupService answers similarity and statistics queries.
type DedupService interface {
	FindSimilarArticles(ctx context.Context, title, description string, threshold float64) []dedup.SimilarArticle
	Stats(ctx context.Context) (dedup.Stats, error)
}

// TagService extracts tags and manages the corpus.
type TagService interface {
	ExtractTags(title, description string) []string
	Stats() tagger.Stats
	ClearCorpus()
}

// IngestService persists fresh aggregates and prunes duplicates.
type IngestService interface {
	Refresh(ctx context.Context, req aggregator.Request) (ingest.Report, error)
	Cleanup(ctx context.Context) (ingest.CleanupReport, error)
}

// ArticleStore looks up stored articles.
type ArticleStore interface {
	FindByID(ctx context.Context, id string) (*domain.Article, error)
}

// Deps are the handler collaborators. Ingest and Articles are nil when no
// database is configured; their routes then answer 503.
type Deps struct {
	News      NewsService
	Dedup     DedupService
	Tagger    TagService
	Ingest    IngestService
	Articles  ArticleStore
	Cache     *cache.Cache
	Telemetry *telemetry.Provider
	Health    infragin.HealthOptions
}

// Router holds the API dependencies.
type Router struct {
	deps Deps
	log  logger.Logger
}

// NewRouter creates a Router.
func NewRouter(deps Deps, log logger.Logger) *Router {
	if deps.Cache == nil {
		deps.Cache = cache.New(nil, "", log)
	}
	return &Router{deps: deps, log: log}
}

// Register adds every route to router.
func (r *Router) Register(router *gin.Engine) {
	router.Use(r.deps.Telemetry.HTTPMiddleware())

	infragin.RegisterHealthRoutes(router, r.deps.Health)
	router.GET("/metrics", gin.WrapH(r.deps.Telemetry.Handler()))

	v1 := router.Group("/api/v1")

	v1.GET("/news", r.getNews)
	v1.GET("/news/:id", r.getArticle)

	v1.GET("/sources", r.listSources)
	v1.GET("/sources/health", r.sourcesHealth)

	v1.POST("/ingest/refresh", r.refresh)

	dedupGroup := v1.Group("/dedup")
	dedupGroup.POST("/cleanup", r.cleanup)
	dedupGroup.GET("/stats", r.dedupStats)
	dedupGroup.POST("/similar", r.findSimilar)

	tagGroup := v1.Group("/tagger")
	tagGroup.GET("/stats", r.taggerStats)
	tagGroup.POST("/extract", r.extractTags)
	tagGroup.DELETE("/corpus", r.clearCorpus)

	v1.DELETE("/cache", r.invalidateCache)
}
