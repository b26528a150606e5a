// Package aggregator fans a request out to every available source adapter
// and merges the answers into one ranked, deduplicated list.
package aggregator

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonesrussell/newsfeed/infrastructure/logger"
	"github.com/jonesrussell/newsfeed/internal/cache"
	"github.com/jonesrussell/newsfeed/internal/dedup"
	"github.com/jonesrussell/newsfeed/internal/domain"
	"github.com/jonesrussell/newsfeed/internal/sources"
	"github.com/jonesrussell/newsfeed/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultCacheTTL       = 5 * time.Minute
	DefaultAdapterTimeout = 10 * time.Second
	DefaultLimit          = 50
	DefaultMaxLimit       = 200
	// CacheNamespace prefixes every live news cache key.
	CacheNamespace = "articles:live"
)

// Config tunes aggregation. TrackingParams is shared with the deduplicator.
type Config struct {
	CacheTTL            time.Duration `yaml:"cache_ttl"`
	AdapterTimeout      time.Duration `yaml:"adapter_timeout"`
	DefaultLimit        int           `yaml:"default_limit"`
	MaxLimit            int           `yaml:"max_limit"`
	SimilarityThreshold float64       `yaml:"similarity_threshold"`
	TrackingParams      []string      `yaml:"-"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.CacheTTL <= 0 {
		c.CacheTTL = DefaultCacheTTL
	}
	if c.AdapterTimeout <= 0 {
		c.AdapterTimeout = DefaultAdapterTimeout
	}
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = DefaultLimit
	}
	if c.MaxLimit <= 0 {
		c.MaxLimit = DefaultMaxLimit
	}
	if c.SimilarityThreshold <= 0 {
		c.SimilarityThreshold = dedup.DefaultSimilarityThreshold
	}
}

// Tagger enriches merged articles. Optional.
type Tagger interface {
	ExtractTags(title, description string) []string
}

// Aggregator is safe for concurrent use.
type Aggregator struct {
	cfg       Config
	adapters  []sources.Adapter
	cache     *cache.Cache
	deduper   *dedup.BatchDeduper
	tagger    Tagger
	telemetry *telemetry.Provider
	tracer    trace.Tracer
	log       logger.Logger
	now       func() time.Time
}

// Option customizes an Aggregator.
type Option func(*Aggregator)

// WithTagger merges tagger keywords into every returned article.
func WithTagger(t Tagger) Option {
	return func(a *Aggregator) { a.tagger = t }
}

// WithTelemetry records metrics and spans.
func WithTelemetry(p *telemetry.Provider) Option {
	return func(a *Aggregator) { a.telemetry = p }
}

// New builds an Aggregator. A nil cache disables caching.
func New(cfg Config, adapters []sources.Adapter, c *cache.Cache, log logger.Logger, opts ...Option) *Aggregator {
	cfg.SetDefaults()
	if c == nil {
		c = cache.New(nil, "", log)
	}

	a := &Aggregator{
		cfg:      cfg,
		adapters: adapters,
		cache:    c,
		deduper:  dedup.NewBatchDeduper(cfg.SimilarityThreshold, cfg.TrackingParams),
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.tracer = a.telemetry.TracerOrNoop()
	return a
}

// CacheKey derives the cache key for req from its canonical parameters.
func (a *Aggregator) CacheKey(req Request) string {
	return cache.BuildKey(CacheNamespace, map[string]string{
		"category": req.Category.String(),
		"query":    strings.Join(strings.Fields(strings.ToLower(req.Query)), " "),
		"limit":    strconv.Itoa(a.limit(req.Limit)),
	})
}

func (a *Aggregator) limit(n int) int {
	if n <= 0 {
		return a.cfg.DefaultLimit
	}
	return min(n, a.cfg.MaxLimit)
}

// FetchLiveNews returns merged articles for req. It never fails: adapter
// errors are recorded in the metadata and an empty result is still a
// result.
func (a *Aggregator) FetchLiveNews(ctx context.Context, req Request) Result {
	ctx, span := a.tracer.Start(ctx, "aggregator.fetch_live_news", trace.WithAttributes(
		attribute.String("category", req.Category.String()),
		attribute.Bool("search", req.Query != ""),
		attribute.Bool("use_cache", req.UseCache),
	))
	defer span.End()

	req.Limit = a.limit(req.Limit)
	key := a.CacheKey(req)

	if req.UseCache {
		var cached Result
		hit := a.cache.Get(ctx, key, &cached)
		a.telemetry.RecordCacheLookup(hit)
		if hit {
			cached.Metadata.CacheHit = true
			span.SetAttributes(attribute.Bool("cache_hit", true))
			return cached
		}
	}

	outcomes := a.fanOut(ctx, req)

	meta := Metadata{
		SourceCounts:   make(map[string]int),
		CategoryCounts: make(map[string]int),
		TotalSources:   len(outcomes),
	}

	var merged []domain.Article
	for _, o := range outcomes {
		if o.err != nil {
			meta.SourcesFailed++
			meta.Failures = append(meta.Failures, SourceFailure{
				Source:  o.source,
				Type:    string(sources.ErrorTypeOf(o.err)),
				Message: o.err.Error(),
			})
			continue
		}
		meta.SourcesUsed++
		for i := range o.articles {
			o.articles[i].SourceWeight = o.weight
		}
		merged = append(merged, o.articles...)
	}

	merged = a.deduper.Dedupe(merged)
	sortArticles(merged)
	if len(merged) > req.Limit {
		merged = merged[:req.Limit]
	}

	for i := range merged {
		if a.tagger != nil {
			merged[i].AddTags(a.tagger.ExtractTags(merged[i].Title, merged[i].Description)...)
		}
		meta.SourceCounts[merged[i].APISource]++
		meta.CategoryCounts[merged[i].Category.String()]++
	}
	meta.TotalArticles = len(merged)
	meta.FetchedAt = a.now().UTC()

	result := Result{Articles: merged, Metadata: meta}
	if result.Articles == nil {
		result.Articles = []domain.Article{}
	}

	span.SetAttributes(
		attribute.Int("articles", meta.TotalArticles),
		attribute.Int("sources_failed", meta.SourcesFailed),
	)
	a.log.Info("Live news aggregated",
		logger.String("category", req.Category.String()),
		logger.Bool("search", req.Query != ""),
		logger.Int("articles", meta.TotalArticles),
		logger.Int("sources_used", meta.SourcesUsed),
		logger.Int("sources_failed", meta.SourcesFailed),
	)

	if meta.SourcesUsed > 0 {
		a.cache.Set(ctx, key, result, a.cfg.CacheTTL)
	}
	return result
}

// sortArticles orders by publication time, newest first, then by source
// weight.
func sortArticles(articles []domain.Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		a, b := articles[i], articles[j]
		if !a.PublishedAt.Equal(b.PublishedAt) {
			return a.PublishedAt.After(b.PublishedAt)
		}
		return a.SourceWeight > b.SourceWeight
	})
}

type outcome struct {
	source   string
	weight   float64
	articles []domain.Article
	err      error
}

// fanOut calls every available adapter concurrently and waits for all of
// them. Outcomes keep adapter order.
func (a *Aggregator) fanOut(ctx context.Context, req Request) []outcome {
	active := a.available()
	outcomes := make([]outcome, len(active))

	opts := sources.Options{Category: req.Category, Query: req.Query, PageSize: req.Limit}

	var wg sync.WaitGroup
	for i, adapter := range active {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i] = a.call(ctx, adapter, opts)
		}()
	}
	wg.Wait()

	return outcomes
}

func (a *Aggregator) call(ctx context.Context, adapter sources.Adapter, opts sources.Options) (o outcome) {
	name := adapter.Name()
	o = outcome{source: name, weight: adapter.Weight()}

	ctx, span := a.tracer.Start(ctx, "aggregator.adapter", trace.WithAttributes(attribute.String("source", name)))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, a.cfg.AdapterTimeout)
	defer cancel()

	start := a.now()
	defer func() {
		if r := recover(); r != nil {
			o.articles = nil
			o.err = &sources.AdapterFetchError{Source: name, Type: sources.ErrTypeNetwork, Cause: panicError{r}}
		}
		a.telemetry.RecordAdapterRequest(name, o.err, a.now().Sub(start))
		if o.err != nil {
			span.RecordError(o.err)
			span.SetStatus(codes.Error, "adapter failed")
			a.log.Warn("Source fetch failed",
				logger.String("source", name),
				logger.String("error_type", string(sources.ErrorTypeOf(o.err))),
				logger.String("url", fetchURL(o.err)),
				logger.Error(o.err),
			)
		}
	}()

	if opts.Query != "" {
		o.articles, o.err = adapter.SearchNews(ctx, opts)
	} else {
		o.articles, o.err = adapter.FetchHeadlines(ctx, opts)
	}
	if o.err != nil {
		o.articles, o.err = nil, asFetchError(name, o.err)
	}
	return o
}

func (a *Aggregator) available() []sources.Adapter {
	out := make([]sources.Adapter, 0, len(a.adapters))
	for _, adapter := range a.adapters {
		if adapter.IsAvailable() {
			out = append(out, adapter)
		}
	}
	return out
}

// AvailableSources lists adapters that currently report available.
func (a *Aggregator) AvailableSources() []SourceInfo {
	active := a.available()
	out := make([]SourceInfo, len(active))
	for i, adapter := range active {
		out[i] = SourceInfo{Name: adapter.Name(), Weight: adapter.Weight()}
	}
	return out
}

// Sources lists every configured adapter.
func (a *Aggregator) Sources() []sources.Adapter {
	return a.adapters
}

// HealthCheck probes every adapter with a single-item fetch. Unavailable
// adapters are reported as disabled without a request.
func (a *Aggregator) HealthCheck(ctx context.Context) Health {
	results := make([]SourceHealth, len(a.adapters))

	var wg sync.WaitGroup
	for i, adapter := range a.adapters {
		if !adapter.IsAvailable() {
			results[i] = SourceHealth{Status: HealthDisabled}
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = a.probe(ctx, adapter)
		}()
	}
	wg.Wait()

	h := Health{Sources: make(map[string]SourceHealth, len(a.adapters)), CheckedAt: a.now().UTC()}
	healthy, failed := 0, 0
	for i, adapter := range a.adapters {
		h.Sources[adapter.Name()] = results[i]
		switch results[i].Status {
		case HealthHealthy:
			healthy++
		case HealthError:
			failed++
		}
	}

	switch {
	case healthy == 0:
		h.Status = OverallUnhealthy
	case failed > 0:
		h.Status = OverallDegraded
	default:
		h.Status = OverallHealthy
	}
	return h
}

func (a *Aggregator) probe(ctx context.Context, adapter sources.Adapter) (h SourceHealth) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.AdapterTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			h = SourceHealth{Status: HealthError, Error: panicError{r}.Error()}
		}
	}()

	start := a.now()
	_, err := adapter.FetchHeadlines(ctx, sources.Options{PageSize: 1})
	if err != nil {
		return SourceHealth{Status: HealthError, Error: err.Error()}
	}
	return SourceHealth{Status: HealthHealthy, LatencyMS: a.now().Sub(start).Milliseconds()}
}
