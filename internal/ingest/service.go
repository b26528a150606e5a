// Package ingest persists aggregated articles: dedupe, tag, store, index,
// then invalidate the caches that could now be stale.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonesrussell/newsfeed/infrastructure/logger"
	"github.com/jonesrussell/newsfeed/internal/aggregator"
	"github.com/jonesrussell/newsfeed/internal/cache"
	"github.com/jonesrussell/newsfeed/internal/dedup"
	"github.com/jonesrussell/newsfeed/internal/domain"
	"github.com/jonesrussell/newsfeed/internal/tagger"
	"github.com/jonesrussell/newsfeed/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StalePatterns are invalidated after anything is stored or removed.
var StalePatterns = []string{"articles:*", "trending:*"}

// Fetcher supplies fresh aggregates.
type Fetcher interface {
	FetchLiveNews(ctx context.Context, req aggregator.Request) aggregator.Result
}

// Deduplicator decides whether an article is new and prunes stored copies.
type Deduplicator interface {
	CanonicalURL(raw string) string
	IsDuplicate(ctx context.Context, c dedup.Candidate) bool
	RemoveDuplicates(ctx context.Context) (dedup.CleanupResult, error)
}

// Tagger enriches articles and learns from them.
type Tagger interface {
	ExtractTags(title, description string) []string
	Categorize(title, description string) []domain.Category
	UpdateCorpus(docs ...tagger.Document) int
	Stats() tagger.Stats
}

// Repository stores articles. Save reports whether a new row was created.
type Repository interface {
	Save(ctx context.Context, a *domain.Article) (bool, error)
}

// Indexer mirrors stored articles into a search index. Optional.
type Indexer interface {
	Index(ctx context.Context, a *domain.Article) error
}

// Report summarizes one ingestion run.
type Report struct {
	RunID       string        `json:"run_id"`
	Received    int           `json:"received"`
	Stored      int           `json:"stored"`
	Duplicates  int           `json:"duplicates"`
	Failed      int           `json:"failed"`
	Invalidated int           `json:"invalidated_keys"`
	Duration    time.Duration `json:"duration_ns"`
}

// CleanupReport summarizes one duplicate cleanup.
type CleanupReport struct {
	dedup.CleanupResult
	Invalidated int `json:"invalidated_keys"`
}

// Service wires the ingestion collaborators together.
type Service struct {
	fetcher   Fetcher
	dedup     Deduplicator
	tagger    Tagger
	repo      Repository
	indexer   Indexer
	cache     *cache.Cache
	telemetry *telemetry.Provider
	tracer    trace.Tracer
	log       logger.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithIndexer mirrors stored articles into idx.
func WithIndexer(idx Indexer) Option {
	return func(s *Service) { s.indexer = idx }
}

// WithCache invalidates c after changes.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithTelemetry records ingest metrics and spans.
func WithTelemetry(p *telemetry.Provider) Option {
	return func(s *Service) { s.telemetry = p }
}

// NewService builds a Service.
func NewService(fetcher Fetcher, d Deduplicator, t Tagger, repo Repository, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		fetcher: fetcher,
		dedup:   d,
		tagger:  t,
		repo:    repo,
		log:     log,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = cache.New(nil, "", log)
	}
	s.tracer = s.telemetry.TracerOrNoop()
	return s
}

// Refresh pulls a fresh aggregate for req, bypassing the live news cache,
// and ingests it.
func (s *Service) Refresh(ctx context.Context, req aggregator.Request) (Report, error) {
	req.UseCache = false
	result := s.fetcher.FetchLiveNews(ctx, req)
	if result.Metadata.SourcesUsed == 0 && result.Metadata.TotalSources > 0 {
		return Report{RunID: uuid.NewString()}, fmt.Errorf("all %d sources failed", result.Metadata.SourcesFailed)
	}
	return s.Ingest(ctx, result.Articles)
}

// Ingest stores every article not already known. Individual failures are
// counted, not returned; the error is only set when ctx ends the run early.
func (s *Service) Ingest(ctx context.Context, articles []domain.Article) (Report, error) {
	start := time.Now()
	report := Report{RunID: uuid.NewString(), Received: len(articles)}

	ctx, span := s.tracer.Start(ctx, "ingest.run", trace.WithAttributes(
		attribute.String("run_id", report.RunID),
		attribute.Int("received", len(articles)),
	))
	defer span.End()

	log := s.log.With(logger.String("run_id", report.RunID))

	var docs []tagger.Document
	for i := range articles {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, "cancelled")
			return s.finish(ctx, report, docs, start), fmt.Errorf("ingest cancelled after %d articles: %w", i, err)
		}

		a := articles[i]
		stored, dup, err := s.ingestOne(ctx, &a)
		switch {
		case err != nil:
			report.Failed++
			log.Warn("Failed to store article",
				logger.String("article_id", a.ID),
				logger.String("url", a.URL),
				logger.Error(err),
			)
		case dup:
			report.Duplicates++
		case stored:
			report.Stored++
			docs = append(docs, tagger.Document{Title: a.Title, Description: a.Description})
		default:
			// Upsert hit an existing row the in-memory index had not seen.
			report.Duplicates++
		}
	}

	report = s.finish(ctx, report, docs, start)
	span.SetAttributes(
		attribute.Int("stored", report.Stored),
		attribute.Int("duplicates", report.Duplicates),
		attribute.Int("failed", report.Failed),
	)

	log.Info("Ingest completed",
		logger.Int("received", report.Received),
		logger.Int("stored", report.Stored),
		logger.Int("duplicates", report.Duplicates),
		logger.Int("failed", report.Failed),
		logger.Duration("duration", report.Duration),
	)
	return report, nil
}

func (s *Service) ingestOne(ctx context.Context, a *domain.Article) (stored, duplicate bool, err error) {
	if a.CanonicalURL == "" {
		a.CanonicalURL = s.dedup.CanonicalURL(a.URL)
	}
	if a.ID == "" {
		a.ID = dedup.Hash(a.CanonicalURL)
	}
	a.ContentHash = dedup.ContentHash(a.Title, a.Source.Name, a.PublishedAt)

	if s.dedup.IsDuplicate(ctx, dedup.Candidate{
		URL:         a.URL,
		Title:       a.Title,
		Source:      a.Source.Name,
		PublishedAt: a.PublishedAt,
	}) {
		return false, true, nil
	}

	a.AddTags(s.tagger.ExtractTags(a.Title, a.Description)...)
	if a.Category == domain.CategoryNone || a.Category == domain.CategoryGeneral {
		if matched := s.tagger.Categorize(a.Title, a.Description); len(matched) > 0 {
			a.Category = matched[0]
		}
	}

	stored, err = s.repo.Save(ctx, a)
	if err != nil {
		return false, false, err
	}

	if s.indexer != nil {
		if idxErr := s.indexer.Index(ctx, a); idxErr != nil {
			s.log.Warn("Failed to index article",
				logger.String("article_id", a.ID),
				logger.Error(idxErr),
			)
		}
	}
	return stored, false, nil
}

func (s *Service) finish(ctx context.Context, report Report, docs []tagger.Document, start time.Time) Report {
	if len(docs) > 0 {
		s.tagger.UpdateCorpus(docs...)
		report.Invalidated = s.cache.InvalidatePattern(context.WithoutCancel(ctx), StalePatterns...)
	}

	s.telemetry.RecordIngest(telemetry.IngestStored, report.Stored)
	s.telemetry.RecordIngest(telemetry.IngestDuplicate, report.Duplicates)
	s.telemetry.RecordIngest(telemetry.IngestFailed, report.Failed)
	s.telemetry.SetCorpusDocuments(s.tagger.Stats().TotalDocuments)

	report.Duration = time.Since(start)
	return report
}

// Cleanup removes stored URL duplicates and invalidates caches when
// anything was deleted.
func (s *Service) Cleanup(ctx context.Context) (CleanupReport, error) {
	var report CleanupReport

	result, err := s.dedup.RemoveDuplicates(ctx)
	if err != nil {
		return report, fmt.Errorf("remove duplicates: %w", err)
	}
	report.CleanupResult = result

	if result.RemovedCount > 0 {
		report.Invalidated = s.cache.InvalidatePattern(ctx, StalePatterns...)
	}
	s.telemetry.RecordCleanup(result.RemovedCount)
	return report, nil
}
