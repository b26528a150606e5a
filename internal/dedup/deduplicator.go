package dedup

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jonesrussell/newsfeed/infrastructure/logger"
	"github.com/jonesrussell/newsfeed/internal/domain"
)

const (
	DefaultCacheCapacity       = 10000
	DefaultSimilarityThreshold = 0.8
	DefaultCandidateLimit      = 50
)

// TextSearcher returns articles whose text matches query.
type TextSearcher interface {
	FindByTextSearch(ctx context.Context, query string, limit int) ([]domain.Article, error)
}

// Store is the persistent source of truth. Find methods return (nil, nil)
// when nothing matches.
type Store interface {
	TextSearcher
	FindByURL(ctx context.Context, canonicalURL string) (*domain.Article, error)
	FindByContentHash(ctx context.Context, hash string) (*domain.Article, error)
	// GroupActiveByURL returns every canonical URL shared by more than one
	// active article, members ordered oldest first.
	GroupActiveByURL(ctx context.Context) ([][]domain.Article, error)
	BulkDelete(ctx context.Context, ids []string) (int64, error)
	CountActive(ctx context.Context) (int64, error)
}

// Config tunes a Deduplicator.
type Config struct {
	CacheCapacity       int      `yaml:"cache_capacity"`
	SimilarityThreshold float64  `yaml:"similarity_threshold"`
	CandidateLimit      int      `yaml:"candidate_limit"`
	TrackingParams      []string `yaml:"tracking_params"`
}

func (c *Config) setDefaults() {
	if c.CacheCapacity <= 0 {
		c.CacheCapacity = DefaultCacheCapacity
	}
	if c.SimilarityThreshold <= 0 {
		c.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if c.CandidateLimit <= 0 {
		c.CandidateLimit = DefaultCandidateLimit
	}
}

// Candidate is what IsDuplicate inspects. Title, Source and PublishedAt
// are optional; the content hash is only checked when all three are set.
type Candidate struct {
	URL         string
	Title       string
	Source      string
	PublishedAt time.Time
}

func (c Candidate) hasContentKey() bool {
	return c.Title != "" && c.Source != "" && !c.PublishedAt.IsZero()
}

// SimilarArticle pairs a stored article with its title similarity.
type SimilarArticle struct {
	Article    domain.Article `json:"article"`
	Similarity float64        `json:"similarity"`
}

// CleanupResult reports a RemoveDuplicates run.
type CleanupResult struct {
	RemovedCount    int64 `json:"removed_count"`
	DuplicateGroups int   `json:"duplicate_groups"`
}

// Stats describes the store and the in-memory index.
type Stats struct {
	TotalArticles       int64 `json:"total_articles"`
	DuplicateGroups     int   `json:"duplicate_groups"`
	EstimatedDuplicates int   `json:"estimated_duplicates"`
	CacheSize           int   `json:"cache_size"`
	CacheCapacity       int   `json:"cache_capacity"`
}

// Deduplicator is safe for concurrent use.
type Deduplicator struct {
	cfg    Config
	store  Store
	search TextSearcher
	urls   *URLNormalizer
	index  *hashIndex
	log    logger.Logger
}

// New builds a Deduplicator. store may be nil, in which case only the
// in-memory index is consulted. search overrides the store's text search
// when non-nil.
func New(cfg Config, store Store, search TextSearcher, log logger.Logger) *Deduplicator {
	cfg.setDefaults()
	if search == nil && store != nil {
		search = store
	}
	return &Deduplicator{
		cfg:    cfg,
		store:  store,
		search: search,
		urls:   NewURLNormalizer(cfg.TrackingParams),
		index:  newHashIndex(cfg.CacheCapacity),
		log:    log,
	}
}

// CanonicalURL normalizes raw with this deduplicator's tracking list.
func (d *Deduplicator) CanonicalURL(raw string) string {
	return d.urls.Normalize(raw)
}

// IsDuplicate reports whether c is already known. Store errors are logged
// and treated as "not found" so ingestion is never blocked by the store.
// A candidate that is not a duplicate is remembered, so a second call with
// the same canonical URL returns true.
func (d *Deduplicator) IsDuplicate(ctx context.Context, c Candidate) bool {
	canonical := d.urls.Normalize(c.URL)
	urlHash := Hash(canonical)

	if d.index.Contains(urlHash) {
		return true
	}
	if d.storeHas(ctx, "url", func() (*domain.Article, error) {
		return d.store.FindByURL(ctx, canonical)
	}) {
		d.index.Add(urlHash)
		return true
	}

	if c.hasContentKey() {
		contentHash := ContentHash(c.Title, c.Source, c.PublishedAt)
		if d.index.Contains(contentHash) {
			return true
		}
		if d.storeHas(ctx, "content_hash", func() (*domain.Article, error) {
			return d.store.FindByContentHash(ctx, contentHash)
		}) {
			d.index.Add(contentHash)
			return true
		}
		if added, _ := d.index.Add(contentHash); !added {
			return true
		}
	}

	// Add is the test-and-set: of two concurrent callers only one adds.
	added, _ := d.index.Add(urlHash)
	return !added
}

func (d *Deduplicator) storeHas(ctx context.Context, key string, find func() (*domain.Article, error)) bool {
	if d.store == nil {
		return false
	}

	found, err := find()
	if err != nil {
		if ctx.Err() == nil {
			d.log.Warn("Dedupe lookup failed, treating as new",
				logger.String("lookup", key),
				logger.Error(err),
			)
		}
		return false
	}
	return found != nil
}

// FindSimilarArticles fetches text-search candidates for title (or
// description when the title is empty) and returns those whose title
// similarity is at least threshold, most similar first. A non-positive
// threshold uses the configured default. Search failures yield no results.
func (d *Deduplicator) FindSimilarArticles(ctx context.Context, title, description string, threshold float64) []SimilarArticle {
	if threshold <= 0 {
		threshold = d.cfg.SimilarityThreshold
	}

	query := title
	if query == "" {
		query = description
	}
	if query == "" || d.search == nil {
		return nil
	}

	candidates, err := d.search.FindByTextSearch(ctx, query, d.cfg.CandidateLimit)
	if err != nil {
		d.log.Warn("Similarity search failed", logger.Error(err))
		return nil
	}

	target := WordSet(query)
	similar := make([]SimilarArticle, 0, len(candidates))
	for i := range candidates {
		score := Jaccard(target, WordSet(candidates[i].Title))
		if score >= threshold {
			similar = append(similar, SimilarArticle{Article: candidates[i], Similarity: score})
		}
	}

	sort.SliceStable(similar, func(i, j int) bool {
		return similar[i].Similarity > similar[j].Similarity
	})
	return similar
}

// RemoveDuplicates deletes every active article sharing a canonical URL
// with an older one. Near-duplicates with distinct URLs are left alone.
func (d *Deduplicator) RemoveDuplicates(ctx context.Context) (CleanupResult, error) {
	var result CleanupResult
	if d.store == nil {
		return result, nil
	}

	groups, err := d.store.GroupActiveByURL(ctx)
	if err != nil {
		return result, fmt.Errorf("group articles by url: %w", err)
	}

	var ids []string
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		result.DuplicateGroups++
		for _, dup := range group[1:] {
			ids = append(ids, dup.ID)
		}
	}
	if len(ids) == 0 {
		return result, nil
	}

	removed, err := d.store.BulkDelete(ctx, ids)
	if err != nil {
		return result, fmt.Errorf("delete %d duplicates: %w", len(ids), err)
	}
	result.RemovedCount = removed

	d.log.Info("Removed duplicate articles",
		logger.Int64("removed", removed),
		logger.Int("groups", result.DuplicateGroups),
	)
	return result, nil
}

// Stats reports store totals and index occupancy.
func (d *Deduplicator) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{
		CacheSize:     d.index.Len(),
		CacheCapacity: d.cfg.CacheCapacity,
	}
	if d.store == nil {
		return stats, nil
	}

	total, err := d.store.CountActive(ctx)
	if err != nil {
		return stats, fmt.Errorf("count articles: %w", err)
	}
	stats.TotalArticles = total

	groups, err := d.store.GroupActiveByURL(ctx)
	if err != nil {
		return stats, fmt.Errorf("group articles by url: %w", err)
	}
	for _, g := range groups {
		if len(g) > 1 {
			stats.DuplicateGroups++
			stats.EstimatedDuplicates += len(g) - 1
		}
	}
	return stats, nil
}

// ResetCache empties the in-memory index.
func (d *Deduplicator) ResetCache() {
	d.index.Reset()
}
