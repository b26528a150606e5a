package dedup_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonesrussell/newsfeed/infrastructure/logger"
	"github.com/jonesrussell/newsfeed/internal/dedup"
	"github.com/jonesrussell/newsfeed/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu          sync.Mutex
	byURL       map[string]domain.Article
	byHash      map[string]domain.Article
	searchHits  []domain.Article
	groups      [][]domain.Article
	deleted     []string
	total       int64
	err         error
	urlLookups  int
	hashLookups int
}

func newFakeStore() *fakeStore {
	return &fakeStore{byURL: map[string]domain.Article{}, byHash: map[string]domain.Article{}}
}

func (s *fakeStore) FindByURL(_ context.Context, canonical string) (*domain.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.urlLookups++
	if s.err != nil {
		return nil, s.err
	}
	if a, ok := s.byURL[canonical]; ok {
		return &a, nil
	}
	return nil, nil
}

func (s *fakeStore) FindByContentHash(_ context.Context, hash string) (*domain.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hashLookups++
	if s.err != nil {
		return nil, s.err
	}
	if a, ok := s.byHash[hash]; ok {
		return &a, nil
	}
	return nil, nil
}

func (s *fakeStore) FindByTextSearch(context.Context, string, int) ([]domain.Article, error) {
	return s.searchHits, s.err
}

func (s *fakeStore) GroupActiveByURL(context.Context) ([][]domain.Article, error) {
	return s.groups, s.err
}

func (s *fakeStore) BulkDelete(_ context.Context, ids []string) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.deleted = append(s.deleted, ids...)
	return int64(len(ids)), nil
}

func (s *fakeStore) CountActive(context.Context) (int64, error) {
	return s.total, s.err
}

func newDeduplicator(store dedup.Store, capacity int) *dedup.Deduplicator {
	return dedup.New(dedup.Config{CacheCapacity: capacity}, store, nil, logger.NewNop())
}

func TestIsDuplicate_SecondCallWithSameNormalizedURL(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	d := newDeduplicator(store, 100)
	ctx := context.Background()

	assert.False(t, d.IsDuplicate(ctx, dedup.Candidate{URL: "https://example.com/story?utm_source=rss"}))
	assert.True(t, d.IsDuplicate(ctx, dedup.Candidate{URL: "https://EXAMPLE.com/story/#top"}))
	assert.Equal(t, 1, store.urlLookups, "cache hit must not reach the store")
}

func TestIsDuplicate_StoreHitIsMemoized(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.byURL["https://example.com/known"] = domain.Article{ID: "a1"}
	d := newDeduplicator(store, 100)
	ctx := context.Background()

	assert.True(t, d.IsDuplicate(ctx, dedup.Candidate{URL: "https://example.com/known"}))
	assert.True(t, d.IsDuplicate(ctx, dedup.Candidate{URL: "https://example.com/known?fbclid=x"}))
	assert.Equal(t, 1, store.urlLookups)
}

func TestIsDuplicate_ContentHash(t *testing.T) {
	t.Parallel()

	published := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.byHash[dedup.ContentHash("Storm hits coast", "Example Wire", published)] = domain.Article{ID: "a1"}
	d := newDeduplicator(store, 100)
	ctx := context.Background()

	dup := d.IsDuplicate(ctx, dedup.Candidate{
		URL:         "https://mirror.example.org/storm",
		Title:       "STORM hits coast",
		Source:      "example wire",
		PublishedAt: published.Add(3 * time.Hour),
	})
	assert.True(t, dup)

	// Without the optional fields only the URL is checked.
	assert.False(t, d.IsDuplicate(ctx, dedup.Candidate{URL: "https://other.example.org/storm"}))
	assert.Equal(t, 1, store.hashLookups)
}

func TestIsDuplicate_SameStoryNewURLWithinProcess(t *testing.T) {
	t.Parallel()

	d := newDeduplicator(nil, 100)
	ctx := context.Background()
	published := time.Now()

	first := dedup.Candidate{URL: "https://a.example/x", Title: "Same title", Source: "Wire", PublishedAt: published}
	second := first
	second.URL = "https://b.example/y"

	assert.False(t, d.IsDuplicate(ctx, first))
	assert.True(t, d.IsDuplicate(ctx, second))
}

func TestIsDuplicate_ConcurrentSameURLHasOneWinner(t *testing.T) {
	t.Parallel()

	d := newDeduplicator(newFakeStore(), 100)
	ctx := context.Background()

	const workers = 32
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		fresh int
		start = make(chan struct{})
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if !d.IsDuplicate(ctx, dedup.Candidate{URL: "https://example.com/race"}) {
				mu.Lock()
				fresh++
				mu.Unlock()
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, fresh)
}

func TestIsDuplicate_FailsOpenOnStoreError(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.err = errors.New("connection refused")
	d := newDeduplicator(store, 100)

	assert.False(t, d.IsDuplicate(context.Background(), dedup.Candidate{
		URL: "https://example.com/a", Title: "t", Source: "s", PublishedAt: time.Now(),
	}))
}

func TestIsDuplicate_FIFOEvictionForgetsOldest(t *testing.T) {
	t.Parallel()

	d := newDeduplicator(nil, 2)
	ctx := context.Background()

	for _, u := range []string{"https://e.com/1", "https://e.com/2", "https://e.com/3"} {
		require.False(t, d.IsDuplicate(ctx, dedup.Candidate{URL: u}))
	}

	assert.True(t, d.IsDuplicate(ctx, dedup.Candidate{URL: "https://e.com/3"}))
	assert.False(t, d.IsDuplicate(ctx, dedup.Candidate{URL: "https://e.com/1"}), "evicted hash is forgotten")
}

func TestFindSimilarArticles_FiltersAndSorts(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.searchHits = []domain.Article{
		{ID: "partial", Title: "Central bank raises interest rates again today"},
		{ID: "exact", Title: "Central bank raises interest rates"},
		{ID: "unrelated", Title: "Local team wins final"},
		{ID: "close", Title: "Central bank raises interest rates sharply"},
	}
	d := newDeduplicator(store, 10)

	got := d.FindSimilarArticles(context.Background(), "Central bank raises interest rates", "", 0.8)

	require.Len(t, got, 2)
	assert.Equal(t, "exact", got[0].Article.ID)
	assert.InDelta(t, 1.0, got[0].Similarity, 1e-9)
	assert.Equal(t, "close", got[1].Article.ID)
	for i, s := range got {
		assert.GreaterOrEqual(t, s.Similarity, 0.8)
		if i > 0 {
			assert.LessOrEqual(t, s.Similarity, got[i-1].Similarity)
		}
	}
}

type searcherFunc func(ctx context.Context, q string, limit int) ([]domain.Article, error)

func (f searcherFunc) FindByTextSearch(ctx context.Context, q string, limit int) ([]domain.Article, error) {
	return f(ctx, q, limit)
}

func TestFindSimilarArticles_UsesInjectedSearcher(t *testing.T) {
	t.Parallel()

	var gotQuery string
	search := searcherFunc(func(_ context.Context, q string, _ int) ([]domain.Article, error) {
		gotQuery = q
		return []domain.Article{{ID: "es", Title: "quake strikes city"}}, nil
	})
	d := dedup.New(dedup.Config{}, newFakeStore(), search, logger.NewNop())

	got := d.FindSimilarArticles(context.Background(), "", "Quake strikes city", 0)
	require.Len(t, got, 1)
	assert.Equal(t, "Quake strikes city", gotQuery)
}

func TestFindSimilarArticles_SearchErrorYieldsNothing(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.err = errors.New("timeout")
	d := newDeduplicator(store, 10)

	assert.Empty(t, d.FindSimilarArticles(context.Background(), "anything", "", 0.8))
}

func TestRemoveDuplicates_KeepsFirstOfEachGroup(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.groups = [][]domain.Article{
		{{ID: "a1"}, {ID: "a2"}, {ID: "a3"}},
		{{ID: "b1"}, {ID: "b2"}},
		{{ID: "c1"}},
	}
	d := newDeduplicator(store, 10)

	res, err := d.RemoveDuplicates(context.Background())
	require.NoError(t, err)

	assert.Equal(t, dedup.CleanupResult{RemovedCount: 3, DuplicateGroups: 2}, res)
	assert.ElementsMatch(t, []string{"a2", "a3", "b2"}, store.deleted)
}

func TestRemoveDuplicates_PropagatesStoreError(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.err = errors.New("db down")
	d := newDeduplicator(store, 10)

	_, err := d.RemoveDuplicates(context.Background())
	require.Error(t, err)
}

func TestStats(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.total = 42
	store.groups = [][]domain.Article{{{ID: "a1"}, {ID: "a2"}, {ID: "a3"}}, {{ID: "b1"}, {ID: "b2"}}}
	d := newDeduplicator(store, 500)
	d.IsDuplicate(context.Background(), dedup.Candidate{URL: "https://example.com/x"})

	stats, err := d.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dedup.Stats{
		TotalArticles:       42,
		DuplicateGroups:     2,
		EstimatedDuplicates: 3,
		CacheSize:           1,
		CacheCapacity:       500,
	}, stats)

	d.ResetCache()
	stats, err = d.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.CacheSize)
}
