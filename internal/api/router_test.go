package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	infragin "github.com/jonesrussell/newsfeed/infrastructure/gin"
	"github.com/jonesrussell/newsfeed/infrastructure/logger"
	"github.com/jonesrussell/newsfeed/internal/aggregator"
	"github.com/jonesrussell/newsfeed/internal/api"
	"github.com/jonesrussell/newsfeed/internal/cache"
	"github.com/jonesrussell/newsfeed/internal/database"
	"github.com/jonesrussell/newsfeed/internal/dedup"
	"github.com/jonesrussell/newsfeed/internal/domain"
	"github.com/jonesrussell/newsfeed/internal/ingest"
	"github.com/jonesrussell/newsfeed/internal/tagger"
	"github.com/jonesrussell/newsfeed/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNews struct {
	got    aggregator.Request
	health aggregator.Health
}

func (f *fakeNews) FetchLiveNews(_ context.Context, req aggregator.Request) aggregator.Result {
	f.got = req
	return aggregator.Result{
		Articles: []domain.Article{{ID: "a1", Title: "Hello", URL: "https://example.com/a1", Tags: []string{}}},
		Metadata: aggregator.Metadata{TotalArticles: 1, TotalSources: 2, SourcesUsed: 1, SourcesFailed: 1},
	}
}

func (f *fakeNews) AvailableSources() []aggregator.SourceInfo {
	return []aggregator.SourceInfo{{Name: "newsapi", Weight: 0.8}, {Name: "guardian", Weight: 0.9}}
}

func (f *fakeNews) HealthCheck(context.Context) aggregator.Health {
	return f.health
}

type fakeDedup struct {
	statsCalls int
	statsErr   error
	similar    []dedup.SimilarArticle
	threshold  float64
}

func (f *fakeDedup) FindSimilarArticles(_ context.Context, _, _ string, threshold float64) []dedup.SimilarArticle {
	f.threshold = threshold
	return f.similar
}

func (f *fakeDedup) Stats(context.Context) (dedup.Stats, error) {
	f.statsCalls++
	return dedup.Stats{TotalArticles: 42, DuplicateGroups: 1}, f.statsErr
}

type fakeTagger struct {
	cleared bool
}

func (f *fakeTagger) ExtractTags(title, _ string) []string {
	return []string{strings.ToLower(strings.Fields(title)[0]), "technology"}
}

func (f *fakeTagger) Stats() tagger.Stats {
	if f.cleared {
		return tagger.Stats{MaxKeywords: 5}
	}
	return tagger.Stats{TotalDocuments: 10, UniqueTerms: 30, Initialized: true, MaxKeywords: 5}
}

func (f *fakeTagger) ClearCorpus() { f.cleared = true }

type fakeIngest struct {
	got        aggregator.Request
	refreshErr error
	cleanup    ingest.CleanupReport
}

func (f *fakeIngest) Refresh(_ context.Context, req aggregator.Request) (ingest.Report, error) {
	f.got = req
	return ingest.Report{RunID: "run-1", Received: 3, Stored: 2, Duplicates: 1}, f.refreshErr
}

func (f *fakeIngest) Cleanup(context.Context) (ingest.CleanupReport, error) {
	return f.cleanup, nil
}

type fakeArticles struct{}

func (fakeArticles) FindByID(_ context.Context, id string) (*domain.Article, error) {
	if id == "known" {
		return &domain.Article{ID: "known", Title: "Stored"}, nil
	}
	return nil, database.ErrArticleNotFound
}

type harness struct {
	router *gin.Engine
	news   *fakeNews
	dedup  *fakeDedup
	tagger *fakeTagger
	ingest *fakeIngest
	cache  *cache.Cache
	redis  *miniredis.Miniredis
}

func newHarness(t *testing.T, withStore bool) *harness {
	t.Helper()

	log := logger.NewNop()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	h := &harness{
		news:   &fakeNews{health: aggregator.Health{Status: aggregator.OverallHealthy}},
		dedup:  &fakeDedup{},
		tagger: &fakeTagger{},
		ingest: &fakeIngest{},
		cache:  cache.New(client, "test:", log),
		redis:  mr,
	}

	deps := api.Deps{
		News:      h.news,
		Dedup:     h.dedup,
		Tagger:    h.tagger,
		Cache:     h.cache,
		Telemetry: telemetry.NewProvider(),
		Health:    infragin.HealthOptions{ServiceName: "newsfeed-test"},
	}
	if withStore {
		deps.Ingest = h.ingest
		deps.Articles = fakeArticles{}
	}

	cfg := &infragin.Config{ServiceName: "newsfeed-test"}
	h.router = infragin.NewServer(cfg, log, api.NewRouter(deps, log).Register).Router()
	return h
}

func (h *harness) do(t *testing.T, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)

	var decoded map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestGetNews(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		target   string
		wantCode int
		wantReq  aggregator.Request
		checkReq bool
	}{
		{
			name:     "defaults",
			target:   "/api/v1/news",
			wantCode: http.StatusOK,
			wantReq:  aggregator.Request{UseCache: true},
			checkReq: true,
		},
		{
			name:     "all parameters",
			target:   "/api/v1/news?category=Technology&q=chips&limit=20&cache=false",
			wantCode: http.StatusOK,
			wantReq:  aggregator.Request{Category: domain.CategoryTechnology, Query: "chips", Limit: 20},
			checkReq: true,
		},
		{name: "unknown category", target: "/api/v1/news?category=gossip", wantCode: http.StatusBadRequest},
		{name: "bad limit", target: "/api/v1/news?limit=-3", wantCode: http.StatusBadRequest},
		{name: "bad cache flag", target: "/api/v1/news?cache=maybe", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t, false)
			rec, body := h.do(t, http.MethodGet, tt.target, "")
			require.Equal(t, tt.wantCode, rec.Code)

			if tt.checkReq {
				assert.Equal(t, tt.wantReq, h.news.got)
				meta := body["metadata"].(map[string]any)
				assert.InDelta(t, 1, meta["sources_failed"], 0)
				assert.Len(t, body["articles"], 1)
			}
		})
	}
}

func TestGetArticle(t *testing.T) {
	t.Parallel()

	h := newHarness(t, true)

	rec, body := h.do(t, http.MethodGet, "/api/v1/news/known", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Stored", body["title"])

	rec, _ = h.do(t, http.MethodGet, "/api/v1/news/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	noStore := newHarness(t, false)
	rec, _ = noStore.do(t, http.MethodGet, "/api/v1/news/known", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSources(t *testing.T) {
	t.Parallel()

	h := newHarness(t, false)
	rec, body := h.do(t, http.MethodGet, "/api/v1/sources", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 2, body["count"], 0)

	h.news.health = aggregator.Health{
		Status:  aggregator.OverallUnhealthy,
		Sources: map[string]aggregator.SourceHealth{"newsapi": {Status: aggregator.HealthError, Error: "401"}},
	}
	rec, body = h.do(t, http.MethodGet, "/api/v1/sources/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, aggregator.OverallUnhealthy, body["status"])
}

func TestRefresh(t *testing.T) {
	t.Parallel()

	h := newHarness(t, true)

	rec, body := h.do(t, http.MethodPost, "/api/v1/ingest/refresh", `{"category":"sports","limit":30}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "run-1", body["run_id"])
	assert.Equal(t, domain.CategorySports, h.ingest.got.Category)
	assert.Equal(t, 30, h.ingest.got.Limit)

	rec, _ = h.do(t, http.MethodPost, "/api/v1/ingest/refresh", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = h.do(t, http.MethodPost, "/api/v1/ingest/refresh", `{"category":"gossip"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	h.ingest.refreshErr = errors.New("all 3 sources failed")
	rec, body = h.do(t, http.MethodPost, "/api/v1/ingest/refresh", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, body["error"], "all 3 sources failed")

	noStore := newHarness(t, false)
	rec, _ = noStore.do(t, http.MethodPost, "/api/v1/ingest/refresh", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDedupStats_Cached(t *testing.T) {
	t.Parallel()

	h := newHarness(t, true)

	for range 3 {
		rec, body := h.do(t, http.MethodGet, "/api/v1/dedup/stats", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.InDelta(t, 42, body["total_articles"], 0)
	}
	assert.Equal(t, 1, h.dedup.statsCalls)

	h.ingest.cleanup = ingest.CleanupReport{CleanupResult: dedup.CleanupResult{RemovedCount: 2, DuplicateGroups: 1}}
	rec, body := h.do(t, http.MethodPost, "/api/v1/dedup/cleanup", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 2, body["removed_count"], 0)

	_, _ = h.do(t, http.MethodGet, "/api/v1/dedup/stats", "")
	assert.Equal(t, 2, h.dedup.statsCalls)
}

func TestDedupStats_Error(t *testing.T) {
	t.Parallel()

	h := newHarness(t, false)
	h.dedup.statsErr = errors.New("db down")

	rec, _ := h.do(t, http.MethodGet, "/api/v1/dedup/stats", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, h.redis.Exists("test:dedup:stats"))
}

func TestFindSimilar(t *testing.T) {
	t.Parallel()

	h := newHarness(t, false)
	h.dedup.similar = []dedup.SimilarArticle{{Article: domain.Article{ID: "x", Title: "Fed raises rates"}, Similarity: 0.9}}

	rec, body := h.do(t, http.MethodPost, "/api/v1/dedup/similar", `{"title":"Fed raises rates again","threshold":0.7}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 1, body["count"], 0)
	assert.InDelta(t, 0.7, h.dedup.threshold, 1e-9)

	rec, _ = h.do(t, http.MethodPost, "/api/v1/dedup/similar", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = h.do(t, http.MethodPost, "/api/v1/dedup/similar", `{"title":"x","threshold":1.5}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	h.dedup.similar = nil
	rec, body = h.do(t, http.MethodPost, "/api/v1/dedup/similar", `{"description":"quiet day"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, body["similar"])
	assert.NotNil(t, body["similar"])
}

func TestTaggerRoutes(t *testing.T) {
	t.Parallel()

	h := newHarness(t, false)

	rec, body := h.do(t, http.MethodPost, "/api/v1/tagger/extract", `{"title":"Quantum computing leap"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"quantum", "technology"}, body["tags"])

	rec, body = h.do(t, http.MethodGet, "/api/v1/tagger/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 10, body["total_documents"], 0)

	rec, body = h.do(t, http.MethodDelete, "/api/v1/tagger/corpus", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, h.tagger.cleared)
	assert.InDelta(t, 0, body["total_documents"], 0)
}

func TestInvalidateCache(t *testing.T) {
	t.Parallel()

	h := newHarness(t, false)
	ctx := context.Background()
	require.True(t, h.cache.Set(ctx, "articles:live:1", 1, time.Minute))
	require.True(t, h.cache.Set(ctx, "trending:1", 1, time.Minute))
	require.True(t, h.cache.Set(ctx, "sources:1", 1, time.Minute))

	rec, body := h.do(t, http.MethodDelete, "/api/v1/cache?pattern=sources:*", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 1, body["invalidated"], 0)
	assert.False(t, h.redis.Exists("test:sources:1"))
	assert.True(t, h.redis.Exists("test:articles:live:1"))

	rec, body = h.do(t, http.MethodDelete, "/api/v1/cache", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 2, body["invalidated"], 0)
}

func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()

	h := newHarness(t, false)

	rec, body := h.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "newsfeed-test", body["service"])

	rec, _ = h.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
	assert.Contains(t, rec.Body.String(), `newsfeed_http_requests_total{method="GET",route="/health",status="200"} 1`)
}
