package search_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/jonesrussell/newsfeed/infrastructure/logger"
	"github.com/jonesrussell/newsfeed/internal/domain"
	"github.com/jonesrussell/newsfeed/internal/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method string
	path   string
	body   string
}

type stubCluster struct {
	mu       sync.Mutex
	requests []recorded
	handler  func(w http.ResponseWriter, r *http.Request)
}

func (s *stubCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	s.mu.Lock()
	s.requests = append(s.requests, recorded{method: r.Method, path: r.URL.Path, body: string(body)})
	s.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	s.handler(w, r)
}

func newIndex(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*search.ArticleIndex, *stubCluster) {
	t.Helper()

	stub := &stubCluster{handler: handler}
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	client, err := es.NewClient(es.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)

	return search.NewArticleIndex(client, "", logger.NewNop()), stub
}

func TestEnsureIndex_CreatesWhenMissing(t *testing.T) {
	t.Parallel()

	idx, stub := newIndex(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"acknowledged": true, "index": "newsfeed_articles"}`))
	})

	require.NoError(t, idx.EnsureIndex(context.Background()))

	require.Len(t, stub.requests, 2)
	assert.Equal(t, http.MethodPut, stub.requests[1].method)
	assert.Equal(t, "/newsfeed_articles", stub.requests[1].path)
	assert.Contains(t, stub.requests[1].body, `"canonical_url"`)
}

func TestEnsureIndex_ExistingIsNoop(t *testing.T) {
	t.Parallel()

	idx, stub := newIndex(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, idx.EnsureIndex(context.Background()))
	assert.Len(t, stub.requests, 1)
}

func TestIndex_WritesDocumentByID(t *testing.T) {
	t.Parallel()

	idx, stub := newIndex(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result": "created"}`))
	})

	a := &domain.Article{ID: "abc123", Title: "AI chips", URL: "https://example.com/a", Tags: []string{"ai"}}
	require.NoError(t, idx.Index(context.Background(), a))

	require.Len(t, stub.requests, 1)
	assert.Equal(t, "/newsfeed_articles/_doc/abc123", stub.requests[0].path)

	var doc domain.Article
	require.NoError(t, json.Unmarshal([]byte(stub.requests[0].body), &doc))
	assert.Equal(t, "AI chips", doc.Title)
}

func TestIndex_ErrorStatus(t *testing.T) {
	t.Parallel()

	idx, _ := newIndex(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"type": "mapper_parsing_exception"}}`))
	})

	err := idx.Index(context.Background(), &domain.Article{ID: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mapper_parsing_exception")
}

func TestFindByTextSearch(t *testing.T) {
	t.Parallel()

	idx, stub := newIndex(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"hits": {"total": {"value": 2}, "hits": [
			{"_id": "a", "_source": {"id": "a", "title": "Central bank raises rates", "url": "https://x/a", "tags": []}},
			{"_id": "b", "_source": {"id": "b", "title": "Central bank holds rates", "url": "https://x/b", "tags": []}}
		]}}`))
	})

	found, err := idx.FindByTextSearch(context.Background(), "central bank rates", 10)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "Central bank raises rates", found[0].Title)

	require.Len(t, stub.requests, 1)
	assert.Equal(t, "/newsfeed_articles/_search", stub.requests[0].path)
	assert.Contains(t, stub.requests[0].body, `"size":10`)
	assert.Contains(t, stub.requests[0].body, `"multi_match"`)
}

func TestFindByTextSearch_ErrorStatus(t *testing.T) {
	t.Parallel()

	idx, _ := newIndex(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error": "unavailable"}`))
	})

	_, err := idx.FindByTextSearch(context.Background(), "q", 5)
	require.Error(t, err)
}
