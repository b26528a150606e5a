// Package search keeps an Elasticsearch copy of stored articles and answers
// full-text candidate queries for similarity checks.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/jonesrussell/newsfeed/infrastructure/logger"
	"github.com/jonesrussell/newsfeed/internal/domain"
)

// DefaultIndex is used when no index name is configured.
const DefaultIndex = "newsfeed_articles"

const indexMapping = `{
  "settings": {"number_of_shards": 1, "number_of_replicas": 0},
  "mappings": {
    "properties": {
      "id":            {"type": "keyword"},
      "title":         {"type": "text", "analyzer": "english"},
      "description":   {"type": "text", "analyzer": "english"},
      "url":           {"type": "keyword"},
      "canonical_url": {"type": "keyword"},
      "image_url":     {"type": "keyword", "index": false},
      "published_at":  {"type": "date"},
      "source":        {"properties": {"id": {"type": "keyword"}, "name": {"type": "keyword"}}},
      "source_weight": {"type": "float"},
      "author":        {"type": "keyword"},
      "category":      {"type": "keyword"},
      "tags":          {"type": "keyword"},
      "api_source":    {"type": "keyword"}
    }
  }
}`

// ArticleIndex reads and writes one index. Documents are keyed by article
// id, which is derived from the canonical URL, so URL duplicates collapse
// into one document.
type ArticleIndex struct {
	client *es.Client
	index  string
	log    logger.Logger
}

// NewArticleIndex wraps client.
func NewArticleIndex(client *es.Client, index string, log logger.Logger) *ArticleIndex {
	if index == "" {
		index = DefaultIndex
	}
	return &ArticleIndex{client: client, index: index, log: log}
}

// Name returns the index name.
func (x *ArticleIndex) Name() string {
	return x.index
}

// EnsureIndex creates the index with its mapping when missing.
func (x *ArticleIndex) EnsureIndex(ctx context.Context) error {
	res, err := x.client.Indices.Exists([]string{x.index}, x.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", x.index, err)
	}
	_ = res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
	default:
		return fmt.Errorf("check index %s: unexpected status %d", x.index, res.StatusCode)
	}

	res, err = x.client.Indices.Create(x.index,
		x.client.Indices.Create.WithContext(ctx),
		x.client.Indices.Create.WithBody(strings.NewReader(indexMapping)),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", x.index, err)
	}
	if err = responseError(res); err != nil {
		return fmt.Errorf("create index %s: %w", x.index, err)
	}

	x.log.Info("Created article index", logger.String("index", x.index))
	return nil
}

// Index writes a, replacing any document with the same id.
func (x *ArticleIndex) Index(ctx context.Context, a *domain.Article) error {
	body, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode article %s: %w", a.ID, err)
	}

	res, err := x.client.Index(x.index, bytes.NewReader(body),
		x.client.Index.WithContext(ctx),
		x.client.Index.WithDocumentID(a.ID),
	)
	if err != nil {
		return fmt.Errorf("index article %s: %w", a.ID, err)
	}
	if err = responseError(res); err != nil {
		return fmt.Errorf("index article %s: %w", a.ID, err)
	}
	return nil
}

// FindByTextSearch matches query against title and description, best
// matches first.
func (x *ArticleIndex) FindByTextSearch(ctx context.Context, query string, limit int) ([]domain.Article, error) {
	body := map[string]any{
		"size": limit,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  query,
				"fields": []string{"title^2", "description"},
			},
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	res, err := x.client.Search(
		x.client.Search.WithContext(ctx),
		x.client.Search.WithIndex(x.index),
		x.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch returned error [%d]: %s", res.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source domain.Article `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err = json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode elasticsearch response: %w", err)
	}

	out := make([]domain.Article, len(parsed.Hits.Hits))
	for i, h := range parsed.Hits.Hits {
		out[i] = h.Source
	}
	return out, nil
}

func responseError(res *esapi.Response) error {
	defer func() { _ = res.Body.Close() }()
	if !res.IsError() {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	msg, _ := io.ReadAll(res.Body)
	return fmt.Errorf("status %d: %s", res.StatusCode, strings.TrimSpace(string(msg)))
}
