// Package sources fetches articles from news providers and normalizes them
// into domain articles.
package sources

import (
	"context"

	"github.com/jonesrussell/newsfeed/internal/domain"
)

// DefaultPageSize is used when Options.PageSize is not set.
const DefaultPageSize = 20

// Options narrows a fetch. Adapters ignore fields their provider has no
// equivalent for.
type Options struct {
	Category domain.Category
	Country  string
	Section  string
	Query    string
	PageSize int
}

func (o Options) pageSize() int {
	if o.PageSize <= 0 {
		return DefaultPageSize
	}
	return o.PageSize
}

// Adapter is one news provider. Implementations are safe for concurrent use
// and return *AdapterFetchError on failure.
type Adapter interface {
	Name() string
	Weight() float64
	// IsAvailable is false when the adapter is disabled or lacks credentials.
	IsAvailable() bool
	FetchHeadlines(ctx context.Context, opts Options) ([]domain.Article, error)
	SearchNews(ctx context.Context, opts Options) ([]domain.Article, error)
}
