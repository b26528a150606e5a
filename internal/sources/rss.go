package sources

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/jonesrussell/newsfeed/infrastructure/logger"
	"github.com/jonesrussell/newsfeed/internal/domain"
	"github.com/jonesrussell/newsfeed/internal/textnorm"
	"github.com/mmcdole/gofeed"
)

const (
	rssAdapterPrefix   = "rss:"
	defaultFeedWeight  = 0.6
	feedAcceptHeader   = "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8"
	guidLinkPrefixHTTP = "http"
)

// Feed reads a single RSS or Atom feed. Search filters the feed's items
// locally since feeds have no query interface.
type Feed struct {
	cfg    FeedConfig
	name   string
	client *client
	norm   *normalizer
}

// NewFeed builds a feed adapter named "rss:<name>".
func NewFeed(cfg FeedConfig, clientCfg ClientConfig, httpClient *http.Client, log logger.Logger) *Feed {
	if cfg.Weight <= 0 {
		cfg.Weight = defaultFeedWeight
	}
	if cfg.Name == "" {
		if u, err := url.Parse(cfg.URL); err == nil {
			cfg.Name = u.Hostname()
		}
	}
	name := rssAdapterPrefix + strings.ToLower(cfg.Name)
	return &Feed{
		cfg:    cfg,
		name:   name,
		client: newClient(name, httpClient, clientCfg, log),
		norm:   newNormalizer(name, cfg.Name, cfg.Weight, cfg.TrackingParams),
	}
}

func (f *Feed) Name() string { return f.name }

func (f *Feed) Weight() float64 { return f.cfg.Weight }

func (f *Feed) IsAvailable() bool { return !f.cfg.Disabled && f.cfg.URL != "" }

// FetchHeadlines returns the newest items. A feed bound to a category
// returns nothing for requests in another category.
func (f *Feed) FetchHeadlines(ctx context.Context, opts Options) ([]domain.Article, error) {
	if !f.matchesCategory(opts.Category) {
		return []domain.Article{}, nil
	}
	return f.fetch(ctx, opts, nil)
}

// SearchNews returns items whose title or description contain every query
// word.
func (f *Feed) SearchNews(ctx context.Context, opts Options) ([]domain.Article, error) {
	if !f.matchesCategory(opts.Category) {
		return []domain.Article{}, nil
	}
	terms := textnorm.Words(opts.Query)
	return f.fetch(ctx, opts, func(item *gofeed.Item) bool {
		text := " " + textnorm.Normalize(item.Title+" "+item.Description) + " "
		for _, t := range terms {
			if !strings.Contains(text, " "+t+" ") {
				return false
			}
		}
		return true
	})
}

func (f *Feed) matchesCategory(c domain.Category) bool {
	if c == domain.CategoryNone || f.cfg.Category == domain.CategoryNone {
		return true
	}
	return c == f.cfg.Category
}

func (f *Feed) fetch(ctx context.Context, opts Options, keep func(*gofeed.Item) bool) ([]domain.Article, error) {
	if !f.IsAvailable() {
		return nil, unavailable(f.name)
	}

	u, err := url.Parse(f.cfg.URL)
	if err != nil {
		return nil, classify(f.name, f.cfg.URL, err)
	}

	var parsed *gofeed.Feed
	err = f.client.get(ctx, u, http.Header{"Accept": {feedAcceptHeader}}, func(r io.Reader) error {
		var parseErr error
		parsed, parseErr = gofeed.NewParser().Parse(r)
		return parseErr
	})
	if err != nil {
		return nil, err
	}

	label := f.cfg.Category.String()
	raws := make([]rawArticle, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if keep != nil && !keep(item) {
			continue
		}
		raws = append(raws, f.toRaw(item, label))
	}
	return f.norm.normalizeAll(raws, opts.pageSize()), nil
}

func (f *Feed) toRaw(item *gofeed.Item, label string) rawArticle {
	raw := rawArticle{
		Title:         item.Title,
		Description:   firstNonEmpty(item.Description, item.Content),
		URL:           itemLink(item),
		SourceName:    f.cfg.Name,
		SourceID:      f.name,
		ProviderLabel: label,
	}

	switch {
	case item.PublishedParsed != nil:
		raw.PublishedAt = *item.PublishedParsed
	case item.UpdatedParsed != nil:
		raw.PublishedAt = *item.UpdatedParsed
	}

	if item.Image != nil {
		raw.ImageURL = item.Image.URL
	} else {
		for _, enc := range item.Enclosures {
			if strings.HasPrefix(enc.Type, "image/") {
				raw.ImageURL = enc.URL
				break
			}
		}
	}

	if len(item.Authors) > 0 && item.Authors[0] != nil {
		raw.Author = item.Authors[0].Name
	}
	return raw
}

// itemLink prefers the explicit link and falls back to a GUID that looks
// like a URL.
func itemLink(item *gofeed.Item) string {
	if item.Link != "" {
		return item.Link
	}
	if strings.HasPrefix(item.GUID, guidLinkPrefixHTTP) {
		return item.GUID
	}
	return ""
}
