package sources

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonesrussell/newsfeed/infrastructure/logger"
	"github.com/jonesrussell/newsfeed/internal/domain"
)

const (
	NYTimesName           = "nytimes"
	DefaultNYTimesBaseURL = "https://api.nytimes.com"
	defaultNYTimesWeight  = 0.95
	nytimesHomeSection    = "home"
	nytimesSearchPageSize = 10
)

var nytimesSections = map[domain.Category]string{
	domain.CategoryBusiness:      "business",
	domain.CategoryTechnology:    "technology",
	domain.CategoryScience:       "science",
	domain.CategoryHealth:        "health",
	domain.CategorySports:        "sports",
	domain.CategoryEntertainment: "arts",
	domain.CategoryPolitics:      "politics",
	domain.CategoryWorld:         "world",
}

// nytimesDateLayouts covers both the top stories and the article search
// timestamp formats.
var nytimesDateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05-0700", "2006-01-02T15:04:05Z0700"}

// NYTimes reads the New York Times top stories and article search APIs.
type NYTimes struct {
	cfg    APIConfig
	client *client
	norm   *normalizer
}

// NewNYTimes builds the adapter. It is unavailable without an API key.
func NewNYTimes(cfg APIConfig, httpClient *http.Client, log logger.Logger) *NYTimes {
	cfg.setDefaults(DefaultNYTimesBaseURL, defaultNYTimesWeight)
	return &NYTimes{
		cfg:    cfg,
		client: newClient(NYTimesName, httpClient, cfg.Client, log),
		norm:   newNormalizer(NYTimesName, "The New York Times", cfg.Weight, cfg.TrackingParams),
	}
}

func (a *NYTimes) Name() string { return NYTimesName }

func (a *NYTimes) Weight() float64 { return a.cfg.Weight }

func (a *NYTimes) IsAvailable() bool { return a.cfg.available() }

type nytimesMedia struct {
	URL    string `json:"url"`
	Format string `json:"format"`
}

type nytimesTopStories struct {
	Status  string `json:"status"`
	Results []struct {
		Section       string         `json:"section"`
		Title         string         `json:"title"`
		Abstract      string         `json:"abstract"`
		URL           string         `json:"url"`
		Byline        string         `json:"byline"`
		PublishedDate string         `json:"published_date"`
		Multimedia    []nytimesMedia `json:"multimedia"`
	} `json:"results"`
}

type nytimesSearch struct {
	Response struct {
		Docs []struct {
			WebURL   string `json:"web_url"`
			Abstract string `json:"abstract"`
			Snippet  string `json:"snippet"`
			PubDate  string `json:"pub_date"`
			Section  string `json:"section_name"`
			Headline struct {
				Main string `json:"main"`
			} `json:"headline"`
			Byline struct {
				Original string `json:"original"`
			} `json:"byline"`
		} `json:"docs"`
	} `json:"response"`
}

// FetchHeadlines reads /svc/topstories/v2/{section}.json.
func (a *NYTimes) FetchHeadlines(ctx context.Context, opts Options) ([]domain.Article, error) {
	if !a.IsAvailable() {
		return nil, unavailable(NYTimesName)
	}

	section := firstNonEmpty(opts.Section, nytimesSections[opts.Category], a.cfg.Section, nytimesHomeSection)
	u, err := buildURL(a.cfg.BaseURL, "/svc/topstories/v2/"+url.PathEscape(section)+".json",
		url.Values{"api-key": {a.cfg.APIKey}})
	if err != nil {
		return nil, classify(NYTimesName, a.cfg.BaseURL, err)
	}

	var body nytimesTopStories
	if err = a.client.get(ctx, u, jsonAccept(), decodeJSON(&body)); err != nil {
		return nil, err
	}

	raws := make([]rawArticle, 0, len(body.Results))
	for _, item := range body.Results {
		raws = append(raws, rawArticle{
			Title:         item.Title,
			Description:   item.Abstract,
			URL:           item.URL,
			ImageURL:      largestImage(item.Multimedia),
			PublishedAt:   parseTime(nytimesDateLayouts, item.PublishedDate),
			SourceID:      NYTimesName,
			SourceName:    "The New York Times",
			Author:        strings.TrimPrefix(item.Byline, "By "),
			ProviderLabel: item.Section,
		})
	}
	return a.norm.normalizeAll(raws, opts.pageSize()), nil
}

func largestImage(media []nytimesMedia) string {
	for _, m := range media {
		if m.Format == "Super Jumbo" || m.Format == "superJumbo" {
			return m.URL
		}
	}
	if len(media) > 0 {
		return media[0].URL
	}
	return ""
}

// SearchNews queries /svc/search/v2/articlesearch.json, newest first. The
// API returns a fixed page of ten documents.
func (a *NYTimes) SearchNews(ctx context.Context, opts Options) ([]domain.Article, error) {
	if !a.IsAvailable() {
		return nil, unavailable(NYTimesName)
	}

	q := url.Values{}
	q.Set("q", opts.Query)
	q.Set("sort", "newest")
	q.Set("api-key", a.cfg.APIKey)
	u, err := buildURL(a.cfg.BaseURL, "/svc/search/v2/articlesearch.json", q)
	if err != nil {
		return nil, classify(NYTimesName, a.cfg.BaseURL, err)
	}

	var body nytimesSearch
	if err = a.client.get(ctx, u, jsonAccept(), decodeJSON(&body)); err != nil {
		return nil, err
	}

	docs := body.Response.Docs
	raws := make([]rawArticle, 0, len(docs))
	for _, doc := range docs {
		raws = append(raws, rawArticle{
			Title:         doc.Headline.Main,
			Description:   firstNonEmpty(doc.Abstract, doc.Snippet),
			URL:           doc.WebURL,
			PublishedAt:   parseTime(nytimesDateLayouts, doc.PubDate),
			SourceID:      NYTimesName,
			SourceName:    "The New York Times",
			Author:        strings.TrimPrefix(doc.Byline.Original, "By "),
			ProviderLabel: doc.Section,
		})
	}
	return a.norm.normalizeAll(raws, min(opts.pageSize(), nytimesSearchPageSize)), nil
}

func jsonAccept() http.Header {
	return http.Header{"Accept": {"application/json"}}
}

func decodeJSON(dest any) func(io.Reader) error {
	return func(r io.Reader) error {
		return json.NewDecoder(r).Decode(dest)
	}
}
