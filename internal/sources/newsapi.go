package sources

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jonesrussell/newsfeed/infrastructure/logger"
	"github.com/jonesrussell/newsfeed/internal/domain"
)

const (
	NewsAPIName           = "newsapi"
	DefaultNewsAPIBaseURL = "https://newsapi.org"
	defaultNewsAPIWeight  = 0.8
	defaultNewsAPICountry = "us"
	newsAPIMaxPageSize    = 100
	newsAPIRemovedTitle   = "[Removed]"
)

// newsAPICategories are the categories /v2/top-headlines accepts.
var newsAPICategories = map[domain.Category]string{
	domain.CategoryGeneral:       "general",
	domain.CategoryBusiness:      "business",
	domain.CategoryTechnology:    "technology",
	domain.CategoryScience:       "science",
	domain.CategoryHealth:        "health",
	domain.CategorySports:        "sports",
	domain.CategoryEntertainment: "entertainment",
}

// NewsAPI reads newsapi.org.
type NewsAPI struct {
	cfg    APIConfig
	client *client
	norm   *normalizer
}

// NewNewsAPI builds the adapter. It is unavailable without an API key.
func NewNewsAPI(cfg APIConfig, httpClient *http.Client, log logger.Logger) *NewsAPI {
	cfg.setDefaults(DefaultNewsAPIBaseURL, defaultNewsAPIWeight)
	if cfg.Country == "" {
		cfg.Country = defaultNewsAPICountry
	}
	return &NewsAPI{
		cfg:    cfg,
		client: newClient(NewsAPIName, httpClient, cfg.Client, log),
		norm:   newNormalizer(NewsAPIName, "NewsAPI", cfg.Weight, cfg.TrackingParams),
	}
}

func (a *NewsAPI) Name() string { return NewsAPIName }

func (a *NewsAPI) Weight() float64 { return a.cfg.Weight }

func (a *NewsAPI) IsAvailable() bool { return a.cfg.available() }

type newsAPIResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"source"`
		Author      string    `json:"author"`
		Title       string    `json:"title"`
		Description string    `json:"description"`
		URL         string    `json:"url"`
		URLToImage  string    `json:"urlToImage"`
		PublishedAt time.Time `json:"publishedAt"`
	} `json:"articles"`
}

// FetchHeadlines calls /v2/top-headlines for the configured country.
func (a *NewsAPI) FetchHeadlines(ctx context.Context, opts Options) ([]domain.Article, error) {
	q := url.Values{}
	q.Set("country", firstNonEmpty(opts.Country, a.cfg.Country))
	if c, ok := newsAPICategories[opts.Category]; ok {
		q.Set("category", c)
	}
	if opts.Query != "" {
		q.Set("q", opts.Query)
	}
	return a.fetch(ctx, "/v2/top-headlines", q, opts, labelFor(opts.Category))
}

// SearchNews calls /v2/everything, newest first.
func (a *NewsAPI) SearchNews(ctx context.Context, opts Options) ([]domain.Article, error) {
	q := url.Values{}
	q.Set("q", opts.Query)
	q.Set("sortBy", "publishedAt")
	q.Set("language", "en")
	return a.fetch(ctx, "/v2/everything", q, opts, labelFor(opts.Category))
}

func (a *NewsAPI) fetch(ctx context.Context, path string, q url.Values, opts Options, label string) ([]domain.Article, error) {
	if !a.IsAvailable() {
		return nil, unavailable(NewsAPIName)
	}

	limit := min(opts.pageSize(), newsAPIMaxPageSize)
	q.Set("pageSize", strconv.Itoa(limit))

	u, err := buildURL(a.cfg.BaseURL, path, q)
	if err != nil {
		return nil, classify(NewsAPIName, a.cfg.BaseURL, err)
	}

	header := http.Header{}
	header.Set("X-Api-Key", a.cfg.APIKey)
	header.Set("Accept", "application/json")

	var body newsAPIResponse
	err = a.client.get(ctx, u, header, func(r io.Reader) error {
		if decodeErr := json.NewDecoder(r).Decode(&body); decodeErr != nil {
			return decodeErr
		}
		if body.Status == "error" {
			return errors.New(body.Code + ": " + body.Message)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	raws := make([]rawArticle, 0, len(body.Articles))
	for _, item := range body.Articles {
		if item.Title == newsAPIRemovedTitle {
			continue
		}
		raws = append(raws, rawArticle{
			Title:         item.Title,
			Description:   item.Description,
			URL:           item.URL,
			ImageURL:      item.URLToImage,
			PublishedAt:   item.PublishedAt,
			SourceID:      item.Source.ID,
			SourceName:    item.Source.Name,
			Author:        item.Author,
			ProviderLabel: label,
		})
	}
	return a.norm.normalizeAll(raws, limit), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// labelFor turns a requested category into a provider label so that
// adapters without per-item sections still categorize their results.
func labelFor(c domain.Category) string {
	if c == domain.CategoryNone {
		return ""
	}
	return c.String()
}
