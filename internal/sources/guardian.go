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
	GuardianName           = "guardian"
	DefaultGuardianBaseURL = "https://content.guardianapis.com"
	defaultGuardianWeight  = 0.9
	guardianMaxPageSize    = 50
)

var guardianSections = map[domain.Category]string{
	domain.CategoryBusiness:      "business",
	domain.CategoryTechnology:    "technology",
	domain.CategoryScience:       "science",
	domain.CategoryHealth:        "society",
	domain.CategorySports:        "sport",
	domain.CategoryEntertainment: "culture",
	domain.CategoryPolitics:      "politics",
	domain.CategoryWorld:         "world",
}

// Guardian reads the Guardian content API.
type Guardian struct {
	cfg    APIConfig
	client *client
	norm   *normalizer
}

// NewGuardian builds the adapter. It is unavailable without an API key.
func NewGuardian(cfg APIConfig, httpClient *http.Client, log logger.Logger) *Guardian {
	cfg.setDefaults(DefaultGuardianBaseURL, defaultGuardianWeight)
	return &Guardian{
		cfg:    cfg,
		client: newClient(GuardianName, httpClient, cfg.Client, log),
		norm:   newNormalizer(GuardianName, "The Guardian", cfg.Weight, cfg.TrackingParams),
	}
}

func (a *Guardian) Name() string { return GuardianName }

func (a *Guardian) Weight() float64 { return a.cfg.Weight }

func (a *Guardian) IsAvailable() bool { return a.cfg.available() }

type guardianResponse struct {
	Response struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Results []struct {
			SectionID          string    `json:"sectionId"`
			WebTitle           string    `json:"webTitle"`
			WebURL             string    `json:"webUrl"`
			WebPublicationDate time.Time `json:"webPublicationDate"`
			Fields             struct {
				TrailText string `json:"trailText"`
				Thumbnail string `json:"thumbnail"`
				Byline    string `json:"byline"`
			} `json:"fields"`
		} `json:"results"`
	} `json:"response"`
}

// FetchHeadlines lists the newest content of the requested section.
func (a *Guardian) FetchHeadlines(ctx context.Context, opts Options) ([]domain.Article, error) {
	q := url.Values{}
	if section := a.section(opts); section != "" {
		q.Set("section", section)
	}
	return a.search(ctx, q, opts)
}

// SearchNews runs a full-text query, optionally within a section.
func (a *Guardian) SearchNews(ctx context.Context, opts Options) ([]domain.Article, error) {
	q := url.Values{}
	q.Set("q", opts.Query)
	if section := a.section(opts); section != "" {
		q.Set("section", section)
	}
	return a.search(ctx, q, opts)
}

func (a *Guardian) section(opts Options) string {
	if opts.Section != "" {
		return opts.Section
	}
	if s, ok := guardianSections[opts.Category]; ok {
		return s
	}
	return a.cfg.Section
}

func (a *Guardian) search(ctx context.Context, q url.Values, opts Options) ([]domain.Article, error) {
	if !a.IsAvailable() {
		return nil, unavailable(GuardianName)
	}

	limit := min(opts.pageSize(), guardianMaxPageSize)
	q.Set("api-key", a.cfg.APIKey)
	q.Set("page-size", strconv.Itoa(limit))
	q.Set("order-by", "newest")
	q.Set("show-fields", "trailText,thumbnail,byline")

	u, err := buildURL(a.cfg.BaseURL, "/search", q)
	if err != nil {
		return nil, classify(GuardianName, a.cfg.BaseURL, err)
	}

	var body guardianResponse
	err = a.client.get(ctx, u, http.Header{"Accept": {"application/json"}}, func(r io.Reader) error {
		if decodeErr := json.NewDecoder(r).Decode(&body); decodeErr != nil {
			return decodeErr
		}
		if body.Response.Status != "ok" {
			return errors.New("guardian status " + body.Response.Status + ": " + body.Response.Message)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	results := body.Response.Results
	raws := make([]rawArticle, 0, len(results))
	for _, item := range results {
		raws = append(raws, rawArticle{
			Title:         item.WebTitle,
			Description:   item.Fields.TrailText,
			URL:           item.WebURL,
			ImageURL:      item.Fields.Thumbnail,
			PublishedAt:   item.WebPublicationDate,
			SourceID:      GuardianName,
			SourceName:    "The Guardian",
			Author:        item.Fields.Byline,
			ProviderLabel: item.SectionID,
		})
	}
	return a.norm.normalizeAll(raws, limit), nil
}
