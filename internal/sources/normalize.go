package sources

import (
	"html"
	"strings"
	"time"

	"github.com/jonesrussell/newsfeed/internal/dedup"
	"github.com/jonesrussell/newsfeed/internal/domain"
	"github.com/jonesrussell/newsfeed/internal/textnorm"
	"github.com/microcosm-cc/bluemonday"
)

// categoryAliases maps provider section and category labels to canonical
// categories.
var categoryAliases = map[string]domain.Category{
	"general":       domain.CategoryGeneral,
	"home":          domain.CategoryGeneral,
	"news":          domain.CategoryGeneral,
	"business":      domain.CategoryBusiness,
	"money":         domain.CategoryBusiness,
	"markets":       domain.CategoryBusiness,
	"economy":       domain.CategoryBusiness,
	"your-money":    domain.CategoryBusiness,
	"technology":    domain.CategoryTechnology,
	"tech":          domain.CategoryTechnology,
	"science":       domain.CategoryScience,
	"environment":   domain.CategoryScience,
	"climate":       domain.CategoryScience,
	"health":        domain.CategoryHealth,
	"well":          domain.CategoryHealth,
	"healthcare":    domain.CategoryHealth,
	"sport":         domain.CategorySports,
	"sports":        domain.CategorySports,
	"football":      domain.CategorySports,
	"entertainment": domain.CategoryEntertainment,
	"arts":          domain.CategoryEntertainment,
	"culture":       domain.CategoryEntertainment,
	"film":          domain.CategoryEntertainment,
	"movies":        domain.CategoryEntertainment,
	"music":         domain.CategoryEntertainment,
	"tv-and-radio":  domain.CategoryEntertainment,
	"books":         domain.CategoryEntertainment,
	"politics":      domain.CategoryPolitics,
	"us-news":       domain.CategoryPolitics,
	"upshot":        domain.CategoryPolitics,
	"world":         domain.CategoryWorld,
	"world news":    domain.CategoryWorld,
	"international": domain.CategoryWorld,
	"global":        domain.CategoryWorld,
}

// MapCategory returns the canonical category for a provider label,
// defaulting to general.
func MapCategory(label string) domain.Category {
	if c, ok := categoryAliases[strings.ToLower(strings.TrimSpace(label))]; ok {
		return c
	}
	return domain.CategoryGeneral
}

// titleKeywords seed an article's tags when they appear as title words.
var titleKeywords = map[string]struct{}{
	"ai": {}, "climate": {}, "election": {}, "economy": {}, "inflation": {}, "covid": {}, "vaccine": {},
	"bitcoin": {}, "crypto": {}, "ukraine": {}, "russia": {}, "china": {}, "space": {}, "nasa": {},
	"apple": {}, "google": {}, "microsoft": {}, "tesla": {}, "openai": {}, "israel": {}, "gaza": {},
}

func keywordTags(title string) []string {
	tags := []string{}
	for _, w := range textnorm.Words(title) {
		if _, ok := titleKeywords[w]; ok {
			tags = append(tags, w)
		}
	}
	return domain.MergeTags(tags)
}

var stripPolicy = bluemonday.StrictPolicy()

// plainText removes markup and decodes entities from provider text.
func plainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.Join(strings.Fields(html.UnescapeString(stripPolicy.Sanitize(s))), " ")
}

// rawArticle is the provider-neutral intermediate every adapter fills in.
type rawArticle struct {
	Title         string
	Description   string
	URL           string
	ImageURL      string
	PublishedAt   time.Time
	SourceID      string
	SourceName    string
	Author        string
	ProviderLabel string
}

type normalizer struct {
	adapter     string
	displayName string
	weight      float64
	urls        *dedup.URLNormalizer
}

func newNormalizer(adapter, displayName string, weight float64, trackingParams []string) *normalizer {
	return &normalizer{
		adapter:     adapter,
		displayName: displayName,
		weight:      weight,
		urls:        dedup.NewURLNormalizer(trackingParams),
	}
}

// normalize maps r into an Article. Items without a title or URL are
// dropped.
func (n *normalizer) normalize(r rawArticle) (domain.Article, bool) {
	title := plainText(r.Title)
	canonical := n.urls.Normalize(r.URL)
	if title == "" || canonical == "" {
		return domain.Article{}, false
	}

	source := domain.SourceRef{ID: r.SourceID, Name: strings.TrimSpace(r.SourceName)}
	if source.Name == "" {
		source.Name = n.displayName
	}
	if source.ID == "" {
		source.ID = n.adapter
	}

	return domain.Article{
		ID:           dedup.Hash(canonical),
		Title:        title,
		Description:  plainText(r.Description),
		URL:          strings.TrimSpace(r.URL),
		CanonicalURL: canonical,
		ImageURL:     strings.TrimSpace(r.ImageURL),
		PublishedAt:  r.PublishedAt.UTC(),
		Source:       source,
		SourceWeight: n.weight,
		Author:       plainText(r.Author),
		Category:     MapCategory(r.ProviderLabel),
		Tags:         keywordTags(title),
		APISource:    n.adapter,
	}, true
}

func (n *normalizer) normalizeAll(raws []rawArticle, limit int) []domain.Article {
	out := make([]domain.Article, 0, min(len(raws), limit))
	for _, r := range raws {
		if len(out) == limit {
			break
		}
		if a, ok := n.normalize(r); ok {
			out = append(out, a)
		}
	}
	return out
}

func parseTime(layouts []string, s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
