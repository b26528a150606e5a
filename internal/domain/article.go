// Package domain holds the canonical article model shared by every stage
// of the pipeline.
package domain

import (
	"strings"
	"time"
	"unicode"
)

// SourceRef identifies the outlet that published an article, as opposed to
// the adapter (APISource) that delivered it.
type SourceRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Article is the canonical representation every adapter normalizes into.
// Two articles with the same canonical URL are the same entity.
type Article struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	URL          string    `json:"url"`
	CanonicalURL string    `json:"canonical_url,omitempty"`
	ContentHash  string    `json:"-"`
	ImageURL     string    `json:"image_url,omitempty"`
	PublishedAt  time.Time `json:"published_at"`
	Source       SourceRef `json:"source"`
	SourceWeight float64   `json:"source_weight"`
	Author       string    `json:"author,omitempty"`
	Category     Category  `json:"category,omitempty"`
	Tags         []string  `json:"tags"`
	APISource    string    `json:"api_source"`
}

// Text is the title and description joined for text analysis.
func (a *Article) Text() string {
	if a.Description == "" {
		return a.Title
	}
	return a.Title + " " + a.Description
}

// AddTags merges tags into a.Tags keeping first-seen casing.
func (a *Article) AddTags(tags ...string) {
	a.Tags = MergeTags(a.Tags, tags)
}

// MergeTags concatenates the given lists, trims each tag, drops empties and
// removes case-insensitive duplicates. The first spelling of a tag wins.
func MergeTags(lists ...[]string) []string {
	total := 0
	for _, l := range lists {
		total += len(l)
	}

	seen := make(map[string]struct{}, total)
	merged := make([]string, 0, total)
	for _, l := range lists {
		for _, tag := range l {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			key := strings.ToLower(tag)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, tag)
		}
	}
	return merged
}

// HasLetter reports whether s contains at least one Unicode letter.
func HasLetter(s string) bool {
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}
