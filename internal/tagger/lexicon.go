package tagger

import (
	"fmt"
	"strings"
	"sync"

	ahocorasick "github.com/cloudflare/ahocorasick"
	"github.com/jonesrussell/newsfeed/internal/domain"
	"github.com/jonesrussell/newsfeed/internal/textnorm"
)

// DefaultLexicon maps each category to phrases that signal it. Phrases are
// matched as substrings of the space-padded normalized text, so short words
// carry surrounding spaces.
var DefaultLexicon = map[domain.Category][]string{
	domain.CategoryTechnology: {
		"technology", "software", "artificial intelligence", " ai ", "smartphone", "startup", "cyber",
		"computer", "internet", "robot", "semiconductor", " chip", " apps ", "data breach", "silicon valley",
	},
	domain.CategoryBusiness: {
		"stock market", " stocks ", "economy", "economic", "inflation", "earnings", "investor", "central bank",
		" trade ", "merger", "acquisition", " shares ", "revenue", "wall street", "interest rate",
	},
	domain.CategoryScience: {
		"science", "scientist", "researchers", "nasa", "climate", "physics", "biology", "planet",
		"species", " space ", "telescope", "astronom", "fossil",
	},
	domain.CategoryHealth: {
		" health", "medical", "disease", "vaccine", "hospital", "covid", "virus", "doctor", "cancer",
		"patients", "outbreak", "pandemic",
	},
	domain.CategorySports: {
		"football", "soccer", "basketball", "baseball", "tennis", "olympic", "championship", "tournament",
		" league", " nba ", " nfl ", " nhl ", "world cup", " coach ",
	},
	domain.CategoryEntertainment: {
		" movie", " film", " music", "celebrity", "hollywood", " album", "netflix", "television",
		" actor", "actress", "concert", "box office",
	},
	domain.CategoryPolitics: {
		"election", "government", "president", "senate", "congress", "parliament", "minister",
		"legislation", " vote", "democrat", "republican", "white house", "lawmakers",
	},
	domain.CategoryWorld: {
		"international", "united nations", " war ", "foreign", "embassy", "refugee", "ceasefire",
		"diplomat", " nato ", "sanctions",
	},
}

// Lexicon finds categories whose phrases occur in a text. The underlying
// matcher keeps per-call state, so Match is serialized.
type Lexicon struct {
	mu       sync.Mutex
	matcher  *ahocorasick.Matcher
	phrases  []string
	category []domain.Category
}

// NewLexicon compiles entries. Keys must be known categories.
func NewLexicon(entries map[string][]string) (*Lexicon, error) {
	typed := make(map[domain.Category][]string, len(entries))
	for name, phrases := range entries {
		c, err := domain.ParseCategory(name)
		if err != nil || c == domain.CategoryNone {
			return nil, fmt.Errorf("lexicon: unknown category %q", name)
		}
		typed[c] = phrases
	}
	return newLexicon(typed), nil
}

func newLexicon(entries map[domain.Category][]string) *Lexicon {
	l := &Lexicon{}
	// Walk categories in enum order so phrase indices are deterministic.
	for _, c := range domain.Categories {
		for _, p := range entries[c] {
			p = strings.ToLower(p)
			if strings.TrimSpace(p) == "" {
				continue
			}
			l.phrases = append(l.phrases, p)
			l.category = append(l.category, c)
		}
	}
	if len(l.phrases) > 0 {
		l.matcher = ahocorasick.NewStringMatcher(l.phrases)
	}
	return l
}

// Match returns matched categories in enum order.
func (l *Lexicon) Match(text string) []domain.Category {
	if l.matcher == nil {
		return nil
	}

	padded := " " + textnorm.Normalize(text) + " "

	l.mu.Lock()
	hits := l.matcher.Match([]byte(padded))
	l.mu.Unlock()

	found := make(map[domain.Category]struct{}, len(hits))
	for _, idx := range hits {
		if idx >= 0 && idx < len(l.category) {
			found[l.category[idx]] = struct{}{}
		}
	}

	matched := make([]domain.Category, 0, len(found))
	for _, c := range domain.Categories {
		if _, ok := found[c]; ok {
			matched = append(matched, c)
		}
	}
	return matched
}
