// Package tagger derives tags for articles from term statistics and a
// category lexicon.
//
// Keyword scores use tf × log(totalDocs / max(df, 1)) where df comes from a
// corpus counter updated as articles are ingested. The counter is never
// recomputed over a fixed snapshot, so the IDF is an approximation that
// drifts as the corpus grows.
package tagger

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/jonesrussell/newsfeed/infrastructure/logger"
	"github.com/jonesrussell/newsfeed/internal/domain"
	"github.com/jonesrussell/newsfeed/internal/textnorm"
)

const (
	DefaultMaxKeywords      = 5
	DefaultMinKeywordLength = 3
	DefaultMinTermFrequency = 2
	DefaultCorpusSeedSize   = 1000
	defaultFallbackWords    = 3
	fallbackMinWordLength   = 4
)

// Config tunes extraction. Stopwords extend the built-in list; a non-empty
// Lexicon replaces DefaultLexicon.
type Config struct {
	MaxKeywords      int                 `yaml:"max_keywords"`
	MinKeywordLength int                 `yaml:"min_keyword_length"`
	MinTermFrequency int                 `yaml:"min_term_frequency"`
	CorpusSeedSize   int                 `yaml:"corpus_seed_size"`
	Stopwords        []string            `yaml:"stopwords"`
	Lexicon          map[string][]string `yaml:"lexicon"`
}

func (c *Config) setDefaults() {
	if c.MaxKeywords <= 0 {
		c.MaxKeywords = DefaultMaxKeywords
	}
	if c.MinKeywordLength <= 0 {
		c.MinKeywordLength = DefaultMinKeywordLength
	}
	if c.MinTermFrequency <= 0 {
		c.MinTermFrequency = DefaultMinTermFrequency
	}
	if c.CorpusSeedSize <= 0 {
		c.CorpusSeedSize = DefaultCorpusSeedSize
	}
}

// RecentLoader supplies persisted articles for seeding the corpus.
type RecentLoader interface {
	LoadRecent(ctx context.Context, limit int) ([]domain.Article, error)
}

// Document is the text UpdateCorpus counts.
type Document struct {
	Title       string
	Description string
}

// Stats describes the corpus.
type Stats struct {
	TotalDocuments int  `json:"total_documents"`
	UniqueTerms    int  `json:"unique_terms"`
	Initialized    bool `json:"initialized"`
	MaxKeywords    int  `json:"max_keywords"`
}

// Tagger is safe for concurrent use; only the corpus is mutable.
type Tagger struct {
	cfg         Config
	stopwords   map[string]struct{}
	tooCommon   map[string]struct{}
	lexicon     *Lexicon
	corpus      *Corpus
	initialized atomic.Bool
	log         logger.Logger
}

// New builds a Tagger. It fails only on an invalid lexicon.
func New(cfg Config, log logger.Logger) (*Tagger, error) {
	cfg.setDefaults()

	lexicon := newLexicon(DefaultLexicon)
	if len(cfg.Lexicon) > 0 {
		custom, err := NewLexicon(cfg.Lexicon)
		if err != nil {
			return nil, err
		}
		lexicon = custom
	}

	t := &Tagger{
		cfg:       cfg,
		stopwords: toSet(defaultStopwords, cfg.Stopwords),
		tooCommon: toSet(tooCommon),
		lexicon:   lexicon,
		corpus:    newCorpus(),
		log:       log,
	}
	return t, nil
}

func toSet(lists ...[]string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, l := range lists {
		for _, w := range l {
			set[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
		}
	}
	return set
}

func (t *Tagger) isStopword(w string) bool {
	_, ok := t.stopwords[w]
	return ok
}

// ExtractTags returns at most MaxKeywords tags for an article. When no term
// clears the frequency threshold, or anything goes wrong, the result comes
// from the fallback path instead. It never panics and never returns nil.
func (t *Tagger) ExtractTags(title, description string) (tags []string) {
	raw := title + " " + description

	defer func() {
		if r := recover(); r != nil {
			t.log.Warn("Tag extraction failed, using fallback", logger.Any("panic", r))
			tags = t.fallback(raw)
		}
	}()

	text := CleanText(raw)
	if text == "" {
		return []string{}
	}

	keywords := t.rankKeywords(t.tokenize(text))
	if len(keywords) == 0 {
		t.log.Debug("No keywords above frequency threshold, using fallback")
		return t.fallback(text)
	}

	categories := t.lexicon.Match(text + " " + strings.Join(keywords, " "))
	return t.finalize(keywords, categoryNames(categories))
}

// rankKeywords scores stems that occur at least MinTermFrequency times and
// returns the surface form of the best MaxKeywords.
func (t *Tagger) rankKeywords(tokens []token) []string {
	tf := make(map[string]int, len(tokens))
	surface := make(map[string]string, len(tokens))
	for _, tok := range tokens {
		tf[tok.stem]++
		if _, ok := surface[tok.stem]; !ok {
			surface[tok.stem] = tok.surface
		}
	}

	for stem, n := range tf {
		if n < t.cfg.MinTermFrequency {
			delete(tf, stem)
		}
	}
	if len(tf) == 0 {
		return nil
	}

	total, df := t.corpus.snapshot(tf)

	type scored struct {
		stem  string
		tf    int
		score float64
	}
	ranked := make([]scored, 0, len(tf))
	for stem, n := range tf {
		idf := 1.0
		if total > 0 {
			idf = math.Log(float64(total) / float64(max(df[stem], 1)))
		}
		ranked = append(ranked, scored{stem: stem, tf: n, score: float64(n) * idf})
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.tf != b.tf {
			return a.tf > b.tf
		}
		return a.stem < b.stem
	})

	limit := min(len(ranked), t.cfg.MaxKeywords)
	keywords := make([]string, 0, limit)
	for _, r := range ranked[:limit] {
		keywords = append(keywords, surface[r.stem])
	}
	return keywords
}

// finalize merges tag lists, drops case duplicates, too-common words and
// letterless tags, then truncates.
func (t *Tagger) finalize(lists ...[]string) []string {
	merged := domain.MergeTags(lists...)
	out := make([]string, 0, min(len(merged), t.cfg.MaxKeywords))
	for _, tag := range merged {
		if _, common := t.tooCommon[strings.ToLower(tag)]; common || !domain.HasLetter(tag) {
			continue
		}
		out = append(out, tag)
		if len(out) == t.cfg.MaxKeywords {
			break
		}
	}
	return out
}

// fallback is lexicon categories plus the first few long words of text.
func (t *Tagger) fallback(text string) (tags []string) {
	defer func() {
		if r := recover(); r != nil {
			tags = []string{}
		}
	}()

	words := make([]string, 0, defaultFallbackWords)
	for _, w := range textnorm.Words(text) {
		if len(words) == defaultFallbackWords {
			break
		}
		if len([]rune(w)) < fallbackMinWordLength || t.isStopword(w) || textnorm.IsNumeric(w) {
			continue
		}
		if _, common := t.tooCommon[w]; common {
			continue
		}
		words = append(words, w)
	}

	return t.finalize(categoryNames(t.lexicon.Match(text)), words)
}

// Categorize returns the lexicon categories matched by an article's text.
func (t *Tagger) Categorize(title, description string) []domain.Category {
	return t.lexicon.Match(CleanText(title + " " + description))
}

func categoryNames(cs []domain.Category) []string {
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.String()
	}
	return names
}

// UpdateCorpus counts each document's distinct stems and returns how many
// documents contributed at least one stem.
func (t *Tagger) UpdateCorpus(docs ...Document) int {
	added := 0
	for _, d := range docs {
		stems := stemSet(t.tokenize(CleanText(d.Title + " " + d.Description)))
		if len(stems) == 0 {
			continue
		}
		t.corpus.Add(stems)
		added++
	}
	return added
}

// Initialize seeds the corpus from up to CorpusSeedSize recent articles.
func (t *Tagger) Initialize(ctx context.Context, loader RecentLoader) error {
	articles, err := loader.LoadRecent(ctx, t.cfg.CorpusSeedSize)
	if err != nil {
		return fmt.Errorf("load recent articles: %w", err)
	}

	docs := make([]Document, len(articles))
	for i, a := range articles {
		docs[i] = Document{Title: a.Title, Description: a.Description}
	}
	added := t.UpdateCorpus(docs...)
	t.initialized.Store(true)

	docCount, terms := t.corpus.Size()
	t.log.Info("Tagger corpus seeded",
		logger.Int("articles", added),
		logger.Int("documents", docCount),
		logger.Int("terms", terms),
	)
	return nil
}

// Stats reports corpus size.
func (t *Tagger) Stats() Stats {
	docs, terms := t.corpus.Size()
	return Stats{
		TotalDocuments: docs,
		UniqueTerms:    terms,
		Initialized:    t.initialized.Load(),
		MaxKeywords:    t.cfg.MaxKeywords,
	}
}

// ClearCorpus resets the corpus. The tagger keeps working with pure term
// frequency until documents are added again.
func (t *Tagger) ClearCorpus() {
	t.corpus.Clear()
	t.initialized.Store(false)
}
