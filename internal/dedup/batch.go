package dedup

import "github.com/jonesrussell/newsfeed/internal/domain"

// BatchDeduper collapses one fetch's worth of articles without touching the
// store: exact canonical URL matches first, then title similarity against
// every article already kept. The first occurrence wins.
type BatchDeduper struct {
	urls      *URLNormalizer
	threshold float64
}

// NewBatchDeduper returns a deduper using threshold (default 0.8) and the
// given tracking parameter list (nil for the defaults).
func NewBatchDeduper(threshold float64, trackingParams []string) *BatchDeduper {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	return &BatchDeduper{urls: NewURLNormalizer(trackingParams), threshold: threshold}
}

// Dedupe returns the surviving articles in input order with CanonicalURL set.
func (b *BatchDeduper) Dedupe(articles []domain.Article) []domain.Article {
	kept := make([]domain.Article, 0, len(articles))
	keptTitles := make([]map[string]struct{}, 0, len(articles))
	seenURLs := make(map[string]struct{}, len(articles))

	for _, a := range articles {
		canonical := b.urls.Normalize(a.URL)
		if _, dup := seenURLs[canonical]; dup && canonical != "" {
			continue
		}

		words := WordSet(a.Title)
		if b.nearDuplicate(words, keptTitles) {
			continue
		}

		seenURLs[canonical] = struct{}{}
		a.CanonicalURL = canonical
		kept = append(kept, a)
		keptTitles = append(keptTitles, words)
	}
	return kept
}

func (b *BatchDeduper) nearDuplicate(words map[string]struct{}, kept []map[string]struct{}) bool {
	if len(words) == 0 {
		return false
	}
	for _, other := range kept {
		if Jaccard(words, other) >= b.threshold {
			return true
		}
	}
	return false
}
