package dedup

import "github.com/jonesrussell/newsfeed/internal/textnorm"

// NormalizeText lower-cases s, folds accents and turns every run of
// non-alphanumeric characters into a single space.
func NormalizeText(s string) string {
	return textnorm.Normalize(s)
}

// WordSet is the set of normalized words in s.
func WordSet(s string) map[string]struct{} {
	words := textnorm.Words(s)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// Jaccard is |a∩b| / |a∪b|. Two empty sets score 0.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	if len(a) > len(b) {
		a, b = b, a
	}

	shared := 0
	for w := range a {
		if _, ok := b[w]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(a)+len(b)-shared)
}

// TitleSimilarity is the Jaccard similarity of the titles' word sets.
func TitleSimilarity(a, b string) float64 {
	return Jaccard(WordSet(a), WordSet(b))
}
