// Package dedup decides whether an incoming article is already known. It
// combines canonical URL hashing, a title/source/date content hash, a
// bounded in-memory FIFO index, the persistent store, and Jaccard title
// similarity for fuzzy matches.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"time"
)

// DefaultTrackingParams are stripped from URLs before hashing. A trailing
// "*" makes an entry a prefix match.
var DefaultTrackingParams = []string{"utm_*", "fbclid", "gclid", "ref", "source", "campaign"}

// URLNormalizer produces canonical URLs.
type URLNormalizer struct {
	exact    map[string]struct{}
	prefixes []string
}

// NewURLNormalizer builds a normalizer for params; nil means DefaultTrackingParams.
func NewURLNormalizer(params []string) *URLNormalizer {
	if params == nil {
		params = DefaultTrackingParams
	}

	n := &URLNormalizer{exact: make(map[string]struct{}, len(params))}
	for _, p := range params {
		p = strings.ToLower(strings.TrimSpace(p))
		switch {
		case p == "":
		case strings.HasSuffix(p, "*"):
			n.prefixes = append(n.prefixes, strings.TrimSuffix(p, "*"))
		default:
			n.exact[p] = struct{}{}
		}
	}
	return n
}

func (n *URLNormalizer) isTracking(param string) bool {
	if _, ok := n.exact[param]; ok {
		return true
	}
	for _, prefix := range n.prefixes {
		if strings.HasPrefix(param, prefix) {
			return true
		}
	}
	return false
}

// Normalize lower-cases raw, drops tracking parameters and the fragment,
// sorts the remaining query and removes trailing slashes. Input that does
// not parse as an absolute URL is lower-cased and trimmed only.
func (n *URLNormalizer) Normalize(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	if lowered == "" {
		return ""
	}

	parsed, err := url.Parse(lowered)
	if err != nil || parsed.Host == "" {
		if i := strings.IndexByte(lowered, '#'); i >= 0 {
			lowered = lowered[:i]
		}
		return strings.TrimRight(lowered, "/")
	}

	query := parsed.Query()
	for key := range query {
		if n.isTracking(key) {
			query.Del(key)
		}
	}

	parsed.Fragment = ""
	parsed.RawFragment = ""
	parsed.ForceQuery = false
	parsed.RawQuery = query.Encode()
	parsed.Path = strings.TrimRight(parsed.Path, "/")
	parsed.RawPath = ""

	return strings.TrimRight(parsed.String(), "/")
}

var defaultNormalizer = NewURLNormalizer(nil)

// NormalizeURL canonicalizes raw with the default tracking parameter list.
func NormalizeURL(raw string) string {
	return defaultNormalizer.Normalize(raw)
}

// Hash is the hex SHA-256 of s.
func Hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// ContentHash keys an article by normalized title, normalized source and
// the UTC calendar day it was published.
func ContentHash(title, source string, publishedAt time.Time) string {
	return Hash(NormalizeText(title) + "|" + NormalizeText(source) + "|" + publishedAt.UTC().Format(time.DateOnly))
}
