package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "lowercases", input: "HTTPS://Example.COM/News/Story", want: "https://example.com/news/story"},
		{name: "strips utm params", input: "https://example.com/a?utm_source=x&utm_medium=y", want: "https://example.com/a"},
		{name: "strips click ids", input: "https://example.com/a?fbclid=1&gclid=2", want: "https://example.com/a"},
		{name: "strips ref source campaign", input: "https://example.com/a?ref=home&source=rss&campaign=z", want: "https://example.com/a"},
		{name: "keeps and sorts content params", input: "https://example.com/a?page=2&id=7&utm_term=q", want: "https://example.com/a?id=7&page=2"},
		{name: "strips fragment", input: "https://example.com/a#comments", want: "https://example.com/a"},
		{name: "strips trailing slash", input: "https://example.com/a/", want: "https://example.com/a"},
		{name: "root trailing slash", input: "https://example.com/", want: "https://example.com"},
		{name: "not absolute", input: "Some/Path/#frag", want: "some/path"},
		{name: "empty", input: "  ", want: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, NormalizeURL(tc.input))
		})
	}
}

func TestTrackingParamsInAnyOrderHashEqually(t *testing.T) {
	t.Parallel()

	base := Hash(NormalizeURL("https://news.example.com/world/story-1"))
	variants := []string{
		"https://news.example.com/world/story-1?utm_source=x&utm_campaign=y",
		"https://news.example.com/world/story-1?utm_campaign=y&utm_source=x",
		"https://news.example.com/world/story-1/?gclid=abc&fbclid=def#top",
		"https://NEWS.example.com/world/story-1?ref=a&source=b&campaign=c",
	}
	for _, v := range variants {
		assert.Equal(t, base, Hash(NormalizeURL(v)), v)
	}
}

func TestURLNormalizer_CustomParams(t *testing.T) {
	t.Parallel()

	n := NewURLNormalizer([]string{"mc_*", "share"})
	assert.Equal(t, "https://example.com/a?utm_source=x", n.Normalize("https://example.com/a?mc_cid=1&share=tw&utm_source=x"))
}

func TestContentHash_IgnoresCaseAndTimeOfDay(t *testing.T) {
	t.Parallel()

	morning := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 3, 14, 21, 30, 0, 0, time.UTC)
	nextDay := morning.Add(24 * time.Hour)

	a := ContentHash("Markets Rally, Again!", "Reuters", morning)
	assert.Equal(t, a, ContentHash("markets rally again", "REUTERS", evening))
	assert.NotEqual(t, a, ContentHash("markets rally again", "reuters", nextDay))
}

func TestJaccard(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.0, TitleSimilarity("Fed raises rates", "fed RAISES rates!"), 1e-9)
	assert.InDelta(t, 0.5, TitleSimilarity("fed raises rates", "fed cuts rates"), 1e-9)
	assert.Zero(t, TitleSimilarity("", ""))
	assert.Zero(t, TitleSimilarity("alpha", "beta"))
}

func TestNormalizeText_FoldsAccents(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "cafe creme in montreal", NormalizeText("Café-Crème in Montréal"))
}
