package tagger

import (
	"testing"

	"github.com/jonesrussell/newsfeed/infrastructure/logger"
	"github.com/jonesrussell/newsfeed/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain text", input: "  Plain   text\n here ", want: "Plain text here"},
		{name: "entities", input: "Tom &amp; Jerry &quot;return&quot;", want: `Tom & Jerry "return"`},
		{name: "block elements separate words", input: "<p>first</p><p>second</p>", want: "first second"},
		{name: "scripts dropped", input: "<div>keep<script>drop()</script></div>", want: "keep"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, CleanText(tc.input))
		})
	}
}

func TestTokenize_StemsAndFilters(t *testing.T) {
	t.Parallel()

	tg, err := New(Config{}, logger.NewNop())
	assert.NoError(t, err)

	tokens := tg.tokenize("The runners were running 42 races in 2026 at it")
	stems := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		stems = append(stems, tok.stem)
	}
	assert.Equal(t, []string{"runner", "run", "race"}, stems)
}

func TestLexicon_MatchesPhrasesOnWordBoundaries(t *testing.T) {
	t.Parallel()

	l := newLexicon(DefaultLexicon)

	assert.Equal(t, []domain.Category{domain.CategoryTechnology}, l.Match("New AI model released"))
	assert.Empty(t, l.Match("She said it again"))
	assert.Equal(t,
		[]domain.Category{domain.CategoryBusiness, domain.CategoryPolitics},
		l.Match("Central bank chief testifies before Senate"),
	)
}
