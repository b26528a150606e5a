package sources

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedact(t *testing.T) {
	t.Parallel()

	u, err := url.Parse("https://content.guardianapis.com/search?api-key=secret&q=x")
	require.NoError(t, err)

	got := redact(u)
	assert.NotContains(t, got, "secret")
	assert.Contains(t, got, "api-key=REDACTED")
	assert.Contains(t, got, "q=x")
	assert.Equal(t, "secret", u.Query().Get("api-key"), "input is not modified")

	plain, err := url.Parse("https://example.com/feed.xml")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/feed.xml", redact(plain))
}

func TestKeywordTags(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"nasa", "space"}, keywordTags("NASA plans new space station"))
	assert.Empty(t, keywordTags("Nothing to see here"))
}
