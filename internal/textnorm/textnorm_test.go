package textnorm_test

import (
	"testing"

	"github.com/jonesrussell/newsfeed/internal/textnorm"
	"github.com/stretchr/testify/assert"
)

func TestWords(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"cafe", "creme", "in", "montreal", "2026"}, textnorm.Words("Café-Crème in Montréal, 2026!"))
	assert.Empty(t, textnorm.Words(" -- "))
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "fed raises rates", textnorm.Normalize("  Fed RAISES   rates. "))
}

func TestIsNumeric(t *testing.T) {
	t.Parallel()

	assert.True(t, textnorm.IsNumeric("2026"))
	assert.False(t, textnorm.IsNumeric("g20"))
	assert.False(t, textnorm.IsNumeric(""))
}
