package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/newsfeed/internal/ingest"
)

// invalidateCache deletes keys matching each pattern query parameter,
// defaulting to the article and trending namespaces.
// DELETE /api/v1/cache?pattern=articles:*
func (r *Router) invalidateCache(c *gin.Context) {
	patterns := c.QueryArray("pattern")
	if len(patterns) == 0 {
		patterns = ingest.StalePatterns
	}

	removed := r.deps.Cache.InvalidatePattern(c.Request.Context(), patterns...)
	c.JSON(http.StatusOK, gin.H{
		"patterns":    patterns,
		"invalidated": removed,
	})
}
