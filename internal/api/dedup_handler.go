package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/newsfeed/infrastructure/logger"
	"github.com/jonesrussell/newsfeed/internal/cache"
	"github.com/jonesrussell/newsfeed/internal/dedup"
)

const dedupStatsKey = "dedup:stats"

// cleanup removes stored articles that share a canonical URL.
// POST /api/v1/dedup/cleanup
func (r *Router) cleanup(c *gin.Context) {
	if !requireService(c, r.deps.Ingest != nil, "ingestion") {
		return
	}

	report, err := r.deps.Ingest.Cleanup(c.Request.Context())
	if err != nil {
		r.log.Error("Duplicate cleanup failed", logger.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to remove duplicates")
		return
	}
	r.deps.Cache.Del(c.Request.Context(), dedupStatsKey)
	c.JSON(http.StatusOK, report)
}

// dedupStats reports store totals, briefly cached.
// GET /api/v1/dedup/stats
func (r *Router) dedupStats(c *gin.Context) {
	stats, err := cache.Remember(c.Request.Context(), r.deps.Cache, dedupStatsKey, statsCacheTTL,
		func(ctx context.Context) (dedup.Stats, error) {
			return r.deps.Dedup.Stats(ctx)
		})
	if err != nil {
		r.log.Error("Failed to compute dedupe stats", logger.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to compute statistics")
		return
	}
	c.JSON(http.StatusOK, stats)
}

type similarRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Threshold   float64 `json:"threshold"`
}

// findSimilar lists stored articles whose titles resemble the given text.
// POST /api/v1/dedup/similar
func (r *Router) findSimilar(c *gin.Context) {
	var body similarRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "Invalid request payload", err)
		return
	}
	if body.Title == "" && body.Description == "" {
		respondBadRequest(c, "title or description is required", nil)
		return
	}
	if body.Threshold < 0 || body.Threshold > 1 {
		respondBadRequest(c, "threshold must be between 0 and 1", nil)
		return
	}

	similar := r.deps.Dedup.FindSimilarArticles(c.Request.Context(), body.Title, body.Description, body.Threshold)
	if similar == nil {
		similar = []dedup.SimilarArticle{}
	}
	c.JSON(http.StatusOK, gin.H{
		"similar": similar,
		"count":   len(similar),
	})
}
