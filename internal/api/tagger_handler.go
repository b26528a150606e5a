package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// taggerStats GET /api/v1/tagger/stats
func (r *Router) taggerStats(c *gin.Context) {
	c.JSON(http.StatusOK, r.deps.Tagger.Stats())
}

type extractRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// extractTags POST /api/v1/tagger/extract
func (r *Router) extractTags(c *gin.Context) {
	var body extractRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "Invalid request payload", err)
		return
	}

	tags := r.deps.Tagger.ExtractTags(body.Title, body.Description)
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

// clearCorpus DELETE /api/v1/tagger/corpus
func (r *Router) clearCorpus(c *gin.Context) {
	r.deps.Tagger.ClearCorpus()
	r.deps.Telemetry.SetCorpusDocuments(0)
	c.JSON(http.StatusOK, r.deps.Tagger.Stats())
}
