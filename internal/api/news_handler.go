package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/newsfeed/infrastructure/logger"
	"github.com/jonesrussell/newsfeed/internal/aggregator"
	"github.com/jonesrussell/newsfeed/internal/database"
	"github.com/jonesrussell/newsfeed/internal/domain"
)

// parseNewsRequest reads category, q, limit and cache query parameters.
func parseNewsRequest(c *gin.Context) (aggregator.Request, error) {
	req := aggregator.Request{
		Query:    c.Query("q"),
		UseCache: true,
	}

	category, err := domain.ParseCategory(c.Query("category"))
	if err != nil {
		return req, err
	}
	req.Category = category

	if raw := c.Query("limit"); raw != "" {
		limit, convErr := strconv.Atoi(raw)
		if convErr != nil || limit < 1 {
			return req, errors.New("limit must be a positive integer")
		}
		req.Limit = limit
	}

	if raw := c.Query("cache"); raw != "" {
		useCache, convErr := strconv.ParseBool(raw)
		if convErr != nil {
			return req, errors.New("cache must be true or false")
		}
		req.UseCache = useCache
	}
	return req, nil
}

// getNews aggregates live news. Source failures never fail the request;
// they are reported in metadata.
// GET /api/v1/news?category=technology&q=ai&limit=20&cache=false
func (r *Router) getNews(c *gin.Context) {
	req, err := parseNewsRequest(c)
	if err != nil {
		respondBadRequest(c, "Invalid query parameters", err)
		return
	}

	result := r.deps.News.FetchLiveNews(c.Request.Context(), req)
	c.JSON(http.StatusOK, result)
}

// getArticle returns one stored article.
// GET /api/v1/news/:id
func (r *Router) getArticle(c *gin.Context) {
	if !requireService(c, r.deps.Articles != nil, "article store") {
		return
	}

	article, err := r.deps.Articles.FindByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, database.ErrArticleNotFound) {
		respondError(c, http.StatusNotFound, "article not found")
		return
	}
	if err != nil {
		r.log.Error("Failed to load article", logger.String("article_id", c.Param("id")), logger.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to load article")
		return
	}
	c.JSON(http.StatusOK, article)
}

// listSources returns the adapters that can currently be called.
// GET /api/v1/sources
func (r *Router) listSources(c *gin.Context) {
	available := r.deps.News.AvailableSources()
	c.JSON(http.StatusOK, gin.H{
		"sources": available,
		"count":   len(available),
	})
}

// sourcesHealth probes every configured adapter.
// GET /api/v1/sources/health
func (r *Router) sourcesHealth(c *gin.Context) {
	health := r.deps.News.HealthCheck(c.Request.Context())

	status := http.StatusOK
	if health.Status == aggregator.OverallUnhealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, health)
}

type refreshRequest struct {
	Category string `json:"category"`
	Query    string `json:"query"`
	Limit    int    `json:"limit"`
}

// refresh pulls a fresh aggregate and stores the new articles.
// POST /api/v1/ingest/refresh
func (r *Router) refresh(c *gin.Context) {
	if !requireService(c, r.deps.Ingest != nil, "ingestion") {
		return
	}

	var body refreshRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			respondBadRequest(c, "Invalid request payload", err)
			return
		}
	}
	category, err := domain.ParseCategory(body.Category)
	if err != nil {
		respondBadRequest(c, "Invalid category", err)
		return
	}
	if body.Limit < 0 {
		respondBadRequest(c, "limit must not be negative", nil)
		return
	}

	report, err := r.deps.Ingest.Refresh(c.Request.Context(), aggregator.Request{
		Category: category,
		Query:    body.Query,
		Limit:    body.Limit,
	})
	if err != nil {
		r.log.Error("Refresh failed", logger.String("run_id", report.RunID), logger.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "report": report})
		return
	}
	c.JSON(http.StatusOK, report)
}
