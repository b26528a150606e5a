package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func respondBadRequest(c *gin.Context, message string, err error) {
	body := gin.H{"error": message}
	if err != nil {
		body["details"] = err.Error()
	}
	c.JSON(http.StatusBadRequest, body)
}

// requireService answers 503 when the named collaborator is missing.
func requireService(c *gin.Context, available bool, name string) bool {
	if !available {
		respondError(c, http.StatusServiceUnavailable, name+" is not configured")
		return false
	}
	return true
}
