package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventfinder/ef-aggregator/internal/logger"
)

// respondBadRequest responds with a bad request error
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

// respondNotFound responds with a not found error
func respondNotFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, gin.H{"error": message})
}

// respondInternalError logs the cause and responds with a generic error
func respondInternalError(c *gin.Context, err error, message string) {
	logger.ErrorCtx(c.Request.Context(), err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": message})
}
