package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/eventfinder/ef-aggregator/internal/api/middleware"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, authCfg middleware.AuthConfig) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Event endpoints (public read access)
		v1.GET("/events", handler.ListEvents)
		v1.GET("/events/:public_id", handler.GetEvent)

		// User pages: public, but visibility narrows when the caller is known
		v1.GET("/users/:username/events", middleware.OptionalAuth(authCfg), handler.GetUserEvents)

		// Social edges (require authentication)
		v1.POST("/users/:username/follow", middleware.Auth(authCfg), handler.Follow)
		v1.POST("/users/:username/block", middleware.Auth(authCfg), handler.Block)

		v1.GET("/social/following", middleware.Auth(authCfg), handler.ListFollowing)
		v1.GET("/social/followers", middleware.Auth(authCfg), handler.ListFollowers)
		v1.GET("/social/blocking", middleware.Auth(authCfg), handler.ListBlocking)
	}
}
