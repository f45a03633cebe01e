package router

import (
	"github.com/gin-gonic/gin"
	"github.com/repolens/reviewserver/internal/handlers"
	"github.com/repolens/reviewserver/internal/middleware"
)

// Setup configures and returns the application router
func Setup(
	healthHandler *handlers.HealthHandler,
	reviewHandler *handlers.ReviewHandler,
	authDisabled bool,
) *gin.Engine {

	// Create a new Gin router
	router := gin.Default()

	// Apply CORS middleware globally
	router.Use(middleware.CORS())

	// API v1 routes
	v1 := router.Group("/api/v1")

	// Apply authentication middleware to all routes
	if authDisabled {
		v1.Use(middleware.AllowAnonymous())
	} else {
		v1.Use(middleware.Authentication())
	}

	// Health check
	v1.GET("/health", healthHandler.Check)

	// Review routes
	reviews := v1.Group("/reviews")
	{
		reviews.POST("", reviewHandler.Submit)
		reviews.GET("", reviewHandler.List)
		reviews.GET("/:review_id", reviewHandler.Get)
	}

	return router
}
