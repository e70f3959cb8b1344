package http

import (
	"github.com/gin-gonic/gin"

	"github.com/sevketugurel/infinitum-agent-sub001/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(RequestIDMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint (unauthenticated, unthrottled)
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	v1.Use(AuthMiddleware(cfg.Auth.APIKeys))
	{
		v1.POST("/search", handler.SearchProducts)
		v1.POST("/scrape", handler.ScrapeProduct)
		v1.GET("/products/recent", handler.RecentProducts)
	}

	return router
}
