package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nutriweek/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, log *zap.SugaredLogger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(log))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// Public share resolution lives outside the API group so links stay short.
	router.GET("/share/:token", handler.ResolveShareLink)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		reports := v1.Group("/reports")
		{
			reports.POST("/weekly", handler.ComputeWeeklyReport)
		}

		foods := v1.Group("/foods")
		{
			foods.GET("/search", handler.SearchFoods)
			foods.GET("/barcode/:code", handler.LookupBarcode)
		}

		share := v1.Group("/share")
		{
			share.POST("", handler.CreateShareLink)
			share.GET("/:id/access", handler.ListShareAccess)
		}
	}

	return router
}
