package http

import (
	"github.com/ecoboleta/backend/config"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger zerolog.Logger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		boletas := v1.Group("/boletas")
		{
			boletas.POST("/analyze", handler.AnalyzeBoleta)
			boletas.GET("/:id", handler.GetBoleta)
		}

		products := v1.Group("/products")
		{
			products.POST("/match", handler.MatchProduct)
			products.POST("/alternatives", handler.FindAlternatives)
		}

		categories := v1.Group("/categories")
		{
			categories.POST("/normalize", handler.NormalizeCategory)
			categories.POST("/infer", handler.InferCategory)
		}

		v1.POST("/impact/classify", handler.ClassifyImpact)
		v1.POST("/supermarkets/detect", handler.DetectSupermarket)
		v1.POST("/catalog/:retailer/products", handler.IngestCatalog)
	}

	return router
}
