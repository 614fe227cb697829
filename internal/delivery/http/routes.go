package http

import (
	"github.com/gin-gonic/gin"
	"github.com/upclookup/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware, also applied to static files
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware())

	// Health check endpoints
	router.GET("/health", handler.HealthCheck)
	router.GET("/api/health", handler.HealthCheck)

	router.GET("/api/lookup-barcode", handler.LookupBarcode)
	router.HEAD("/api/lookup-barcode", handler.LookupBarcode)

	// Everything else is a static asset
	router.NoRoute(StaticFileHandler(cfg.Server.StaticDir))

	return router
}
