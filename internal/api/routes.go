package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Himejjad/media-app/internal/config"
	"github.com/Himejjad/media-app/internal/observability"
	"github.com/Himejjad/media-app/internal/service"
)

// SetupRoutes wires middleware and the HTTP surface onto the engine.
func SetupRoutes(
	router *gin.Engine,
	cfg config.Config,
	logger *zap.Logger,
	mediaService service.MediaService,
	healthHandler *HealthHandler,
	metrics *observability.Metrics,
) {
	router.Use(cors.Default())
	router.Use(ErrorHandler(logger, !cfg.Server.IsRelease()))
	router.Use(IdentityMiddleware(cfg.Auth.JWTSecret))
	if metrics != nil {
		router.Use(metrics.Middleware())
		router.GET("/metrics", metrics.Handler())
	}

	mediaHandler := NewMediaHandler(mediaService, cfg.Upload, metrics)

	mediaGroup := router.Group("/media")
	{
		mediaGroup.GET("", mediaHandler.ListMedia)
		mediaGroup.POST("", mediaHandler.UploadMedia)
		mediaGroup.GET("/stats/summary", mediaHandler.GetStats)
		mediaGroup.GET("/:id", mediaHandler.GetMedia)
		mediaGroup.DELETE("/:id", mediaHandler.DeleteMedia)
	}

	router.GET("/health", healthHandler.Check)
}
