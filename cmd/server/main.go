package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Himejjad/media-app/internal/api"
	"github.com/Himejjad/media-app/internal/config"
	"github.com/Himejjad/media-app/internal/observability"
	mongorepo "github.com/Himejjad/media-app/internal/repository/mongo"
	"github.com/Himejjad/media-app/internal/service"
	"github.com/Himejjad/media-app/internal/storage"
	"github.com/Himejjad/media-app/internal/transcode"
)

func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}

	// --- Logger ---
	logger, err := observability.InitLogger(!cfg.Server.IsRelease())
	if err != nil {
		log.Fatalf("FATAL: Could not initialize logger: %v", err)
	}
	defer logger.Sync()
	logger.Info("starting media app server", zap.String("mode", cfg.Server.Mode))

	// --- Database Connection ---
	dbClient, err := mongorepo.ConnectDB(cfg.Database.URI)
	if err != nil {
		logger.Fatal("could not connect to MongoDB", zap.Error(err))
	}
	defer func() {
		logger.Info("disconnecting MongoDB")
		if err := mongorepo.DisconnectDB(dbClient); err != nil {
			logger.Error("failed to disconnect MongoDB", zap.Error(err))
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	logger.Info("database connection established", zap.String("database", cfg.Database.Name))

	// --- Ensure Indexes ---
	go func() { // Run index creation concurrently/in background
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		if err := mongorepo.EnsureMediaIndexes(ctx, appDB.Collection("media")); err != nil {
			logger.Warn("index creation failed", zap.Error(err))
		}
	}()

	// --- Initialize Storage ---
	objectStore, err := storage.NewS3Storage(cfg.S3, logger)
	if err != nil {
		logger.Fatal("failed to initialize S3 storage", zap.Error(err))
	}

	// --- Initialize Metrics ---
	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics, err = observability.InitMetrics()
		if err != nil {
			logger.Fatal("failed to register metrics", zap.Error(err))
		}
	}

	// --- Initialize Repositories & Services ---
	mediaRepo := mongorepo.NewMongoMediaRepository(appDB)
	transcoder := transcode.New(cfg.Image.MaxDimension, cfg.Image.JPEGQuality)
	mediaService := service.NewMediaService(mediaRepo, objectStore, transcoder, cfg.Upload, logger)

	// --- Initialize Gin Engine ---
	if cfg.Server.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	healthHandler := api.NewHealthHandler(func(ctx context.Context) error {
		return mongorepo.Ping(ctx, dbClient)
	}, objectStore, cfg.Server.Mode)

	api.SetupRoutes(router, cfg, logger, mediaService, healthHandler, metrics)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exiting")
}
