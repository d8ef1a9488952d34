package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Himejjad/media-app/internal/storage"
)

const serviceName = "media-app-backend"
const serviceVersion = "1.0.0"

// HealthHandler reports liveness plus the reachability of both backing
// stores.
type HealthHandler struct {
	checkDB     func(ctx context.Context) error
	objectStore storage.ObjectStorage
	environment string
	startedAt   time.Time
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(checkDB func(ctx context.Context) error, objectStore storage.ObjectStorage, environment string) *HealthHandler {
	return &HealthHandler{
		checkDB:     checkDB,
		objectStore: objectStore,
		environment: environment,
		startedAt:   time.Now(),
	}
}

// Check handles GET /health. 200 only when both the catalog and the
// object store respond; 503 otherwise.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	payload := gin.H{
		"uptime":      time.Since(h.startedAt).Seconds(),
		"message":     "OK",
		"timestamp":   time.Now().UnixMilli(),
		"service":     serviceName,
		"version":     serviceVersion,
		"environment": h.environment,
	}

	healthy := true

	if err := h.checkDB(ctx); err != nil {
		healthy = false
		payload["database"] = gin.H{"status": "error", "error": err.Error()}
	} else {
		payload["database"] = gin.H{"status": "connected"}
	}

	if err := h.objectStore.HealthCheck(ctx); err != nil {
		healthy = false
		payload["s3"] = gin.H{"status": "error", "error": err.Error()}
	} else {
		payload["s3"] = gin.H{"status": "connected"}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, payload)
}
