package api

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Himejjad/media-app/internal/apperr"
	"github.com/Himejjad/media-app/internal/config"
	"github.com/Himejjad/media-app/internal/domain"
	"github.com/Himejjad/media-app/internal/observability"
	"github.com/Himejjad/media-app/internal/service"
)

// MediaHandler holds the media service dependency.
type MediaHandler struct {
	mediaService service.MediaService
	uploadCfg    config.UploadConfig
	metrics      *observability.Metrics // nil when metrics are disabled
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(mediaService service.MediaService, uploadCfg config.UploadConfig, metrics *observability.Metrics) *MediaHandler {
	return &MediaHandler{
		mediaService: mediaService,
		uploadCfg:    uploadCfg,
		metrics:      metrics,
	}
}

// --- DTOs for API (Data Transfer Objects) ---

// listMediaQuery defines the accepted query parameters for listing.
// Invalid values fail before any store access.
type listMediaQuery struct {
	Type  string `form:"type" binding:"omitempty,oneof=image audio"`
	Limit int    `form:"limit,default=50" binding:"min=1,max=100"`
	Page  int    `form:"page,default=1" binding:"min=1"`
	Sort  string `form:"sort,default=createdAt" binding:"oneof=createdAt name size"`
	Order string `form:"order,default=desc" binding:"oneof=asc desc"`
}

// Pagination describes the page window of a list response.
type Pagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
}

// MediaResponse is the DTO for returning a catalog record.
type MediaResponse struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	OriginalName  string               `json:"originalName"`
	URL           string               `json:"url"`
	S3Key         string               `json:"s3Key"`
	Type          string               `json:"type"`
	MimeType      string               `json:"mimeType"`
	Size          int64                `json:"size"`
	FormattedSize string               `json:"formattedSize"`
	Metadata      domain.MediaMetadata `json:"metadata"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

// MapMediaToResponse converts a domain.Media to MediaResponse DTO.
func MapMediaToResponse(m *domain.Media) MediaResponse {
	if m == nil {
		return MediaResponse{}
	}
	return MediaResponse{
		ID:            m.ID.Hex(),
		Name:          m.Name,
		OriginalName:  m.OriginalName,
		URL:           m.URL,
		S3Key:         m.S3Key,
		Type:          string(m.Type),
		MimeType:      m.MimeType,
		Size:          m.Size,
		FormattedSize: m.FormattedSize(),
		Metadata:      m.Metadata,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// MapMediaListToResponse converts a slice of domain.Media to DTOs.
func MapMediaListToResponse(items []domain.Media) []MediaResponse {
	responses := make([]MediaResponse, len(items))
	for i := range items {
		responses[i] = MapMediaToResponse(&items[i])
	}
	return responses
}

// --- Handler Methods ---

// ListMedia handles GET /media.
func (h *MediaHandler) ListMedia(c *gin.Context) {
	var q listMediaQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		fail(c, apperr.Wrap(apperr.KindValidation, "Invalid query parameters", err))
		return
	}

	result, err := h.mediaService.List(c.Request.Context(), domain.ListOptions{
		Type:  domain.MediaType(q.Type),
		Sort:  q.Sort,
		Order: q.Order,
		Page:  q.Page,
		Limit: q.Limit,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    MapMediaListToResponse(result.Items),
		"pagination": Pagination{
			CurrentPage:  q.Page,
			TotalPages:   int(math.Ceil(float64(result.Total) / float64(q.Limit))),
			TotalItems:   result.Total,
			ItemsPerPage: q.Limit,
		},
	})
}

// GetMedia handles GET /media/:id.
func (h *MediaHandler) GetMedia(c *gin.Context) {
	id, ok := mediaIDParam(c)
	if !ok {
		return
	}

	media, err := h.mediaService.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": MapMediaToResponse(media)})
}

// UploadMedia handles POST /media with multipart field "files".
func (h *MediaHandler) UploadMedia(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		fail(c, apperr.Wrap(apperr.KindValidation, "No files uploaded", err))
		return
	}

	headers := form.File["files"]
	// Reject over-count requests before buffering a single payload.
	if len(headers) > h.uploadCfg.MaxFiles {
		fail(c, apperr.Newf(apperr.KindValidation,
			"Too many files. Maximum is %d files per request", h.uploadCfg.MaxFiles))
		return
	}
	inputs := make([]service.UploadInput, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			fail(c, apperr.Wrap(apperr.KindValidation,
				fmt.Sprintf("Failed to read %s", fh.Filename), err))
			return
		}
		// Read one byte past the limit so over-sized payloads are
		// rejected by size validation, not silently truncated.
		data, err := io.ReadAll(io.LimitReader(f, h.uploadCfg.MaxFileSize+1))
		f.Close()
		if err != nil {
			fail(c, apperr.Wrap(apperr.KindValidation,
				fmt.Sprintf("Failed to read %s", fh.Filename), err))
			return
		}
		inputs = append(inputs, service.UploadInput{
			OriginalName: fh.Filename,
			ContentType:  fh.Header.Get("Content-Type"),
			Size:         int64(len(data)),
			Data:         data,
		})
	}

	created, err := h.mediaService.Upload(c.Request.Context(), inputs, c.GetString(ContextUploaderKey))
	if err != nil {
		fail(c, err)
		return
	}

	if h.metrics != nil {
		for i := range created {
			h.metrics.RecordUpload(string(created[i].Type), created[i].Size)
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": fmt.Sprintf("Successfully uploaded %d file(s)", len(created)),
		"data":    MapMediaListToResponse(created),
	})
}

// DeleteMedia handles DELETE /media/:id.
func (h *MediaHandler) DeleteMedia(c *gin.Context) {
	id, ok := mediaIDParam(c)
	if !ok {
		return
	}

	if err := h.mediaService.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Media file deleted successfully",
	})
}

// GetStats handles GET /media/stats/summary.
func (h *MediaHandler) GetStats(c *gin.Context) {
	summary, err := h.mediaService.Stats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": summary})
}

// mediaIDParam parses the :id path segment. A malformed identifier is
// reported as not-found rather than leaking the internal format.
func mediaIDParam(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		fail(c, apperr.New(apperr.KindNotFound, "Media file not found"))
		return primitive.NilObjectID, false
	}
	return id, true
}
