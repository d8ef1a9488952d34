package domain

import (
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MediaType is the coarse media category, derived from the MIME type at
// upload time.
type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeAudio MediaType = "audio"
)

// MediaMetadata holds free-form per-object details alongside the record.
type MediaMetadata struct {
	ETag       string `bson:"etag,omitempty" json:"etag,omitempty"`
	Bucket     string `bson:"bucket,omitempty" json:"bucket,omitempty"`
	UploadedBy string `bson:"uploadedBy" json:"uploadedBy"`
}

// Media describes one stored file. The binary payload lives in object
// storage under S3Key; this document is the catalog entry for it.
type Media struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`                 // Sanitized display name
	OriginalName string             `bson:"originalName" json:"originalName"` // As supplied by the client, kept for audit
	URL          string             `bson:"url" json:"url"`
	S3Key        string             `bson:"s3Key" json:"s3Key"`
	Type         MediaType          `bson:"type" json:"type"`
	MimeType     string             `bson:"mimeType" json:"mimeType"` // Content type after any transcode
	Size         int64              `bson:"size" json:"size"`         // Bytes actually stored
	Metadata     MediaMetadata      `bson:"metadata" json:"metadata"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// FormattedSize renders Size as a human-readable string ("1.5 MB").
func (m *Media) FormattedSize() string {
	bytes := m.Size
	if bytes <= 0 {
		return "0 Bytes"
	}
	const k = 1024
	sizes := []string{"Bytes", "KB", "MB", "GB"}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(k)))
	if i >= len(sizes) {
		i = len(sizes) - 1
	}
	v := float64(bytes) / math.Pow(k, float64(i))
	return fmt.Sprintf("%s %s", trimZeros(v), sizes[i])
}

func trimZeros(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	for len(s) > 0 && s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if len(s) > 0 && s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	return s
}

// Sort fields accepted by the catalog list operation. These are the wire
// names; they double as the BSON field names.
const (
	SortByCreatedAt = "createdAt"
	SortByName      = "name"
	SortBySize      = "size"
)

const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// ListOptions captures a validated list query: optional type filter,
// sort field and direction, 1-indexed page and page size.
type ListOptions struct {
	Type  MediaType // empty means no filter
	Sort  string
	Order string
	Page  int
	Limit int
}

// StatsSummary aggregates the catalog by media type. Zero-valued fields
// are reported, never omitted.
type StatsSummary struct {
	Total      int64 `json:"total"`
	TotalSize  int64 `json:"totalSize"`
	Images     int64 `json:"images"`
	Audio      int64 `json:"audio"`
	ImagesSize int64 `json:"imagesSize"`
	AudioSize  int64 `json:"audioSize"`
}
