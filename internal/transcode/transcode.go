// Package transcode re-encodes uploaded images to a bounded size before
// they reach object storage. Audio is never touched.
package transcode

import (
	"bytes"
	"strings"

	"github.com/disintegration/imaging"

	// Register the WebP decoder; JPEG/PNG/GIF come with imaging itself.
	_ "golang.org/x/image/webp"

	"github.com/Himejjad/media-app/internal/apperr"
)

// Result is the payload and content type to hand to object storage.
type Result struct {
	Data        []byte
	ContentType string
}

// Transcoder converts raw upload bytes into their stored form.
type Transcoder interface {
	Transcode(data []byte, contentType string) (Result, error)
}

// ImageTranscoder decodes image inputs, scales them down so neither
// dimension exceeds MaxDimension (never upscaling), and re-encodes as
// JPEG at the configured quality. Every image input comes out as
// image/jpeg regardless of its source format.
type ImageTranscoder struct {
	maxDimension int
	quality      int
}

func New(maxDimension, quality int) *ImageTranscoder {
	return &ImageTranscoder{maxDimension: maxDimension, quality: quality}
}

func (t *ImageTranscoder) Transcode(data []byte, contentType string) (Result, error) {
	if !strings.HasPrefix(contentType, "image/") {
		// Audio passthrough: stored byte-for-byte as received.
		return Result{Data: data, ContentType: contentType}, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindTranscode, "Failed to process image", err)
	}

	// Fit scales down to the bounding box and leaves smaller images
	// untouched, preserving aspect ratio.
	img = imaging.Fit(img, t.maxDimension, t.maxDimension, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(t.quality)); err != nil {
		return Result{}, apperr.Wrap(apperr.KindTranscode, "Failed to encode image", err)
	}

	return Result{Data: buf.Bytes(), ContentType: "image/jpeg"}, nil
}
