package service

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Himejjad/media-app/internal/apperr"
	"github.com/Himejjad/media-app/internal/domain"
)

const maxFilenameLength = 255

var allowedImageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/jpg":  {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
}

var allowedAudioTypes = map[string]struct{}{
	"audio/mpeg":  {},
	"audio/mp3":   {},
	"audio/wav":   {},
	"audio/ogg":   {},
	"audio/aac":   {},
	"audio/m4a":   {},
	"audio/x-m4a": {},
}

// MediaTypeOf maps a MIME type to its media category. The second return
// is false when the type is outside both allow-lists.
func MediaTypeOf(mimeType string) (domain.MediaType, bool) {
	if _, ok := allowedImageTypes[mimeType]; ok {
		return domain.MediaTypeImage, true
	}
	if _, ok := allowedAudioTypes[mimeType]; ok {
		return domain.MediaTypeAudio, true
	}
	return "", false
}

// ValidateFile is the accept/reject predicate applied to each candidate
// file before any storage work. It has no side effects.
func ValidateFile(originalName, mimeType string, size, maxSize int64) error {
	if _, ok := MediaTypeOf(mimeType); !ok {
		return apperr.Newf(apperr.KindValidation,
			"File type %s is not allowed. Allowed types: Images (JPEG, PNG, GIF, WebP) and Audio (MP3, WAV, OGG, AAC, M4A)",
			mimeType)
	}
	if size > maxSize {
		return apperr.Newf(apperr.KindValidation,
			"File %s is too large. Maximum size is %dMB", originalName, maxSize/(1024*1024))
	}
	// Characters, not bytes: a multibyte name is fine as long as it
	// stays within 255 characters.
	if utf8.RuneCountInString(originalName) > maxFilenameLength {
		return apperr.New(apperr.KindValidation,
			"Filename is too long. Maximum length is 255 characters")
	}
	return nil
}

var (
	unsafeChars     = regexp.MustCompile(`[<>:"/\\|?*]`)
	whitespaceRuns  = regexp.MustCompile(`\s+`)
	underscoreRuns  = regexp.MustCompile(`_+`)
	edgeUnderscores = regexp.MustCompile(`^_|_$`)
)

// SanitizeFilename normalizes an arbitrary filename into a storage-safe
// string. The steps are ordered and the function is total: empty input
// yields empty output, and the result is a fixed point (idempotent).
func SanitizeFilename(filename string) string {
	s := unsafeChars.ReplaceAllString(filename, "_")
	s = whitespaceRuns.ReplaceAllString(s, "_")
	s = underscoreRuns.ReplaceAllString(s, "_")
	s = edgeUnderscores.ReplaceAllString(s, "")
	if r := []rune(s); len(r) > 200 {
		// Truncation can expose a new trailing underscore; trim once more
		// so the function stays idempotent.
		s = edgeUnderscores.ReplaceAllString(string(r[:200]), "")
	}
	return s
}

var mimeToExt = map[string]string{
	"image/jpeg":  "jpg",
	"image/jpg":   "jpg",
	"image/png":   "png",
	"image/gif":   "gif",
	"image/webp":  "webp",
	"audio/mpeg":  "mp3",
	"audio/mp3":   "mp3",
	"audio/wav":   "wav",
	"audio/ogg":   "ogg",
	"audio/aac":   "aac",
	"audio/m4a":   "m4a",
	"audio/x-m4a": "m4a",
}

// FileExtension derives the object-key extension from a content type.
func FileExtension(mimeType string) string {
	if ext, ok := mimeToExt[strings.ToLower(mimeType)]; ok {
		return ext
	}
	return "bin"
}
