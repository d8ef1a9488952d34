package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Himejjad/media-app/internal/apperr"
	"github.com/Himejjad/media-app/internal/domain"
)

const testMaxSize = 50 * 1024 * 1024

func TestValidateFile(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		mimeType string
		size     int64
		wantErr  bool
	}{
		{"jpeg accepted", "photo.jpg", "image/jpeg", 1024, false},
		{"png accepted", "pic.png", "image/png", 1024, false},
		{"gif accepted", "anim.gif", "image/gif", 1024, false},
		{"webp accepted", "pic.webp", "image/webp", 1024, false},
		{"mp3 accepted", "song.mp3", "audio/mpeg", 1024, false},
		{"wav accepted", "clip.wav", "audio/wav", 1024, false},
		{"x-m4a accepted", "voice.m4a", "audio/x-m4a", 1024, false},
		{"video rejected", "movie.mp4", "video/mp4", 1024, true},
		{"pdf rejected", "doc.pdf", "application/pdf", 1024, true},
		{"empty type rejected", "mystery", "", 1024, true},
		{"at size limit accepted", "big.png", "image/png", testMaxSize, false},
		{"over size limit rejected", "huge.png", "image/png", testMaxSize + 1, true},
		{"long filename rejected", strings.Repeat("a", 256) + ".png", "image/png", 1024, true},
		{"multibyte filename accepted", strings.Repeat("é", 200) + ".png", "image/png", 1024, false},
		{"long multibyte filename rejected", strings.Repeat("é", 252) + ".png", "image/png", 1024, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFile(tt.fileName, tt.mimeType, tt.size, testMaxSize)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMediaTypeOf(t *testing.T) {
	mt, ok := MediaTypeOf("image/webp")
	require.True(t, ok)
	assert.Equal(t, domain.MediaTypeImage, mt)

	mt, ok = MediaTypeOf("audio/ogg")
	require.True(t, ok)
	assert.Equal(t, domain.MediaTypeAudio, mt)

	_, ok = MediaTypeOf("text/html")
	assert.False(t, ok)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"simple.jpg", "simple.jpg"},
		{`bad<>:"/\|?*name.png`, "bad_name.png"},
		{"my   cool    file.mp3", "my_cool_file.mp3"},
		{"under___scores.wav", "under_scores.wav"},
		{"_trimmed_.gif", "trimmed.gif"},
		{"  _ mixed _  ", "mixed"},
		{"tabs\tand\nnewlines.png", "tabs_and_newlines.png"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFilename(tt.in), "input %q", tt.in)
	}
}

func TestSanitizeFilenameTruncates(t *testing.T) {
	long := strings.Repeat("a", 300)
	got := SanitizeFilename(long)
	assert.Len(t, got, 200)
}

func TestSanitizeFilenameIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"normal.jpg",
		`we"ird/na\me  with___stuff.png`,
		"_x_",
		strings.Repeat("a", 199) + "_" + strings.Repeat("b", 100), // underscore at the truncation edge
		strings.Repeat(" * ", 120),
	}
	for _, in := range inputs {
		once := SanitizeFilename(in)
		twice := SanitizeFilename(once)
		assert.Equal(t, once, twice, "input %q", in)
	}
}

func TestFileExtension(t *testing.T) {
	assert.Equal(t, "jpg", FileExtension("image/jpeg"))
	assert.Equal(t, "mp3", FileExtension("audio/mpeg"))
	assert.Equal(t, "m4a", FileExtension("audio/x-m4a"))
	assert.Equal(t, "bin", FileExtension("application/octet-stream"))
}
