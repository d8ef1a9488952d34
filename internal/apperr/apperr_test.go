package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(New(KindValidation, "bad input")))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))

	// Kind survives fmt wrapping.
	wrapped := fmt.Errorf("context: %w", New(KindNotFound, "missing"))
	assert.Equal(t, KindNotFound, KindOf(wrapped))
}

func TestMessage(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := Wrap(KindStore, "Failed to fetch media files", cause)

	// Client-facing message excludes the cause; Error() includes it.
	assert.Equal(t, "Failed to fetch media files", Message(err))
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, cause, errors.Unwrap(err))

	assert.Equal(t, "Server Error", Message(errors.New("internal detail")))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "validation", KindValidation.String())
	assert.Equal(t, "store", KindStore.String())
	assert.Equal(t, "unknown", Kind(99).String())
}
