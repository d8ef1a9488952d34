package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error at the point of failure so the HTTP boundary
// can translate it without inspecting error strings or provider codes.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindTranscode
	KindStore
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindTranscode:
		return "transcode"
	case KindStore:
		return "store"
	default:
		return "unknown"
	}
}

// Error carries a kind and a client-facing message. The wrapped cause, if
// any, is for logs and debug output only.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf is New with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from anywhere in err's chain.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// Message returns the client-facing message for err, or a generic one if
// err carries no kind.
func Message(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "Server Error"
}
