package storage

import "context"

// PutResult reports where an uploaded object landed.
type PutResult struct {
	URL  string // public-reachable location
	ETag string // provider integrity tag
}

// ObjectStorage defines the interface for object storage operations.
type ObjectStorage interface {
	// Put uploads a payload under the given key with public-read
	// visibility and attaches the provided object metadata.
	Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) (PutResult, error)

	// Delete removes an object. A key that is already absent is not an
	// error; hard provider failures are.
	Delete(ctx context.Context, key string) error

	// HealthCheck verifies the backing bucket is reachable.
	HealthCheck(ctx context.Context) error

	// Bucket returns the configured bucket name.
	Bucket() string
}
