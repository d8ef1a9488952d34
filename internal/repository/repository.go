package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Himejjad/media-app/internal/domain"
)

// Error constants for the repository layer.
var (
	ErrNotFound = RepositoryError("not found")
)

// RepositoryError helps distinguish repository errors.
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// ListResult is one page of catalog records plus the unpaged total.
type ListResult struct {
	Items []domain.Media
	Total int64
}

// MediaRepository defines the interface for interacting with the media
// catalog.
type MediaRepository interface {
	Create(ctx context.Context, media *domain.Media) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Media, error)
	Delete(ctx context.Context, id primitive.ObjectID) error

	// List applies the optional type filter, sorts, and returns the
	// requested 1-indexed page together with the total match count.
	List(ctx context.Context, opts domain.ListOptions) (*ListResult, error)

	// Stats groups the whole catalog by media type. Types with no
	// records report zeros.
	Stats(ctx context.Context) (*domain.StatsSummary, error)
}
