package service

import (
	"context"

	"github.com/google/uuid"

	"grimoire-backend/internal/domains/book/model"
)

// ServiceInterface is the catalog: structural and ownership invariants on
// book records plus the cover asset lifecycle.
type ServiceInterface interface {
	CreateBook(ctx context.Context, ownerID uuid.UUID, req model.CreateBookRequest, rawImage []byte) (*model.BookResponse, error)
	UpdateBook(ctx context.Context, bookID, callerID uuid.UUID, req model.UpdateBookRequest, rawImage []byte) (*model.BookResponse, error)
	DeleteBook(ctx context.Context, bookID, callerID uuid.UUID) error
	GetBook(ctx context.Context, bookID uuid.UUID) (*model.BookResponse, error)
	ListBooks(ctx context.Context) ([]model.BookResponse, error)
	TopRatedBooks(ctx context.Context, limit int) ([]model.BookResponse, error)
}

// RatingServiceInterface maintains the one-rating-per-identity invariant
// and the derived average.
type RatingServiceInterface interface {
	RateBook(ctx context.Context, bookID, raterID uuid.UUID, grade float64) (*model.BookResponse, error)
}

// AssetStore is durable byte storage for cover images.
// Delete is idempotent: a missing key is not an error.
type AssetStore interface {
	Put(ctx context.Context, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

// ImageTransformer normalizes an uploaded cover before it is persisted
type ImageTransformer interface {
	Validate(data []byte) error
	Transform(data []byte) ([]byte, error)
}
