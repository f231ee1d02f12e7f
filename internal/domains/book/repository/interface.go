package repository

import (
	"context"

	"github.com/google/uuid"

	"grimoire-backend/internal/domains/book/model"
)

// RepositoryInterface is the book record store.
//
// AddRating must be linearized per book: the uniqueness check, the append
// and the average recomputation happen atomically with respect to other
// appends on the same book.
type RepositoryInterface interface {
	Insert(ctx context.Context, book *model.Book) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Book, error)
	List(ctx context.Context) ([]model.Book, error)
	TopRated(ctx context.Context, limit int) ([]model.Book, error)
	ExistsByTitleAuthor(ctx context.Context, title, author string) (bool, error)
	Replace(ctx context.Context, book *model.Book) error
	Delete(ctx context.Context, id uuid.UUID) error
	AddRating(ctx context.Context, bookID, raterID uuid.UUID, grade float64) (*model.Book, error)

	// ListImageKeys returns the asset key of every book; used by the
	// orphaned asset sweep.
	ListImageKeys(ctx context.Context) ([]string, error)
}
