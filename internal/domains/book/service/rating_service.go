package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"grimoire-backend/internal/domains/book/model"
	"grimoire-backend/internal/domains/book/repository"
	"grimoire-backend/pkg/cache"
)

// RatingService implements RatingServiceInterface
type RatingService struct {
	repo   repository.RepositoryInterface
	cache  cache.Cache
	assets AssetStore
}

func NewRatingService(repo repository.RepositoryInterface, cache cache.Cache, assets AssetStore) RatingServiceInterface {
	return &RatingService{repo: repo, cache: cache, assets: assets}
}

// RateBook appends one rating by raterID and returns the book with its
// recomputed average. Any rating identity may rate, not just the book's
// owner; a second rating by the same identity is rejected and leaves the
// stored average unchanged.
func (s *RatingService) RateBook(ctx context.Context, bookID, raterID uuid.UUID, grade float64) (*model.BookResponse, error) {
	// 1. Bounds check before touching storage
	if grade < 0 || grade > 5 {
		return nil, model.ErrInvalidGrade
	}

	// 2. Append and recompute atomically
	book, err := s.repo.AddRating(ctx, bookID, raterID, grade)
	if err != nil {
		return nil, err
	}

	// 3. Invalidate caches
	keys := []string{
		model.GenerateBookCacheKey(bookID.String()),
		model.BooksListCacheKey,
		model.BooksTopCacheKey,
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		log.Warn().Err(err).Msg("cache invalidation failed")
	}

	return model.BookToResponse(book, s.assets.PublicURL(book.ImageKey)), nil
}
