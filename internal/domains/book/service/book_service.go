package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"grimoire-backend/internal/domains/book/model"
	"grimoire-backend/internal/domains/book/repository"
	"grimoire-backend/pkg/cache"
)

const (
	bookDetailCacheTTL = 10 * time.Minute
	bookListCacheTTL   = 1 * time.Hour

	// Default size of the best-rated shelf
	DefaultTopRatedLimit = 3
	maxTopRatedLimit     = 50
)

// BookService implements ServiceInterface
type BookService struct {
	repo      repository.RepositoryInterface
	cache     cache.Cache
	assets    AssetStore
	transform ImageTransformer
}

// NewBookService - Constructor with DI
func NewBookService(
	repo repository.RepositoryInterface,
	cache cache.Cache,
	assets AssetStore,
	transform ImageTransformer,
) ServiceInterface {
	return &BookService{
		repo:      repo,
		cache:     cache,
		assets:    assets,
		transform: transform,
	}
}

// CreateBook validates the fields, checks (title, author) uniqueness,
// stores the transformed cover and persists the record. Validation and the
// duplicate check run before any side effect; if anything fails after the
// asset was stored, the asset is deleted before the error propagates.
func (s *BookService) CreateBook(ctx context.Context, ownerID uuid.UUID, req model.CreateBookRequest, rawImage []byte) (*model.BookResponse, error) {
	// 1. Trim and validate fields
	req.TrimFields()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrValidation, err)
	}

	if len(rawImage) == 0 {
		return nil, model.ErrMissingImage
	}
	if err := s.transform.Validate(rawImage); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrValidation, err)
	}

	// 2. Duplicate (title, author) check, before any side effect
	exists, err := s.repo.ExistsByTitleAuthor(ctx, req.Title, req.Author)
	if err != nil {
		return nil, fmt.Errorf("failed to check for duplicate book: %w", err)
	}
	if exists {
		return nil, model.ErrBookAlreadyExists
	}

	// 3. Normalize the zero-grade placeholder some clients send:
	// a new book always starts with no ratings and average 0
	if len(req.Ratings) == 1 && req.Ratings[0].Grade == 0 {
		req.Ratings = nil
	}

	// 4. Transform and store the cover
	transformed, err := s.transform.Transform(rawImage)
	if err != nil {
		return nil, fmt.Errorf("failed to transform image: %w", err)
	}

	imageKey, err := s.assets.Put(ctx, transformed, "image/jpeg")
	if err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	// From here on every failure path must remove the stored asset.
	// Cleanup runs on a fresh context: the request context may already
	// be cancelled when we get here.
	committed := false
	defer func() {
		if !committed {
			if err := s.assets.Delete(context.Background(), imageKey); err != nil {
				log.Error().Err(err).Str("key", imageKey).Msg("failed to clean up stored asset")
			}
		}
	}()

	// 5. Persist the record
	book := &model.Book{
		ID:            uuid.New(),
		UserID:        ownerID,
		Title:         req.Title,
		Author:        req.Author,
		Genre:         req.Genre,
		Year:          req.Year,
		ImageKey:      imageKey,
		Ratings:       []model.Rating{},
		AverageRating: 0,
	}

	if err := s.repo.Insert(ctx, book); err != nil {
		return nil, err
	}
	committed = true

	// 6. Invalidate list caches
	s.invalidateCaches(ctx, book.ID)

	return model.BookToResponse(book, s.assets.PublicURL(book.ImageKey)), nil
}

// UpdateBook replaces the caller-editable fields. Ownership is enforced the
// same way as on delete. With a new image the order is: store new asset,
// commit the record, then delete the old asset, so a failure never leaves
// the record pointing at a removed asset.
func (s *BookService) UpdateBook(ctx context.Context, bookID, callerID uuid.UUID, req model.UpdateBookRequest, rawImage []byte) (*model.BookResponse, error) {
	// 1. Get existing book
	book, err := s.repo.GetByID(ctx, bookID)
	if err != nil {
		return nil, err
	}

	// 2. Verify ownership
	if book.UserID != callerID {
		return nil, model.ErrForbidden
	}

	// 3. Trim and validate fields
	req.TrimFields()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrValidation, err)
	}

	// 4. Store the new cover, if any
	oldKey := book.ImageKey
	newKey := ""
	if len(rawImage) > 0 {
		if err := s.transform.Validate(rawImage); err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrValidation, err)
		}
		transformed, err := s.transform.Transform(rawImage)
		if err != nil {
			return nil, fmt.Errorf("failed to transform image: %w", err)
		}
		newKey, err = s.assets.Put(ctx, transformed, "image/jpeg")
		if err != nil {
			return nil, fmt.Errorf("failed to store image: %w", err)
		}
	}

	committed := false
	defer func() {
		if !committed && newKey != "" {
			if err := s.assets.Delete(context.Background(), newKey); err != nil {
				log.Error().Err(err).Str("key", newKey).Msg("failed to clean up stored asset")
			}
		}
	}()

	// 5. Apply the fixed field set; id and owner are never overridable
	book.Title = req.Title
	book.Author = req.Author
	book.Genre = req.Genre
	book.Year = req.Year
	if newKey != "" {
		book.ImageKey = newKey
	}

	// 6. Commit the record
	if err := s.repo.Replace(ctx, book); err != nil {
		return nil, err
	}
	committed = true

	// 7. The old asset is deleted only after the record committed.
	// Awaited, not fire-and-forget: a failure here is logged and the
	// orphan is picked up by the periodic sweep.
	if newKey != "" && oldKey != "" {
		if err := s.assets.Delete(context.Background(), oldKey); err != nil {
			log.Error().Err(err).Str("key", oldKey).Msg("failed to delete replaced asset")
		}
	}

	// 8. Invalidate caches
	s.invalidateCaches(ctx, book.ID)

	return model.BookToResponse(book, s.assets.PublicURL(book.ImageKey)), nil
}

// DeleteBook removes the record, then its asset. A crash between the two
// leaves an orphaned asset for the sweep, never a dangling reference.
func (s *BookService) DeleteBook(ctx context.Context, bookID, callerID uuid.UUID) error {
	// 1. Get existing book
	book, err := s.repo.GetByID(ctx, bookID)
	if err != nil {
		return err
	}

	// 2. Verify ownership
	if book.UserID != callerID {
		return model.ErrForbidden
	}

	// 3. Remove the record first
	if err := s.repo.Delete(ctx, bookID); err != nil {
		return err
	}

	// 4. Then the asset, synchronously
	if err := s.assets.Delete(context.Background(), book.ImageKey); err != nil {
		log.Error().Err(err).Str("key", book.ImageKey).Msg("failed to delete asset")
	}

	// 5. Invalidate caches
	s.invalidateCaches(ctx, bookID)

	return nil
}

func (s *BookService) GetBook(ctx context.Context, bookID uuid.UUID) (*model.BookResponse, error) {
	// Try the cache first
	cacheKey := model.GenerateBookCacheKey(bookID.String())
	var cached model.BookResponse
	found, err := s.cache.Get(ctx, cacheKey, &cached)
	if err != nil {
		log.Warn().Err(err).Str("key", cacheKey).Msg("cache error")
	}
	if found {
		return &cached, nil
	}

	book, err := s.repo.GetByID(ctx, bookID)
	if err != nil {
		return nil, err
	}

	resp := model.BookToResponse(book, s.assets.PublicURL(book.ImageKey))

	if err := s.cache.Set(ctx, cacheKey, resp, bookDetailCacheTTL); err != nil {
		log.Warn().Err(err).Str("key", cacheKey).Msg("cache set failed")
	}

	return resp, nil
}

// ListBooks returns every book. An empty collection is a distinct
// "no content" signal, not an empty success payload.
func (s *BookService) ListBooks(ctx context.Context) ([]model.BookResponse, error) {
	var cached []model.BookResponse
	found, err := s.cache.Get(ctx, model.BooksListCacheKey, &cached)
	if err != nil {
		log.Warn().Err(err).Msg("cache error")
	}
	if found && len(cached) > 0 {
		return cached, nil
	}

	books, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	if len(books) == 0 {
		return nil, model.ErrNoBooks
	}

	responses := make([]model.BookResponse, len(books))
	for i := range books {
		responses[i] = *model.BookToResponse(&books[i], s.assets.PublicURL(books[i].ImageKey))
	}

	if err := s.cache.Set(ctx, model.BooksListCacheKey, responses, bookListCacheTTL); err != nil {
		log.Warn().Err(err).Msg("cache set failed")
	}

	return responses, nil
}

// TopRatedBooks returns up to limit books by average rating descending
func (s *BookService) TopRatedBooks(ctx context.Context, limit int) ([]model.BookResponse, error) {
	if limit <= 0 {
		limit = DefaultTopRatedLimit
	}
	if limit > maxTopRatedLimit {
		limit = maxTopRatedLimit
	}

	books, err := s.repo.TopRated(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top rated books: %w", err)
	}

	responses := make([]model.BookResponse, len(books))
	for i := range books {
		responses[i] = *model.BookToResponse(&books[i], s.assets.PublicURL(books[i].ImageKey))
	}

	return responses, nil
}

func (s *BookService) invalidateCaches(ctx context.Context, bookID uuid.UUID) {
	keys := []string{
		model.GenerateBookCacheKey(bookID.String()),
		model.BooksListCacheKey,
		model.BooksTopCacheKey,
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		log.Warn().Err(err).Msg("cache invalidation failed")
	}
}
