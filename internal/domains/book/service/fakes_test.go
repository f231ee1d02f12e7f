package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"grimoire-backend/internal/domains/book/model"
)

// fakeBookRepository is an in-memory RepositoryInterface with the same
// guarantees as the real one: unique (title, author), unique
// (book, rater) and serialized rating appends per book.
type fakeBookRepository struct {
	mu    sync.Mutex
	books map[uuid.UUID]*model.Book

	insertErr error
	existsErr error
}

func newFakeBookRepository() *fakeBookRepository {
	return &fakeBookRepository{books: make(map[uuid.UUID]*model.Book)}
}

func (f *fakeBookRepository) Insert(_ context.Context, book *model.Book) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.insertErr != nil {
		return f.insertErr
	}
	for _, b := range f.books {
		if b.Title == book.Title && b.Author == book.Author {
			return model.ErrBookAlreadyExists
		}
	}

	clone := *book
	clone.CreatedAt = time.Now()
	clone.UpdatedAt = clone.CreatedAt
	f.books[book.ID] = &clone
	return nil
}

func (f *fakeBookRepository) GetByID(_ context.Context, id uuid.UUID) (*model.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.books[id]
	if !ok {
		return nil, model.ErrBookNotFound
	}
	clone := *b
	clone.Ratings = append([]model.Rating(nil), b.Ratings...)
	return &clone, nil
}

func (f *fakeBookRepository) List(_ context.Context) ([]model.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	books := make([]model.Book, 0, len(f.books))
	for _, b := range f.books {
		books = append(books, *b)
	}
	sort.Slice(books, func(i, j int) bool { return books[i].CreatedAt.Before(books[j].CreatedAt) })
	return books, nil
}

func (f *fakeBookRepository) TopRated(_ context.Context, limit int) ([]model.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	books := make([]model.Book, 0, len(f.books))
	for _, b := range f.books {
		books = append(books, *b)
	}
	sort.SliceStable(books, func(i, j int) bool {
		if books[i].AverageRating != books[j].AverageRating {
			return books[i].AverageRating > books[j].AverageRating
		}
		return books[i].CreatedAt.Before(books[j].CreatedAt)
	})
	if len(books) > limit {
		books = books[:limit]
	}
	return books, nil
}

func (f *fakeBookRepository) ExistsByTitleAuthor(_ context.Context, title, author string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.existsErr != nil {
		return false, f.existsErr
	}
	for _, b := range f.books {
		if b.Title == title && b.Author == author {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeBookRepository) Replace(_ context.Context, book *model.Book) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	existing, ok := f.books[book.ID]
	if !ok {
		return model.ErrBookNotFound
	}
	for id, b := range f.books {
		if id != book.ID && b.Title == book.Title && b.Author == book.Author {
			return model.ErrBookAlreadyExists
		}
	}
	existing.Title = book.Title
	existing.Author = book.Author
	existing.Genre = book.Genre
	existing.Year = book.Year
	existing.ImageKey = book.ImageKey
	existing.UpdatedAt = time.Now()
	return nil
}

func (f *fakeBookRepository) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.books[id]; !ok {
		return model.ErrBookNotFound
	}
	delete(f.books, id)
	return nil
}

func (f *fakeBookRepository) AddRating(_ context.Context, bookID, raterID uuid.UUID, grade float64) (*model.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.books[bookID]
	if !ok {
		return nil, model.ErrBookNotFound
	}
	for _, r := range b.Ratings {
		if r.UserID == raterID {
			return nil, model.ErrAlreadyRated
		}
	}

	b.Ratings = append(b.Ratings, model.Rating{UserID: raterID, Grade: grade, CreatedAt: time.Now()})
	sum := 0.0
	for _, r := range b.Ratings {
		sum += r.Grade
	}
	b.AverageRating = sum / float64(len(b.Ratings))

	clone := *b
	clone.Ratings = append([]model.Rating(nil), b.Ratings...)
	return &clone, nil
}

func (f *fakeBookRepository) ListImageKeys(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	keys := make([]string, 0, len(f.books))
	for _, b := range f.books {
		keys = append(keys, b.ImageKey)
	}
	return keys, nil
}

// fakeAssetStore records stored blobs by key
type fakeAssetStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	next    int

	putErr    error
	deleteErr error
	deleted   []string
}

func newFakeAssetStore() *fakeAssetStore {
	return &fakeAssetStore{objects: make(map[string][]byte)}
}

func (f *fakeAssetStore) Put(_ context.Context, data []byte, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.putErr != nil {
		return "", f.putErr
	}
	f.next++
	key := fmt.Sprintf("covers/fake-%d.jpg", f.next)
	f.objects[key] = data
	return key, nil
}

func (f *fakeAssetStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeAssetStore) PublicURL(key string) string {
	return "http://assets.local/" + key
}

func (f *fakeAssetStore) ListKeys(_ context.Context, prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *fakeAssetStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

func (f *fakeAssetStore) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok
}

// fakeTransformer passes bytes through with a marker prefix
type fakeTransformer struct {
	validateErr error
}

func (f *fakeTransformer) Validate(data []byte) error {
	if f.validateErr != nil {
		return f.validateErr
	}
	if len(data) == 0 {
		return errors.New("empty image")
	}
	return nil
}

func (f *fakeTransformer) Transform(data []byte) ([]byte, error) {
	return append([]byte("jpeg:"), data...), nil
}

// fakeCache is an in-memory Cache without TTL handling
type fakeCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{items: make(map[string][]byte)}
}

func (f *fakeCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, ok := f.items[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (f *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.items[key] = raw
	return nil
}

func (f *fakeCache) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, k := range keys {
		delete(f.items, k)
	}
	return nil
}

func (f *fakeCache) DeletePattern(_ context.Context, pattern string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	prefix := strings.TrimSuffix(pattern, "*")
	for k := range f.items {
		if strings.HasPrefix(k, prefix) {
			delete(f.items, k)
		}
	}
	return nil
}

func (f *fakeCache) Ping(_ context.Context) error { return nil }
