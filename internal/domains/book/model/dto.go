package model

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// RatingPayload mirrors the rating shape some clients send on create.
// A single zero-grade entry is a placeholder and is normalized away.
type RatingPayload struct {
	UserID string  `json:"userId"`
	Grade  float64 `json:"grade"`
}

// CreateBookRequest is the "book" JSON part of the multipart create call.
// Caller-supplied ids or owner fields are not part of the shape and can
// never overwrite identity or ownership.
type CreateBookRequest struct {
	Title         string          `json:"title"`
	Author        string          `json:"author"`
	Genre         string          `json:"genre"`
	Year          string          `json:"year"`
	Ratings       []RatingPayload `json:"ratings,omitempty"`
	AverageRating float64         `json:"averageRating,omitempty"`
}

// TrimFields trims all text fields in place
func (r *CreateBookRequest) TrimFields() {
	r.Title = strings.TrimSpace(r.Title)
	r.Author = strings.TrimSpace(r.Author)
	r.Genre = strings.TrimSpace(r.Genre)
	r.Year = strings.TrimSpace(r.Year)
}

func (r CreateBookRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required.Error("title is required"), validation.Length(1, 255)),
		validation.Field(&r.Author, validation.Required.Error("author is required"), validation.Length(1, 255)),
		validation.Field(&r.Genre, validation.Required.Error("genre is required"), validation.Length(1, 255)),
		validation.Field(&r.Year, validation.Required.Error("year is required"), validation.Length(1, 16)),
	)
}

// UpdateBookRequest replaces the caller-editable field set wholesale.
// The fixed shape is deliberate: no blanket merge of arbitrary keys.
type UpdateBookRequest struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Genre  string `json:"genre"`
	Year   string `json:"year"`
}

func (r *UpdateBookRequest) TrimFields() {
	r.Title = strings.TrimSpace(r.Title)
	r.Author = strings.TrimSpace(r.Author)
	r.Genre = strings.TrimSpace(r.Genre)
	r.Year = strings.TrimSpace(r.Year)
}

func (r UpdateBookRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required.Error("title is required"), validation.Length(1, 255)),
		validation.Field(&r.Author, validation.Required.Error("author is required"), validation.Length(1, 255)),
		validation.Field(&r.Genre, validation.Required.Error("genre is required"), validation.Length(1, 255)),
		validation.Field(&r.Year, validation.Required.Error("year is required"), validation.Length(1, 16)),
	)
}

// RateBookRequest carries one grade
type RateBookRequest struct {
	Rating float64 `json:"rating"`
}

func (r RateBookRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Rating, validation.Min(0.0), validation.Max(5.0)),
	)
}

// RatingResponse is the API shape of a rating
type RatingResponse struct {
	UserID string  `json:"userId"`
	Grade  float64 `json:"grade"`
}

// BookResponse is the API shape of a book. ImageURL is the fully-qualified
// retrieval locator, not the internal object-store key.
type BookResponse struct {
	ID            uuid.UUID        `json:"id"`
	UserID        uuid.UUID        `json:"userId"`
	Title         string           `json:"title"`
	Author        string           `json:"author"`
	Genre         string           `json:"genre"`
	Year          string           `json:"year"`
	ImageURL      string           `json:"imageUrl"`
	Ratings       []RatingResponse `json:"ratings"`
	AverageRating float64          `json:"averageRating"`
}

// BookToResponse maps an entity to its API shape
func BookToResponse(b *Book, imageURL string) *BookResponse {
	ratings := make([]RatingResponse, 0, len(b.Ratings))
	for _, r := range b.Ratings {
		ratings = append(ratings, RatingResponse{
			UserID: r.UserID.String(),
			Grade:  r.Grade,
		})
	}

	return &BookResponse{
		ID:            b.ID,
		UserID:        b.UserID,
		Title:         b.Title,
		Author:        b.Author,
		Genre:         b.Genre,
		Year:          b.Year,
		ImageURL:      imageURL,
		Ratings:       ratings,
		AverageRating: b.AverageRating,
	}
}

// Cache keys
func GenerateBookCacheKey(id string) string {
	return fmt.Sprintf("books:detail:%s", id)
}

const (
	BooksListCacheKey = "books:list"
	BooksTopCacheKey  = "books:top"
)
