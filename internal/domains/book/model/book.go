package model

import (
	"time"

	"github.com/google/uuid"
)

// Rating is one user's grade for a book. Ratings are append-only:
// a user rates a book at most once and never edits the grade.
type Rating struct {
	UserID    uuid.UUID `json:"userId"`
	Grade     float64   `json:"grade"`
	CreatedAt time.Time `json:"-"`
}

// Book entity. UserID is the owner (the identity that created the record)
// and is immutable after creation. ImageKey is the opaque object-store key
// of the cover; it always resolves to a stored asset while the book exists.
// AverageRating is derived: mean of all grades, 0 when there are none.
type Book struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Title         string
	Author        string
	Genre         string
	Year          string
	ImageKey      string
	Ratings       []Rating
	AverageRating float64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
