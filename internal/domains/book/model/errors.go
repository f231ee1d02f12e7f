package model

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"grimoire-backend/internal/shared/response"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrBookNotFound      = errors.New("book not found")
	ErrBookAlreadyExists = errors.New("a book with this title and author already exists")
	ErrNoBooks           = errors.New("no books found")
	ErrForbidden         = errors.New("not allowed to modify this book")
	ErrAlreadyRated      = errors.New("you have already rated this book")
	ErrInvalidGrade      = errors.New("grade must be between 0 and 5")
	ErrMissingImage      = errors.New("cover image is required")
)

type httpError struct {
	Status  int
	Code    string
	Message string
}

var bookErrorMap = []struct {
	Err  error
	HTTP httpError
}{
	{ErrBookNotFound, httpError{http.StatusNotFound, "NOT_FOUND", "The specified book does not exist"}},
	{ErrNoBooks, httpError{http.StatusNotFound, "NOT_FOUND", "No books found"}},
	{ErrBookAlreadyExists, httpError{http.StatusConflict, "CONFLICT", "A book with this title and author already exists"}},
	{ErrForbidden, httpError{http.StatusForbidden, "FORBIDDEN", "You are not allowed to modify this book"}},
	{ErrAlreadyRated, httpError{http.StatusForbidden, "FORBIDDEN", "You have already rated this book"}},
	{ErrInvalidGrade, httpError{http.StatusBadRequest, "BAD_REQUEST", "Grade must be between 0 and 5"}},
	{ErrMissingImage, httpError{http.StatusBadRequest, "BAD_REQUEST", "Cover image is required"}},
}

// HandleBookError writes the HTTP response for a service error.
// Returns true when err was non-nil and a response has been written.
func HandleBookError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrValidation) {
		response.ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return true
	}

	for _, entry := range bookErrorMap {
		if errors.Is(err, entry.Err) {
			response.ErrorResponse(c, entry.HTTP.Status, entry.HTTP.Code, entry.HTTP.Message)
			return true
		}
	}

	// Collaborator failures (storage, transform, database) surface as a
	// generic failure, never silently swallowed.
	log.Error().Err(err).Msg("book operation failed")
	response.InternalServerError(c, "Internal server error")
	return true
}
