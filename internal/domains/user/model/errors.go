package model

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"grimoire-backend/internal/shared/response"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// HandleUserError writes the HTTP response for an auth error.
// Returns true when err was non-nil and a response has been written.
func HandleUserError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, ErrValidation):
		response.ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", err.Error())
	case errors.Is(err, ErrEmailTaken):
		response.Conflict(c, "Email is already registered")
	case errors.Is(err, ErrInvalidCredentials):
		// Same message for unknown email and wrong password
		response.Unauthorized(c, "Invalid email or password")
	default:
		log.Error().Err(err).Msg("user operation failed")
		response.InternalServerError(c, "Internal server error")
	}
	return true
}
