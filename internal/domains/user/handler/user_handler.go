package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"grimoire-backend/internal/domains/user/model"
	"grimoire-backend/internal/domains/user/service"
	"grimoire-backend/internal/shared/response"
)

type UserHandler struct {
	users service.ServiceInterface
}

func NewUserHandler(users service.ServiceInterface) *UserHandler {
	return &UserHandler{users: users}
}

// Signup handles POST /api/auth/signup
func (h *UserHandler) Signup(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid signup payload")
		return
	}

	user, err := h.users.Register(c.Request.Context(), req)
	if model.HandleUserError(c, err) {
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"message": "User created",
		"userId":  user.ID.String(),
	})
}

// Login handles POST /api/auth/login
func (h *UserHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid login payload")
		return
	}

	resp, err := h.users.Login(c.Request.Context(), req)
	if model.HandleUserError(c, err) {
		return
	}

	response.Success(c, http.StatusOK, resp)
}
