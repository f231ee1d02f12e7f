package repository

import (
	"context"

	"grimoire-backend/internal/domains/user/model"
)

type RepositoryInterface interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}
