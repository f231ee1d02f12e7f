package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimoire-backend/internal/domains/user/model"
	"grimoire-backend/pkg/jwt"
)

type fakeUserRepository struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newFakeUserRepository() *fakeUserRepository {
	return &fakeUserRepository{users: make(map[string]*model.User)}
}

func (f *fakeUserRepository) Create(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.users[user.Email]; ok {
		return model.ErrEmailTaken
	}
	clone := *user
	f.users[user.Email] = &clone
	return nil
}

func (f *fakeUserRepository) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[email]
	if !ok {
		return nil, model.ErrInvalidCredentials
	}
	clone := *u
	return &clone, nil
}

func newTestUserService() ServiceInterface {
	return NewUserService(newFakeUserRepository(), jwt.NewManager("test-secret", 60))
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestUserService()

	user, err := svc.Register(context.Background(), model.RegisterRequest{
		Email:    "reader@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", user.Email)
	assert.NotEqual(t, "correct horse", user.PasswordHash)

	resp, err := svc.Login(context.Background(), model.LoginRequest{
		Email:    "reader@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), resp.UserID)
	assert.NotEmpty(t, resp.Token)
}

func TestRegister_EmailNormalized(t *testing.T) {
	svc := newTestUserService()

	user, err := svc.Register(context.Background(), model.RegisterRequest{
		Email:    "  Reader@Example.COM ",
		Password: "correct horse",
	})
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", user.Email)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := newTestUserService()

	req := model.RegisterRequest{Email: "reader@example.com", Password: "correct horse"}
	_, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, model.ErrEmailTaken)
}

func TestRegister_Validation(t *testing.T) {
	svc := newTestUserService()

	cases := []model.RegisterRequest{
		{Email: "", Password: "correct horse"},
		{Email: "not-an-email", Password: "correct horse"},
		{Email: "reader@example.com", Password: "short"},
	}
	for _, req := range cases {
		_, err := svc.Register(context.Background(), req)
		assert.ErrorIs(t, err, model.ErrValidation)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := newTestUserService()

	_, err := svc.Register(context.Background(), model.RegisterRequest{
		Email:    "reader@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), model.LoginRequest{
		Email:    "reader@example.com",
		Password: "wrong horse",
	})
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc := newTestUserService()

	_, err := svc.Login(context.Background(), model.LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
}
