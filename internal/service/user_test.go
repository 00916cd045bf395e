package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/supertris-backend/internal/apperror"
	"github.com/rocketscienceinc/supertris-backend/internal/entity"
)

type mockUserRepo struct {
	mock.Mock
}

func (that *mockUserRepo) Save(ctx context.Context, user *entity.User) error {
	args := that.Called(ctx, user)
	return args.Error(0)
}

func (that *mockUserRepo) Find(ctx context.Context, id string) (*entity.User, error) {
	args := that.Called(ctx, id)

	user, _ := args.Get(0).(*entity.User)

	return user, args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestUserService_CreateAnonymous(t *testing.T) {
	t.Run("Default name", func(t *testing.T) {
		ctx := context.Background()
		repo := &mockUserRepo{}
		repo.On("Save", ctx, mock.AnythingOfType("*entity.User")).Return(nil)

		userService := NewUserService(discardLogger(), repo)

		// When: a user is created without a name
		user, err := userService.CreateAnonymous(ctx, "   ")

		// Then: it gets the default name and a fresh id
		require.NoError(t, err)
		assert.Equal(t, DefaultUserName, user.Name)
		assert.NotEmpty(t, user.ID)
		repo.AssertExpectations(t)
	})

	t.Run("Long names are cut", func(t *testing.T) {
		ctx := context.Background()
		repo := &mockUserRepo{}
		repo.On("Save", ctx, mock.Anything).Return(nil)

		user, err := NewUserService(discardLogger(), repo).CreateAnonymous(ctx, strings.Repeat("ж", 80))

		require.NoError(t, err)
		assert.Len(t, []rune(user.Name), maxUserNameLen)
	})

	t.Run("Storage failure", func(t *testing.T) {
		ctx := context.Background()
		repo := &mockUserRepo{}
		repo.On("Save", ctx, mock.Anything).Return(errors.New("disk full"))

		_, err := NewUserService(discardLogger(), repo).CreateAnonymous(ctx, "Alice")

		require.Error(t, err)
	})
}

func TestUserService_Name(t *testing.T) {
	t.Run("Names are cached", func(t *testing.T) {
		ctx := context.Background()
		repo := &mockUserRepo{}
		repo.On("Find", ctx, "u-1").Return(&entity.User{ID: "u-1", Name: "Alice"}, nil).Once()

		userService := NewUserService(discardLogger(), repo)

		// When: the same name is resolved twice
		first := userService.Name(ctx, "u-1")
		second := userService.Name(ctx, "u-1")

		// Then: storage is hit once
		assert.Equal(t, "Alice", first)
		assert.Equal(t, "Alice", second)
		repo.AssertNumberOfCalls(t, "Find", 1)
	})

	t.Run("Unknown user", func(t *testing.T) {
		ctx := context.Background()
		repo := &mockUserRepo{}
		repo.On("Find", ctx, "ghost").Return(nil, apperror.ErrUserNotFound)

		assert.Equal(t, entity.UnknownUserName, NewUserService(discardLogger(), repo).Name(ctx, "ghost"))
	})

	t.Run("Created users are resolved without a lookup", func(t *testing.T) {
		ctx := context.Background()
		repo := &mockUserRepo{}
		repo.On("Save", ctx, mock.Anything).Return(nil)

		userService := NewUserService(discardLogger(), repo)

		user, err := userService.CreateAnonymous(ctx, "Bob")
		require.NoError(t, err)

		assert.Equal(t, "Bob", userService.Name(ctx, user.ID))
		repo.AssertNotCalled(t, "Find", mock.Anything, mock.Anything)
	})
}
