package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/rocketscienceinc/supertris-backend/internal/apperror"
	"github.com/rocketscienceinc/supertris-backend/internal/entity"
	"github.com/rocketscienceinc/supertris-backend/internal/pkg"
)

const (
	DefaultUserName = "Anonymous"
	maxUserNameLen  = 50

	nameCacheSize = 500
	nameCacheTTL  = 5 * time.Minute
)

type UserService interface {
	CreateAnonymous(ctx context.Context, name string) (*entity.User, error)
	GetUser(ctx context.Context, id string) (*entity.User, error)
	Name(ctx context.Context, id string) string
}

type userRepo interface {
	Save(ctx context.Context, user *entity.User) error
	Find(ctx context.Context, id string) (*entity.User, error)
}

type userService struct {
	logger   *slog.Logger
	userRepo userRepo
	names    *expirable.LRU[string, string]
}

func NewUserService(logger *slog.Logger, userRepo userRepo) UserService {
	return &userService{
		logger:   logger,
		userRepo: userRepo,
		names:    expirable.NewLRU[string, string](nameCacheSize, nil, nameCacheTTL),
	}
}

func (that *userService) CreateAnonymous(ctx context.Context, name string) (*entity.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultUserName
	}

	if runes := []rune(name); len(runes) > maxUserNameLen {
		name = string(runes[:maxUserNameLen])
	}

	user := &entity.User{
		ID:   pkg.GenerateUserID(),
		Name: name,
	}

	if err := that.userRepo.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("could not save user: %w", err)
	}

	that.names.Add(user.ID, user.Name)

	return user, nil
}

func (that *userService) GetUser(ctx context.Context, id string) (*entity.User, error) {
	user, err := that.userRepo.Find(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("could not get user by id: %w", err)
	}

	return user, nil
}

// Name resolves a display name, falling back to entity.UnknownUserName for users it can't find.
func (that *userService) Name(ctx context.Context, id string) string {
	if name, ok := that.names.Get(id); ok {
		return name
	}

	user, err := that.userRepo.Find(ctx, id)
	if err != nil {
		if !errors.Is(err, apperror.ErrUserNotFound) {
			that.logger.With("method", "Name").Error("failed to find user", "userID", id, "error", err)
			return entity.UnknownUserName
		}

		user = &entity.User{ID: id, Name: entity.UnknownUserName}
	}

	that.names.Add(id, user.Name)

	return user.Name
}
