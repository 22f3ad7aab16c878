package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/college-records-api/internal/models"
	appErrors "github.com/noah-isme/college-records-api/pkg/errors"
)

type userRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	CreateIfAbsent(ctx context.Context, user *models.User) (bool, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
}

// UserService owns account creation and is the only place passwords are
// hashed.
type UserService struct {
	repo   userRepository
	cost   int
	logger *zap.Logger
}

func NewUserService(repo userRepository, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, cost: bcrypt.DefaultCost, logger: logger}
}

// HashPassword returns the bcrypt hash of password.
func (s *UserService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	return string(hash), nil
}

// CreateWithPassword inserts user unless the username exists. A blank
// password falls back to the username. On return user holds the stored row.
// Existing accounts are returned without hashing.
func (s *UserService) CreateWithPassword(ctx context.Context, user *models.User, password string) (bool, error) {
	user.Username = strings.TrimSpace(user.Username)
	if user.Username == "" {
		return false, appErrors.Clone(appErrors.ErrValidation, "username is required")
	}
	if !user.Role.Valid() {
		return false, appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}

	existing, err := s.repo.FindByUsername(ctx, user.Username)
	switch {
	case err == nil:
		*user = *existing
		return false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up user")
	}

	if password == "" {
		password = user.Username
	}
	hash, err := s.HashPassword(password)
	if err != nil {
		return false, err
	}
	user.PasswordHash = hash
	user.Active = true
	if user.FullName == "" {
		user.FullName = user.Username
	}

	created, err := s.repo.CreateIfAbsent(ctx, user)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}
	if created {
		s.logger.Debug("user created", zap.String("username", user.Username), zap.String("role", string(user.Role)))
	}
	return created, nil
}

// List returns a page of users.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return users, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}
