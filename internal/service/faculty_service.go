package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/college-records-api/internal/models"
	appErrors "github.com/noah-isme/college-records-api/pkg/errors"
)

type facultyRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.FacultyDetail, error)
	CreateWithStaff(ctx context.Context, f *models.Faculty) (bool, error)
}

type accountCreator interface {
	CreateWithPassword(ctx context.Context, user *models.User, password string) (bool, error)
}

type departmentResolver interface {
	Resolve(ctx context.Context, name string) (*models.Department, error)
}

// FacultyService provisions faculty accounts and profiles.
type FacultyService struct {
	repo        facultyRepository
	users       accountCreator
	departments departmentResolver
	validator   *validator.Validate
	logger      *zap.Logger
}

func NewFacultyService(repo facultyRepository, users accountCreator, departments departmentResolver, validate *validator.Validate, logger *zap.Logger) *FacultyService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FacultyService{repo: repo, users: users, departments: departments, validator: validate, logger: logger}
}

// Get returns a faculty profile or NotFound.
func (s *FacultyService) Get(ctx context.Context, userID string) (*models.FacultyDetail, error) {
	f, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "faculty profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty")
	}
	return f, nil
}

// Provision resolves or creates the account, the department and the
// faculty profile. It reports whether the profile was newly created.
func (s *FacultyService) Provision(ctx context.Context, req models.CreateFacultyRequest) (*models.Faculty, bool, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid faculty payload")
	}

	user := &models.User{Username: req.Username, Email: req.Email, FullName: req.Name, Role: models.RoleFaculty}
	if _, err := s.users.CreateWithPassword(ctx, user, req.Password); err != nil {
		return nil, false, err
	}
	if user.Role != models.RoleFaculty {
		return nil, false, appErrors.Clone(appErrors.ErrConflict, "username belongs to a "+string(user.Role)+" account")
	}

	dept, err := s.departments.Resolve(ctx, req.Department)
	if err != nil {
		return nil, false, err
	}

	faculty := &models.Faculty{UserID: user.ID, Name: req.Name, DepartmentID: dept.ID, Title: models.ParseTitle(req.Title)}
	created, err := s.repo.CreateWithStaff(ctx, faculty)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create faculty")
	}
	if created {
		s.logger.Info("faculty provisioned", zap.String("username", user.Username), zap.String("title", string(faculty.Title)))
	}
	return faculty, created, nil
}
