package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/college-records-api/internal/models"
	appErrors "github.com/noah-isme/college-records-api/pkg/errors"
)

type assessmentRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Assessment, error)
	Create(ctx context.Context, a *models.Assessment) error
	ListByCourse(ctx context.Context, courseID int64) ([]models.Assessment, error)
}

type courseGetter interface {
	Get(ctx context.Context, id int64) (*models.CourseDetail, error)
}

// AssessmentService manages a course's assessments.
type AssessmentService struct {
	repo      assessmentRepository
	courses   courseGetter
	validator *validator.Validate
}

func NewAssessmentService(repo assessmentRepository, courses courseGetter, validate *validator.Validate) *AssessmentService {
	if validate == nil {
		validate = validator.New()
	}
	return &AssessmentService{repo: repo, courses: courses, validator: validate}
}

// Create adds an assessment to a course. A blank type means assignment.
func (s *AssessmentService) Create(ctx context.Context, courseID int64, req models.CreateAssessmentRequest) (*models.Assessment, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.FullMarks = math.Round(req.FullMarks*100) / 100
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assessment payload")
	}
	typ, ok := models.ParseAssessmentType(req.Type)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown assessment type")
	}
	if _, err := s.courses.Get(ctx, courseID); err != nil {
		return nil, err
	}

	a := &models.Assessment{
		Name:      req.Name,
		FullMarks: req.FullMarks,
		Type:      typ,
		CourseID:  courseID,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assessment")
	}
	return a, nil
}

// Get returns an assessment or NotFound.
func (s *AssessmentService) Get(ctx context.Context, id int64) (*models.Assessment, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assessment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment")
	}
	return a, nil
}

func (s *AssessmentService) ListByCourse(ctx context.Context, courseID int64) ([]models.Assessment, error) {
	out, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assessments")
	}
	if out == nil {
		out = []models.Assessment{}
	}
	return out, nil
}
