package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/college-records-api/internal/models"
	appErrors "github.com/noah-isme/college-records-api/pkg/errors"
)

type courseRepository interface {
	FindByID(ctx context.Context, id int64) (*models.CourseDetail, error)
}

type rosterRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error)
	ListByCourse(ctx context.Context, courseID int64) ([]models.StudentDetail, error)
}

type enrollmentWriter interface {
	CreateIfAbsent(ctx context.Context, studentID string, courseID int64) (bool, error)
	Delete(ctx context.Context, studentID string, courseID int64) (bool, error)
}

// CourseService serves course lookups and the cached enrollment roster.
type CourseService struct {
	courses     courseRepository
	students    rosterRepository
	enrollments enrollmentWriter
	cache       *CacheService
	cacheTTL    time.Duration
	logger      *zap.Logger
}

func NewCourseService(courses courseRepository, students rosterRepository, enrollments enrollmentWriter, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{courses: courses, students: students, enrollments: enrollments, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// Get returns a course or NotFound.
func (s *CourseService) Get(ctx context.Context, id int64) (*models.CourseDetail, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// EnrolledStudents returns the course roster, served from cache when warm.
func (s *CourseService) EnrolledStudents(ctx context.Context, courseID int64) ([]models.StudentDetail, error) {
	key := CourseStudentsKey(courseID)
	var cached []models.StudentDetail
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	students, err := s.students.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrolled students")
	}
	if students == nil {
		students = []models.StudentDetail{}
	}
	s.cache.Set(ctx, key, students, s.cacheTTL)
	return students, nil
}

// Enroll links a student to a course and drops the course's cached data.
func (s *CourseService) Enroll(ctx context.Context, studentID string, courseID int64) (bool, error) {
	created, err := s.enrollments.CreateIfAbsent(ctx, studentID, courseID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll student")
	}
	if created {
		s.cache.Invalidate(ctx, CoursePattern(courseID))
	}
	return created, nil
}

// AddStudent enrolls an existing student in an existing course.
func (s *CourseService) AddStudent(ctx context.Context, courseID int64, studentID string) (bool, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return false, appErrors.Clone(appErrors.ErrValidation, "student_id is required")
	}
	if _, err := s.Get(ctx, courseID); err != nil {
		return false, err
	}
	if _, err := s.students.FindByUserID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return s.Enroll(ctx, studentID, courseID)
}

// RemoveStudent unlinks a student from a course and drops the course's
// cached data.
func (s *CourseService) RemoveStudent(ctx context.Context, courseID int64, studentID string) error {
	removed, err := s.enrollments.Delete(ctx, studentID, courseID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove enrollment")
	}
	if !removed {
		return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
	}
	s.cache.Invalidate(ctx, CoursePattern(courseID))
	s.logger.Info("enrollment removed", zap.Int64("course_id", courseID), zap.String("student_id", studentID))
	return nil
}
