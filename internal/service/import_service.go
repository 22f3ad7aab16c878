package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/college-records-api/internal/models"
	"github.com/noah-isme/college-records-api/pkg/csvio"
	appErrors "github.com/noah-isme/college-records-api/pkg/errors"
)

type importStudentRepository interface {
	FindByRollNo(ctx context.Context, rollNo string) (*models.Student, error)
	CreateIfAbsent(ctx context.Context, s *models.Student) (bool, error)
}

type importCourseRepository interface {
	FindByCode(ctx context.Context, code string) (*models.Course, error)
	CreateIfAbsent(ctx context.Context, c *models.Course) (bool, error)
}

type facultyLookup interface {
	FindByUsername(ctx context.Context, username string) (*models.FacultyDetail, error)
}

type facultyProvisioner interface {
	Provision(ctx context.Context, req models.CreateFacultyRequest) (*models.Faculty, bool, error)
}

type enroller interface {
	Enroll(ctx context.Context, studentID string, courseID int64) (bool, error)
}

// ImportServiceParams groups reconciler dependencies.
type ImportServiceParams struct {
	Users       accountCreator
	Departments departmentResolver
	Students    importStudentRepository
	Courses     importCourseRepository
	FacultyRepo facultyLookup
	Faculty     facultyProvisioner
	Enrollments enroller
	Metrics     *MetricsService
	Logger      *zap.Logger
}

// ImportService reconciles CSV rows into the store with find-or-create
// semantics so the same file can be replayed safely.
type ImportService struct {
	users       accountCreator
	departments departmentResolver
	students    importStudentRepository
	courses     importCourseRepository
	facultyRepo facultyLookup
	faculty     facultyProvisioner
	enrollments enroller
	metrics     *MetricsService
	logger      *zap.Logger
}

func NewImportService(p ImportServiceParams) *ImportService {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{
		users:       p.Users,
		departments: p.Departments,
		students:    p.Students,
		courses:     p.Courses,
		facultyRepo: p.FacultyRepo,
		faculty:     p.Faculty,
		enrollments: p.Enrollments,
		metrics:     p.Metrics,
		logger:      logger,
	}
}

type rowOutcome int

const (
	rowSkipped rowOutcome = iota
	rowCreated
)

func rowErr(format string, args ...interface{}) error {
	return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf(format, args...))
}

func rowNotFound(format string, args ...interface{}) error {
	return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf(format, args...))
}

// ImportReader decodes CSV from r and reconciles it.
func (s *ImportService) ImportReader(ctx context.Context, kind models.ImportKind, r io.Reader) (*models.ImportReport, error) {
	if !kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown import kind "+strconv.Quote(string(kind)))
	}
	rows, err := csvio.Decode(r)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unreadable csv file")
	}
	return s.Import(ctx, kind, rows)
}

// Import applies rows in order. A failing row is reported and never stops
// the batch; only context cancellation does.
func (s *ImportService) Import(ctx context.Context, kind models.ImportKind, rows []csvio.Row) (*models.ImportReport, error) {
	apply, ok := s.applier(kind)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown import kind "+strconv.Quote(string(kind)))
	}

	report := &models.ImportReport{Kind: kind, Errors: []models.ImportRowError{}}
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			s.record(report)
			return report, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "import cancelled")
		}

		report.Processed++
		outcome, err := apply(ctx, row)
		switch {
		case err != nil:
			appErr := appErrors.FromError(err)
			if appErr.Status >= 500 {
				s.logger.Error("import row failed", zap.String("kind", string(kind)), zap.Int("line", row.Line), zap.Error(err))
			}
			report.Errors = append(report.Errors, models.ImportRowError{Line: row.Line, Reason: appErr.Message})
		case outcome == rowCreated:
			report.Created++
		default:
			report.Skipped++
		}
	}

	s.record(report)
	s.logger.Info("import batch reconciled",
		zap.String("kind", string(kind)),
		zap.Int("processed", report.Processed),
		zap.Int("created", report.Created),
		zap.Int("skipped", report.Skipped),
		zap.Int("errors", len(report.Errors)),
	)
	return report, nil
}

func (s *ImportService) record(report *models.ImportReport) {
	kind := string(report.Kind)
	s.metrics.RecordImportRows(kind, "created", report.Created)
	s.metrics.RecordImportRows(kind, "skipped", report.Skipped)
	s.metrics.RecordImportRows(kind, "error", len(report.Errors))
}

func (s *ImportService) applier(kind models.ImportKind) (func(context.Context, csvio.Row) (rowOutcome, error), bool) {
	switch kind {
	case models.ImportUsers:
		return s.applyUser, true
	case models.ImportStudents:
		return s.applyStudent, true
	case models.ImportFaculty:
		return s.applyFaculty, true
	case models.ImportCourses:
		return s.applyCourse, true
	case models.ImportEnrollments:
		return s.applyEnrollment, true
	default:
		return nil, false
	}
}

func created(ok bool) rowOutcome {
	if ok {
		return rowCreated
	}
	return rowSkipped
}

func (s *ImportService) applyUser(ctx context.Context, row csvio.Row) (rowOutcome, error) {
	username := row.Get("username")
	if username == "" {
		return rowSkipped, rowErr("username is required")
	}
	role, ok := models.ParseRole(row.Get("role", "user_type"))
	if !ok {
		return rowSkipped, rowErr("unknown role %q", row.Get("role", "user_type"))
	}

	user := &models.User{
		Username: username,
		Email:    row.Get("email"),
		FullName: strings.TrimSpace(row.Get("first_name") + " " + row.Get("last_name")),
		Role:     role,
		IsStaff:  strings.EqualFold(row.Get("is_staff"), "true"),
	}
	ok, err := s.users.CreateWithPassword(ctx, user, row.Get("password"))
	if err != nil {
		return rowSkipped, err
	}
	return created(ok), nil
}

func (s *ImportService) applyStudent(ctx context.Context, row csvio.Row) (rowOutcome, error) {
	rollNo := row.Get("roll_no")
	if rollNo == "" {
		return rowSkipped, rowErr("roll_no is required")
	}
	semester, err := strconv.Atoi(row.Get("semester"))
	if err != nil {
		return rowSkipped, rowErr("semester %q is not an integer", row.Get("semester"))
	}

	if _, err := s.students.FindByRollNo(ctx, rollNo); err == nil {
		return rowSkipped, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return rowSkipped, err
	}

	dept, err := s.departments.Resolve(ctx, row.Get("department"))
	if err != nil {
		return rowSkipped, err
	}

	username := row.Get("username")
	if username == "" {
		username = rollNo
	}
	name := row.Get("name")
	user := &models.User{Username: username, FullName: name, Role: models.RoleStudent}
	if _, err := s.users.CreateWithPassword(ctx, user, ""); err != nil {
		return rowSkipped, err
	}
	if user.Role != models.RoleStudent {
		return rowSkipped, rowErr("username %q belongs to a %s account", username, user.Role)
	}

	ok, err := s.students.CreateIfAbsent(ctx, &models.Student{
		UserID:       user.ID,
		RollNo:       rollNo,
		Name:         name,
		DepartmentID: dept.ID,
		Semester:     semester,
	})
	if err != nil {
		return rowSkipped, err
	}
	return created(ok), nil
}

func (s *ImportService) applyFaculty(ctx context.Context, row csvio.Row) (rowOutcome, error) {
	username := row.Get("username")
	if username == "" {
		return rowSkipped, rowErr("username is required")
	}
	name := row.Get("name")
	if name == "" {
		name = username
	}
	_, ok, err := s.faculty.Provision(ctx, models.CreateFacultyRequest{
		Username:   username,
		Name:       name,
		Department: row.Get("department"),
		Title:      row.Get("title"),
	})
	if err != nil {
		return rowSkipped, err
	}
	return created(ok), nil
}

func (s *ImportService) applyCourse(ctx context.Context, row csvio.Row) (rowOutcome, error) {
	code := row.Get("course_code")
	if code == "" {
		return rowSkipped, rowErr("course_code is required")
	}

	if _, err := s.courses.FindByCode(ctx, code); err == nil {
		return rowSkipped, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return rowSkipped, err
	}

	dept, err := s.departments.Resolve(ctx, row.Get("department"))
	if err != nil {
		return rowSkipped, err
	}

	course := &models.Course{Name: row.Get("course_name"), Code: code, DepartmentID: dept.ID}
	if username := row.Get("faculty_username"); username != "" {
		f, err := s.facultyRepo.FindByUsername(ctx, username)
		switch {
		case err == nil:
			course.FacultyID = &f.UserID
		case errors.Is(err, sql.ErrNoRows):
			s.logger.Debug("course faculty not found, leaving unassigned", zap.String("course_code", code), zap.String("faculty_username", username))
		default:
			return rowSkipped, err
		}
	}

	ok, err := s.courses.CreateIfAbsent(ctx, course)
	if err != nil {
		return rowSkipped, err
	}
	return created(ok), nil
}

func (s *ImportService) applyEnrollment(ctx context.Context, row csvio.Row) (rowOutcome, error) {
	rollNo, code := row.Get("roll_no"), row.Get("course_code")
	if rollNo == "" || code == "" {
		return rowSkipped, rowErr("roll_no and course_code are required")
	}

	student, err := s.students.FindByRollNo(ctx, rollNo)
	if errors.Is(err, sql.ErrNoRows) {
		return rowSkipped, rowNotFound("student %q not found", rollNo)
	}
	if err != nil {
		return rowSkipped, err
	}

	course, err := s.courses.FindByCode(ctx, code)
	if errors.Is(err, sql.ErrNoRows) {
		return rowSkipped, rowNotFound("course %q not found", code)
	}
	if err != nil {
		return rowSkipped, err
	}

	ok, err := s.enrollments.Enroll(ctx, student.UserID, course.ID)
	if err != nil {
		return rowSkipped, err
	}
	return created(ok), nil
}
