package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/college-records-api/internal/dto"
	"github.com/noah-isme/college-records-api/internal/models"
	appErrors "github.com/noah-isme/college-records-api/pkg/errors"
)

type studentProfileRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error)
}

type studentAttendanceProvider interface {
	StudentCourseAttendance(ctx context.Context, studentID string) (*dto.StudentAttendanceReport, error)
	CourseAttendanceForDate(ctx context.Context, courseID int64, viewDate string) (*dto.CourseDateAttendance, error)
	DateSummary(ctx context.Context, courseID int64) ([]models.AttendanceDateSummary, error)
}

type studentResultProvider interface {
	StudentResults(ctx context.Context, studentID string) ([]models.StudentAssessmentRow, error)
	ResultMap(ctx context.Context, assessmentID int64) (*dto.AssessmentDetail, error)
}

type facultyProfileProvider interface {
	Get(ctx context.Context, userID string) (*models.FacultyDetail, error)
}

type courseProvider interface {
	Get(ctx context.Context, id int64) (*models.CourseDetail, error)
	EnrolledStudents(ctx context.Context, courseID int64) ([]models.StudentDetail, error)
	ListByFaculty(ctx context.Context, facultyID string) ([]models.CourseDetail, error)
}

type assessmentLister interface {
	ListByCourse(ctx context.Context, courseID int64) ([]models.Assessment, error)
}

type counter interface {
	Count(ctx context.Context) (int, error)
}

// AdminCounters are the tables summarised on the admin dashboard.
type AdminCounters struct {
	Users       counter
	Students    counter
	Faculty     counter
	Courses     counter
	Departments counter
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Students    studentProfileRepository
	Attendance  studentAttendanceProvider
	Results     studentResultProvider
	Faculty     facultyProfileProvider
	Courses     courseProvider
	Assessments assessmentLister
	Counters    AdminCounters
	Logger      *zap.Logger
}

// DashboardService composes role landing pages and detail views. The role
// comes from the caller's token, never from which profile rows exist.
type DashboardService struct {
	students    studentProfileRepository
	attendance  studentAttendanceProvider
	results     studentResultProvider
	faculty     facultyProfileProvider
	courses     courseProvider
	assessments assessmentLister
	counters    AdminCounters
	logger      *zap.Logger
}

func NewDashboardService(p DashboardServiceParams) *DashboardService {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		students:    p.Students,
		attendance:  p.Attendance,
		results:     p.Results,
		faculty:     p.Faculty,
		courses:     p.Courses,
		assessments: p.Assessments,
		counters:    p.Counters,
		logger:      logger,
	}
}

// Student builds the student landing page.
func (s *DashboardService) Student(ctx context.Context, userID string) (*dto.StudentDashboard, error) {
	profile, err := s.students.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	out := &dto.StudentDashboard{Profile: *profile}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		report, err := s.attendance.StudentCourseAttendance(gctx, userID)
		if err != nil {
			return err
		}
		out.Courses, out.Overall = report.Courses, report.Overall
		return nil
	})
	g.Go(func() error {
		rows, err := s.results.StudentResults(gctx, userID)
		if err != nil {
			return err
		}
		out.Assessments = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Faculty builds the faculty landing page.
func (s *DashboardService) Faculty(ctx context.Context, userID string) (*dto.FacultyDashboard, error) {
	profile, err := s.faculty.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	courses, err := s.courses.ListByFaculty(ctx, userID)
	if err != nil {
		return nil, err
	}
	if courses == nil {
		courses = []models.CourseDetail{}
	}
	return &dto.FacultyDashboard{Profile: *profile, Courses: courses}, nil
}

// Admin counts the main tables concurrently.
func (s *DashboardService) Admin(ctx context.Context) (*dto.AdminDashboard, error) {
	out := &dto.AdminDashboard{}
	targets := []struct {
		src  counter
		dst  *int
		name string
	}{
		{s.counters.Users, &out.Users, "users"},
		{s.counters.Students, &out.Students, "students"},
		{s.counters.Faculty, &out.Faculty, "faculty"},
		{s.counters.Courses, &out.Courses, "courses"},
		{s.counters.Departments, &out.Departments, "departments"},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range targets {
		t := t
		if t.src == nil {
			continue
		}
		g.Go(func() error {
			n, err := t.src.Count(gctx)
			if err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count "+t.name)
			}
			*t.dst = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// CourseDetail builds the course page for viewDate (blank = today).
func (s *DashboardService) CourseDetail(ctx context.Context, courseID int64, viewDate string) (*dto.CourseDetail, error) {
	course, err := s.courses.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}

	out := &dto.CourseDetail{Course: *course}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		students, err := s.courses.EnrolledStudents(gctx, courseID)
		out.Students = students
		return err
	})
	g.Go(func() error {
		assessments, err := s.assessments.ListByCourse(gctx, courseID)
		out.Assessments = assessments
		return err
	})
	g.Go(func() error {
		attendance, err := s.attendance.CourseAttendanceForDate(gctx, courseID, viewDate)
		if err != nil {
			return err
		}
		out.Attendance = *attendance
		return nil
	})
	g.Go(func() error {
		summary, err := s.attendance.DateSummary(gctx, courseID)
		out.Summary = summary
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// AssessmentDetail returns the assessment with its result map.
func (s *DashboardService) AssessmentDetail(ctx context.Context, assessmentID int64) (*dto.AssessmentDetail, error) {
	return s.results.ResultMap(ctx, assessmentID)
}
