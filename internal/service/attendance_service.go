package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/college-records-api/internal/dto"
	"github.com/noah-isme/college-records-api/internal/models"
	appErrors "github.com/noah-isme/college-records-api/pkg/errors"
)

type attendanceRepository interface {
	BulkUpsert(ctx context.Context, courseID int64, date time.Time, marks []models.AttendanceMark) error
	CountForStudentCourse(ctx context.Context, studentID string, courseID int64) (int, int, error)
	StudentCourseCounts(ctx context.Context, studentID string) ([]models.AttendanceCount, error)
	DateSummary(ctx context.Context, courseID int64) ([]models.AttendanceDateSummary, error)
	ListByCourseDate(ctx context.Context, courseID int64, date time.Time) ([]models.StudentAttendanceStatus, error)
}

type courseRoster interface {
	Get(ctx context.Context, id int64) (*models.CourseDetail, error)
	EnrolledStudents(ctx context.Context, courseID int64) ([]models.StudentDetail, error)
}

// AttendanceService computes attendance percentages and summaries and
// records per-date attendance snapshots.
type AttendanceService struct {
	repo     attendanceRepository
	courses  courseRoster
	cache    *CacheService
	metrics  *MetricsService
	cacheTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

func NewAttendanceService(repo attendanceRepository, courses courseRoster, cache *CacheService, metrics *MetricsService, cacheTTL time.Duration, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, courses: courses, cache: cache, metrics: metrics, cacheTTL: cacheTTL, logger: logger, now: time.Now}
}

// Percentage returns present/total as a percentage, 0 when total is 0.
func Percentage(present, total int) float64 {
	if total <= 0 || present <= 0 {
		return 0
	}
	if present >= total {
		return 100
	}
	return float64(present) / float64(total) * 100
}

// ParseViewDate parses YYYY-MM-DD; blank input means today in UTC.
func ParseViewDate(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		y, m, d := now.UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	date, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "date must be formatted as YYYY-MM-DD")
	}
	return date, nil
}

// CoursePercentage is the student's attendance percentage in one course.
func (s *AttendanceService) CoursePercentage(ctx context.Context, studentID string, courseID int64) (float64, error) {
	total, present, err := s.repo.CountForStudentCourse(ctx, studentID, courseID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count attendance")
	}
	return Percentage(present, total), nil
}

// StudentCourseAttendance lists every enrolled course with its percentage
// and the overall figure, which is the unweighted mean of the per-course
// percentages.
func (s *AttendanceService) StudentCourseAttendance(ctx context.Context, studentID string) (*dto.StudentAttendanceReport, error) {
	counts, err := s.repo.StudentCourseCounts(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}

	report := &dto.StudentAttendanceReport{StudentID: studentID, Courses: make([]dto.CourseAttendance, 0, len(counts))}
	var sum float64
	for _, c := range counts {
		pct := Percentage(c.Present, c.Total)
		sum += pct
		report.Courses = append(report.Courses, dto.CourseAttendance{
			CourseID:   c.CourseID,
			CourseCode: c.CourseCode,
			CourseName: c.CourseName,
			Total:      c.Total,
			Present:    c.Present,
			Percentage: pct,
		})
	}
	if len(counts) > 0 {
		report.Overall = sum / float64(len(counts))
	}
	return report, nil
}

// OverallPercentage is the mean of per-course percentages over enrolled
// courses, 0 with no enrollments.
func (s *AttendanceService) OverallPercentage(ctx context.Context, studentID string) (float64, error) {
	report, err := s.StudentCourseAttendance(ctx, studentID)
	if err != nil {
		return 0, err
	}
	return report.Overall, nil
}

// DateSummary groups the course's attendance by date, newest first.
func (s *AttendanceService) DateSummary(ctx context.Context, courseID int64) ([]models.AttendanceDateSummary, error) {
	key := CourseSummaryKey(courseID)
	var cached []models.AttendanceDateSummary
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	summary, err := s.repo.DateSummary(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to summarise attendance")
	}
	if summary == nil {
		summary = []models.AttendanceDateSummary{}
	}
	s.cache.Set(ctx, key, summary, s.cacheTTL)
	return summary, nil
}

// CourseAttendanceForDate returns every enrolled student's mark on the
// given date (blank = today).
func (s *AttendanceService) CourseAttendanceForDate(ctx context.Context, courseID int64, viewDate string) (*dto.CourseDateAttendance, error) {
	date, err := ParseViewDate(viewDate, s.now())
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByCourseDate(ctx, courseID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	if rows == nil {
		rows = []models.StudentAttendanceStatus{}
	}
	return &dto.CourseDateAttendance{Date: date.Format(models.DateLayout), Students: rows}, nil
}

// MarkAttendance records a closed-world snapshot for one course date: every
// currently enrolled student gets a row, present iff listed. Listed ids
// that are not enrolled are ignored.
func (s *AttendanceService) MarkAttendance(ctx context.Context, courseID int64, req models.MarkAttendanceRequest) (*models.MarkAttendanceResult, error) {
	date, err := ParseViewDate(req.Date, s.now())
	if err != nil {
		return nil, err
	}
	if _, err := s.courses.Get(ctx, courseID); err != nil {
		return nil, err
	}
	roster, err := s.courses.EnrolledStudents(ctx, courseID)
	if err != nil {
		return nil, err
	}

	present := make(map[string]struct{}, len(req.PresentIDs))
	for _, id := range req.PresentIDs {
		present[strings.TrimSpace(id)] = struct{}{}
	}

	marks := make([]models.AttendanceMark, 0, len(roster))
	presentCount := 0
	for _, student := range roster {
		_, ok := present[student.UserID]
		if ok {
			presentCount++
		}
		marks = append(marks, models.AttendanceMark{StudentID: student.UserID, Present: ok})
	}
	if ignored := len(present) - presentCount; ignored > 0 {
		s.logger.Debug("ignoring non-enrolled students in attendance submission", zap.Int64("course_id", courseID), zap.Int("ignored", ignored))
	}

	if err := s.repo.BulkUpsert(ctx, courseID, date, marks); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save attendance")
	}
	s.cache.Invalidate(ctx, CourseAttendancePattern(courseID))
	s.metrics.RecordAttendanceMarked(len(marks))

	return &models.MarkAttendanceResult{
		CourseID: courseID,
		Date:     date.Format(models.DateLayout),
		Marked:   len(marks),
		Present:  presentCount,
	}, nil
}
