package service

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/college-records-api/internal/dto"
	"github.com/noah-isme/college-records-api/internal/models"
	appErrors "github.com/noah-isme/college-records-api/pkg/errors"
)

// marks fit numeric(5,2)
var marksPattern = regexp.MustCompile(`^[+-]?(\d{1,3}(\.\d{0,2})?|\.\d{1,2})$`)

type resultRepository interface {
	BulkUpsert(ctx context.Context, assessmentID int64, marks []models.ResultMark) error
	Sheet(ctx context.Context, assessmentID int64) ([]models.ResultSheetRow, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.StudentAssessmentRow, error)
}

type assessmentGetter interface {
	Get(ctx context.Context, id int64) (*models.Assessment, error)
}

type enrolledLister interface {
	EnrolledStudents(ctx context.Context, courseID int64) ([]models.StudentDetail, error)
}

// ResultService records assessment marks and builds result maps.
type ResultService struct {
	repo        resultRepository
	assessments assessmentGetter
	roster      enrolledLister
	metrics     *MetricsService
	logger      *zap.Logger
}

func NewResultService(repo resultRepository, assessments assessmentGetter, roster enrolledLister, metrics *MetricsService, logger *zap.Logger) *ResultService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultService{repo: repo, assessments: assessments, roster: roster, metrics: metrics, logger: logger}
}

// ParseMarks parses a decimal with at most two fractional digits and an
// absolute value below 1000.
func ParseMarks(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if !marksPattern.MatchString(raw) {
		return 0, appErrors.Clone(appErrors.ErrValidation, "marks must be a number with at most 3 integer and 2 decimal digits")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "marks must be a number")
	}
	return math.Round(v*100) / 100, nil
}

// EnterResults upserts the non-blank marks for an assessment in one
// transaction. Blank entries leave any stored result untouched. Marks are
// not checked against the assessment's full marks. The batch is rejected
// as a whole if any entry is malformed or names a student who is not
// enrolled in the assessment's course.
func (s *ResultService) EnterResults(ctx context.Context, assessmentID int64, req models.EnterResultsRequest) (*models.EnterResultsResult, error) {
	assessment, err := s.assessments.Get(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	roster, err := s.roster.EnrolledStudents(ctx, assessment.CourseID)
	if err != nil {
		return nil, err
	}
	enrolled := make(map[string]struct{}, len(roster))
	for _, st := range roster {
		enrolled[st.UserID] = struct{}{}
	}

	studentIDs := make([]string, 0, len(req.Marks))
	for id := range req.Marks {
		studentIDs = append(studentIDs, id)
	}
	sort.Strings(studentIDs)

	result := &models.EnterResultsResult{AssessmentID: assessmentID}
	marks := make([]models.ResultMark, 0, len(studentIDs))
	problems := map[string]string{}
	for _, id := range studentIDs {
		raw := strings.TrimSpace(req.Marks[id])
		if raw == "" {
			result.Skipped++
			continue
		}
		if _, ok := enrolled[id]; !ok {
			problems[id] = "student is not enrolled in this course"
			continue
		}
		value, err := ParseMarks(raw)
		if err != nil {
			problems[id] = appErrors.FromError(err).Message
			continue
		}
		marks = append(marks, models.ResultMark{StudentID: id, Marks: value})
	}
	if len(problems) > 0 {
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "invalid result entries"), problems)
	}

	if err := s.repo.BulkUpsert(ctx, assessmentID, marks); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save results")
	}
	result.Saved = len(marks)
	s.metrics.RecordResultsSaved(result.Saved)
	s.logger.Debug("results entered", zap.Int64("assessment_id", assessmentID), zap.Int("saved", result.Saved), zap.Int("skipped", result.Skipped))
	return result, nil
}

// ResultMap returns the assessment with every enrolled student's mark; a
// nil mark means no result has been entered.
func (s *ResultService) ResultMap(ctx context.Context, assessmentID int64) (*dto.AssessmentDetail, error) {
	assessment, err := s.assessments.Get(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	sheet, err := s.repo.Sheet(ctx, assessmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load results")
	}
	if sheet == nil {
		sheet = []models.ResultSheetRow{}
	}
	return &dto.AssessmentDetail{Assessment: *assessment, Results: sheet}, nil
}

// StudentResults lists assessments of the student's courses with their marks.
func (s *ResultService) StudentResults(ctx context.Context, studentID string) ([]models.StudentAssessmentRow, error) {
	rows, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load results")
	}
	if rows == nil {
		rows = []models.StudentAssessmentRow{}
	}
	return rows, nil
}
