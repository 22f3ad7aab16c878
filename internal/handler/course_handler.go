package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/college-records-api/internal/dto"
	"github.com/noah-isme/college-records-api/internal/models"
	appErrors "github.com/noah-isme/college-records-api/pkg/errors"
	"github.com/noah-isme/college-records-api/pkg/response"
)

type attendanceService interface {
	MarkAttendance(ctx context.Context, courseID int64, req models.MarkAttendanceRequest) (*models.MarkAttendanceResult, error)
	DateSummary(ctx context.Context, courseID int64) ([]models.AttendanceDateSummary, error)
	StudentCourseAttendance(ctx context.Context, studentID string) (*dto.StudentAttendanceReport, error)
}

type assessmentService interface {
	Create(ctx context.Context, courseID int64, req models.CreateAssessmentRequest) (*models.Assessment, error)
}

type courseService interface {
	Get(ctx context.Context, id int64) (*models.CourseDetail, error)
	AddStudent(ctx context.Context, courseID int64, studentID string) (bool, error)
	RemoveStudent(ctx context.Context, courseID int64, studentID string) error
}

// CourseHandler serves course-scoped writes and the attendance summary.
type CourseHandler struct {
	courses     courseService
	attendance  attendanceService
	assessments assessmentService
}

func NewCourseHandler(courses courseService, attendance attendanceService, assessments assessmentService) *CourseHandler {
	return &CourseHandler{courses: courses, attendance: attendance, assessments: assessments}
}

// MarkAttendance godoc
// @Summary Mark attendance
// @Description Record a full snapshot for one date: every enrolled student is present iff listed in present_ids
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param payload body models.MarkAttendanceRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/attendance [post]
func (h *CourseHandler) MarkAttendance(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attendance payload"))
		return
	}
	res, err := h.attendance.MarkAttendance(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// AttendanceSummary godoc
// @Summary Attendance summary by date
// @Tags Courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/attendance/summary [get]
func (h *CourseHandler) AttendanceSummary(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if _, err := h.courses.Get(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	summary, err := h.attendance.DateSummary(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, summary)
}

// CreateAssessment godoc
// @Summary Create assessment
// @Tags Assessments
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param payload body models.CreateAssessmentRequest true "Assessment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/assessments [post]
func (h *CourseHandler) CreateAssessment(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.CreateAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assessment payload"))
		return
	}
	a, err := h.assessments.Create(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, a)
}

// EnrollStudent godoc
// @Summary Enroll student
// @Description Link an existing student to a course; repeating the call is a no-op
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param payload body models.EnrollStudentRequest true "Student"
// @Success 201 {object} response.Envelope
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/enrollments [post]
func (h *CourseHandler) EnrollStudent(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.EnrollStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid enrollment payload"))
		return
	}
	created, err := h.courses.AddStudent(c.Request.Context(), id, req.StudentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	res := models.EnrollStudentResult{CourseID: id, StudentID: req.StudentID, Created: created}
	if created {
		response.Created(c, res)
		return
	}
	response.OK(c, res)
}

// UnenrollStudent godoc
// @Summary Unenroll student
// @Tags Courses
// @Param id path int true "Course ID"
// @Param student_id path string true "Student user ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/enrollments/{student_id} [delete]
func (h *CourseHandler) UnenrollStudent(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.courses.RemoveStudent(c.Request.Context(), id, c.Param("student_id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// StudentAttendance godoc
// @Summary Student attendance
// @Description Per-course percentages and the overall mean for a student
// @Tags Students
// @Produce json
// @Param id path string true "Student user ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /students/{id}/attendance [get]
func (h *CourseHandler) StudentAttendance(c *gin.Context) {
	report, err := h.attendance.StudentCourseAttendance(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, report)
}
