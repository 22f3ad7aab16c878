package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/college-records-api/internal/dto"
	"github.com/noah-isme/college-records-api/internal/middleware"
	"github.com/noah-isme/college-records-api/internal/models"
	"github.com/noah-isme/college-records-api/internal/service"
	appErrors "github.com/noah-isme/college-records-api/pkg/errors"
)

type responseEnvelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var env responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func newContext(method, target string, body io.Reader) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, target, body)
	if body != nil {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	return c, rec
}

type fakeAuthSrv struct {
	lastReq models.LoginRequest
	err     error
}

func (f *fakeAuthSrv) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.LoginResponse{AccessToken: "tok", Redirect: "/dashboard/faculty"}, nil
}

func (f *fakeAuthSrv) ChangePassword(ctx context.Context, userID string, req models.ChangePasswordRequest) error {
	return f.err
}

func TestAuthHandlerLogin(t *testing.T) {
	srv := &fakeAuthSrv{}
	h := NewAuthHandler(srv)

	c, rec := newContext(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"prof.rao","password":"pw"}`))
	c.Request.Header.Set("User-Agent", "tests")
	h.Login(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "prof.rao", srv.lastReq.Username)
	assert.Equal(t, "tests", srv.lastReq.UserAgent)
	assert.Contains(t, string(decode(t, rec).Data), `"redirect":"/dashboard/faculty"`)

	c, rec = newContext(http.MethodPost, "/auth/login", strings.NewReader(`{bad json`))
	h.Login(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	srv.err = appErrors.ErrInvalidCredentials
	c, rec = newContext(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"x","password":"y"}`))
	h.Login(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", decode(t, rec).Error.Code)
}

func TestAuthHandlerChangePasswordRequiresClaims(t *testing.T) {
	h := NewAuthHandler(&fakeAuthSrv{})

	c, rec := newContext(http.MethodPost, "/auth/password", strings.NewReader(`{}`))
	h.ChangePassword(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	c, rec = newContext(http.MethodPost, "/auth/password", strings.NewReader(`{"old_password":"a","new_password":"bbbbbb"}`))
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleStudent})
	h.ChangePassword(c)
	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
}

type fakeDashboardSrv struct {
	lastCourse int64
	lastDate   string
	err        error
}

func (f *fakeDashboardSrv) Student(ctx context.Context, userID string) (*dto.StudentDashboard, error) {
	return &dto.StudentDashboard{Overall: 75}, f.err
}

func (f *fakeDashboardSrv) Faculty(ctx context.Context, userID string) (*dto.FacultyDashboard, error) {
	return &dto.FacultyDashboard{}, f.err
}

func (f *fakeDashboardSrv) Admin(ctx context.Context) (*dto.AdminDashboard, error) {
	return &dto.AdminDashboard{Users: 3}, f.err
}

func (f *fakeDashboardSrv) CourseDetail(ctx context.Context, courseID int64, viewDate string) (*dto.CourseDetail, error) {
	f.lastCourse, f.lastDate = courseID, viewDate
	return &dto.CourseDetail{}, f.err
}

func (f *fakeDashboardSrv) AssessmentDetail(ctx context.Context, assessmentID int64) (*dto.AssessmentDetail, error) {
	return &dto.AssessmentDetail{}, f.err
}

func TestDashboardHandlerCourse(t *testing.T) {
	srv := &fakeDashboardSrv{}
	h := NewDashboardHandler(srv)

	c, rec := newContext(http.MethodGet, "/courses/abc", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	h.Course(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = newContext(http.MethodGet, "/courses/12?date=2024-03-01", nil)
	c.Params = gin.Params{{Key: "id", Value: "12"}}
	h.Course(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(12), srv.lastCourse)
	assert.Equal(t, "2024-03-01", srv.lastDate)
}

func TestDashboardHandlerStudent(t *testing.T) {
	h := NewDashboardHandler(&fakeDashboardSrv{})

	c, rec := newContext(http.MethodGet, "/dashboard/student", nil)
	h.Student(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	c, rec = newContext(http.MethodGet, "/dashboard/student", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "s1", Role: models.RoleStudent})
	h.Student(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(decode(t, rec).Data), `"overall":75`)
}

type fakeAttendanceSrv struct {
	req models.MarkAttendanceRequest
}

func (f *fakeAttendanceSrv) MarkAttendance(ctx context.Context, courseID int64, req models.MarkAttendanceRequest) (*models.MarkAttendanceResult, error) {
	f.req = req
	return &models.MarkAttendanceResult{CourseID: courseID, Marked: 3, Present: len(req.PresentIDs)}, nil
}

func (f *fakeAttendanceSrv) DateSummary(ctx context.Context, courseID int64) ([]models.AttendanceDateSummary, error) {
	return []models.AttendanceDateSummary{}, nil
}

func (f *fakeAttendanceSrv) StudentCourseAttendance(ctx context.Context, studentID string) (*dto.StudentAttendanceReport, error) {
	return &dto.StudentAttendanceReport{StudentID: studentID}, nil
}

type fakeCourseSrv struct {
	enrolled map[string]bool
}

func (f *fakeCourseSrv) Get(ctx context.Context, id int64) (*models.CourseDetail, error) {
	if id != 5 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	return &models.CourseDetail{Course: models.Course{ID: 5}}, nil
}

func (f *fakeCourseSrv) AddStudent(ctx context.Context, courseID int64, studentID string) (bool, error) {
	if _, err := f.Get(ctx, courseID); err != nil {
		return false, err
	}
	if f.enrolled[studentID] {
		return false, nil
	}
	f.enrolled[studentID] = true
	return true, nil
}

func (f *fakeCourseSrv) RemoveStudent(ctx context.Context, courseID int64, studentID string) error {
	if !f.enrolled[studentID] {
		return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
	}
	delete(f.enrolled, studentID)
	return nil
}

type fakeAssessmentSrv struct{}

func (fakeAssessmentSrv) Create(ctx context.Context, courseID int64, req models.CreateAssessmentRequest) (*models.Assessment, error) {
	return &models.Assessment{ID: 1, CourseID: courseID, Name: req.Name}, nil
}

func TestCourseHandlerMarkAttendance(t *testing.T) {
	attendance := &fakeAttendanceSrv{}
	h := NewCourseHandler(&fakeCourseSrv{enrolled: map[string]bool{}}, attendance, fakeAssessmentSrv{})

	c, rec := newContext(http.MethodPost, "/courses/5/attendance", strings.NewReader(`{"date":"2024-02-01","present_ids":["a","b"]}`))
	c.Params = gin.Params{{Key: "id", Value: "5"}}
	h.MarkAttendance(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"a", "b"}, attendance.req.PresentIDs)
	assert.Contains(t, string(decode(t, rec).Data), `"present":2`)

	c, rec = newContext(http.MethodGet, "/courses/9/attendance/summary", nil)
	c.Params = gin.Params{{Key: "id", Value: "9"}}
	h.AttendanceSummary(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	c, rec = newContext(http.MethodPost, "/courses/5/assessments", strings.NewReader(`{"name":"Quiz","full_marks":10}`))
	c.Params = gin.Params{{Key: "id", Value: "5"}}
	h.CreateAssessment(c)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCourseHandlerEnrollment(t *testing.T) {
	h := NewCourseHandler(&fakeCourseSrv{enrolled: map[string]bool{}}, &fakeAttendanceSrv{}, fakeAssessmentSrv{})

	c, rec := newContext(http.MethodPost, "/courses/5/enrollments", strings.NewReader(`{"student_id":"stu-1"}`))
	c.Params = gin.Params{{Key: "id", Value: "5"}}
	h.EnrollStudent(c)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, string(decode(t, rec).Data), `"created":true`)

	c, rec = newContext(http.MethodPost, "/courses/5/enrollments", strings.NewReader(`{"student_id":"stu-1"}`))
	c.Params = gin.Params{{Key: "id", Value: "5"}}
	h.EnrollStudent(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(decode(t, rec).Data), `"created":false`)

	c, rec = newContext(http.MethodPost, "/courses/9/enrollments", strings.NewReader(`{"student_id":"stu-1"}`))
	c.Params = gin.Params{{Key: "id", Value: "9"}}
	h.EnrollStudent(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	c, _ = newContext(http.MethodDelete, "/courses/5/enrollments/stu-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "5"}, {Key: "student_id", Value: "stu-1"}}
	h.UnenrollStudent(c)
	assert.Equal(t, http.StatusNoContent, c.Writer.Status())

	c, rec = newContext(http.MethodDelete, "/courses/5/enrollments/stu-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "5"}, {Key: "student_id", Value: "stu-1"}}
	h.UnenrollStudent(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type fakeResultSrv struct{ err error }

func (f fakeResultSrv) EnterResults(ctx context.Context, assessmentID int64, req models.EnterResultsRequest) (*models.EnterResultsResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.EnterResultsResult{AssessmentID: assessmentID, Saved: len(req.Marks)}, nil
}

func TestAssessmentHandlerEnterResultsValidation(t *testing.T) {
	details := map[string]string{"b": "marks must be a number"}
	h := NewAssessmentHandler(fakeResultSrv{err: appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "invalid result entries"), details)})

	c, rec := newContext(http.MethodPost, "/assessments/4/results", strings.NewReader(`{"marks":{"b":"x"}}`))
	c.Params = gin.Params{{Key: "id", Value: "4"}}
	h.EnterResults(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "marks must be a number")
}

type fakeImportSrv struct {
	kind models.ImportKind
	body string
}

func (f *fakeImportSrv) ImportReader(ctx context.Context, kind models.ImportKind, r io.Reader) (*models.ImportReport, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.kind, f.body = kind, string(raw)
	return &models.ImportReport{Kind: kind, Processed: 1, Created: 1, Errors: []models.ImportRowError{}}, nil
}

type fakeExportSrv struct{ err error }

func (f fakeExportSrv) Export(ctx context.Context, kind models.ImportKind, format models.ExportFormat, courseID int64) (*service.ExportFile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &service.ExportFile{Filename: "users.csv", ContentType: "text/csv", Body: []byte("username\nroot\n")}, nil
}

func multipartUpload(t *testing.T, field, content string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	part, err := w.CreateFormFile(field, "students.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func TestTransferHandlerImport(t *testing.T) {
	imports := &fakeImportSrv{}
	h := NewTransferHandler(imports, fakeExportSrv{}, 1024)

	body, contentType := multipartUpload(t, "file", "roll_no,name\nS1,Asha\n")
	c, rec := newContext(http.MethodPost, "/imports/Students", body)
	c.Request.Header.Set("Content-Type", contentType)
	c.Params = gin.Params{{Key: "kind", Value: "Students"}}
	h.Import(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.ImportStudents, imports.kind)
	assert.Equal(t, "roll_no,name\nS1,Asha\n", imports.body)
	assert.Equal(t, "students.csv", decode(t, rec).Meta["filename"])

	c, rec = newContext(http.MethodPost, "/imports/grades", strings.NewReader(""))
	c.Params = gin.Params{{Key: "kind", Value: "grades"}}
	h.Import(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, contentType = multipartUpload(t, "upload", "x")
	c, rec = newContext(http.MethodPost, "/imports/users", body)
	c.Request.Header.Set("Content-Type", contentType)
	c.Params = gin.Params{{Key: "kind", Value: "users"}}
	h.Import(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransferHandlerImportTooLarge(t *testing.T) {
	h := NewTransferHandler(&fakeImportSrv{}, fakeExportSrv{}, 64)

	body, contentType := multipartUpload(t, "file", strings.Repeat("a,b\n", 100))
	c, rec := newContext(http.MethodPost, "/imports/users", body)
	c.Request.Header.Set("Content-Type", contentType)
	c.Params = gin.Params{{Key: "kind", Value: "users"}}
	h.Import(c)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestTransferHandlerExport(t *testing.T) {
	h := NewTransferHandler(&fakeImportSrv{}, fakeExportSrv{}, 0)

	c, rec := newContext(http.MethodGet, "/exports/users", nil)
	c.Params = gin.Params{{Key: "kind", Value: "users"}}
	h.Export(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="users.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "username\nroot\n", rec.Body.String())

	c, rec = newContext(http.MethodGet, "/exports/users?format=xlsx", nil)
	h.Export(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = newContext(http.MethodGet, "/exports/attendance?course_id=-1", nil)
	h.Export(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	h = NewTransferHandler(&fakeImportSrv{}, fakeExportSrv{err: appErrors.ErrExportDisabled}, 0)
	c, rec = newContext(http.MethodGet, "/exports/users?format=pdf", nil)
	h.Export(c)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

type fakeDepartmentSrv struct{}

func (fakeDepartmentSrv) List(ctx context.Context) ([]models.Department, error) { return nil, nil }

func (fakeDepartmentSrv) Create(ctx context.Context, req models.CreateDepartmentRequest) (*models.Department, error) {
	return nil, appErrors.Clone(appErrors.ErrConflict, "department already exists")
}

type fakeFacultySrv struct{ created bool }

func (f fakeFacultySrv) Provision(ctx context.Context, req models.CreateFacultyRequest) (*models.Faculty, bool, error) {
	return &models.Faculty{UserID: "u-" + req.Username}, f.created, nil
}

type fakeUserSrv struct{ filter models.UserFilter }

func (f *fakeUserSrv) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	f.filter = filter
	return nil, &models.Pagination{Page: 1, PageSize: 20}, nil
}

func TestAdminHandler(t *testing.T) {
	users := &fakeUserSrv{}
	h := NewAdminHandler(fakeDepartmentSrv{}, fakeFacultySrv{created: true}, users)

	c, rec := newContext(http.MethodGet, "/departments", nil)
	h.ListDepartments(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, string(decode(t, rec).Data))

	c, rec = newContext(http.MethodPost, "/departments", strings.NewReader(`{"name":"CSE"}`))
	h.CreateDepartment(c)
	assert.Equal(t, http.StatusConflict, rec.Code)

	c, rec = newContext(http.MethodPost, "/faculty", strings.NewReader(`{"username":"prof.rao","name":"Dr Rao","department":"CSE"}`))
	h.CreateFaculty(c)
	assert.Equal(t, http.StatusCreated, rec.Code)

	c, rec = newContext(http.MethodGet, "/users?role=faculty&page=2", nil)
	h.ListUsers(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, users.filter.Role)
	assert.Equal(t, models.RoleFaculty, *users.filter.Role)
	assert.Equal(t, 2, users.filter.Page)

	c, rec = newContext(http.MethodGet, "/users?role=janitor", nil)
	h.ListUsers(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsHandlerReady(t *testing.T) {
	h := NewMetricsHandler(nil, map[string]Pinger{
		"postgres": PingFunc(func(ctx context.Context) error { return nil }),
		"redis":    nil,
	}, nil)
	c, rec := newContext(http.MethodGet, "/ready", nil)
	h.Ready(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"disabled"`)

	h = NewMetricsHandler(nil, map[string]Pinger{
		"postgres": PingFunc(func(ctx context.Context) error { return errors.New("down") }),
	}, nil)
	c, rec = newContext(http.MethodGet, "/ready", nil)
	h.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	c, rec = newContext(http.MethodGet, "/metrics", nil)
	h.Prometheus(c)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
