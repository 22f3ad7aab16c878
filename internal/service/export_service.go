package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/college-records-api/internal/models"
	"github.com/noah-isme/college-records-api/pkg/csvio"
	appErrors "github.com/noah-isme/college-records-api/pkg/errors"
)

// ExportAttendance is exported alongside the import kinds.
const ExportAttendance models.ImportKind = "attendance"

type exportUserRepository interface {
	ListAll(ctx context.Context) ([]models.User, error)
}

type exportStudentRepository interface {
	List(ctx context.Context) ([]models.StudentDetail, error)
}

type exportFacultyRepository interface {
	List(ctx context.Context) ([]models.FacultyDetail, error)
}

type exportCourseRepository interface {
	List(ctx context.Context) ([]models.CourseDetail, error)
	FindByID(ctx context.Context, id int64) (*models.CourseDetail, error)
}

type exportEnrollmentRepository interface {
	ListDetails(ctx context.Context) ([]models.EnrollmentDetail, error)
}

type exportAttendanceRepository interface {
	ListForExport(ctx context.Context, courseID int64) ([]models.AttendanceExportRow, error)
}

type csvRenderer interface {
	Render(data csvio.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data csvio.Dataset, title string) ([]byte, error)
}

// ExportServiceParams groups constructor dependencies.
type ExportServiceParams struct {
	Users       exportUserRepository
	Students    exportStudentRepository
	Faculty     exportFacultyRepository
	Courses     exportCourseRepository
	Enrollments exportEnrollmentRepository
	Attendance  exportAttendanceRepository
	CSV         csvRenderer
	PDF         pdfRenderer
	PDFEnabled  bool
	Logger      *zap.Logger
}

// ExportFile is a rendered export ready to stream.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders tables using the same column names the importer
// reads, so a CSV export can be fed straight back into an import.
type ExportService struct {
	users       exportUserRepository
	students    exportStudentRepository
	faculty     exportFacultyRepository
	courses     exportCourseRepository
	enrollments exportEnrollmentRepository
	attendance  exportAttendanceRepository
	csv         csvRenderer
	pdf         pdfRenderer
	pdfEnabled  bool
	logger      *zap.Logger
	now         func() time.Time
}

func NewExportService(p ExportServiceParams) *ExportService {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	csv, pdf := p.CSV, p.PDF
	if csv == nil {
		csv = csvio.NewCSVRenderer()
	}
	if pdf == nil {
		pdf = csvio.NewPDFRenderer()
	}
	return &ExportService{
		users:       p.Users,
		students:    p.Students,
		faculty:     p.Faculty,
		courses:     p.Courses,
		enrollments: p.Enrollments,
		attendance:  p.Attendance,
		csv:         csv,
		pdf:         pdf,
		pdfEnabled:  p.PDFEnabled,
		logger:      logger,
		now:         time.Now,
	}
}

// Export renders kind in format. courseID is required for attendance.
func (s *ExportService) Export(ctx context.Context, kind models.ImportKind, format models.ExportFormat, courseID int64) (*ExportFile, error) {
	if format == models.ExportPDF && !s.pdfEnabled {
		return nil, appErrors.Clone(appErrors.ErrExportDisabled, "pdf export is disabled")
	}

	data, title, err := s.dataset(ctx, kind, courseID)
	if err != nil {
		return nil, err
	}

	var body []byte
	contentType := "text/csv"
	switch format {
	case models.ExportPDF:
		body, err = s.pdf.Render(data, title)
		contentType = "application/pdf"
	case models.ExportCSV:
		body, err = s.csv.Render(data)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %q", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	filename := fmt.Sprintf("%s-%s.%s", kind, s.now().UTC().Format("20060102-150405"), format)
	s.logger.Info("export rendered", zap.String("kind", string(kind)), zap.String("format", string(format)), zap.Int("rows", len(data.Rows)))
	return &ExportFile{Filename: filename, ContentType: contentType, Body: body}, nil
}

func (s *ExportService) dataset(ctx context.Context, kind models.ImportKind, courseID int64) (csvio.Dataset, string, error) {
	wrap := func(err error) error {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+string(kind))
	}

	switch kind {
	case models.ImportUsers:
		users, err := s.users.ListAll(ctx)
		if err != nil {
			return csvio.Dataset{}, "", wrap(err)
		}
		data := csvio.Dataset{Headers: []string{"username", "email", "first_name", "last_name", "role", "is_staff"}}
		for _, u := range users {
			first, last := splitName(u.FullName)
			data.Rows = append(data.Rows, map[string]string{
				"username":   u.Username,
				"email":      u.Email,
				"first_name": first,
				"last_name":  last,
				"role":       string(u.Role),
				"is_staff":   strconv.FormatBool(u.IsStaff),
			})
		}
		return data, "Users", nil

	case models.ImportStudents:
		students, err := s.students.List(ctx)
		if err != nil {
			return csvio.Dataset{}, "", wrap(err)
		}
		data := csvio.Dataset{Headers: []string{"roll_no", "name", "department", "semester", "username"}}
		for _, st := range students {
			data.Rows = append(data.Rows, map[string]string{
				"roll_no":    st.RollNo,
				"name":       st.Name,
				"department": st.DepartmentName,
				"semester":   strconv.Itoa(st.Semester),
				"username":   st.Username,
			})
		}
		return data, "Students", nil

	case models.ImportFaculty:
		faculty, err := s.faculty.List(ctx)
		if err != nil {
			return csvio.Dataset{}, "", wrap(err)
		}
		data := csvio.Dataset{Headers: []string{"username", "name", "department", "title"}}
		for _, f := range faculty {
			data.Rows = append(data.Rows, map[string]string{
				"username":   f.Username,
				"name":       f.Name,
				"department": f.DepartmentName,
				"title":      string(f.Title),
			})
		}
		return data, "Faculty", nil

	case models.ImportCourses:
		courses, err := s.courses.List(ctx)
		if err != nil {
			return csvio.Dataset{}, "", wrap(err)
		}
		data := csvio.Dataset{Headers: []string{"course_code", "course_name", "department", "faculty_username"}}
		for _, c := range courses {
			facultyUsername := ""
			if c.FacultyUsername != nil {
				facultyUsername = *c.FacultyUsername
			}
			data.Rows = append(data.Rows, map[string]string{
				"course_code":      c.Code,
				"course_name":      c.Name,
				"department":       c.DepartmentName,
				"faculty_username": facultyUsername,
			})
		}
		return data, "Courses", nil

	case models.ImportEnrollments:
		enrollments, err := s.enrollments.ListDetails(ctx)
		if err != nil {
			return csvio.Dataset{}, "", wrap(err)
		}
		data := csvio.Dataset{Headers: []string{"roll_no", "course_code", "enrollment_date"}}
		for _, e := range enrollments {
			data.Rows = append(data.Rows, map[string]string{
				"roll_no":         e.RollNo,
				"course_code":     e.CourseCode,
				"enrollment_date": e.EnrollmentDate.Format(models.DateLayout),
			})
		}
		return data, "Enrollments", nil

	case ExportAttendance:
		if courseID <= 0 {
			return csvio.Dataset{}, "", appErrors.Clone(appErrors.ErrValidation, "course_id is required for attendance export")
		}
		course, err := s.courses.FindByID(ctx, courseID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return csvio.Dataset{}, "", appErrors.Clone(appErrors.ErrNotFound, "course not found")
			}
			return csvio.Dataset{}, "", wrap(err)
		}
		rows, err := s.attendance.ListForExport(ctx, courseID)
		if err != nil {
			return csvio.Dataset{}, "", wrap(err)
		}
		data := csvio.Dataset{Headers: []string{"roll_no", "course_code", "date", "status"}}
		for _, r := range rows {
			status := "absent"
			if r.Status {
				status = "present"
			}
			data.Rows = append(data.Rows, map[string]string{
				"roll_no":     r.RollNo,
				"course_code": r.CourseCode,
				"date":        r.Date,
				"status":      status,
			})
		}
		return data, "Attendance " + course.Code, nil
	}

	return csvio.Dataset{}, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown export kind %q", kind))
}

func splitName(full string) (string, string) {
	full = strings.TrimSpace(full)
	if i := strings.IndexByte(full, ' '); i >= 0 {
		return full[:i], strings.TrimSpace(full[i+1:])
	}
	return full, ""
}
