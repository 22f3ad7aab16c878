package dto

import "github.com/noah-isme/college-records-api/internal/models"

// CourseAttendance is one enrolled course with the student's attendance.
type CourseAttendance struct {
	CourseID   int64   `json:"courseId"`
	CourseCode string  `json:"courseCode"`
	CourseName string  `json:"courseName"`
	Total      int     `json:"total"`
	Present    int     `json:"present"`
	Percentage float64 `json:"percentage"`
}

// StudentAttendanceReport is the per-course breakdown plus the overall figure.
type StudentAttendanceReport struct {
	StudentID string             `json:"studentId"`
	Courses   []CourseAttendance `json:"courses"`
	Overall   float64            `json:"overall"`
}

// StudentDashboard is the landing payload for the student role.
type StudentDashboard struct {
	Profile     models.StudentDetail          `json:"profile"`
	Courses     []CourseAttendance            `json:"courses"`
	Overall     float64                       `json:"overall"`
	Assessments []models.StudentAssessmentRow `json:"assessments"`
}

// FacultyDashboard is the landing payload for the faculty role.
type FacultyDashboard struct {
	Profile models.FacultyDetail  `json:"profile"`
	Courses []models.CourseDetail `json:"courses"`
}

// AdminDashboard is the landing payload for the admin role.
type AdminDashboard struct {
	Users       int `json:"users"`
	Students    int `json:"students"`
	Faculty     int `json:"faculty"`
	Courses     int `json:"courses"`
	Departments int `json:"departments"`
}

// CourseDateAttendance is every enrolled student's mark on one date.
type CourseDateAttendance struct {
	Date     string                           `json:"date"`
	Students []models.StudentAttendanceStatus `json:"students"`
}

// CourseDetail is the course page: roster, assessments and attendance.
type CourseDetail struct {
	Course      models.CourseDetail            `json:"course"`
	Students    []models.StudentDetail         `json:"students"`
	Assessments []models.Assessment            `json:"assessments"`
	Attendance  CourseDateAttendance           `json:"attendance"`
	Summary     []models.AttendanceDateSummary `json:"summary"`
}

// AssessmentDetail is an assessment with its result map.
type AssessmentDetail struct {
	Assessment models.Assessment       `json:"assessment"`
	Results    []models.ResultSheetRow `json:"results"`
}
