package models

import "time"

// Enrollment links a student to a course. EnrollmentDate is set at insert
// and never changed.
type Enrollment struct {
	ID             int64     `db:"id" json:"id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	CourseID       int64     `db:"course_id" json:"course_id"`
	EnrollmentDate time.Time `db:"enrollment_date" json:"enrollment_date"`
}

// EnrollmentDetail carries the natural keys used by import and export.
type EnrollmentDetail struct {
	Enrollment
	RollNo     string `db:"roll_no" json:"roll_no"`
	CourseCode string `db:"course_code" json:"course_code"`
}

type EnrollStudentRequest struct {
	StudentID string `json:"student_id"`
}

// EnrollStudentResult reports whether an admin enrollment created a link.
type EnrollStudentResult struct {
	CourseID  int64  `json:"course_id"`
	StudentID string `json:"student_id"`
	Created   bool   `json:"created"`
}
