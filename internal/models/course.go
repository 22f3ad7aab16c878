package models

// Course is taught in a department, optionally by one faculty member.
type Course struct {
	ID           int64   `db:"id" json:"id"`
	Name         string  `db:"name" json:"name"`
	Code         string  `db:"code" json:"code"`
	DepartmentID int64   `db:"department_id" json:"department_id"`
	FacultyID    *string `db:"faculty_id" json:"faculty_id,omitempty"`
}

// CourseDetail enriches Course with joined names and the enrolled headcount.
type CourseDetail struct {
	Course
	DepartmentName  string  `db:"department_name" json:"department_name"`
	FacultyName     *string `db:"faculty_name" json:"faculty_name,omitempty"`
	FacultyUsername *string `db:"faculty_username" json:"faculty_username,omitempty"`
	EnrolledCount   int     `db:"enrolled_count" json:"enrolled_count"`
}
