package models

import "time"

// DateLayout is the wire format for attendance dates.
const DateLayout = "2006-01-02"

// Attendance records one student's presence in a course on a date.
type Attendance struct {
	ID        int64     `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	CourseID  int64     `db:"course_id" json:"course_id"`
	Date      time.Time `db:"date" json:"date"`
	Status    bool      `db:"status" json:"status"`
}

// AttendanceMark is one row of a bulk upsert.
type AttendanceMark struct {
	StudentID string
	Present   bool
}

// AttendanceCount holds raw totals for a student in one course.
type AttendanceCount struct {
	CourseID   int64  `db:"course_id" json:"course_id"`
	CourseCode string `db:"course_code" json:"course_code"`
	CourseName string `db:"course_name" json:"course_name"`
	Total      int    `db:"total" json:"total"`
	Present    int    `db:"present" json:"present"`
}

// AttendanceDateSummary aggregates one course date.
type AttendanceDateSummary struct {
	Date    string `db:"date" json:"date"`
	Present int    `db:"present" json:"present"`
	Total   int    `db:"total" json:"total"`
}

// StudentAttendanceStatus is a student's mark on a given date; Status is nil
// when no row exists yet.
type StudentAttendanceStatus struct {
	StudentID string `db:"student_id" json:"student_id"`
	RollNo    string `db:"roll_no" json:"roll_no"`
	Name      string `db:"name" json:"name"`
	Status    *bool  `db:"status" json:"status"`
}

// AttendanceExportRow is a flattened attendance row for export.
type AttendanceExportRow struct {
	RollNo     string `db:"roll_no"`
	CourseCode string `db:"course_code"`
	Date       string `db:"date"`
	Status     bool   `db:"status"`
}

// MarkAttendanceRequest is the payload for POST /courses/:id/attendance.
type MarkAttendanceRequest struct {
	Date       string   `json:"date"`
	PresentIDs []string `json:"present_ids"`
}

// MarkAttendanceResult summarises a marking operation.
type MarkAttendanceResult struct {
	CourseID int64  `json:"course_id"`
	Date     string `json:"date"`
	Marked   int    `json:"marked"`
	Present  int    `json:"present"`
}
