package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/college-records-api/internal/models"
	"github.com/noah-isme/college-records-api/pkg/database"
)

// AttendanceRepository persists per-date attendance marks and serves the
// raw counts behind percentage calculations.
type AttendanceRepository struct {
	db *sqlx.DB
}

func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

const upsertAttendance = `INSERT INTO attendance (student_id, course_id, date, status) VALUES ($1, $2, $3, $4)
ON CONFLICT (student_id, course_id, date) DO UPDATE SET status = EXCLUDED.status`

// BulkUpsert writes every mark for one course date atomically.
func (r *AttendanceRepository) BulkUpsert(ctx context.Context, courseID int64, date time.Time, marks []models.AttendanceMark) error {
	if len(marks) == 0 {
		return nil
	}
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for _, mark := range marks {
			if _, err := tx.ExecContext(ctx, upsertAttendance, mark.StudentID, courseID, date, mark.Present); err != nil {
				return fmt.Errorf("bulk upsert attendance for %s: %w", mark.StudentID, err)
			}
		}
		return nil
	})
}

// CountForStudentCourse returns total and present rows for one pair.
func (r *AttendanceRepository) CountForStudentCourse(ctx context.Context, studentID string, courseID int64) (int, int, error) {
	const query = `SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE status) AS present FROM attendance WHERE student_id = $1 AND course_id = $2`
	var counts struct {
		Total   int `db:"total"`
		Present int `db:"present"`
	}
	if err := r.db.GetContext(ctx, &counts, query, studentID, courseID); err != nil {
		return 0, 0, fmt.Errorf("count attendance: %w", err)
	}
	return counts.Total, counts.Present, nil
}

// StudentCourseCounts returns counts for every course the student is
// enrolled in, including courses with no attendance rows.
func (r *AttendanceRepository) StudentCourseCounts(ctx context.Context, studentID string) ([]models.AttendanceCount, error) {
	const query = `SELECT c.id AS course_id, c.code AS course_code, c.name AS course_name,
COUNT(a.id) AS total, COUNT(a.id) FILTER (WHERE a.status) AS present
FROM enrollments e
JOIN courses c ON c.id = e.course_id
LEFT JOIN attendance a ON a.student_id = e.student_id AND a.course_id = e.course_id
WHERE e.student_id = $1
GROUP BY c.id, c.code, c.name
ORDER BY c.code`
	var out []models.AttendanceCount
	if err := r.db.SelectContext(ctx, &out, query, studentID); err != nil {
		return nil, fmt.Errorf("student course attendance: %w", err)
	}
	return out, nil
}

// DateSummary groups a course's attendance by date, newest first.
func (r *AttendanceRepository) DateSummary(ctx context.Context, courseID int64) ([]models.AttendanceDateSummary, error) {
	const query = `SELECT to_char(a.date, 'YYYY-MM-DD') AS date, COUNT(*) FILTER (WHERE a.status) AS present, COUNT(*) AS total
FROM attendance a
WHERE a.course_id = $1
GROUP BY a.date
ORDER BY a.date DESC`
	var out []models.AttendanceDateSummary
	if err := r.db.SelectContext(ctx, &out, query, courseID); err != nil {
		return nil, fmt.Errorf("attendance date summary: %w", err)
	}
	return out, nil
}

// ListByCourseDate returns every enrolled student with their mark on date,
// if one exists.
func (r *AttendanceRepository) ListByCourseDate(ctx context.Context, courseID int64, date time.Time) ([]models.StudentAttendanceStatus, error) {
	const query = `SELECT s.user_id AS student_id, s.roll_no, s.name, a.status
FROM enrollments e
JOIN students s ON s.user_id = e.student_id
LEFT JOIN attendance a ON a.student_id = e.student_id AND a.course_id = e.course_id AND a.date = $2
WHERE e.course_id = $1
ORDER BY s.roll_no`
	var out []models.StudentAttendanceStatus
	if err := r.db.SelectContext(ctx, &out, query, courseID, date); err != nil {
		return nil, fmt.Errorf("list attendance by date: %w", err)
	}
	return out, nil
}

// ListForExport flattens a course's attendance rows.
func (r *AttendanceRepository) ListForExport(ctx context.Context, courseID int64) ([]models.AttendanceExportRow, error) {
	const query = `SELECT s.roll_no, c.code AS course_code, to_char(a.date, 'YYYY-MM-DD') AS date, a.status
FROM attendance a
JOIN students s ON s.user_id = a.student_id
JOIN courses c ON c.id = a.course_id
WHERE a.course_id = $1
ORDER BY a.date DESC, s.roll_no`
	var out []models.AttendanceExportRow
	if err := r.db.SelectContext(ctx, &out, query, courseID); err != nil {
		return nil, fmt.Errorf("list attendance for export: %w", err)
	}
	return out, nil
}
