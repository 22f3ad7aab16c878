package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/college-records-api/internal/models"
)

// EnrollmentRepository persists student-course links.
type EnrollmentRepository struct {
	db *sqlx.DB
}

func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// CreateIfAbsent links the student to the course. An existing link keeps its
// original enrollment date.
func (r *EnrollmentRepository) CreateIfAbsent(ctx context.Context, studentID string, courseID int64) (bool, error) {
	const query = `INSERT INTO enrollments (student_id, course_id, enrollment_date) VALUES ($1, $2, CURRENT_DATE) ON CONFLICT (student_id, course_id) DO NOTHING`
	res, err := r.db.ExecContext(ctx, query, studentID, courseID)
	if err != nil {
		return false, fmt.Errorf("create enrollment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create enrollment: %w", err)
	}
	return affected == 1, nil
}

// ListDetails returns every enrollment with its natural keys.
func (r *EnrollmentRepository) ListDetails(ctx context.Context) ([]models.EnrollmentDetail, error) {
	var out []models.EnrollmentDetail
	const query = `SELECT e.id, e.student_id, e.course_id, e.enrollment_date, s.roll_no, c.code AS course_code
FROM enrollments e
JOIN students s ON s.user_id = e.student_id
JOIN courses c ON c.id = e.course_id
ORDER BY c.code, s.roll_no`
	if err := r.db.SelectContext(ctx, &out, query); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return out, nil
}

// Delete unlinks the student from the course and reports whether a link
// existed.
func (r *EnrollmentRepository) Delete(ctx context.Context, studentID string, courseID int64) (bool, error) {
	const query = `DELETE FROM enrollments WHERE student_id = $1 AND course_id = $2`
	res, err := r.db.ExecContext(ctx, query, studentID, courseID)
	if err != nil {
		return false, fmt.Errorf("delete enrollment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete enrollment: %w", err)
	}
	return affected == 1, nil
}
