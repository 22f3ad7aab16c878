package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/college-records-api/internal/models"
	"github.com/noah-isme/college-records-api/pkg/database"
)

// ResultRepository persists assessment marks.
type ResultRepository struct {
	db *sqlx.DB
}

func NewResultRepository(db *sqlx.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// BulkUpsert writes every mark for one assessment atomically.
func (r *ResultRepository) BulkUpsert(ctx context.Context, assessmentID int64, marks []models.ResultMark) error {
	if len(marks) == 0 {
		return nil
	}
	const query = `INSERT INTO results (assessment_id, student_id, marks) VALUES ($1, $2, $3)
ON CONFLICT (assessment_id, student_id) DO UPDATE SET marks = EXCLUDED.marks`
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for _, mark := range marks {
			if _, err := tx.ExecContext(ctx, query, assessmentID, mark.StudentID, mark.Marks); err != nil {
				return fmt.Errorf("bulk upsert result for %s: %w", mark.StudentID, err)
			}
		}
		return nil
	})
}

// Sheet returns every student enrolled in the assessment's course with
// their mark, nil where none exists.
func (r *ResultRepository) Sheet(ctx context.Context, assessmentID int64) ([]models.ResultSheetRow, error) {
	const query = `SELECT s.user_id AS student_id, s.roll_no, s.name, res.marks
FROM assessments a
JOIN enrollments e ON e.course_id = a.course_id
JOIN students s ON s.user_id = e.student_id
LEFT JOIN results res ON res.assessment_id = a.id AND res.student_id = s.user_id
WHERE a.id = $1
ORDER BY s.roll_no`
	var out []models.ResultSheetRow
	if err := r.db.SelectContext(ctx, &out, query, assessmentID); err != nil {
		return nil, fmt.Errorf("result sheet: %w", err)
	}
	return out, nil
}

// ListByStudent returns assessments of the student's enrolled courses with
// the student's marks.
func (r *ResultRepository) ListByStudent(ctx context.Context, studentID string) ([]models.StudentAssessmentRow, error) {
	const query = `SELECT a.id AS assessment_id, a.name, a.type, a.full_marks, a.course_id, c.code AS course_code, res.marks
FROM enrollments e
JOIN assessments a ON a.course_id = e.course_id
JOIN courses c ON c.id = a.course_id
LEFT JOIN results res ON res.assessment_id = a.id AND res.student_id = e.student_id
WHERE e.student_id = $1
ORDER BY c.code, a.id`
	var out []models.StudentAssessmentRow
	if err := r.db.SelectContext(ctx, &out, query, studentID); err != nil {
		return nil, fmt.Errorf("list results by student: %w", err)
	}
	return out, nil
}
