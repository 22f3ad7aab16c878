package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/college-records-api/internal/models"
)

const assessmentColumns = `id, name, full_marks, type, course_id`

// AssessmentRepository persists assessments.
type AssessmentRepository struct {
	db *sqlx.DB
}

func NewAssessmentRepository(db *sqlx.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

func (r *AssessmentRepository) FindByID(ctx context.Context, id int64) (*models.Assessment, error) {
	var a models.Assessment
	if err := r.db.GetContext(ctx, &a, `SELECT `+assessmentColumns+` FROM assessments WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find assessment: %w", err)
	}
	return &a, nil
}

func (r *AssessmentRepository) Create(ctx context.Context, a *models.Assessment) error {
	const query = `INSERT INTO assessments (name, full_marks, type, course_id) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := r.db.GetContext(ctx, &a.ID, query, a.Name, a.FullMarks, a.Type, a.CourseID); err != nil {
		return fmt.Errorf("create assessment: %w", err)
	}
	return nil
}

func (r *AssessmentRepository) ListByCourse(ctx context.Context, courseID int64) ([]models.Assessment, error) {
	var out []models.Assessment
	if err := r.db.SelectContext(ctx, &out, `SELECT `+assessmentColumns+` FROM assessments WHERE course_id = $1 ORDER BY id`, courseID); err != nil {
		return nil, fmt.Errorf("list assessments by course: %w", err)
	}
	return out, nil
}

