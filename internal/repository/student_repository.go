package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/college-records-api/internal/models"
)

const studentDetailSelect = `SELECT s.user_id, s.roll_no, s.name, s.department_id, s.semester, u.username, d.name AS department_name
FROM students s
JOIN users u ON u.id = s.user_id
JOIN departments d ON d.id = s.department_id`

// StudentRepository persists student profiles.
type StudentRepository struct {
	db *sqlx.DB
}

func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

func (r *StudentRepository) FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error) {
	var s models.StudentDetail
	if err := r.db.GetContext(ctx, &s, studentDetailSelect+` WHERE s.user_id = $1`, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find student by user: %w", err)
	}
	return &s, nil
}

func (r *StudentRepository) FindByRollNo(ctx context.Context, rollNo string) (*models.Student, error) {
	var s models.Student
	const query = `SELECT user_id, roll_no, name, department_id, semester FROM students WHERE roll_no = $1`
	if err := r.db.GetContext(ctx, &s, query, rollNo); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find student by roll no: %w", err)
	}
	return &s, nil
}

// CreateIfAbsent inserts the profile unless the roll number or the user
// already has one.
func (r *StudentRepository) CreateIfAbsent(ctx context.Context, s *models.Student) (bool, error) {
	const query = `INSERT INTO students (user_id, roll_no, name, department_id, semester) VALUES ($1, $2, $3, $4, $5) ON CONFLICT DO NOTHING`
	res, err := r.db.ExecContext(ctx, query, s.UserID, s.RollNo, s.Name, s.DepartmentID, s.Semester)
	if err != nil {
		return false, fmt.Errorf("create student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create student: %w", err)
	}
	return affected == 1, nil
}

func (r *StudentRepository) List(ctx context.Context) ([]models.StudentDetail, error) {
	var out []models.StudentDetail
	if err := r.db.SelectContext(ctx, &out, studentDetailSelect+` ORDER BY s.roll_no`); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return out, nil
}

// ListByCourse returns the students currently enrolled in a course.
func (r *StudentRepository) ListByCourse(ctx context.Context, courseID int64) ([]models.StudentDetail, error) {
	var out []models.StudentDetail
	query := studentDetailSelect + ` JOIN enrollments e ON e.student_id = s.user_id WHERE e.course_id = $1 ORDER BY s.roll_no`
	if err := r.db.SelectContext(ctx, &out, query, courseID); err != nil {
		return nil, fmt.Errorf("list students by course: %w", err)
	}
	return out, nil
}

func (r *StudentRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM students`); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return total, nil
}
