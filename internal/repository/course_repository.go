package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/college-records-api/internal/models"
)

const courseDetailSelect = `SELECT c.id, c.name, c.code, c.department_id, c.faculty_id,
d.name AS department_name, f.name AS faculty_name, u.username AS faculty_username,
(SELECT COUNT(*) FROM enrollments e WHERE e.course_id = c.id) AS enrolled_count
FROM courses c
JOIN departments d ON d.id = c.department_id
LEFT JOIN faculty f ON f.user_id = c.faculty_id
LEFT JOIN users u ON u.id = c.faculty_id`

// CourseRepository persists courses.
type CourseRepository struct {
	db *sqlx.DB
}

func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

func (r *CourseRepository) FindByID(ctx context.Context, id int64) (*models.CourseDetail, error) {
	var c models.CourseDetail
	if err := r.db.GetContext(ctx, &c, courseDetailSelect+` WHERE c.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find course by id: %w", err)
	}
	return &c, nil
}

func (r *CourseRepository) FindByCode(ctx context.Context, code string) (*models.Course, error) {
	var c models.Course
	const query = `SELECT id, name, code, department_id, faculty_id FROM courses WHERE code = $1`
	if err := r.db.GetContext(ctx, &c, query, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find course by code: %w", err)
	}
	return &c, nil
}

// CreateIfAbsent inserts the course unless its code exists. On insert c.ID
// is populated.
func (r *CourseRepository) CreateIfAbsent(ctx context.Context, c *models.Course) (bool, error) {
	const query = `INSERT INTO courses (name, code, department_id, faculty_id) VALUES ($1, $2, $3, $4) ON CONFLICT (code) DO NOTHING RETURNING id`
	if err := r.db.GetContext(ctx, &c.ID, query, c.Name, c.Code, c.DepartmentID, c.FacultyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("create course: %w", err)
	}
	return true, nil
}

func (r *CourseRepository) List(ctx context.Context) ([]models.CourseDetail, error) {
	var out []models.CourseDetail
	if err := r.db.SelectContext(ctx, &out, courseDetailSelect+` ORDER BY c.code`); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return out, nil
}

// ListByFaculty returns the courses a faculty member teaches.
func (r *CourseRepository) ListByFaculty(ctx context.Context, facultyID string) ([]models.CourseDetail, error) {
	var out []models.CourseDetail
	if err := r.db.SelectContext(ctx, &out, courseDetailSelect+` WHERE c.faculty_id = $1 ORDER BY c.code`, facultyID); err != nil {
		return nil, fmt.Errorf("list courses by faculty: %w", err)
	}
	return out, nil
}

func (r *CourseRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM courses`); err != nil {
		return 0, fmt.Errorf("count courses: %w", err)
	}
	return total, nil
}
