package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/college-records-api/internal/models"
)

// DepartmentRepository persists departments.
type DepartmentRepository struct {
	db *sqlx.DB
}

func NewDepartmentRepository(db *sqlx.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// Create inserts a department; a duplicate name surfaces as a unique violation.
func (r *DepartmentRepository) Create(ctx context.Context, dept *models.Department) error {
	if err := r.db.GetContext(ctx, &dept.ID, `INSERT INTO departments (name) VALUES ($1) RETURNING id`, dept.Name); err != nil {
		return fmt.Errorf("create department: %w", err)
	}
	return nil
}

// GetOrCreate resolves a department by name, inserting it when missing.
// The no-op update makes RETURNING yield the row in both cases, so
// concurrent callers converge on one row.
func (r *DepartmentRepository) GetOrCreate(ctx context.Context, name string) (*models.Department, error) {
	const query = `INSERT INTO departments (name) VALUES ($1) ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name RETURNING id, name`
	var dept models.Department
	if err := r.db.GetContext(ctx, &dept, query, name); err != nil {
		return nil, fmt.Errorf("get or create department: %w", err)
	}
	return &dept, nil
}

func (r *DepartmentRepository) List(ctx context.Context) ([]models.Department, error) {
	var depts []models.Department
	if err := r.db.SelectContext(ctx, &depts, `SELECT id, name FROM departments ORDER BY name`); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return depts, nil
}

func (r *DepartmentRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM departments`); err != nil {
		return 0, fmt.Errorf("count departments: %w", err)
	}
	return total, nil
}
