package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/college-records-api/internal/models"
	"github.com/noah-isme/college-records-api/pkg/database"
)

const facultyDetailSelect = `SELECT f.user_id, f.name, f.department_id, f.title, u.username, d.name AS department_name
FROM faculty f
JOIN users u ON u.id = f.user_id
JOIN departments d ON d.id = f.department_id`

// FacultyRepository persists faculty profiles.
type FacultyRepository struct {
	db *sqlx.DB
}

func NewFacultyRepository(db *sqlx.DB) *FacultyRepository {
	return &FacultyRepository{db: db}
}

func (r *FacultyRepository) FindByUserID(ctx context.Context, userID string) (*models.FacultyDetail, error) {
	var f models.FacultyDetail
	if err := r.db.GetContext(ctx, &f, facultyDetailSelect+` WHERE f.user_id = $1`, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find faculty by user: %w", err)
	}
	return &f, nil
}

// FindByUsername resolves a faculty profile through its account's username.
func (r *FacultyRepository) FindByUsername(ctx context.Context, username string) (*models.FacultyDetail, error) {
	var f models.FacultyDetail
	if err := r.db.GetContext(ctx, &f, facultyDetailSelect+` WHERE u.username = $1`, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find faculty by username: %w", err)
	}
	return &f, nil
}

// CreateWithStaff inserts the faculty profile and raises the owning user's
// staff flag in the same transaction. An existing profile is left as is and
// created is false; the staff flag is still enforced.
func (r *FacultyRepository) CreateWithStaff(ctx context.Context, f *models.Faculty) (bool, error) {
	var created bool
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const insert = `INSERT INTO faculty (user_id, name, department_id, title) VALUES ($1, $2, $3, $4) ON CONFLICT (user_id) DO NOTHING`
		res, err := tx.ExecContext(ctx, insert, f.UserID, f.Name, f.DepartmentID, f.Title)
		if err != nil {
			return fmt.Errorf("insert faculty: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("insert faculty: %w", err)
		}
		created = affected == 1

		const staff = `UPDATE users SET is_staff = TRUE, updated_at = $2 WHERE id = $1`
		if _, err := tx.ExecContext(ctx, staff, f.UserID, time.Now().UTC()); err != nil {
			return fmt.Errorf("set staff flag: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

func (r *FacultyRepository) List(ctx context.Context) ([]models.FacultyDetail, error) {
	var out []models.FacultyDetail
	if err := r.db.SelectContext(ctx, &out, facultyDetailSelect+` ORDER BY u.username`); err != nil {
		return nil, fmt.Errorf("list faculty: %w", err)
	}
	return out, nil
}

func (r *FacultyRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM faculty`); err != nil {
		return 0, fmt.Errorf("count faculty: %w", err)
	}
	return total, nil
}
