package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/college-records-api/internal/models"
)

func TestAssessmentCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssessmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO assessments (name, full_marks, type, course_id) VALUES ($1, $2, $3, $4) RETURNING id")).
		WithArgs("HW1", 20.0, models.AssessmentAssignment, int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	a := &models.Assessment{Name: "HW1", FullMarks: 20, Type: models.AssessmentAssignment, CourseID: 3}
	require.NoError(t, repo.Create(context.Background(), a))
	assert.Equal(t, int64(11), a.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

