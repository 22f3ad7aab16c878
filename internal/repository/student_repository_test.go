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

func TestStudentCreateIfAbsent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO students (user_id, roll_no, name, department_id, semester) VALUES ($1, $2, $3, $4, $5) ON CONFLICT DO NOTHING")).
		WithArgs("u1", "R1", "Asha", int64(1), 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO students").WillReturnResult(sqlmock.NewResult(0, 0))

	s := &models.Student{UserID: "u1", RollNo: "R1", Name: "Asha", DepartmentID: 1, Semester: 3}
	created, err := repo.CreateIfAbsent(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.CreateIfAbsent(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentListByCourse(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("JOIN enrollments e ON e.student_id = s.user_id WHERE e.course_id = $1 ORDER BY s.roll_no")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "roll_no", "name", "department_id", "semester", "username", "department_name"}).
			AddRow("u1", "R1", "Asha", 1, 3, "R1", "Physics"))

	students, err := repo.ListByCourse(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "R1", students[0].RollNo)
}
