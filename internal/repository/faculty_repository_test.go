package repository

import (
	"context"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/college-records-api/internal/models"
)

func TestCreateWithStaffSetsFlagInSameTx(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFacultyRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO faculty").
		WithArgs("u1", "Dr Rao", int64(2), models.TitleHOD).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users SET is_staff = TRUE").
		WithArgs("u1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	created, err := repo.CreateWithStaff(context.Background(), &models.Faculty{UserID: "u1", Name: "Dr Rao", DepartmentID: 2, Title: models.TitleHOD})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithStaffRollsBackOnFlagFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFacultyRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO faculty").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users SET is_staff").WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	created, err := repo.CreateWithStaff(context.Background(), &models.Faculty{UserID: "u1"})
	assert.Error(t, err)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithStaffExistingProfile(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFacultyRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO faculty").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE users SET is_staff").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	created, err := repo.CreateWithStaff(context.Background(), &models.Faculty{UserID: "u1"})
	require.NoError(t, err)
	assert.False(t, created)
}
