package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/college-records-api/internal/models"
)

func TestAttendanceBulkUpsert(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (student_id, course_id, date) DO UPDATE SET status = EXCLUDED.status")).
		WithArgs("s1", int64(7), date, true).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO attendance").
		WithArgs("s2", int64(7), date, false).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	err := repo.BulkUpsert(context.Background(), 7, date, []models.AttendanceMark{{StudentID: "s1", Present: true}, {StudentID: "s2"}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceBulkUpsertRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO attendance").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO attendance").WillReturnError(errors.New("fk violation"))
	mock.ExpectRollback()

	err := repo.BulkUpsert(context.Background(), 7, time.Now(), []models.AttendanceMark{{StudentID: "s1"}, {StudentID: "s2"}})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceBulkUpsertEmptyIsNoop(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	require.NoError(t, repo.BulkUpsert(context.Background(), 7, time.Now(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceDateSummary(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY a.date\nORDER BY a.date DESC")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"date", "present", "total"}).
			AddRow("2024-03-02", 1, 1).
			AddRow("2024-03-01", 2, 2))

	summary, err := repo.DateSummary(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []models.AttendanceDateSummary{
		{Date: "2024-03-02", Present: 1, Total: 1},
		{Date: "2024-03-01", Present: 2, Total: 2},
	}, summary)
}

func TestStudentCourseCountsIncludesEmptyCourses(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN attendance a ON a.student_id = e.student_id")).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"course_id", "course_code", "course_name", "total", "present"}).
			AddRow(1, "CS101", "Intro", 4, 2).
			AddRow(2, "PH201", "Optics", 0, 0))

	counts, err := repo.StudentCourseCounts(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, 0, counts[1].Total)
}

func TestCountForStudentCourse(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("COUNT(*) FILTER (WHERE status) AS present FROM attendance")).
		WithArgs("s1", int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"total", "present"}).AddRow(4, 3))

	total, present, err := repo.CountForStudentCourse(context.Background(), "s1", 1)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Equal(t, 3, present)
}
