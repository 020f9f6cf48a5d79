package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chenglin1712/deming-rollcall/internal/models"
)

func TestAttendanceRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	rows := sqlmock.NewRows([]string{"id", "date", "student_id", "student_name", "status", "room_number", "group_name"}).
		AddRow(1, "2024-01-01", "1001", "王小明", "在寢", "305A", "德明宿舍男 5樓")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE a.date = ? AND LOWER(TRIM(a.group_name)) = LOWER(TRIM(?)) ORDER BY a.date DESC, COALESCE(s.room_number, a.room_number) ASC, a.student_name ASC")).
		WithArgs("2024-01-01", "德明宿舍男 5樓").
		WillReturnRows(rows)

	records, err := repo.List(context.Background(), models.AttendanceFilter{Date: "2024-01-01", Group: "德明宿舍男 5樓"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.AttendanceStatusPresent, records[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryListDates(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT date FROM attendance ORDER BY date DESC")).
		WillReturnRows(sqlmock.NewRows([]string{"date"}).AddRow("2024-01-02").AddRow("2024-01-01"))

	dates, err := repo.ListDates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-02", "2024-01-01"}, dates)
}

func TestAttendanceRepositorySubmitRejectsDuplicates(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT student_id, student_name FROM attendance WHERE date = ? AND student_id IN (?, ?) ORDER BY student_id")).
		WithArgs("2024-01-01", "1001", "1002").
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "student_name"}).AddRow("1001", "王小明"))
	mock.ExpectRollback()

	_, err := repo.Submit(context.Background(), models.AttendanceSubmission{
		Date:  "2024-01-01",
		Group: "德明宿舍男 5樓",
		Entries: []models.AttendanceEntry{
			{StudentID: "1001", StudentName: "王小明", Status: models.AttendanceStatusAbsent},
			{StudentID: "1002", StudentName: "陳大同", Status: models.AttendanceStatusPresent},
		},
	})
	var dup *DuplicateAttendanceError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, []AttendanceKey{{StudentID: "1001", StudentName: "王小明"}}, dup.Students)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositorySubmitResolvesRooms(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT student_id, student_name FROM attendance").
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "student_name"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, room_number FROM students WHERE id IN (?, ?)")).
		WithArgs("1001", "9999").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "room_number"}).AddRow("1001", "王小明", "305A"))
	mock.ExpectExec("INSERT INTO attendance").
		WithArgs("2024-01-01", "1001", "王小明", models.AttendanceStatusPresent, "305A", "德明宿舍男 5樓", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO attendance").
		WithArgs("2024-01-01", "9999", "訪客", models.AttendanceStatusLate, models.UnresolvedRoom, "德明宿舍男 5樓", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	result, err := repo.Submit(context.Background(), models.AttendanceSubmission{
		Date:  "2024-01-01",
		Group: "德明宿舍男 5樓",
		Entries: []models.AttendanceEntry{
			{StudentID: "1001", Status: models.AttendanceStatusPresent},
			{StudentID: "9999", StudentName: "訪客", Status: models.AttendanceStatusLate},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count)
	assert.Equal(t, []string{"9999"}, result.Warnings)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositorySubmitLostRace(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT student_id, student_name FROM attendance").
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "student_name"}))
	mock.ExpectQuery("SELECT id, name, room_number FROM students").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "room_number"}).AddRow("1001", "王小明", "305A"))
	mock.ExpectExec("INSERT INTO attendance").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.Submit(context.Background(), models.AttendanceSubmission{
		Date:    "2024-01-01",
		Entries: []models.AttendanceEntry{{StudentID: "1001", Status: models.AttendanceStatusPresent}},
	})
	var dup *DuplicateAttendanceError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "1001", dup.Students[0].StudentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryClearAll(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM attendance")).WillReturnResult(sqlmock.NewResult(0, 42))

	n, err := repo.ClearAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
}
