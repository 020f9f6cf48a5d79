package repository

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chenglin1712/deming-rollcall/internal/models"
	"github.com/chenglin1712/deming-rollcall/pkg/config"
	"github.com/chenglin1712/deming-rollcall/pkg/database"
)

func newSQLiteDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.NewSQLite(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "rollcall.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db, zap.NewNop()))
	return db
}

func seedRoster(t *testing.T, db *sqlx.DB) {
	t.Helper()
	_, err := NewStudentRepository(db).Upsert(context.Background(), []models.Student{
		{ID: "1001", Name: "王小明", RoomNumber: "305A", PhoneNumber: "0912345678", GroupName: "德明宿舍男 5樓"},
		{ID: "1002", Name: "陳大同", RoomNumber: "301B", PhoneNumber: "無資料", GroupName: "德明宿舍男 1樓"},
		{ID: "2001", Name: "李小華", RoomNumber: "412B", PhoneNumber: "無資料", GroupName: " Girls 2F "},
	})
	require.NoError(t, err)
}

func TestSQLiteConcurrentSubmissionsInsertOnce(t *testing.T) {
	db := newSQLiteDB(t)
	seedRoster(t, db)
	repo := NewAttendanceRepository(db)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status := models.AttendanceStatusPresent
			if i%2 == 1 {
				status = models.AttendanceStatusAbsent
			}
			_, err := repo.Submit(context.Background(), models.AttendanceSubmission{
				Date:    "2024-01-01",
				Group:   "德明宿舍男 5樓",
				Entries: []models.AttendanceEntry{{StudentID: "1001", StudentName: "王小明", Status: status}},
			})
			mu.Lock()
			defer mu.Unlock()
			var dup *DuplicateAttendanceError
			switch {
			case err == nil:
				successes++
			case errors.As(err, &dup):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, conflicts)

	var count int
	require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM attendance WHERE date = ? AND student_id = ?`, "2024-01-01", "1001"))
	assert.Equal(t, 1, count)
}

func TestSQLiteResubmissionLeavesOneRecord(t *testing.T) {
	db := newSQLiteDB(t)
	seedRoster(t, db)
	repo := NewAttendanceRepository(db)
	ctx := context.Background()

	_, err := repo.Submit(ctx, models.AttendanceSubmission{
		Date:    "2024-01-01",
		Group:   "德明宿舍男 5樓",
		Entries: []models.AttendanceEntry{{StudentID: "1001", StudentName: "王小明", Status: models.AttendanceStatusPresent}},
	})
	require.NoError(t, err)

	_, err = repo.Submit(ctx, models.AttendanceSubmission{
		Date:  "2024-01-01",
		Group: "德明宿舍男 5樓",
		Entries: []models.AttendanceEntry{
			{StudentID: "1002", StudentName: "陳大同", Status: models.AttendanceStatusPresent},
			{StudentID: "1001", StudentName: "王小明", Status: models.AttendanceStatusAbsent},
		},
	})
	var dup *DuplicateAttendanceError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "1001", dup.Students[0].StudentID)

	records, err := repo.List(ctx, models.AttendanceFilter{Date: "2024-01-01"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.AttendanceStatusPresent, records[0].Status)
}

func TestSQLiteHistoryOrderAndCurrentRoom(t *testing.T) {
	db := newSQLiteDB(t)
	seedRoster(t, db)
	attendance := NewAttendanceRepository(db)
	students := NewStudentRepository(db)
	ctx := context.Background()

	for _, sub := range []models.AttendanceSubmission{
		{Date: "2024-01-01", Group: "德明宿舍男 5樓", Entries: []models.AttendanceEntry{
			{StudentID: "1001", Status: models.AttendanceStatusPresent},
			{StudentID: "1002", Status: models.AttendanceStatusLate},
		}},
		{Date: "2024-01-02", Group: "德明宿舍男 5樓", Entries: []models.AttendanceEntry{
			{StudentID: "1001", Status: models.AttendanceStatusAbsent},
			{StudentID: "8888", StudentName: "訪客", Status: models.AttendanceStatusPresent},
		}},
	} {
		_, err := attendance.Submit(ctx, sub)
		require.NoError(t, err)
	}

	_, err := students.Upsert(ctx, []models.Student{{ID: "1001", Name: "王小明", RoomNumber: "306A", PhoneNumber: "0912345678", GroupName: "德明宿舍男 6樓"}})
	require.NoError(t, err)

	records, err := attendance.List(ctx, models.AttendanceFilter{})
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "2024-01-02", records[0].Date)
	assert.Equal(t, "306A", records[0].RoomNumber)
	assert.Equal(t, models.UnresolvedRoom, records[1].RoomNumber)
	assert.Equal(t, "1002", records[2].StudentID)
	assert.Equal(t, "301B", records[2].RoomNumber)
	assert.Equal(t, "306A", records[3].RoomNumber)

	filtered, err := attendance.List(ctx, models.AttendanceFilter{Group: " 德明宿舍男 5樓"})
	require.NoError(t, err)
	assert.Len(t, filtered, 4)

	dates, err := attendance.ListDates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-02", "2024-01-01"}, dates)

	removed, err := attendance.ClearAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), removed)
}

func TestSQLiteStudentGroupsAndUpsertIdempotent(t *testing.T) {
	db := newSQLiteDB(t)
	seedRoster(t, db)
	seedRoster(t, db)
	repo := NewStudentRepository(db)
	ctx := context.Background()

	var total int
	require.NoError(t, db.Get(&total, `SELECT COUNT(*) FROM students`))
	assert.Equal(t, 3, total)

	groups, err := repo.ListGroups(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Girls 2F", "德明宿舍男 1樓", "德明宿舍男 5樓"}, groups)

	girls, err := repo.ListByGroup(ctx, "girls 2f")
	require.NoError(t, err)
	require.Len(t, girls, 1)
	assert.Equal(t, "2001", girls[0].ID)

	created, err := repo.Create(ctx, &models.Student{ID: "1001", Name: "x", RoomNumber: "1", PhoneNumber: "1", GroupName: "g"})
	require.NoError(t, err)
	assert.False(t, created)
}

func TestSQLiteSessionsAndAccounts(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := context.Background()
	users := NewUserRepository(db)
	sessions := NewSessionRepository(db)

	created, err := users.EnsureAccount(ctx, &models.User{Username: "admin", PasswordHash: "hash", DisplayName: "宿舍管理員"})
	require.NoError(t, err)
	assert.True(t, created)
	created, err = users.EnsureAccount(ctx, &models.User{Username: "admin", PasswordHash: "other", DisplayName: "x"})
	require.NoError(t, err)
	assert.False(t, created)

	user, err := users.FindByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "hash", user.PasswordHash)

	now := time.Now().UTC()
	live := &models.Session{ID: "live", Username: "admin", DisplayName: "宿舍管理員", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	stale := &models.Session{ID: "stale", Username: "admin", DisplayName: "宿舍管理員", CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}
	require.NoError(t, sessions.Create(ctx, live))
	require.NoError(t, sessions.Create(ctx, stale))

	found, err := sessions.Find(ctx, "live")
	require.NoError(t, err)
	assert.WithinDuration(t, live.ExpiresAt, found.ExpiresAt, time.Second)

	pruned, err := sessions.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)

	require.NoError(t, sessions.Delete(ctx, "live"))
	_, err = sessions.Find(ctx, "live")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
