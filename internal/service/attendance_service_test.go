package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chenglin1712/deming-rollcall/internal/dto"
	"github.com/chenglin1712/deming-rollcall/internal/models"
	"github.com/chenglin1712/deming-rollcall/internal/repository"
	appErrors "github.com/chenglin1712/deming-rollcall/pkg/errors"
)

// mockAttendanceRepo mimics the repository's all-or-nothing submit.
type mockAttendanceRepo struct {
	rooms       map[string]string
	records     []models.AttendanceRecord
	submitErr   error
	datesCalls  int
	submitCalls int
}

func (m *mockAttendanceRepo) ListDates(ctx context.Context) ([]string, error) {
	m.datesCalls++
	seen := map[string]bool{}
	dates := make([]string, 0)
	for _, r := range m.records {
		if !seen[r.Date] {
			seen[r.Date] = true
			dates = append(dates, r.Date)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates, nil
}

func (m *mockAttendanceRepo) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error) {
	out := make([]models.AttendanceRecord, 0)
	for _, r := range m.records {
		if filter.Date != "" && r.Date != filter.Date {
			continue
		}
		if filter.Group != "" && !strings.EqualFold(r.GroupName, filter.Group) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *mockAttendanceRepo) Submit(ctx context.Context, submission models.AttendanceSubmission) (*models.SubmissionResult, error) {
	m.submitCalls++
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	var dups []repository.AttendanceKey
	for _, e := range submission.Entries {
		for _, r := range m.records {
			if r.Date == submission.Date && r.StudentID == e.StudentID {
				dups = append(dups, repository.AttendanceKey{StudentID: r.StudentID, StudentName: r.StudentName})
			}
		}
	}
	if len(dups) > 0 {
		return nil, &repository.DuplicateAttendanceError{Date: submission.Date, Students: dups}
	}
	var warnings []string
	for _, e := range submission.Entries {
		room, ok := m.rooms[e.StudentID]
		if !ok {
			room = models.UnresolvedRoom
			warnings = append(warnings, e.StudentID)
		}
		m.records = append(m.records, models.AttendanceRecord{
			ID:          int64(len(m.records) + 1),
			Date:        submission.Date,
			StudentID:   e.StudentID,
			StudentName: e.StudentName,
			Status:      e.Status,
			RoomNumber:  room,
			GroupName:   submission.Group,
		})
	}
	return &models.SubmissionResult{Count: len(submission.Entries), Warnings: warnings}, nil
}

func (m *mockAttendanceRepo) ClearAll(ctx context.Context) (int64, error) {
	n := int64(len(m.records))
	m.records = nil
	return n, nil
}

func submitRequest(date string, entries ...dto.AttendanceEntryRequest) dto.SubmitAttendanceRequest {
	return dto.SubmitAttendanceRequest{Date: date, Group: "德明宿舍男 5樓", AttendanceData: entries}
}

func TestAttendanceServiceResubmissionConflicts(t *testing.T) {
	repo := &mockAttendanceRepo{rooms: map[string]string{"1001": "305A"}}
	svc := NewAttendanceService(repo, nil, nil, nil, nil)
	ctx := context.Background()

	resp, err := svc.Submit(ctx, submitRequest("2024-01-01", dto.AttendanceEntryRequest{StudentID: "1001", StudentName: "王小明", Status: "在寢"}))
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "成功提交 1 筆點名記錄", resp.Message)
	assert.Empty(t, resp.Warnings)

	_, err = svc.Submit(ctx, submitRequest("2024-01-01", dto.AttendanceEntryRequest{StudentID: "1001", StudentName: "王小明", Status: "未歸"}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
	assert.Contains(t, appErrors.FromError(err).Message, "王小明(1001)")

	require.Len(t, repo.records, 1)
	assert.Equal(t, models.AttendanceStatusPresent, repo.records[0].Status)
}

func TestAttendanceServiceSubmitWarnsUnresolvedRooms(t *testing.T) {
	repo := &mockAttendanceRepo{rooms: map[string]string{"1001": "305A"}}
	svc := NewAttendanceService(repo, nil, nil, nil, nil)

	resp, err := svc.Submit(context.Background(), submitRequest("2024-01-02",
		dto.AttendanceEntryRequest{StudentID: "1001", StudentName: "王小明", Status: "在寢"},
		dto.AttendanceEntryRequest{StudentID: "9999", StudentName: "轉出生", Status: "晚歸"},
	))
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, []string{"9999"}, resp.Warnings)
	assert.Equal(t, models.UnresolvedRoom, repo.records[1].RoomNumber)
}

func TestAttendanceServiceSubmitAcceptsLegacyPayload(t *testing.T) {
	repo := &mockAttendanceRepo{}
	svc := NewAttendanceService(repo, nil, nil, nil, nil)

	_, err := svc.Submit(context.Background(), dto.SubmitAttendanceRequest{
		Date:       " 2024-01-03 ",
		Group:      "德明宿舍女 1樓",
		LegacyData: []dto.AttendanceEntryRequest{{LegacyStudentID: "2001", LegacyName: "林小華", Status: "晚歸"}},
	})
	require.NoError(t, err)
	require.Len(t, repo.records, 1)
	assert.Equal(t, "2001", repo.records[0].StudentID)
	assert.Equal(t, "林小華", repo.records[0].StudentName)
	assert.Equal(t, "2024-01-03", repo.records[0].Date)
}

func TestAttendanceServiceSubmitValidation(t *testing.T) {
	repo := &mockAttendanceRepo{}
	svc := NewAttendanceService(repo, nil, nil, nil, nil)
	valid := dto.AttendanceEntryRequest{StudentID: "1001", Status: "在寢"}

	cases := map[string]dto.SubmitAttendanceRequest{
		"missing date":   submitRequest("", valid),
		"bad date":       submitRequest("2024-02-30", valid),
		"missing group":  {Date: "2024-01-01", AttendanceData: []dto.AttendanceEntryRequest{valid}},
		"no entries":     submitRequest("2024-01-01"),
		"unknown status": submitRequest("2024-01-01", dto.AttendanceEntryRequest{StudentID: "1001", Status: "請假"}),
		"missing id":     submitRequest("2024-01-01", dto.AttendanceEntryRequest{Status: "在寢"}),
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, appErrors.ErrValidation))
		})
	}
	assert.Zero(t, repo.submitCalls)
}

func TestAttendanceServiceSubmitRejectsRepeatedIDs(t *testing.T) {
	repo := &mockAttendanceRepo{}
	svc := NewAttendanceService(repo, nil, nil, nil, nil)

	_, err := svc.Submit(context.Background(), submitRequest("2024-01-01",
		dto.AttendanceEntryRequest{StudentID: "1001", Status: "在寢"},
		dto.AttendanceEntryRequest{StudentID: "1001", Status: "未歸"},
	))
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
	assert.Zero(t, repo.submitCalls)
}

func TestAttendanceServiceSubmitStorageError(t *testing.T) {
	repo := &mockAttendanceRepo{submitErr: errors.New("database is locked")}
	svc := NewAttendanceService(repo, nil, nil, nil, nil)

	_, err := svc.Submit(context.Background(), submitRequest("2024-01-01", dto.AttendanceEntryRequest{StudentID: "1001", Status: "在寢"}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrStorage))
}

func TestAttendanceServiceDatesCacheInvalidatedBySubmit(t *testing.T) {
	repo := &mockAttendanceRepo{}
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, nil, true)
	svc := NewAttendanceService(repo, cache, nil, nil, nil)
	ctx := context.Background()

	dates, err := svc.ListDates(ctx)
	require.NoError(t, err)
	assert.Empty(t, dates)

	_, err = svc.Submit(ctx, submitRequest("2024-01-05", dto.AttendanceEntryRequest{StudentID: "1001", Status: "在寢"}))
	require.NoError(t, err)

	dates, err = svc.ListDates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-05"}, dates)
	assert.Equal(t, 2, repo.datesCalls)

	_, err = svc.ListDates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.datesCalls)
}

func TestAttendanceServiceHistoryAndClear(t *testing.T) {
	repo := &mockAttendanceRepo{records: []models.AttendanceRecord{
		{Date: "2024-01-01", StudentID: "1001", StudentName: "王小明", Status: "在寢", GroupName: "德明宿舍男 5樓"},
		{Date: "2024-01-01", StudentID: "2001", StudentName: "林小華", Status: "未歸", GroupName: "德明宿舍女 1樓"},
	}}
	svc := NewAttendanceService(repo, nil, nil, nil, nil)
	ctx := context.Background()

	records, err := svc.History(ctx, dto.HistoryQuery{Group: " 德明宿舍女 1樓 "})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "2001", records[0].StudentID)

	_, err = svc.History(ctx, dto.HistoryQuery{Date: "01/01/2024"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	n, err := svc.Clear(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.Empty(t, repo.records)
}
