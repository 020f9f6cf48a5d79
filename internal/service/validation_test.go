package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chenglin1712/deming-rollcall/internal/dto"
	appErrors "github.com/chenglin1712/deming-rollcall/pkg/errors"
)

func TestValidatorRollcallRules(t *testing.T) {
	v := NewValidator()

	ok := dto.SubmitAttendanceRequest{
		Date:           "2024-02-29",
		Group:          "德明宿舍男 5樓",
		AttendanceData: []dto.AttendanceEntryRequest{{StudentID: "1001", Status: "晚歸"}},
	}
	require.NoError(t, v.Struct(ok))

	bad := ok
	bad.Date = "2023-02-29"
	bad.AttendanceData = []dto.AttendanceEntryRequest{{StudentID: "1001", Status: "unknown"}}
	err := validationError(v.Struct(bad), "資料格式錯誤")
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "date")
	assert.Contains(t, appErr.Message, "attendanceData[0].status")
}

func TestIsCalendarDate(t *testing.T) {
	assert.True(t, isCalendarDate("2024-01-01"))
	assert.False(t, isCalendarDate("2024-1-1"))
	assert.False(t, isCalendarDate("2024-13-01"))
	assert.False(t, isCalendarDate(""))
}
