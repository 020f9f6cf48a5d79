package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chenglin1712/deming-rollcall/internal/dto"
	"github.com/chenglin1712/deming-rollcall/internal/models"
	"github.com/chenglin1712/deming-rollcall/pkg/response"
)

type attendanceService interface {
	Submit(ctx context.Context, req dto.SubmitAttendanceRequest) (*dto.SubmitAttendanceResponse, error)
	ListDates(ctx context.Context) ([]string, error)
	History(ctx context.Context, query dto.HistoryQuery) ([]models.AttendanceRecord, error)
	Clear(ctx context.Context) (int64, error)
}

type attendanceExporter interface {
	Export(ctx context.Context, query dto.ExportQuery) (*dto.ExportFile, error)
}

// AttendanceHandler exposes room-check endpoints.
type AttendanceHandler struct {
	attendance attendanceService
	exporter   attendanceExporter
}

// NewAttendanceHandler constructs an AttendanceHandler.
func NewAttendanceHandler(attendance attendanceService, exporter attendanceExporter) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance, exporter: exporter}
}

// Submit godoc
// @Summary Submit a room check
// @Description Record statuses for one date and group. Rejected as a whole when any student is already recorded for the date.
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.SubmitAttendanceRequest true "Room check"
// @Success 200 {object} dto.SubmitAttendanceResponse
// @Failure 400 {object} response.Result
// @Failure 409 {object} response.Result
// @Router /api/attendance/submit [post]
func (h *AttendanceHandler) Submit(c *gin.Context) {
	var req dto.SubmitAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "點名資料格式錯誤"))
		return
	}
	res, err := h.attendance.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Raw(c, http.StatusOK, res)
}

// Dates godoc
// @Summary Recorded dates
// @Tags Attendance
// @Produce json
// @Success 200 {array} string
// @Router /api/attendance/dates [get]
func (h *AttendanceHandler) Dates(c *gin.Context) {
	dates, err := h.attendance.ListDates(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, dates)
}

// History godoc
// @Summary Attendance history
// @Description Records ordered by date descending, then room and name
// @Tags Attendance
// @Produce json
// @Param date query string false "YYYY-MM-DD"
// @Param group query string false "Group name"
// @Success 200 {object} response.Result
// @Failure 400 {object} response.Result
// @Failure 403 {object} response.Result
// @Router /api/attendance/history [get]
func (h *AttendanceHandler) History(c *gin.Context) {
	var query dto.HistoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "查詢參數格式錯誤"))
		return
	}
	records, err := h.attendance.History(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	if records == nil {
		records = []models.AttendanceRecord{}
	}
	response.OK(c, response.Result{Data: records})
}

// Export godoc
// @Summary Export attendance
// @Tags Attendance
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce text/csv
// @Produce application/pdf
// @Param date query string true "YYYY-MM-DD"
// @Param group query string false "Group name"
// @Param format query string false "xlsx (default), csv or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Result
// @Router /api/attendance/export [get]
func (h *AttendanceHandler) Export(c *gin.Context) {
	var query dto.ExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "查詢參數格式錯誤"))
		return
	}
	file, err := h.exporter.Export(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", contentDisposition(file.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// Clear godoc
// @Summary Delete all attendance records
// @Tags Attendance
// @Produce json
// @Success 200 {object} response.Result
// @Failure 403 {object} response.Result
// @Router /api/attendance/clear [delete]
func (h *AttendanceHandler) Clear(c *gin.Context) {
	n, err := h.attendance.Clear(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, response.Result{
		Message: fmt.Sprintf("已清除 %d 筆點名記錄", n),
		Count:   response.Count(int(n)),
	})
}

// contentDisposition builds an attachment header with an ASCII fallback name
// and the RFC 5987 encoded original.
func contentDisposition(filename string) string {
	fallback := strings.Map(func(r rune) rune {
		if r > 0x7e || r < 0x20 || r == '"' || r == '\\' {
			return '_'
		}
		return r
	}, filename)
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, fallback, url.PathEscape(filename))
}
