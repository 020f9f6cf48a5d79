package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/chenglin1712/deming-rollcall/internal/dto"
	"github.com/chenglin1712/deming-rollcall/internal/models"
	"github.com/chenglin1712/deming-rollcall/internal/repository"
	appErrors "github.com/chenglin1712/deming-rollcall/pkg/errors"
)

// Submission outcomes reported to metrics.
const (
	submissionAccepted = "accepted"
	submissionConflict = "conflict"
	submissionInvalid  = "invalid"
	submissionError    = "error"
)

type attendanceRepository interface {
	ListDates(ctx context.Context) ([]string, error)
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error)
	Submit(ctx context.Context, submission models.AttendanceSubmission) (*models.SubmissionResult, error)
	ClearAll(ctx context.Context) (int64, error)
}

// AttendanceService records room checks and serves their history.
type AttendanceService struct {
	repo      attendanceRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(repo attendanceRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		repo:      repo,
		cache:     cache,
		metrics:   metrics,
		validator: withRollcallRules(validate),
		logger:    logger,
	}
}

// Submit records one room check. The submission is all or nothing: if any
// student already has a record for the date the whole request is rejected
// with a ConflictError naming them.
func (s *AttendanceService) Submit(ctx context.Context, req dto.SubmitAttendanceRequest) (*dto.SubmitAttendanceResponse, error) {
	req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		s.metrics.RecordSubmission(submissionInvalid, 0)
		return nil, validationError(err, "點名資料不完整或格式錯誤")
	}

	seen := make(map[string]struct{}, len(req.AttendanceData))
	entries := make([]models.AttendanceEntry, 0, len(req.AttendanceData))
	for _, item := range req.AttendanceData {
		if _, dup := seen[item.StudentID]; dup {
			s.metrics.RecordSubmission(submissionConflict, 0)
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("學號 %s 在本次點名中重複出現", item.StudentID))
		}
		seen[item.StudentID] = struct{}{}
		entries = append(entries, models.AttendanceEntry{
			StudentID:   item.StudentID,
			StudentName: item.StudentName,
			Status:      models.AttendanceStatus(item.Status),
		})
	}

	result, err := s.repo.Submit(ctx, models.AttendanceSubmission{Date: req.Date, Group: req.Group, Entries: entries})
	if err != nil {
		var dup *repository.DuplicateAttendanceError
		if errors.As(err, &dup) {
			s.metrics.RecordSubmission(submissionConflict, 0)
			return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, duplicateMessage(dup))
		}
		s.metrics.RecordSubmission(submissionError, 0)
		return nil, appErrors.Storage(err, "點名記錄寫入失敗")
	}

	s.metrics.RecordSubmission(submissionAccepted, result.Count)
	s.cache.Invalidate(ctx, cacheKeyDates)
	if len(result.Warnings) > 0 {
		s.logger.Warn("attendance stored with unresolved rooms",
			zap.String("date", req.Date),
			zap.Strings("student_ids", result.Warnings),
		)
	}

	warnings := result.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return &dto.SubmitAttendanceResponse{
		Success:  true,
		Message:  fmt.Sprintf("成功提交 %d 筆點名記錄", result.Count),
		Count:    result.Count,
		Warnings: warnings,
	}, nil
}

func duplicateMessage(dup *repository.DuplicateAttendanceError) string {
	names := make([]string, len(dup.Students))
	for i, s := range dup.Students {
		names[i] = fmt.Sprintf("%s(%s)", s.StudentName, s.StudentID)
	}
	return fmt.Sprintf("以下學生在 %s 已有點名記錄：%s", dup.Date, strings.Join(names, "、"))
}

// ListDates returns the recorded dates, newest first.
func (s *AttendanceService) ListDates(ctx context.Context) ([]string, error) {
	var dates []string
	if s.cache.Get(ctx, cacheKeyDates, &dates) {
		return dates, nil
	}
	dates, err := s.repo.ListDates(ctx)
	if err != nil {
		return nil, appErrors.Storage(err, "無法取得點名日期")
	}
	s.cache.Set(ctx, cacheKeyDates, dates)
	return dates, nil
}

// History returns records filtered by optional date and group, ordered by
// date descending then room and name.
func (s *AttendanceService) History(ctx context.Context, query dto.HistoryQuery) ([]models.AttendanceRecord, error) {
	query.Date = strings.TrimSpace(query.Date)
	query.Group = strings.TrimSpace(query.Group)
	if err := s.validator.Struct(query); err != nil {
		return nil, validationError(err, "查詢條件格式錯誤")
	}
	records, err := s.repo.List(ctx, models.AttendanceFilter{Date: query.Date, Group: query.Group})
	if err != nil {
		return nil, appErrors.Storage(err, "無法取得點名記錄")
	}
	return records, nil
}

// Clear deletes every attendance record and returns how many were removed.
func (s *AttendanceService) Clear(ctx context.Context) (int64, error) {
	n, err := s.repo.ClearAll(ctx)
	if err != nil {
		return 0, appErrors.Storage(err, "清除點名記錄失敗")
	}
	s.cache.Invalidate(ctx, cacheKeyDates)
	s.logger.Warn("attendance history cleared", zap.Int64("removed", n))
	return n, nil
}
