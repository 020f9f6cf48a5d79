package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/chenglin1712/deming-rollcall/internal/dto"
	"github.com/chenglin1712/deming-rollcall/internal/models"
	appErrors "github.com/chenglin1712/deming-rollcall/pkg/errors"
)

type studentRepository interface {
	ListByGroup(ctx context.Context, group string) ([]models.Student, error)
	ListAll(ctx context.Context) ([]models.Student, error)
	ListGroups(ctx context.Context) ([]string, error)
	Create(ctx context.Context, student *models.Student) (bool, error)
}

// StudentService exposes the roster.
type StudentService struct {
	repo      studentRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(repo studentRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, cache: cache, validator: withRollcallRules(validate), logger: logger}
}

// List returns the students of group. An empty group yields an empty list.
func (s *StudentService) List(ctx context.Context, group string) ([]models.Student, error) {
	group = strings.TrimSpace(group)
	if group == "" {
		return []models.Student{}, nil
	}
	students, err := s.repo.ListByGroup(ctx, group)
	if err != nil {
		return nil, appErrors.Storage(err, "無法取得學生名單")
	}
	return students, nil
}

// ListAll backs the roster management view: the whole roster when group is
// empty, otherwise the students of group.
func (s *StudentService) ListAll(ctx context.Context, group string) ([]models.Student, error) {
	if strings.TrimSpace(group) != "" {
		return s.List(ctx, group)
	}
	students, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Storage(err, "無法取得學生名單")
	}
	return students, nil
}

// Create adds one student typed in by hand. Ids must be numeric and unused.
func (s *StudentService) Create(ctx context.Context, req dto.CreateStudentRequest) (*models.Student, error) {
	req.ID = strings.TrimSpace(req.ID)
	req.Name = strings.TrimSpace(req.Name)
	req.RoomNumber = strings.TrimSpace(req.RoomNumber)
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	req.Group = strings.TrimSpace(req.Group)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "學生資料不完整或格式錯誤")
	}

	student := &models.Student{
		ID:          req.ID,
		Name:        req.Name,
		RoomNumber:  req.RoomNumber,
		PhoneNumber: req.PhoneNumber,
		GroupName:   req.Group,
	}
	created, err := s.repo.Create(ctx, student)
	if err != nil {
		return nil, appErrors.Storage(err, "新增學生失敗")
	}
	if !created {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("學號 %s 已存在", student.ID))
	}

	s.cache.Invalidate(ctx, cacheKeyGroups)
	s.logger.Info("student created", zap.String("student_id", student.ID), zap.String("group", student.GroupName))
	return student, nil
}

// ListGroups returns the distinct group names in ascending order.
func (s *StudentService) ListGroups(ctx context.Context) ([]string, error) {
	var groups []string
	if s.cache.Get(ctx, cacheKeyGroups, &groups) {
		return groups, nil
	}
	groups, err := s.repo.ListGroups(ctx)
	if err != nil {
		return nil, appErrors.Storage(err, "無法取得群組列表")
	}
	s.cache.Set(ctx, cacheKeyGroups, groups)
	return groups, nil
}
