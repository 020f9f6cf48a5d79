package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/chenglin1712/deming-rollcall/internal/dto"
	"github.com/chenglin1712/deming-rollcall/internal/models"
	appErrors "github.com/chenglin1712/deming-rollcall/pkg/errors"
	"github.com/chenglin1712/deming-rollcall/pkg/tabular"
)

// Roster sheet header labels.
const (
	columnGender = "性別"
	columnID     = "學號"
	columnName   = "姓名"
	columnRoom   = "房號"
	columnBed    = "床"
	columnPhone  = "電話"
	columnMobile = "手機"
)

var requiredImportColumns = []string{columnGender, columnID, columnName, columnRoom, columnBed}

const (
	groupPrefix = "德明宿舍"
	floorSuffix = "樓"
)

// Import outcomes reported to metrics.
const (
	importOutcomeSuccess = "success"
	importOutcomeInvalid = "invalid"
	importOutcomeFailed  = "failed"
)

type studentUpserter interface {
	Upsert(ctx context.Context, students []models.Student) (int, error)
}

// FileArchiver keeps a copy of uploaded files.
type FileArchiver interface {
	Save(original string, data []byte) (string, error)
}

// ImportResult summarises a roster import.
type ImportResult struct {
	Imported int
	Skipped  int
}

// ImportService loads roster sheets into the student table.
type ImportService struct {
	repo    studentUpserter
	cache   *CacheService
	archive FileArchiver
	metrics *MetricsService
	logger  *zap.Logger
}

// NewImportService constructs an ImportService. archive may be nil.
func NewImportService(repo studentUpserter, cache *CacheService, archive FileArchiver, metrics *MetricsService, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{repo: repo, cache: cache, archive: archive, metrics: metrics, logger: logger}
}

// Import parses file and upserts every usable row in one transaction. Rows
// lacking gender, id, name, room or bed are skipped.
func (s *ImportService) Import(ctx context.Context, file dto.ImportFile) (*ImportResult, error) {
	students, skipped, err := s.parse(file)
	if err != nil {
		s.metrics.RecordImport(importOutcomeInvalid)
		return nil, err
	}

	if s.archive != nil {
		if name, err := s.archive.Save(file.Filename, file.Data); err != nil {
			s.logger.Warn("failed to archive roster upload", zap.String("file", file.Filename), zap.Error(err))
		} else {
			s.logger.Debug("roster upload archived", zap.String("name", name))
		}
	}

	count, err := s.repo.Upsert(ctx, students)
	if err != nil {
		s.metrics.RecordImport(importOutcomeFailed)
		return nil, appErrors.Storage(err, "匯入失敗，資料未寫入")
	}

	s.metrics.RecordImport(importOutcomeSuccess)
	s.cache.Invalidate(ctx, cacheKeyGroups)
	s.logger.Info("roster imported",
		zap.String("file", file.Filename),
		zap.Int("imported", count),
		zap.Int("skipped", skipped),
	)
	return &ImportResult{Imported: count, Skipped: skipped}, nil
}

func (s *ImportService) parse(file dto.ImportFile) ([]models.Student, int, error) {
	if len(file.Data) == 0 {
		return nil, 0, appErrors.Clone(appErrors.ErrValidation, "請選擇要匯入的檔案")
	}

	head := file.Data
	if len(head) > 512 {
		head = head[:512]
	}
	format, err := tabular.Detect(file.Filename, file.ContentType, head)
	if err != nil {
		if errors.Is(err, tabular.ErrLegacyWorkbook) {
			return nil, 0, appErrors.Validation(err, "不支援舊版 .xls 檔案，請另存為 .xlsx 或 .csv")
		}
		return nil, 0, appErrors.Validation(err, "無法辨識檔案格式，請上傳 .xlsx 或 .csv")
	}

	table, err := tabular.Read(format, file.Data)
	if err != nil {
		return nil, 0, appErrors.Validation(err, "無法讀取檔案內容")
	}
	if missing := table.Missing(requiredImportColumns...); len(missing) > 0 {
		return nil, 0, appErrors.Clone(appErrors.ErrValidation, "缺少必要欄位："+strings.Join(missing, "、"))
	}

	students := make([]models.Student, 0, len(table.Rows))
	skipped := 0
	for _, row := range table.Rows {
		student, ok := studentFromRow(row)
		if !ok {
			skipped++
			continue
		}
		students = append(students, student)
	}
	return students, skipped, nil
}

func studentFromRow(row tabular.Row) (models.Student, bool) {
	gender := row.Get(columnGender)
	id := row.Get(columnID)
	name := row.Get(columnName)
	room := row.Get(columnRoom)
	bed := row.Get(columnBed)
	if gender == "" || id == "" || name == "" || room == "" || bed == "" {
		return models.Student{}, false
	}

	phone := row.Get(columnPhone)
	if phone == "" {
		phone = row.Get(columnMobile)
	}
	if phone == "" {
		phone = models.DefaultPhoneNumber
	}

	return models.Student{
		ID:          id,
		Name:        name,
		RoomNumber:  room + bed,
		PhoneNumber: phone,
		GroupName:   deriveGroup(gender, room),
	}, true
}

// deriveGroup builds the floor group label. The floor is the last character of
// the room string, which matches this dormitory's room numbering.
func deriveGroup(gender, room string) string {
	suffix := ""
	if gender == "男" || gender == "女" {
		suffix = gender
	}
	last, _ := utf8.DecodeLastRuneInString(room)
	return fmt.Sprintf("%s%s %c%s", groupPrefix, suffix, last, floorSuffix)
}
