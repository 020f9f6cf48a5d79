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
	appErrors "github.com/chenglin1712/deming-rollcall/pkg/errors"
	"github.com/chenglin1712/deming-rollcall/pkg/export"
)

// Export formats.
const (
	ExportFormatXLSX = "xlsx"
	ExportFormatCSV  = "csv"
	ExportFormatPDF  = "pdf"
)

const exportTitle = "點名記錄"

// Export column labels.
var exportHeaders = []string{"日期", "房號", "姓名", "狀態"}

type attendanceLister interface {
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error)
}

// ExportService renders attendance history as a downloadable file.
type ExportService struct {
	repo      attendanceLister
	csv       *export.CSVExporter
	xlsx      *export.XLSXExporter
	pdf       *export.PDFExporter
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExportService constructs an ExportService. pdfFont is the TTF used for
// PDF output; PDF export is refused while it is empty.
func NewExportService(repo attendanceLister, pdfFont string, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		repo:      repo,
		csv:       export.NewCSVExporter(),
		xlsx:      export.NewXLSXExporter(),
		pdf:       export.NewPDFExporter(pdfFont),
		metrics:   metrics,
		validator: withRollcallRules(validate),
		logger:    logger,
	}
}

// Export renders the records of one date, optionally narrowed to a group, in
// the requested format (xlsx when omitted).
func (s *ExportService) Export(ctx context.Context, query dto.ExportQuery) (*dto.ExportFile, error) {
	query.Date = strings.TrimSpace(query.Date)
	query.Group = strings.TrimSpace(query.Group)
	query.Format = strings.ToLower(strings.TrimSpace(query.Format))
	if query.Format == "" {
		query.Format = ExportFormatXLSX
	}
	if err := s.validator.Struct(query); err != nil {
		return nil, validationError(err, "請提供有效的日期與匯出格式")
	}

	records, err := s.repo.List(ctx, models.AttendanceFilter{Date: query.Date, Group: query.Group})
	if err != nil {
		return nil, appErrors.Storage(err, "無法取得點名記錄")
	}
	data := attendanceDataset(records)

	var (
		body        []byte
		contentType string
	)
	switch query.Format {
	case ExportFormatCSV:
		body, err = s.csv.Render(data)
		contentType = s.csv.ContentType()
	case ExportFormatPDF:
		title := exportTitle + " " + query.Date
		if query.Group != "" {
			title += " " + query.Group
		}
		body, err = s.pdf.Render(data, title)
		contentType = s.pdf.ContentType()
	default:
		body, err = s.xlsx.Render(data, exportTitle)
		contentType = s.xlsx.ContentType()
	}
	if err != nil {
		if errors.Is(err, export.ErrFontRequired) {
			return nil, appErrors.Validation(err, "伺服器未設定 PDF 字型，請改用 xlsx 或 csv 匯出")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "匯出檔案產生失敗")
	}

	s.metrics.RecordExport(query.Format)
	s.logger.Info("attendance exported",
		zap.String("date", query.Date),
		zap.String("group", query.Group),
		zap.String("format", query.Format),
		zap.Int("rows", len(records)),
	)
	return &dto.ExportFile{
		Filename:    exportFilename(query),
		ContentType: contentType,
		Data:        body,
	}, nil
}

func attendanceDataset(records []models.AttendanceRecord) export.Dataset {
	rows := make([]map[string]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, map[string]string{
			exportHeaders[0]: r.Date,
			exportHeaders[1]: r.RoomNumber,
			exportHeaders[2]: r.StudentName,
			exportHeaders[3]: string(r.Status),
		})
	}
	return export.Dataset{Headers: exportHeaders, Rows: rows}
}

func exportFilename(query dto.ExportQuery) string {
	name := fmt.Sprintf("%s_%s", exportTitle, query.Date)
	if query.Group != "" {
		name += "_" + query.Group
	}
	return name + "." + query.Format
}
