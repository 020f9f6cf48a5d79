package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chenglin1712/deming-rollcall/internal/dto"
	"github.com/chenglin1712/deming-rollcall/internal/models"
	"github.com/chenglin1712/deming-rollcall/internal/service"
	appErrors "github.com/chenglin1712/deming-rollcall/pkg/errors"
	"github.com/chenglin1712/deming-rollcall/pkg/response"
)

type studentService interface {
	List(ctx context.Context, group string) ([]models.Student, error)
	ListAll(ctx context.Context, group string) ([]models.Student, error)
	Create(ctx context.Context, req dto.CreateStudentRequest) (*models.Student, error)
	ListGroups(ctx context.Context) ([]string, error)
}

type rosterImporter interface {
	Import(ctx context.Context, file dto.ImportFile) (*service.ImportResult, error)
}

// StudentHandler exposes roster endpoints.
type StudentHandler struct {
	students studentService
	importer rosterImporter
}

// NewStudentHandler constructs a StudentHandler.
func NewStudentHandler(students studentService, importer rosterImporter) *StudentHandler {
	return &StudentHandler{students: students, importer: importer}
}

// List godoc
// @Summary Students of a group
// @Description Roster of one group for taking the room check; empty when no group is given
// @Tags Students
// @Produce json
// @Param group query string false "Group name"
// @Success 200 {array} models.Student
// @Failure 401 {object} response.Result
// @Router /api/students [get]
func (h *StudentHandler) List(c *gin.Context) {
	var query dto.StudentListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "查詢參數格式錯誤"))
		return
	}
	students, err := h.students.List(c.Request.Context(), query.Group)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, students)
}

// ListAll godoc
// @Summary Roster management view
// @Description Whole roster, or one group when given
// @Tags Students
// @Produce json
// @Param group query string false "Group name"
// @Success 200 {array} models.Student
// @Failure 403 {object} response.Result
// @Router /api/students/all [get]
func (h *StudentHandler) ListAll(c *gin.Context) {
	var query dto.StudentListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "查詢參數格式錯誤"))
		return
	}
	students, err := h.students.ListAll(c.Request.Context(), query.Group)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, students)
}

// Create godoc
// @Summary Add a student
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body dto.CreateStudentRequest true "Student"
// @Success 201 {object} response.Result
// @Failure 400 {object} response.Result
// @Failure 409 {object} response.Result
// @Router /api/students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var req dto.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "學生資料格式錯誤"))
		return
	}
	student, err := h.students.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, response.Result{Message: "學生新增成功", ID: student.ID})
}

// Groups godoc
// @Summary Group names
// @Tags Students
// @Produce json
// @Success 200 {array} string
// @Router /api/groups [get]
func (h *StudentHandler) Groups(c *gin.Context) {
	groups, err := h.students.ListGroups(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, groups)
}

// Import godoc
// @Summary Import roster sheet
// @Description Upsert students from an .xlsx or .csv sheet with columns 性別 學號 姓名 房號 床 and optional 電話/手機
// @Tags Students
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Roster sheet"
// @Success 200 {object} response.Result
// @Failure 400 {object} response.Result
// @Failure 413 {object} response.Result
// @Failure 500 {object} response.Result
// @Router /api/students/import [post]
func (h *StudentHandler) Import(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, bindError(err, "請選擇要匯入的檔案"))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "無法讀取上傳檔案"))
		return
	}
	defer file.Close() //nolint:errcheck

	data, err := io.ReadAll(file)
	if err != nil {
		response.Error(c, bindError(err, "無法讀取上傳檔案"))
		return
	}

	result, err := h.importer.Import(c.Request.Context(), dto.ImportFile{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	message := fmt.Sprintf("成功匯入 %d 筆學生資料", result.Imported)
	if result.Skipped > 0 {
		message += fmt.Sprintf("，略過 %d 筆資料不完整的列", result.Skipped)
	}
	response.OK(c, response.Result{Message: message, Count: response.Count(result.Imported)})
}
