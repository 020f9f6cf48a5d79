package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chenglin1712/deming-rollcall/internal/dto"
	"github.com/chenglin1712/deming-rollcall/internal/models"
	"github.com/chenglin1712/deming-rollcall/internal/service"
	appErrors "github.com/chenglin1712/deming-rollcall/pkg/errors"
)

type fakeRosterSrv struct {
	students  []models.Student
	listGroup string
	created   dto.CreateStudentRequest
	createErr error
	groups    []string
}

func (f *fakeRosterSrv) List(_ context.Context, group string) ([]models.Student, error) {
	f.listGroup = group
	return f.students, nil
}

func (f *fakeRosterSrv) ListAll(_ context.Context, group string) ([]models.Student, error) {
	f.listGroup = group
	return f.students, nil
}

func (f *fakeRosterSrv) Create(_ context.Context, req dto.CreateStudentRequest) (*models.Student, error) {
	f.created = req
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &models.Student{ID: req.ID, Name: req.Name}, nil
}

func (f *fakeRosterSrv) ListGroups(context.Context) ([]string, error) {
	return f.groups, nil
}

type fakeImporter struct {
	file   dto.ImportFile
	result *service.ImportResult
	err    error
}

func (f *fakeImporter) Import(_ context.Context, file dto.ImportFile) (*service.ImportResult, error) {
	f.file = file
	return f.result, f.err
}

func studentRouter(srv *fakeRosterSrv, imp *fakeImporter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewStudentHandler(srv, imp)
	r := gin.New()
	r.GET("/api/students", h.List)
	r.POST("/api/students", h.Create)
	r.GET("/api/groups", h.Groups)
	r.POST("/api/students/import", h.Import)
	return r
}

func multipartBody(t *testing.T, field, name string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestStudentHandlerListReturnsArray(t *testing.T) {
	srv := &fakeRosterSrv{}
	r := studentRouter(srv, &fakeImporter{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/students", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", rec.Body.String())
	assert.Empty(t, srv.listGroup)
}

func TestStudentHandlerCreate(t *testing.T) {
	srv := &fakeRosterSrv{}
	r := studentRouter(srv, &fakeImporter{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/students", bytes.NewBufferString(
		`{"id":"1001","name":"王小明","roomNumber":"305A","phoneNumber":"0912345678","group":"德明宿舍男 5樓"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "305A", srv.created.RoomNumber)
	assert.Contains(t, rec.Body.String(), `"id":"1001"`)
}

func TestStudentHandlerCreateConflict(t *testing.T) {
	r := studentRouter(&fakeRosterSrv{createErr: appErrors.Clone(appErrors.ErrConflict, "學號 1001 已存在")}, &fakeImporter{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/students", bytes.NewBufferString(`{"id":"1001"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "學號 1001 已存在")
}

func TestStudentHandlerImport(t *testing.T) {
	imp := &fakeImporter{result: &service.ImportResult{Imported: 2, Skipped: 1}}
	r := studentRouter(&fakeRosterSrv{}, imp)

	body, contentType := multipartBody(t, "file", "roster.csv", []byte("性別,學號,姓名,房號,床\n"))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/students/import", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "roster.csv", imp.file.Filename)
	assert.Equal(t, []byte("性別,學號,姓名,房號,床\n"), imp.file.Data)
	assert.JSONEq(t, `{"success":true,"message":"成功匯入 2 筆學生資料，略過 1 筆資料不完整的列","count":2}`, rec.Body.String())
}

func TestStudentHandlerImportRequiresFile(t *testing.T) {
	imp := &fakeImporter{}
	r := studentRouter(&fakeRosterSrv{}, imp)

	body, contentType := multipartBody(t, "other", "roster.csv", []byte("x"))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/students/import", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, imp.file.Filename)
}

func TestStudentHandlerGroups(t *testing.T) {
	r := studentRouter(&fakeRosterSrv{groups: []string{"德明宿舍女 3樓", "德明宿舍男 5樓"}}, &fakeImporter{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/groups", nil))

	assert.JSONEq(t, `["德明宿舍女 3樓","德明宿舍男 5樓"]`, rec.Body.String())
}
