package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chenglin1712/deming-rollcall/internal/dto"
	"github.com/chenglin1712/deming-rollcall/internal/models"
	appErrors "github.com/chenglin1712/deming-rollcall/pkg/errors"
)

type mockStudentRepo struct {
	students    map[string]models.Student
	listErr     error
	upsertErr   error
	groupCalls  int
	upsertCalls int
}

func newMockStudentRepo(students ...models.Student) *mockStudentRepo {
	m := &mockStudentRepo{students: make(map[string]models.Student)}
	for _, s := range students {
		m.students[s.ID] = s
	}
	return m
}

func (m *mockStudentRepo) ListByGroup(ctx context.Context, group string) ([]models.Student, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]models.Student, 0)
	for _, s := range m.students {
		if strings.EqualFold(strings.TrimSpace(s.GroupName), strings.TrimSpace(group)) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockStudentRepo) ListAll(ctx context.Context) ([]models.Student, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]models.Student, 0, len(m.students))
	for _, s := range m.students {
		out = append(out, s)
	}
	return out, nil
}

func (m *mockStudentRepo) ListGroups(ctx context.Context) ([]string, error) {
	m.groupCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	seen := map[string]bool{}
	out := make([]string, 0)
	for _, s := range m.students {
		g := strings.TrimSpace(s.GroupName)
		if g != "" && !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) (bool, error) {
	if _, ok := m.students[student.ID]; ok {
		return false, nil
	}
	m.students[student.ID] = *student
	return true, nil
}

func (m *mockStudentRepo) Upsert(ctx context.Context, students []models.Student) (int, error) {
	m.upsertCalls++
	if m.upsertErr != nil {
		return 0, m.upsertErr
	}
	for _, s := range students {
		m.students[s.ID] = s
	}
	return len(students), nil
}

type memoryCacheRepo struct {
	values  map[string]interface{}
	deletes []string
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{values: make(map[string]interface{})}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	v, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	switch d := dest.(type) {
	case *[]string:
		*d = append([]string(nil), v.([]string)...)
	default:
		return errors.New("unsupported cache type")
	}
	return nil
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.values[key] = value
	return nil
}

func (m *memoryCacheRepo) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.values, k)
		m.deletes = append(m.deletes, k)
	}
	return nil
}

func TestStudentServiceListEmptyGroup(t *testing.T) {
	svc := NewStudentService(newMockStudentRepo(models.Student{ID: "1001", GroupName: "A"}), nil, nil, nil)

	students, err := svc.List(context.Background(), "  ")
	require.NoError(t, err)
	assert.NotNil(t, students)
	assert.Empty(t, students)
}

func TestStudentServiceListAll(t *testing.T) {
	repo := newMockStudentRepo(
		models.Student{ID: "1001", GroupName: "德明宿舍男 5樓"},
		models.Student{ID: "2001", GroupName: "德明宿舍女 1樓"},
	)
	svc := NewStudentService(repo, nil, nil, nil)

	all, err := svc.ListAll(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	one, err := svc.ListAll(context.Background(), "德明宿舍女 1樓")
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "2001", one[0].ID)
}

func TestStudentServiceListStorageError(t *testing.T) {
	repo := newMockStudentRepo()
	repo.listErr = errors.New("db down")
	svc := NewStudentService(repo, nil, nil, nil)

	_, err := svc.List(context.Background(), "A")
	assert.True(t, errors.Is(err, appErrors.ErrStorage))
}

func TestStudentServiceCreate(t *testing.T) {
	cacheRepo := newMemoryCacheRepo()
	cacheRepo.values[cacheKeyGroups] = []string{"stale"}
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	repo := newMockStudentRepo()
	svc := NewStudentService(repo, cache, nil, nil)

	student, err := svc.Create(context.Background(), dto.CreateStudentRequest{
		ID: " 1001 ", Name: "王小明", RoomNumber: "305A", PhoneNumber: "0912345678", Group: "德明宿舍男 5樓",
	})
	require.NoError(t, err)
	assert.Equal(t, "1001", student.ID)
	assert.Equal(t, "德明宿舍男 5樓", repo.students["1001"].GroupName)
	assert.Contains(t, cacheRepo.deletes, cacheKeyGroups)

	_, err = svc.Create(context.Background(), dto.CreateStudentRequest{
		ID: "1001", Name: "王大明", RoomNumber: "306A", PhoneNumber: "0900000000", Group: "德明宿舍男 6樓",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
	assert.Contains(t, appErrors.FromError(err).Message, "1001")
}

func TestStudentServiceCreateValidation(t *testing.T) {
	svc := NewStudentService(newMockStudentRepo(), nil, nil, nil)

	cases := map[string]dto.CreateStudentRequest{
		"non numeric id": {ID: "A1001", Name: "王小明", RoomNumber: "305A", PhoneNumber: "0912", Group: "G"},
		"missing name":   {ID: "1001", Name: " ", RoomNumber: "305A", PhoneNumber: "0912", Group: "G"},
		"missing group":  {ID: "1001", Name: "王小明", RoomNumber: "305A", PhoneNumber: "0912"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, appErrors.ErrValidation))
		})
	}
}

func TestStudentServiceListGroupsUsesCache(t *testing.T) {
	repo := newMockStudentRepo(models.Student{ID: "1001", GroupName: " 德明宿舍男 5樓 "})
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, nil, true)
	svc := NewStudentService(repo, cache, nil, nil)

	first, err := svc.ListGroups(context.Background())
	require.NoError(t, err)
	second, err := svc.ListGroups(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"德明宿舍男 5樓"}, first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.groupCalls)
}
