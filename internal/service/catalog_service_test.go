package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/unireg-api/internal/dto"
	"github.com/noah-isme/unireg-api/internal/models"
	appErrors "github.com/noah-isme/unireg-api/pkg/errors"
)

type memoryCacheRepo struct {
	items map[string][]byte
	sets  int
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{items: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.sets++
	m.items[key] = raw
	return nil
}

func (m *memoryCacheRepo) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.items, key)
	}
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	for key := range m.items {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.items, key)
		}
	}
	return nil
}

type mockCatalogRepo struct {
	courses []models.CourseCatalogEntry
	err     error
	calls   int
	saved   []models.CourseCatalogEntry
}

func (m *mockCatalogRepo) Upsert(ctx context.Context, course *models.CourseCatalogEntry) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, *course)
	return nil
}

func (m *mockCatalogRepo) ListCatalog(ctx context.Context) ([]models.CourseCatalogEntry, error) {
	m.calls++
	return m.courses, m.err
}

type mockProgramRepo struct {
	programs map[string]models.Program
	calls    int
}

func (m *mockProgramRepo) FindByID(ctx context.Context, id string) (*models.Program, error) {
	m.calls++
	if p, ok := m.programs[id]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockProgramRepo) List(ctx context.Context) ([]models.Program, error) {
	out := make([]models.Program, 0, len(m.programs))
	for _, p := range m.programs {
		out = append(out, p)
	}
	return out, nil
}

func (m *mockProgramRepo) UpdateMapping(ctx context.Context, id string, mapping models.ProgramCourseMapping) (bool, error) {
	p, ok := m.programs[id]
	if !ok {
		return false, nil
	}
	p.CourseMapping = mapping
	m.programs[id] = p
	return true, nil
}

func sampleCatalog() []models.CourseCatalogEntry {
	return []models.CourseCatalogEntry{
		{Code: "AGM251", Title: "Crop Physiology", Credits: 3, Level: "200", Semester: "First Semester", Program: "BSc Agriculture"},
		{Code: "AGM253", Title: "Soil Science", Credits: 3, Level: "200", Semester: "First Semester", Program: "BSc Agriculture"},
		{Code: "AGM252", Title: "Farm Machinery", Credits: 2, Level: "200", Semester: "Second Semester", Program: "BSc Agriculture"},
		{Code: "CSC101", Title: "Introduction to Computing", Credits: 3, Level: "100", Semester: "First Semester", Program: "BSc Computer Science"},
	}
}

func TestCatalogServiceReadsThroughCache(t *testing.T) {
	cacheRepo := newMemoryCacheRepo()
	metrics := NewMetricsService()
	cache := NewCacheService(cacheRepo, metrics, time.Minute, nil, true)
	courses := &mockCatalogRepo{courses: sampleCatalog()}
	svc := NewCatalogService(courses, &mockProgramRepo{}, cache, nil, nil)

	first, err := svc.Catalog(context.Background())
	require.NoError(t, err)
	second, err := svc.Catalog(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, courses.calls)
	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.CacheHits)
	assert.Equal(t, uint64(1), snapshot.CacheMisses)
}

func TestCatalogServiceWithoutCache(t *testing.T) {
	courses := &mockCatalogRepo{courses: sampleCatalog()}
	svc := NewCatalogService(courses, &mockProgramRepo{}, nil, nil, nil)

	_, err := svc.Catalog(context.Background())
	require.NoError(t, err)
	_, err = svc.Catalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, courses.calls)

	courses.err = errors.New("db down")
	_, err = svc.Catalog(context.Background())
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}

func TestCatalogServiceProgramNotFound(t *testing.T) {
	svc := NewCatalogService(&mockCatalogRepo{}, &mockProgramRepo{programs: map[string]models.Program{}}, nil, nil, nil)

	_, err := svc.Program(context.Background(), "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestCatalogServiceListCourses(t *testing.T) {
	svc := NewCatalogService(&mockCatalogRepo{courses: sampleCatalog()}, &mockProgramRepo{}, nil, nil, nil)

	courses, hit, err := svc.ListCourses(context.Background(), dto.CourseListQuery{Level: "Level 200", Semester: "1", Program: "agriculture"})
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, courses, 2)
	assert.Equal(t, "AGM251", courses[0].Code)
	assert.Equal(t, "AGM253", courses[1].Code)

	all, _, err := svc.ListCourses(context.Background(), dto.CourseListQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	_, _, err = svc.ListCourses(context.Background(), dto.CourseListQuery{Semester: "summer"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestCatalogServiceUpdateMappingInvalidatesProgram(t *testing.T) {
	cacheRepo := newMemoryCacheRepo()
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	programs := &mockProgramRepo{programs: map[string]models.Program{"prog1": {ID: "prog1", Name: "BSc Agriculture"}}}
	svc := NewCatalogService(&mockCatalogRepo{}, programs, cache, nil, nil)

	before, err := svc.Program(context.Background(), "prog1")
	require.NoError(t, err)
	assert.True(t, before.CourseMapping.Empty())

	updated, err := svc.UpdateMapping(context.Background(), "prog1", dto.UpdateCourseMappingRequest{
		Mapping: json.RawMessage(`{"200":{"1":{"all":{"all":["agm251"]}}}}`),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"AGM251"}, updated.CourseMapping.Codes("200", models.SemesterFirst, "", ""))
	assert.Equal(t, 2, programs.calls, "mapping change must bypass the stale cache entry")

	_, err = svc.UpdateMapping(context.Background(), "prog1", dto.UpdateCourseMappingRequest{Mapping: json.RawMessage(`{"200":{"1":{"all":{"all":"AGM251"}}}}`)})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.UpdateMapping(context.Background(), "ghost", dto.UpdateCourseMappingRequest{Mapping: json.RawMessage(`{}`)})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestCatalogServiceRefresh(t *testing.T) {
	cacheRepo := newMemoryCacheRepo()
	cacheRepo.items[programCacheKeyPrefix+"prog1"] = []byte(`{"id":"prog1"}`)
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	courses := &mockCatalogRepo{courses: sampleCatalog()}
	svc := NewCatalogService(courses, &mockProgramRepo{}, cache, nil, nil)

	require.NoError(t, svc.Refresh(context.Background()))
	assert.Contains(t, cacheRepo.items, catalogCacheKey)
	assert.NotContains(t, cacheRepo.items, programCacheKeyPrefix+"prog1")

	disabled := NewCatalogService(courses, &mockProgramRepo{}, NewCacheService(cacheRepo, nil, time.Minute, nil, false), nil, nil)
	require.NoError(t, disabled.Refresh(context.Background()))
	assert.Equal(t, 1, courses.calls)
}

func TestCatalogServiceUpsertCourse(t *testing.T) {
	cacheRepo := newMemoryCacheRepo()
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	courses := &mockCatalogRepo{courses: sampleCatalog()}
	svc := NewCatalogService(courses, &mockProgramRepo{}, cache, nil, nil)

	_, err := svc.Catalog(context.Background())
	require.NoError(t, err)
	require.Contains(t, cacheRepo.items, catalogCacheKey)

	course, err := svc.UpsertCourse(context.Background(), " agm255 ", dto.UpsertCourseRequest{
		Title:    "Agricultural Economics",
		Credits:  2,
		Level:    "Level 200",
		Semester: "second",
		Program:  "BSc Agriculture",
	})
	require.NoError(t, err)
	assert.Equal(t, "AGM255", course.Code)
	assert.Equal(t, "200", course.Level)
	assert.Equal(t, models.SemesterSecond, course.Semester)
	require.Len(t, courses.saved, 1)
	assert.NotContains(t, cacheRepo.items, catalogCacheKey)

	cases := []dto.UpsertCourseRequest{
		{Credits: 2, Level: "200", Semester: "1", Program: "BSc Agriculture"},
		{Title: "X", Credits: 2, Level: "700", Semester: "1", Program: "BSc Agriculture"},
		{Title: "X", Credits: 2, Level: "200", Semester: "summer", Program: "BSc Agriculture"},
	}
	for _, req := range cases {
		_, err := svc.UpsertCourse(context.Background(), "AGM256", req)
		assert.ErrorIs(t, err, appErrors.ErrValidation)
	}
	assert.Len(t, courses.saved, 1)
}
