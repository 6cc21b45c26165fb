package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/unireg-api/internal/dto"
	"github.com/noah-isme/unireg-api/internal/models"
	appErrors "github.com/noah-isme/unireg-api/pkg/errors"
)

type stubCatalogSource struct {
	catalog    []models.CourseCatalogEntry
	programs   map[string]models.Program
	catalogErr error
	programErr error
}

func (s *stubCatalogSource) Catalog(ctx context.Context) ([]models.CourseCatalogEntry, error) {
	if s.catalogErr != nil {
		return nil, s.catalogErr
	}
	return s.catalog, nil
}

func (s *stubCatalogSource) Program(ctx context.Context, id string) (*models.Program, error) {
	if s.programErr != nil {
		return nil, s.programErr
	}
	p, ok := s.programs[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
	}
	return &p, nil
}

func mustMapping(t *testing.T, raw string) models.ProgramCourseMapping {
	t.Helper()
	mapping, err := models.DecodeProgramCourseMapping([]byte(raw))
	require.NoError(t, err)
	return mapping
}

func newResolverFixture(t *testing.T) (*CourseResolverService, *stubCatalogSource) {
	source := &stubCatalogSource{
		catalog: sampleCatalog(),
		programs: map[string]models.Program{
			"prog1": {
				ID:   "prog1",
				Name: "BSc Agriculture",
				CourseMapping: mustMapping(t, `{
					"200": {
						"First Semester": {"all": {"all": ["AGM251", "AGM253"]}},
						"Second Semester": {"2024/2025": {"Regular": ["AGM252"], "Weekend": ["AGM252", "AGM999"]}}
					}
				}`),
			},
			"prog2": {ID: "prog2", Name: "Bachelor of Science in Agric", ShortName: "BSc Agriculture"},
			"prog3": {ID: "prog3", Name: "Computer Science"},
			"prog4": {ID: "prog4", Name: "Nursing"},
		},
	}
	return NewCourseResolverService(source, nil, NewMetricsService(), nil), source
}

func courseCodes(courses []models.CourseCatalogEntry) []string {
	codes := make([]string, 0, len(courses))
	for _, c := range courses {
		codes = append(codes, c.Code)
	}
	return codes
}

func TestGetProgramCoursesFromMappingAnyYear(t *testing.T) {
	svc, _ := newResolverFixture(t)

	for _, year := range []string{"all", "", "2019/2020", "2030-2031"} {
		res := svc.GetProgramCourses(context.Background(), "prog1", "200", "1", year, "all")
		assert.Equal(t, []string{"AGM251", "AGM253"}, courseCodes(res.Courses), "year %q", year)
		assert.Equal(t, dto.ResolutionSourceMapping, res.Source)
		assert.Empty(t, res.Reason)
	}
}

func TestGetProgramCoursesFiltersYearAndMode(t *testing.T) {
	svc, _ := newResolverFixture(t)

	res := svc.GetProgramCourses(context.Background(), "prog1", "Level 200", "second semester", "2024/2025", "regular")
	assert.Equal(t, []string{"AGM252"}, courseCodes(res.Courses))

	res = svc.GetProgramCourses(context.Background(), "prog1", "200", "2", "2024/2025", "Weekend")
	assert.Equal(t, []string{"AGM252"}, courseCodes(res.Courses), "codes missing from the catalog are dropped")

	res = svc.GetProgramCourses(context.Background(), "prog1", "200", "2", "2024/2025", "")
	assert.Equal(t, []string{"AGM252"}, courseCodes(res.Courses), "duplicates across modes collapse")

	res = svc.GetProgramCourses(context.Background(), "prog1", "200", "2", "2023/2024", "Regular")
	assert.Empty(t, res.Courses)
	assert.Equal(t, ReasonNoMappedCourses, res.Reason)
	assert.Equal(t, dto.ResolutionSourceMapping, res.Source, "mapped programs never fall back to the catalog")
}

func TestGetProgramCoursesFallbackStrategies(t *testing.T) {
	svc, _ := newResolverFixture(t)

	res := svc.GetProgramCourses(context.Background(), "prog2", "200", "1", "", "")
	assert.Equal(t, dto.ResolutionSourceFallback, res.Source)
	assert.Equal(t, "short_name", res.Strategy)
	assert.Equal(t, []string{"AGM251", "AGM253"}, courseCodes(res.Courses))

	res = svc.GetProgramCourses(context.Background(), "prog3", "100", "First", "", "")
	assert.Equal(t, "name", res.Strategy)
	assert.Equal(t, []string{"CSC101"}, courseCodes(res.Courses))

	res = svc.GetProgramCourses(context.Background(), "prog4", "100", "1", "", "")
	assert.Empty(t, res.Courses)
	assert.Equal(t, ReasonNoFallbackMatches, res.Reason)
}

func TestGetProgramCoursesInvalidInput(t *testing.T) {
	svc, _ := newResolverFixture(t)

	cases := []struct {
		name      string
		programID string
		level     string
		semester  string
		year      string
		mode      string
		reason    string
	}{
		{name: "missing program", programID: " ", level: "200", semester: "1", reason: ReasonProgramIDRequired},
		{name: "level without digits", programID: "prog1", level: "final", semester: "1", reason: ReasonInvalidLevel},
		{name: "semester", programID: "prog1", level: "200", semester: "summer", reason: ReasonUnknownSemester},
		{name: "year", programID: "prog1", level: "200", semester: "1", year: "2024", reason: ReasonInvalidYear},
		{name: "study mode", programID: "prog1", level: "200", semester: "1", mode: "evening", reason: ReasonInvalidStudyMode},
		{name: "unknown program", programID: "ghost", level: "200", semester: "1", reason: ReasonProgramNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := svc.GetProgramCourses(context.Background(), tc.programID, tc.level, tc.semester, tc.year, tc.mode)
			assert.NotNil(t, res.Courses)
			assert.Empty(t, res.Courses)
			assert.Equal(t, dto.ResolutionSourceNone, res.Source)
			assert.Equal(t, tc.reason, res.Reason)
		})
	}
}

func TestGetProgramCoursesDependencyFailures(t *testing.T) {
	svc, source := newResolverFixture(t)

	source.catalogErr = errors.New("redis timeout")
	res := svc.GetProgramCourses(context.Background(), "prog1", "200", "1", "", "")
	assert.Empty(t, res.Courses)
	assert.Equal(t, ReasonCatalogUnavailable, res.Reason)

	source.catalogErr = nil
	source.programErr = errors.New("connection reset")
	res = svc.GetProgramCourses(context.Background(), "prog1", "200", "1", "", "")
	assert.Equal(t, ReasonProgramUnavailable, res.Reason)
}

func TestProgramNameMatching(t *testing.T) {
	assert.Equal(t, "bsc agriculture", normalizeProgramName("  BSc  AGRICULTURE "))
	assert.True(t, programNamesMatch("bsc agriculture", "agriculture"))
	assert.True(t, programNamesMatch("agric", "bsc agriculture"))
	assert.False(t, programNamesMatch("", "bsc agriculture"))
	assert.False(t, programNamesMatch("nursing", "bsc agriculture"))
}
