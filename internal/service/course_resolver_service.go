package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/noah-isme/unireg-api/internal/dto"
	"github.com/noah-isme/unireg-api/internal/models"
	appErrors "github.com/noah-isme/unireg-api/pkg/errors"
)

// Resolution reasons for empty results.
const (
	ReasonProgramIDRequired  = "program id is required"
	ReasonInvalidLevel       = "invalid level"
	ReasonUnknownSemester    = "invalid semester"
	ReasonInvalidYear        = "invalid academic year"
	ReasonInvalidStudyMode   = "invalid study mode"
	ReasonProgramNotFound    = "program not found"
	ReasonProgramUnavailable = "program data unavailable"
	ReasonCatalogUnavailable = "course catalog unavailable"
	ReasonNoMappedCourses    = "no courses mapped for this level, semester, year and study mode"
	ReasonNoFallbackMatches  = "no catalog courses match the program"
)

type catalogSource interface {
	Catalog(ctx context.Context) ([]models.CourseCatalogEntry, error)
	Program(ctx context.Context, id string) (*models.Program, error)
}

// ProgramNameStrategy derives the name used to match catalog entries when a program has no
// structured mapping.
type ProgramNameStrategy struct {
	Name string
	Pick func(*models.Program) string
}

// DefaultProgramNameStrategies are tried in order until one yields catalog matches.
var DefaultProgramNameStrategies = []ProgramNameStrategy{
	{Name: "name", Pick: func(p *models.Program) string { return p.Name }},
	{Name: "short_name", Pick: func(p *models.Program) string { return p.ShortName }},
	{Name: "id", Pick: func(p *models.Program) string { return p.ID }},
}

// CourseResolverService resolves the catalog courses that apply to a program in a given context.
// It never fails; problems surface as an empty result with a reason.
type CourseResolverService struct {
	catalog    catalogSource
	strategies []ProgramNameStrategy
	metrics    *MetricsService
	logger     *zap.Logger
}

// NewCourseResolverService constructs a resolver. Nil strategies select DefaultProgramNameStrategies.
func NewCourseResolverService(catalog catalogSource, strategies []ProgramNameStrategy, metrics *MetricsService, logger *zap.Logger) *CourseResolverService {
	if len(strategies) == 0 {
		strategies = DefaultProgramNameStrategies
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseResolverService{catalog: catalog, strategies: strategies, metrics: metrics, logger: logger}
}

// GetProgramCourses resolves courses for a program, level and semester. An empty year or study
// mode (or "all") matches every bucket. Courses come from the program's structured mapping; the
// catalog is filtered by program name only when the program has no mapping at all.
func (s *CourseResolverService) GetProgramCourses(ctx context.Context, programID, level, semester, year, studyMode string) dto.CourseResolution {
	res := dto.CourseResolution{
		ProgramID: strings.TrimSpace(programID),
		Courses:   []models.CourseCatalogEntry{},
		Source:    dto.ResolutionSourceNone,
	}
	defer func() { s.metrics.RecordResolution(res.Source) }()

	if res.ProgramID == "" {
		res.Reason = ReasonProgramIDRequired
		return res
	}
	levelKey := models.NormalizeLevel(level)
	if levelKey == "" {
		res.Reason = ReasonInvalidLevel
		return res
	}
	semesterKey := models.NormalizeSemester(semester)
	if semesterKey == "" {
		res.Reason = ReasonUnknownSemester
		return res
	}
	yearKey := ""
	if y := strings.TrimSpace(year); y != "" && !strings.EqualFold(y, models.AnyKey) {
		normalized, err := models.NormalizeAcademicYear(y)
		if err != nil {
			res.Reason = ReasonInvalidYear
			return res
		}
		yearKey = normalized
	}
	var mode models.StudyMode
	if m := strings.TrimSpace(studyMode); m != "" && !strings.EqualFold(m, models.AnyKey) {
		parsed, ok := models.ParseStudyMode(m)
		if !ok {
			res.Reason = ReasonInvalidStudyMode
			return res
		}
		mode = parsed
	}

	logger := s.logger.With(
		zap.String("program_id", res.ProgramID),
		zap.String("level", levelKey),
		zap.String("semester", semesterKey),
		zap.String("year", yearKey),
		zap.String("study_mode", string(mode)),
	)

	program, err := s.catalog.Program(ctx, res.ProgramID)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			res.Reason = ReasonProgramNotFound
		} else {
			logger.Warn("program lookup failed", zap.Error(err))
			res.Reason = ReasonProgramUnavailable
		}
		return res
	}

	catalog, err := s.catalog.Catalog(ctx)
	if err != nil {
		logger.Warn("catalog lookup failed", zap.Error(err))
		res.Reason = ReasonCatalogUnavailable
		return res
	}

	if !program.CourseMapping.Empty() {
		res.Source = dto.ResolutionSourceMapping
		res.Courses = s.fromMapping(logger, program.CourseMapping.Codes(levelKey, semesterKey, yearKey, mode), catalog)
		if len(res.Courses) == 0 {
			res.Reason = ReasonNoMappedCourses
		}
		return res
	}

	res.Source = dto.ResolutionSourceFallback
	for _, strategy := range s.strategies {
		candidate := normalizeProgramName(strategy.Pick(program))
		if candidate == "" {
			logger.Debug("program name strategy skipped", zap.String("strategy", strategy.Name))
			continue
		}
		matches := filterCatalog(catalog, candidate, levelKey, semesterKey)
		logger.Info("program name strategy attempted",
			zap.String("strategy", strategy.Name),
			zap.String("candidate", candidate),
			zap.Int("matches", len(matches)),
		)
		if len(matches) > 0 {
			res.Courses = matches
			res.Strategy = strategy.Name
			return res
		}
	}
	res.Reason = ReasonNoFallbackMatches
	return res
}

func (s *CourseResolverService) fromMapping(logger *zap.Logger, codes []string, catalog []models.CourseCatalogEntry) []models.CourseCatalogEntry {
	byCode := make(map[string]models.CourseCatalogEntry, len(catalog))
	for _, course := range catalog {
		byCode[strings.ToUpper(course.Code)] = course
	}

	seen := make(map[string]bool, len(codes))
	courses := make([]models.CourseCatalogEntry, 0, len(codes))
	for _, code := range codes {
		if seen[code] {
			continue
		}
		seen[code] = true
		course, ok := byCode[code]
		if !ok {
			logger.Warn("mapped course missing from catalog", zap.String("course_code", code))
			continue
		}
		courses = append(courses, course)
	}
	return courses
}

func filterCatalog(catalog []models.CourseCatalogEntry, program, level, semester string) []models.CourseCatalogEntry {
	seen := map[string]bool{}
	var out []models.CourseCatalogEntry
	for _, course := range catalog {
		if models.NormalizeLevel(course.Level) != level {
			continue
		}
		if models.NormalizeSemester(course.Semester) != semester {
			continue
		}
		if !programNamesMatch(normalizeProgramName(course.Program), program) {
			continue
		}
		if seen[course.Code] {
			continue
		}
		seen[course.Code] = true
		out = append(out, course)
	}
	return out
}

// normalizeProgramName folds compatibility characters, case and runs of whitespace.
func normalizeProgramName(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(norm.NFKC.String(raw))), " ")
}

// programNamesMatch reports whether either name contains the other.
func programNamesMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
