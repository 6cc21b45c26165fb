package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/unireg-api/internal/dto"
	"github.com/noah-isme/unireg-api/internal/models"
	appErrors "github.com/noah-isme/unireg-api/pkg/errors"
)

const (
	catalogCacheKey       = "catalog:courses"
	programCacheKeyPrefix = "catalog:program:"
)

type courseCatalogRepository interface {
	ListCatalog(ctx context.Context) ([]models.CourseCatalogEntry, error)
	Upsert(ctx context.Context, course *models.CourseCatalogEntry) error
}

type programRepository interface {
	FindByID(ctx context.Context, id string) (*models.Program, error)
	List(ctx context.Context) ([]models.Program, error)
	UpdateMapping(ctx context.Context, id string, mapping models.ProgramCourseMapping) (bool, error)
}

// CatalogService serves the course catalog and programs through the read-through cache.
type CatalogService struct {
	courses  courseCatalogRepository
	programs programRepository
	cache    *CacheService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewCatalogService constructs a CatalogService. A nil cache reads straight from the store.
func NewCatalogService(courses courseCatalogRepository, programs programRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{courses: courses, programs: programs, cache: cache, validate: validate, logger: logger}
}

// Catalog returns the full course catalog.
func (s *CatalogService) Catalog(ctx context.Context) ([]models.CourseCatalogEntry, error) {
	courses, _, err := s.cachedCatalog(ctx)
	return courses, err
}

func (s *CatalogService) cachedCatalog(ctx context.Context) ([]models.CourseCatalogEntry, bool, error) {
	courses, hit, err := readThrough(ctx, s.cache, catalogCacheKey, s.courses.ListCatalog)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course catalog")
	}
	return courses, hit, nil
}

// Program returns a program with its course mapping.
func (s *CatalogService) Program(ctx context.Context, id string) (*models.Program, error) {
	program, _, err := readThrough(ctx, s.cache, programCacheKeyPrefix+id, func(ctx context.Context) (*models.Program, error) {
		return s.programs.FindByID(ctx, id)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	return program, nil
}

// Programs lists all programs.
func (s *CatalogService) Programs(ctx context.Context) ([]models.Program, error) {
	programs, err := s.programs.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list programs")
	}
	return programs, nil
}

// ListCourses filters the catalog by level, semester and program name. The flag reports whether
// the catalog came from cache.
func (s *CatalogService) ListCourses(ctx context.Context, query dto.CourseListQuery) ([]models.CourseCatalogEntry, bool, error) {
	level := models.NormalizeLevel(query.Level)
	semester := models.NormalizeSemester(query.Semester)
	if query.Semester != "" && semester == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "unrecognised semester")
	}
	catalog, hit, err := s.cachedCatalog(ctx)
	if err != nil {
		return nil, false, err
	}
	program := normalizeProgramName(query.Program)

	out := make([]models.CourseCatalogEntry, 0, len(catalog))
	for _, course := range catalog {
		if level != "" && models.NormalizeLevel(course.Level) != level {
			continue
		}
		if semester != "" && models.NormalizeSemester(course.Semester) != semester {
			continue
		}
		if program != "" && !programNamesMatch(normalizeProgramName(course.Program), program) {
			continue
		}
		out = append(out, course)
	}
	return out, hit, nil
}

// UpsertCourse creates or replaces a catalog entry and drops the cached catalog.
func (s *CatalogService) UpsertCourse(ctx context.Context, code string, req dto.UpsertCourseRequest) (*models.CourseCatalogEntry, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course code is required")
	}
	level := models.NormalizeLevel(req.Level)
	if !models.ValidLevel(level) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unrecognised level")
	}
	semester := models.NormalizeSemester(req.Semester)
	if semester == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unrecognised semester")
	}

	course := &models.CourseCatalogEntry{
		Code:     code,
		Title:    strings.TrimSpace(req.Title),
		Credits:  req.Credits,
		Level:    level,
		Semester: semester,
		Program:  strings.TrimSpace(req.Program),
	}
	if err := s.courses.Upsert(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save course")
	}
	_ = s.cache.Delete(ctx, catalogCacheKey)
	s.logger.Info("catalog course saved", zap.String("code", code), zap.String("level", level), zap.String("semester", semester))
	return course, nil
}

// UpdateMapping validates and stores a program's course mapping, then drops its cache entry.
func (s *CatalogService) UpdateMapping(ctx context.Context, id string, req dto.UpdateCourseMappingRequest) (*models.Program, error) {
	mapping, err := models.DecodeProgramCourseMapping(req.Mapping)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	updated, err := s.programs.UpdateMapping(ctx, id, mapping)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course mapping")
	}
	if !updated {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
	}
	_ = s.cache.Delete(ctx, programCacheKeyPrefix+id)
	s.logger.Info("program course mapping updated", zap.String("program_id", id), zap.Int("levels", len(mapping)))
	return s.Program(ctx, id)
}

// Refresh reloads the catalog into the cache and drops cached programs. It runs on the
// catalog refresh schedule.
func (s *CatalogService) Refresh(ctx context.Context) error {
	if !s.cache.Enabled() {
		return nil
	}
	catalog, err := s.courses.ListCatalog(ctx)
	if err != nil {
		return fmt.Errorf("refresh catalog: %w", err)
	}
	if err := s.cache.Set(ctx, catalogCacheKey, catalog, 0); err != nil {
		return fmt.Errorf("refresh catalog cache: %w", err)
	}
	if err := s.cache.Invalidate(ctx, programCacheKeyPrefix+"*"); err != nil {
		return fmt.Errorf("invalidate program cache: %w", err)
	}
	s.logger.Info("course catalog cache refreshed", zap.Int("courses", len(catalog)))
	return nil
}
