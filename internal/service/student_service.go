package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/unireg-api/internal/dto"
	"github.com/noah-isme/unireg-api/internal/models"
	"github.com/noah-isme/unireg-api/internal/repository"
	appErrors "github.com/noah-isme/unireg-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	UpdateLevel(ctx context.Context, id, level, academicYear string) (bool, error)
}

type studentProgramReader interface {
	FindByID(ctx context.Context, id string) (*models.Program, error)
}

type currentPeriodReader interface {
	Current(ctx context.Context) (*models.AcademicPeriod, error)
}

// StudentService exposes student records and the yearly level update.
type StudentService struct {
	repo      studentRepository
	programs  studentProgramReader
	periods   currentPeriodReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(repo studentRepository, programs studentProgramReader, periods currentPeriodReader, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, programs: programs, periods: periods, validator: validate, logger: logger}
}

// List returns students matching the query.
func (s *StudentService) List(ctx context.Context, query dto.StudentListQuery) ([]models.Student, *models.Pagination, error) {
	filter := models.StudentFilter{
		ProgramID: query.ProgramID,
		Level:     models.NormalizeLevel(query.Level),
		Search:    strings.TrimSpace(query.Search),
		Page:      query.Page,
		PageSize:  query.PageSize,
	}
	if query.StudyMode != "" {
		mode, ok := models.ParseStudyMode(query.StudyMode)
		if !ok {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown study mode")
		}
		filter.StudyMode = mode
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns a student by ID.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create enrolls a student.
func (s *StudentService) Create(ctx context.Context, req dto.CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	level := models.NormalizeLevel(req.Level)
	if !models.ValidLevel(level) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown level")
	}
	mode, ok := models.ParseStudyMode(req.StudyMode)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown study mode")
	}
	if _, err := s.programs.FindByID(ctx, req.ProgramID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify program")
	}

	student := &models.Student{
		RegistrationNumber: strings.TrimSpace(req.RegistrationNumber),
		FullName:           strings.TrimSpace(req.FullName),
		ProgramID:          req.ProgramID,
		Level:              level,
		StudyMode:          mode,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "registration number already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// UpdateLevel changes a student's level at most once per academic year. An empty academic year
// in the request means the current period's year.
func (s *StudentService) UpdateLevel(ctx context.Context, id string, req dto.UpdateStudentLevelRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid level payload")
	}
	level := models.NormalizeLevel(req.Level)
	if !models.ValidLevel(level) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown level")
	}

	var year string
	if req.AcademicYear != "" {
		normalized, err := models.NormalizeAcademicYear(req.AcademicYear)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
		year = normalized
	} else {
		current, err := s.periods.Current(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "academic_year is required when no current period is configured")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current period")
		}
		year = current.AcademicYear
	}

	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if student.LevelUpdatedYear != nil && *student.LevelUpdatedYear == year {
		return nil, appErrors.ErrLevelAlreadyAdvanced
	}

	updated, err := s.repo.UpdateLevel(ctx, id, level, year)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update level")
	}
	if !updated {
		return nil, appErrors.ErrLevelAlreadyAdvanced
	}
	s.logger.Info("student level updated", zap.String("student_id", id), zap.String("from", student.Level), zap.String("to", level), zap.String("academic_year", year))
	return s.Get(ctx, id)
}
