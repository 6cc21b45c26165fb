package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/unireg-api/internal/dto"
	"github.com/noah-isme/unireg-api/internal/models"
	appErrors "github.com/noah-isme/unireg-api/pkg/errors"
)

type periodRepository interface {
	Current(ctx context.Context) (*models.AcademicPeriod, error)
	List(ctx context.Context) ([]models.AcademicPeriod, error)
	SetCurrent(ctx context.Context, period *models.AcademicPeriod) (*models.AcademicPeriod, error)
}

// PeriodService manages academic periods and resolves the period a request refers to.
type PeriodService struct {
	repo      periodRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPeriodService constructs a PeriodService.
func NewPeriodService(repo periodRepository, validate *validator.Validate, logger *zap.Logger) *PeriodService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PeriodService{repo: repo, validator: validate, logger: logger}
}

// Current returns the current academic period.
func (s *PeriodService) Current(ctx context.Context) (*models.AcademicPeriod, error) {
	period, err := s.repo.Current(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no current academic period configured")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current period")
	}
	return period, nil
}

// List returns all academic periods.
func (s *PeriodService) List(ctx context.Context) ([]models.AcademicPeriod, error) {
	periods, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list periods")
	}
	return periods, nil
}

// SetCurrent moves the current-period pointer.
func (s *PeriodService) SetCurrent(ctx context.Context, req dto.SetCurrentPeriodRequest) (*models.AcademicPeriod, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid period payload")
	}
	year, err := models.NormalizeAcademicYear(req.AcademicYear)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	label := req.Label
	if label == "" {
		label = fmt.Sprintf("%s Semester %d", year, req.Semester)
	}

	period, err := s.repo.SetCurrent(ctx, &models.AcademicPeriod{AcademicYear: year, Semester: req.Semester, Label: label})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set current period")
	}
	s.logger.Info("current period changed", zap.String("academic_year", period.AcademicYear), zap.Int("semester", period.Semester))
	return period, nil
}

// Resolve returns the canonical (year, semester) a request refers to. When both are empty the
// current period is used; supplying only one of them is a validation error.
func (s *PeriodService) Resolve(ctx context.Context, academicYear string, semester int) (string, int, error) {
	if academicYear == "" && semester == 0 {
		current, err := s.Current(ctx)
		if err != nil {
			return "", 0, err
		}
		return current.AcademicYear, current.Semester, nil
	}
	if academicYear == "" || semester == 0 {
		return "", 0, appErrors.Clone(appErrors.ErrValidation, "academicYear and semester must be provided together")
	}
	year, err := models.NormalizeAcademicYear(academicYear)
	if err != nil {
		return "", 0, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if semester < 1 || semester > 3 {
		return "", 0, appErrors.Clone(appErrors.ErrValidation, "semester must be between 1 and 3")
	}
	return year, semester, nil
}
