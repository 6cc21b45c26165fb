package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/unireg-api/internal/dto"
	"github.com/noah-isme/unireg-api/internal/models"
	"github.com/noah-isme/unireg-api/internal/repository"
	appErrors "github.com/noah-isme/unireg-api/pkg/errors"
)

type registrationRepository interface {
	Create(ctx context.Context, reg *models.CourseRegistration) error
	Exists(ctx context.Context, studentID, academicYear string, semester int) (bool, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.CourseRegistration, error)
}

type eligibilityEvaluator interface {
	CanRegister(ctx context.Context, studentID, academicYear string, semester int) dto.EligibilityDecision
}

type courseResolver interface {
	GetProgramCourses(ctx context.Context, programID, level, semester, year, studyMode string) dto.CourseResolution
}

// RegistrationService registers students for courses once they are eligible.
type RegistrationService struct {
	repo        registrationRepository
	students    studentGetter
	eligibility eligibilityEvaluator
	resolver    courseResolver
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewRegistrationService constructs a RegistrationService.
func NewRegistrationService(repo registrationRepository, students studentGetter, eligibility eligibilityEvaluator, resolver courseResolver, validate *validator.Validate, logger *zap.Logger) *RegistrationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{repo: repo, students: students, eligibility: eligibility, resolver: resolver, validator: validate, logger: logger}
}

// Register creates the student's single registration for the period.
func (s *RegistrationService) Register(ctx context.Context, req dto.CreateRegistrationRequest) (*models.CourseRegistration, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	year, err := models.NormalizeAcademicYear(req.AcademicYear)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	student, err := s.students.Get(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}
	if !student.StudyMode.ValidPeriod(req.Semester) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid semester for study mode")
	}

	decision := s.eligibility.CanRegister(ctx, student.ID, year, req.Semester)
	if !decision.CanRegister {
		reason := appErrors.ErrRegistrationBlocked.Message
		if decision.Reason != nil {
			reason = *decision.Reason
		}
		return nil, appErrors.Clone(appErrors.ErrRegistrationBlocked, reason)
	}

	exists, err := s.repo.Exists(ctx, student.ID, year, req.Semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing registration")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student already registered for this period")
	}

	resolution := s.resolver.GetProgramCourses(ctx, student.ProgramID, student.Level, strconv.Itoa(req.Semester), year, string(student.StudyMode))
	if len(resolution.Courses) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no courses available for registration: %s", resolution.Reason))
	}

	selected, err := selectCourses(resolution.Courses, req.CourseCodes)
	if err != nil {
		return nil, err
	}
	reg := &models.CourseRegistration{
		StudentID:    student.ID,
		AcademicYear: year,
		Semester:     req.Semester,
	}
	for _, course := range selected {
		reg.CourseCodes = append(reg.CourseCodes, course.Code)
		reg.TotalCredits += course.Credits
	}

	if err := s.repo.Create(ctx, reg); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "student already registered for this period")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create registration")
	}
	s.logger.Info("course registration created",
		zap.String("student_id", student.ID),
		zap.String("academic_year", year),
		zap.Int("semester", req.Semester),
		zap.Int("courses", len(reg.CourseCodes)),
		zap.Int("credits", reg.TotalCredits),
	)
	return reg, nil
}

// ListByStudent returns a student's registrations.
func (s *RegistrationService) ListByStudent(ctx context.Context, studentID string) ([]models.CourseRegistration, error) {
	if _, err := s.students.Get(ctx, studentID); err != nil {
		return nil, err
	}
	regs, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}
	if regs == nil {
		regs = []models.CourseRegistration{}
	}
	return regs, nil
}

// selectCourses keeps the requested codes, which must all be available. No request means everything.
func selectCourses(available []models.CourseCatalogEntry, requested []string) ([]models.CourseCatalogEntry, error) {
	if len(requested) == 0 {
		return available, nil
	}
	byCode := make(map[string]models.CourseCatalogEntry, len(available))
	for _, course := range available {
		byCode[strings.ToUpper(course.Code)] = course
	}

	seen := map[string]bool{}
	var unknown []string
	selected := make([]models.CourseCatalogEntry, 0, len(requested))
	for _, raw := range requested {
		code := strings.ToUpper(strings.TrimSpace(raw))
		if seen[code] {
			continue
		}
		seen[code] = true
		course, ok := byCode[code]
		if !ok {
			unknown = append(unknown, code)
			continue
		}
		selected = append(selected, course)
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("courses not offered for this period: %s", strings.Join(unknown, ", ")))
	}
	return selected, nil
}
