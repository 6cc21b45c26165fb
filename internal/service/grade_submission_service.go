package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/unireg-api/internal/dto"
	"github.com/noah-isme/unireg-api/internal/models"
	appErrors "github.com/noah-isme/unireg-api/pkg/errors"
	"github.com/noah-isme/unireg-api/pkg/jobs"
)

// JobTypeGradePublication identifies publication jobs on the queue.
const JobTypeGradePublication = "grade.publish"

type gradeSubmissionRepository interface {
	Create(ctx context.Context, submission *models.GradeSubmission) error
	FindByID(ctx context.Context, id string) (*models.GradeSubmission, error)
	List(ctx context.Context, filter models.GradeSubmissionFilter) ([]models.GradeSubmission, error)
	GradedStudents(ctx context.Context, courseCode, academicYear string, semester int, studentIDs []string, excludeID string) ([]string, error)
	Transition(ctx context.Context, id string, from, to models.SubmissionStatus, actorID string, at time.Time) (bool, error)
	UpsertPublished(ctx context.Context, grades []models.PublishedGrade) error
	ListPublishedByStudent(ctx context.Context, studentID string) ([]models.PublishedGrade, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// GradeSubmissionService runs the grade submission workflow:
// draft → pending_approval → approved → published.
type GradeSubmissionService struct {
	repo       gradeSubmissionRepository
	calculator *GradeCalculator
	queue      jobEnqueuer
	validator  *validator.Validate
	metrics    *MetricsService
	logger     *zap.Logger
	now        func() time.Time
}

// NewGradeSubmissionService constructs a GradeSubmissionService. Without a queue, publication is
// materialised synchronously.
func NewGradeSubmissionService(repo gradeSubmissionRepository, calculator *GradeCalculator, queue jobEnqueuer, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *GradeSubmissionService {
	if calculator == nil {
		calculator = NewGradeCalculator(DefaultGradeScale)
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeSubmissionService{
		repo:       repo,
		calculator: calculator,
		queue:      queue,
		validator:  validate,
		metrics:    metrics,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SetQueue attaches the publication queue once it has been built.
func (s *GradeSubmissionService) SetQueue(queue jobEnqueuer) {
	s.queue = queue
}

// Compute evaluates a single set of grade components.
func (s *GradeSubmissionService) Compute(req dto.ComputeGradeRequest) models.GradeResult {
	return s.calculator.ComputeGrade(req.Assessment, req.MidSem, req.Exam)
}

// Create opens a draft submission. Students already graded in a non-draft submission for the same
// course and period are rejected.
func (s *GradeSubmissionService) Create(ctx context.Context, actor models.Actor, req dto.CreateGradeSubmissionRequest) (*models.GradeSubmission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade submission payload")
	}
	year, err := models.NormalizeAcademicYear(req.AcademicYear)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	courseCode := strings.ToUpper(strings.TrimSpace(req.CourseCode))

	studentIDs := make([]string, 0, len(req.Entries))
	seen := make(map[string]bool, len(req.Entries))
	for _, entry := range req.Entries {
		id := strings.TrimSpace(entry.StudentID)
		if seen[id] {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s appears more than once", id))
		}
		seen[id] = true
		studentIDs = append(studentIDs, id)
	}

	if err := s.ensureUngraded(ctx, courseCode, year, req.Semester, studentIDs, ""); err != nil {
		return nil, err
	}

	submission := &models.GradeSubmission{
		CourseCode:   courseCode,
		LecturerID:   actor.ID,
		AcademicYear: year,
		Semester:     req.Semester,
		Status:       models.SubmissionDraft,
		Entries:      make([]models.GradeEntry, 0, len(req.Entries)),
	}
	for i, entry := range req.Entries {
		result := s.calculator.ComputeGrade(entry.Assessment, entry.MidSem, entry.Exam)
		submission.Entries = append(submission.Entries, models.GradeEntry{
			StudentID:  studentIDs[i],
			Assessment: entry.Assessment,
			MidSem:     entry.MidSem,
			Exam:       entry.Exam,
			Total:      result.Total,
			Grade:      result.Grade,
		})
	}

	if err := s.repo.Create(ctx, submission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create grade submission")
	}
	s.metrics.RecordTransition(string(models.SubmissionDraft))
	s.logger.Info("grade submission drafted", zap.String("submission_id", submission.ID), zap.String("course_code", courseCode), zap.Int("entries", len(submission.Entries)))
	return submission, nil
}

// Get returns a submission with its entries. Lecturers only see their own submissions.
func (s *GradeSubmissionService) Get(ctx context.Context, actor models.Actor, id string) (*models.GradeSubmission, error) {
	submission, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleLecturer && submission.LecturerID != actor.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "submission belongs to another lecturer")
	}
	return submission, nil
}

// List returns submissions matching the query. Lecturers only see their own submissions.
func (s *GradeSubmissionService) List(ctx context.Context, actor models.Actor, query dto.GradeSubmissionQuery) ([]models.GradeSubmission, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission query")
	}
	filter := models.GradeSubmissionFilter{
		CourseCode: strings.ToUpper(strings.TrimSpace(query.CourseCode)),
		Semester:   query.Semester,
		Status:     models.SubmissionStatus(query.Status),
	}
	if query.AcademicYear != "" {
		year, err := models.NormalizeAcademicYear(query.AcademicYear)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
		filter.AcademicYear = year
	}
	if actor.Role == models.RoleLecturer {
		filter.LecturerID = actor.ID
	}

	submissions, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grade submissions")
	}
	if submissions == nil {
		submissions = []models.GradeSubmission{}
	}
	return submissions, nil
}

// Submit hands a draft to academic affairs. Only the owning lecturer or an admin may submit, and
// none of its students may have been graded by another submission in the meantime.
func (s *GradeSubmissionService) Submit(ctx context.Context, actor models.Actor, id string) (*models.GradeSubmission, error) {
	return s.transition(ctx, actor, id, models.SubmissionPendingApproval)
}

// Approve accepts a pending submission.
func (s *GradeSubmissionService) Approve(ctx context.Context, actor models.Actor, id string) (*models.GradeSubmission, error) {
	return s.transition(ctx, actor, id, models.SubmissionApproved)
}

// Publish releases an approved submission and schedules materialisation of the published grades.
func (s *GradeSubmissionService) Publish(ctx context.Context, actor models.Actor, id string) (*models.GradeSubmission, error) {
	submission, err := s.transition(ctx, actor, id, models.SubmissionPublished)
	if err != nil {
		return nil, err
	}

	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    JobTypeGradePublication,
		Payload: dto.GradePublicationPayload{SubmissionID: submission.ID},
	}
	if s.queue != nil {
		err := s.queue.Enqueue(job)
		if err == nil {
			return submission, nil
		}
		s.logger.Warn("publication enqueue failed, materialising inline", zap.String("submission_id", submission.ID), zap.Error(err))
	}
	if err := s.HandlePublication(ctx, job); err != nil {
		s.logger.Error("inline publication failed", zap.String("submission_id", submission.ID), zap.Error(err))
	}
	return submission, nil
}

// HandlePublication materialises the grades of a published submission. It is the queue handler
// for JobTypeGradePublication and is safe to repeat.
func (s *GradeSubmissionService) HandlePublication(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(dto.GradePublicationPayload)
	if !ok {
		return fmt.Errorf("job %s: unexpected payload %T", job.ID, job.Payload)
	}
	submission, err := s.repo.FindByID(ctx, payload.SubmissionID)
	if err != nil {
		s.metrics.RecordPublication("failed")
		return fmt.Errorf("load submission %s: %w", payload.SubmissionID, err)
	}
	if submission.Status != models.SubmissionPublished {
		s.metrics.RecordPublication("skipped")
		s.logger.Warn("publication skipped for unpublished submission", zap.String("submission_id", submission.ID), zap.String("status", string(submission.Status)))
		return nil
	}

	publishedAt := s.now()
	if submission.PublishedAt != nil {
		publishedAt = *submission.PublishedAt
	}
	grades := make([]models.PublishedGrade, 0, len(submission.Entries))
	for _, entry := range submission.Entries {
		if entry.Grade == "" {
			continue
		}
		grades = append(grades, models.PublishedGrade{
			SubmissionID: submission.ID,
			StudentID:    entry.StudentID,
			CourseCode:   submission.CourseCode,
			AcademicYear: submission.AcademicYear,
			Semester:     submission.Semester,
			Total:        entry.Total,
			Grade:        entry.Grade,
			PublishedAt:  publishedAt,
		})
	}
	if err := s.repo.UpsertPublished(ctx, grades); err != nil {
		s.metrics.RecordPublication("failed")
		return fmt.Errorf("materialise submission %s: %w", submission.ID, err)
	}
	s.metrics.RecordPublication("succeeded")
	s.logger.Info("grades published", zap.String("submission_id", submission.ID), zap.Int("grades", len(grades)))
	return nil
}

// PublishedGrades returns a student's published results.
func (s *GradeSubmissionService) PublishedGrades(ctx context.Context, studentID string) ([]models.PublishedGrade, error) {
	grades, err := s.repo.ListPublishedByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list published grades")
	}
	if grades == nil {
		grades = []models.PublishedGrade{}
	}
	return grades, nil
}

func (s *GradeSubmissionService) transition(ctx context.Context, actor models.Actor, id string, to models.SubmissionStatus) (*models.GradeSubmission, error) {
	submission, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if to == models.SubmissionPendingApproval && actor.Role != models.RoleAdmin && submission.LecturerID != actor.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the owning lecturer can submit")
	}
	from := submission.Status
	if !from.CanTransitionTo(to) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot move submission from %s to %s", from, to))
	}
	if to == models.SubmissionPendingApproval {
		studentIDs := make([]string, 0, len(submission.Entries))
		for _, entry := range submission.Entries {
			studentIDs = append(studentIDs, entry.StudentID)
		}
		if err := s.ensureUngraded(ctx, submission.CourseCode, submission.AcademicYear, submission.Semester, studentIDs, submission.ID); err != nil {
			return nil, err
		}
	}

	ok, err := s.repo.Transition(ctx, id, from, to, actor.ID, s.now())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update submission status")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "submission status changed concurrently")
	}
	s.metrics.RecordTransition(string(to))
	s.logger.Info("grade submission transitioned", zap.String("submission_id", id), zap.String("from", string(from)), zap.String("to", string(to)), zap.String("actor_id", actor.ID))
	return s.find(ctx, id)
}

// ensureUngraded rejects students already carried by another non-draft submission for the period.
func (s *GradeSubmissionService) ensureUngraded(ctx context.Context, courseCode, year string, semester int, studentIDs []string, excludeID string) error {
	graded, err := s.repo.GradedStudents(ctx, courseCode, year, semester, studentIDs, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing grades")
	}
	if len(graded) > 0 {
		sort.Strings(graded)
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("students already graded for %s in %s semester %d: %s", courseCode, year, semester, strings.Join(graded, ", ")))
	}
	return nil
}

func (s *GradeSubmissionService) find(ctx context.Context, id string) (*models.GradeSubmission, error) {
	submission, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade submission")
	}
	return submission, nil
}
