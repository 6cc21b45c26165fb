package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/unireg-api/internal/models"
)

const (
	submissionColumns = `id, course_code, lecturer_id, academic_year, semester, status, submitted_at, approved_at, approved_by, published_at, published_by, created_at, updated_at`
	entryColumns      = `id, submission_id, student_id, assessment, midsem, exam, total, grade`
)

// GradeSubmissionRepository persists grade submissions, their entries and the published grades.
type GradeSubmissionRepository struct {
	db *sqlx.DB
}

// NewGradeSubmissionRepository constructs a GradeSubmissionRepository.
func NewGradeSubmissionRepository(db *sqlx.DB) *GradeSubmissionRepository {
	return &GradeSubmissionRepository{db: db}
}

// Create inserts a submission and its entries in one transaction.
func (r *GradeSubmissionRepository) Create(ctx context.Context, submission *models.GradeSubmission) (err error) {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	submission.CreatedAt = now
	submission.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create grade submission: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertSubmission = `INSERT INTO grade_submissions (id, course_code, lecturer_id, academic_year, semester, status, created_at, updated_at)
        VALUES (:id, :course_code, :lecturer_id, :academic_year, :semester, :status, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insertSubmission, submission); err != nil {
		return fmt.Errorf("insert grade submission: %w", err)
	}

	const insertEntry = `INSERT INTO grade_entries (id, submission_id, student_id, assessment, midsem, exam, total, grade)
        VALUES (:id, :submission_id, :student_id, :assessment, :midsem, :exam, :total, :grade)`
	for i := range submission.Entries {
		entry := &submission.Entries[i]
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		entry.SubmissionID = submission.ID
		if _, err = tx.NamedExecContext(ctx, insertEntry, entry); err != nil {
			return fmt.Errorf("insert grade entry for %s: %w", entry.StudentID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit grade submission: %w", err)
	}
	return nil
}

// FindByID loads a submission with its entries. sql.ErrNoRows is returned unwrapped when absent.
func (r *GradeSubmissionRepository) FindByID(ctx context.Context, id string) (*models.GradeSubmission, error) {
	var submission models.GradeSubmission
	if err := r.db.GetContext(ctx, &submission, "SELECT "+submissionColumns+" FROM grade_submissions WHERE id = $1", id); err != nil {
		return nil, err
	}
	if err := r.db.SelectContext(ctx, &submission.Entries, "SELECT "+entryColumns+" FROM grade_entries WHERE submission_id = $1 ORDER BY student_id ASC", id); err != nil {
		return nil, fmt.Errorf("list grade entries: %w", err)
	}
	return &submission, nil
}

// List returns submissions matching the filter without their entries.
func (r *GradeSubmissionRepository) List(ctx context.Context, filter models.GradeSubmissionFilter) ([]models.GradeSubmission, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	if filter.CourseCode != "" {
		conditions = append(conditions, fmt.Sprintf("course_code = $%d", len(args)+1))
		args = append(args, filter.CourseCode)
	}
	if filter.AcademicYear != "" {
		conditions = append(conditions, fmt.Sprintf("academic_year = $%d", len(args)+1))
		args = append(args, filter.AcademicYear)
	}
	if filter.Semester > 0 {
		conditions = append(conditions, fmt.Sprintf("semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.LecturerID != "" {
		conditions = append(conditions, fmt.Sprintf("lecturer_id = $%d", len(args)+1))
		args = append(args, filter.LecturerID)
	}

	query := fmt.Sprintf("SELECT %s FROM grade_submissions WHERE %s ORDER BY created_at DESC", submissionColumns, strings.Join(conditions, " AND "))
	var submissions []models.GradeSubmission
	if err := r.db.SelectContext(ctx, &submissions, query, args...); err != nil {
		return nil, fmt.Errorf("list grade submissions: %w", err)
	}
	return submissions, nil
}

// GradedStudents returns which of studentIDs already appear in a non-draft submission for the
// same course and period. The submission excludeID is ignored; pass "" to consider every submission.
func (r *GradeSubmissionRepository) GradedStudents(ctx context.Context, courseCode, academicYear string, semester int, studentIDs []string, excludeID string) ([]string, error) {
	if len(studentIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT DISTINCT e.student_id FROM grade_entries e
        JOIN grade_submissions s ON s.id = e.submission_id
        WHERE s.course_code = $1 AND s.academic_year = $2 AND s.semester = $3 AND s.status <> $4 AND e.student_id = ANY($5)
        AND s.id::text <> $6
        ORDER BY e.student_id`
	var graded []string
	if err := r.db.SelectContext(ctx, &graded, query, courseCode, academicYear, semester, models.SubmissionDraft, pq.Array(studentIDs), excludeID); err != nil {
		return nil, fmt.Errorf("check graded students: %w", err)
	}
	return graded, nil
}

// Transition moves a submission from one status to the next, stamping the matching audit columns.
// It reports false when the submission was not in the expected status.
func (r *GradeSubmissionRepository) Transition(ctx context.Context, id string, from, to models.SubmissionStatus, actorID string, at time.Time) (bool, error) {
	var stamp string
	args := []interface{}{id, from, to, at}
	switch to {
	case models.SubmissionPendingApproval:
		stamp = "submitted_at = $4"
	case models.SubmissionApproved:
		stamp = "approved_at = $4, approved_by = $5"
		args = append(args, actorID)
	case models.SubmissionPublished:
		stamp = "published_at = $4, published_by = $5"
		args = append(args, actorID)
	default:
		return false, fmt.Errorf("transition to %s is not supported", to)
	}

	query := fmt.Sprintf("UPDATE grade_submissions SET status = $3, %s, updated_at = $4 WHERE id = $1 AND status = $2", stamp)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("transition grade submission: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition grade submission rows: %w", err)
	}
	return affected > 0, nil
}

// UpsertPublished materialises published grades. Re-running for the same submission is harmless.
func (r *GradeSubmissionRepository) UpsertPublished(ctx context.Context, grades []models.PublishedGrade) (err error) {
	if len(grades) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin publish grades: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO published_grades (submission_id, student_id, course_code, academic_year, semester, total, grade, published_at)
VALUES (:submission_id, :student_id, :course_code, :academic_year, :semester, :total, :grade, :published_at)
ON CONFLICT (student_id, course_code, academic_year, semester)
DO UPDATE SET submission_id = EXCLUDED.submission_id, total = EXCLUDED.total, grade = EXCLUDED.grade,
              published_at = EXCLUDED.published_at`
	for i := range grades {
		if _, err = tx.NamedExecContext(ctx, query, grades[i]); err != nil {
			return fmt.Errorf("upsert published grade for %s: %w", grades[i].StudentID, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit published grades: %w", err)
	}
	return nil
}

// ListPublishedByStudent returns a student's published grades, newest period first.
func (r *GradeSubmissionRepository) ListPublishedByStudent(ctx context.Context, studentID string) ([]models.PublishedGrade, error) {
	const query = `SELECT submission_id, student_id, course_code, academic_year, semester, total, grade, published_at
        FROM published_grades WHERE student_id = $1 ORDER BY academic_year DESC, semester DESC, course_code ASC`
	var grades []models.PublishedGrade
	if err := r.db.SelectContext(ctx, &grades, query, studentID); err != nil {
		return nil, fmt.Errorf("list published grades: %w", err)
	}
	return grades, nil
}
