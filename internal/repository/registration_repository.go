package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/unireg-api/internal/models"
)

const registrationColumns = `id, student_id, academic_year, semester, course_codes, total_credits, created_at`

// RegistrationRepository stores course registrations. The table carries a unique index on
// (student_id, academic_year, semester).
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// Create inserts a registration, returning ErrDuplicate when one already exists for the period.
func (r *RegistrationRepository) Create(ctx context.Context, reg *models.CourseRegistration) error {
	if reg.ID == "" {
		reg.ID = uuid.NewString()
	}
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO course_registrations (id, student_id, academic_year, semester, course_codes, total_credits, created_at)
        VALUES (:id, :student_id, :academic_year, :semester, :course_codes, :total_credits, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, reg); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create registration: %w", err)
	}
	return nil
}

// Exists reports whether the student already registered for the period.
func (r *RegistrationRepository) Exists(ctx context.Context, studentID, academicYear string, semester int) (bool, error) {
	const query = `SELECT 1 FROM course_registrations WHERE student_id = $1 AND academic_year = $2 AND semester = $3 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, academicYear, semester); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check registration: %w", err)
	}
	return true, nil
}

// ListByStudent returns a student's registrations, newest first.
func (r *RegistrationRepository) ListByStudent(ctx context.Context, studentID string) ([]models.CourseRegistration, error) {
	var regs []models.CourseRegistration
	query := "SELECT " + registrationColumns + " FROM course_registrations WHERE student_id = $1 ORDER BY academic_year DESC, semester DESC"
	if err := r.db.SelectContext(ctx, &regs, query, studentID); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return regs, nil
}
