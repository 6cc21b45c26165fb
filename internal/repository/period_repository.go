package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/unireg-api/internal/models"
)

const periodColumns = `id, academic_year, semester, label, is_current, created_at, updated_at`

// PeriodRepository manages academic periods and the current-period pointer.
type PeriodRepository struct {
	db *sqlx.DB
}

// NewPeriodRepository constructs a PeriodRepository.
func NewPeriodRepository(db *sqlx.DB) *PeriodRepository {
	return &PeriodRepository{db: db}
}

// Current returns the period flagged as current. sql.ErrNoRows is returned unwrapped when none is set.
func (r *PeriodRepository) Current(ctx context.Context) (*models.AcademicPeriod, error) {
	var period models.AcademicPeriod
	if err := r.db.GetContext(ctx, &period, "SELECT "+periodColumns+" FROM academic_periods WHERE is_current = true LIMIT 1"); err != nil {
		return nil, err
	}
	return &period, nil
}

// List returns all known periods, newest first.
func (r *PeriodRepository) List(ctx context.Context) ([]models.AcademicPeriod, error) {
	var periods []models.AcademicPeriod
	if err := r.db.SelectContext(ctx, &periods, "SELECT "+periodColumns+" FROM academic_periods ORDER BY academic_year DESC, semester DESC"); err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	return periods, nil
}

// SetCurrent marks (year, semester) as the current period, creating it when needed. The previous
// current period is cleared in the same transaction.
func (r *PeriodRepository) SetCurrent(ctx context.Context, period *models.AcademicPeriod) (result *models.AcademicPeriod, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin set current period: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	if _, err = tx.ExecContext(ctx, `UPDATE academic_periods SET is_current = false, updated_at = $1 WHERE is_current = true`, now); err != nil {
		return nil, fmt.Errorf("clear current period: %w", err)
	}

	if period.ID == "" {
		period.ID = uuid.NewString()
	}
	const upsert = `INSERT INTO academic_periods (id, academic_year, semester, label, is_current, created_at, updated_at)
VALUES ($1, $2, $3, $4, true, $5, $5)
ON CONFLICT (academic_year, semester)
DO UPDATE SET is_current = true, label = EXCLUDED.label, updated_at = EXCLUDED.updated_at
RETURNING ` + periodColumns
	var stored models.AcademicPeriod
	if err = tx.QueryRowxContext(ctx, upsert, period.ID, period.AcademicYear, period.Semester, period.Label, now).StructScan(&stored); err != nil {
		return nil, fmt.Errorf("upsert current period: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit set current period: %w", err)
	}
	return &stored, nil
}
