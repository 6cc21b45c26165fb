package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/unireg-api/internal/models"
)

// PaymentRepository stores the append-only payment ledger.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs a PaymentRepository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create appends a payment record.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.PaymentRecord) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if payment.PaidAt.IsZero() {
		payment.PaidAt = now
	}
	payment.CreatedAt = now
	const query = `INSERT INTO payment_records (id, student_id, amount, academic_year, semester, reference, paid_at, created_at)
        VALUES (:id, :student_id, :amount, :academic_year, :semester, :reference, :paid_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// List returns payments for a student, oldest first.
func (r *PaymentRepository) List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentRecord, error) {
	conditions := []string{"student_id = $1"}
	args := []interface{}{filter.StudentID}
	if filter.AcademicYear != "" {
		conditions = append(conditions, fmt.Sprintf("academic_year = $%d", len(args)+1))
		args = append(args, filter.AcademicYear)
	}
	if filter.Semester > 0 {
		conditions = append(conditions, fmt.Sprintf("semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}

	query := fmt.Sprintf(`SELECT id, student_id, amount, academic_year, semester, reference, paid_at, created_at
        FROM payment_records WHERE %s ORDER BY paid_at ASC, id ASC`, strings.Join(conditions, " AND "))
	var payments []models.PaymentRecord
	if err := r.db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

// SumForPeriod totals the student's payments for one academic period.
func (r *PaymentRepository) SumForPeriod(ctx context.Context, studentID, academicYear string, semester int) (float64, error) {
	const query = `SELECT COALESCE(SUM(amount), 0) FROM payment_records WHERE student_id = $1 AND academic_year = $2 AND semester = $3`
	var total float64
	if err := r.db.GetContext(ctx, &total, query, studentID, academicYear, semester); err != nil {
		return 0, fmt.Errorf("sum payments: %w", err)
	}
	return total, nil
}
