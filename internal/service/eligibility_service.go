package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/unireg-api/internal/dto"
	"github.com/noah-isme/unireg-api/internal/models"
	"github.com/noah-isme/unireg-api/pkg/money"
)

// Denial reasons returned by the eligibility evaluator.
const (
	ReasonStudentIDRequired    = "student id is required"
	ReasonInvalidAcademicYear  = "invalid academic year"
	ReasonStudentNotFound      = "student not found"
	ReasonStudentUnavailable   = "student record unavailable"
	ReasonInvalidSemester      = "invalid semester for study mode"
	ReasonFeeStructureMissing  = "fee structure unavailable"
	ReasonPaymentsUnavailable  = "payment records unavailable"
	reasonBelowThresholdFormat = "payments of %.2f are below the required %.2f"
)

type eligibilityStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type eligibilityPaymentReader interface {
	SumForPeriod(ctx context.Context, studentID, academicYear string, semester int) (float64, error)
}

type feeLookup interface {
	GetFeeStructure(level string, mode models.StudyMode) *models.FeeStructure
}

// EligibilityService decides whether a student has paid enough to register for a period.
// It only reads; every failure becomes a negative decision with a reason.
type EligibilityService struct {
	students  eligibilityStudentReader
	payments  eligibilityPaymentReader
	fees      feeLookup
	threshold float64
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewEligibilityService constructs an EligibilityService. threshold is the share of the fee
// total that must be paid, in (0, 1].
func NewEligibilityService(students eligibilityStudentReader, payments eligibilityPaymentReader, fees feeLookup, threshold float64, metrics *MetricsService, logger *zap.Logger) *EligibilityService {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.7
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EligibilityService{
		students:  students,
		payments:  payments,
		fees:      fees,
		threshold: threshold,
		metrics:   metrics,
		logger:    logger,
	}
}

// Threshold returns the configured payment threshold.
func (s *EligibilityService) Threshold() float64 {
	return s.threshold
}

// CanRegister evaluates registration eligibility for the student and period.
func (s *EligibilityService) CanRegister(ctx context.Context, studentID, academicYear string, semester int) dto.EligibilityDecision {
	decision := dto.EligibilityDecision{
		StudentID:    strings.TrimSpace(studentID),
		AcademicYear: academicYear,
		Semester:     semester,
		Threshold:    s.threshold,
	}
	defer func() {
		s.metrics.RecordEligibility(decision.CanRegister)
		fields := []zap.Field{
			zap.String("student_id", decision.StudentID),
			zap.String("academic_year", decision.AcademicYear),
			zap.Int("semester", decision.Semester),
			zap.Bool("can_register", decision.CanRegister),
		}
		if decision.Reason != nil {
			fields = append(fields, zap.String("reason", *decision.Reason))
		}
		s.logger.Info("eligibility evaluated", fields...)
	}()

	if decision.StudentID == "" {
		deny(&decision, ReasonStudentIDRequired)
		return decision
	}

	year, err := models.NormalizeAcademicYear(academicYear)
	if err != nil {
		deny(&decision, ReasonInvalidAcademicYear)
		return decision
	}
	decision.AcademicYear = year

	student, err := s.students.FindByID(ctx, decision.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			deny(&decision, ReasonStudentNotFound)
		} else {
			s.logger.Warn("eligibility student lookup failed", zap.String("student_id", decision.StudentID), zap.Error(err))
			deny(&decision, ReasonStudentUnavailable)
		}
		return decision
	}

	if !student.StudyMode.ValidPeriod(semester) {
		deny(&decision, ReasonInvalidSemester)
		return decision
	}

	fee := s.fees.GetFeeStructure(student.Level, student.StudyMode)
	if fee == nil {
		deny(&decision, ReasonFeeStructureMissing)
		return decision
	}
	decision.FeeTotal = fee.Total

	started := time.Now()
	paid, err := s.payments.SumForPeriod(ctx, decision.StudentID, year, semester)
	s.metrics.ObserveDBQuery("payments_sum_for_period", time.Since(started))
	if err != nil {
		s.logger.Warn("eligibility payment lookup failed", zap.String("student_id", decision.StudentID), zap.Error(err))
		deny(&decision, ReasonPaymentsUnavailable)
		return decision
	}

	totalCents := money.ToCents(fee.Total)
	paidCents := money.ToCents(paid)
	requiredCents := RequiredCents(totalCents, s.threshold)

	decision.AmountPaid = money.FromCents(paidCents)
	decision.RequiredAmount = money.FromCents(requiredCents)
	if totalCents > 0 {
		decision.PaidRatio = math.Round(float64(paidCents)/float64(totalCents)*10000) / 10000
	}
	decision.CanRegister = paidCents >= requiredCents
	if !decision.CanRegister {
		deny(&decision, fmt.Sprintf(reasonBelowThresholdFormat, decision.AmountPaid, decision.RequiredAmount))
	}
	return decision
}

// RequiredCents is the smallest payment in cents satisfying paid >= threshold * total.
func RequiredCents(totalCents int64, threshold float64) int64 {
	// the epsilon absorbs binary representation error, e.g. 0.7 * 431000
	return int64(math.Ceil(threshold*float64(totalCents) - 1e-6))
}

func deny(decision *dto.EligibilityDecision, reason string) {
	decision.CanRegister = false
	decision.Reason = &reason
}
