package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/unireg-api/internal/dto"
	"github.com/noah-isme/unireg-api/internal/models"
	"github.com/noah-isme/unireg-api/internal/repository"
	appErrors "github.com/noah-isme/unireg-api/pkg/errors"
	"github.com/noah-isme/unireg-api/pkg/money"
)

type paymentRepository interface {
	Create(ctx context.Context, payment *models.PaymentRecord) error
	List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentRecord, error)
}

type studentGetter interface {
	Get(ctx context.Context, id string) (*models.Student, error)
}

// PaymentService records fee payments and reports payment progress.
type PaymentService struct {
	repo      paymentRepository
	students  studentGetter
	fees      feeLookup
	formatter *money.Formatter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPaymentService constructs a PaymentService.
func NewPaymentService(repo paymentRepository, students studentGetter, fees feeLookup, formatter *money.Formatter, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if formatter == nil {
		formatter = money.NewFormatter("", "", "")
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{repo: repo, students: students, fees: fees, formatter: formatter, validator: validate, logger: logger}
}

// Record appends a payment to the ledger.
func (s *PaymentService) Record(ctx context.Context, req dto.CreatePaymentRequest) (*models.PaymentRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	if money.ToCents(req.Amount) <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "amount must be at least 0.01")
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

	payment := &models.PaymentRecord{
		StudentID:    student.ID,
		Amount:       money.FromCents(money.ToCents(req.Amount)),
		AcademicYear: year,
		Semester:     req.Semester,
		Reference:    strings.TrimSpace(req.Reference),
	}
	if req.PaidAt != nil {
		payment.PaidAt = req.PaidAt.UTC()
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "payment reference already recorded")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
	}
	s.logger.Info("payment recorded", zap.String("student_id", student.ID), zap.String("reference", payment.Reference), zap.Float64("amount", payment.Amount))
	return payment, nil
}

// Summary lists a student's payments. When the query names a full period the summary also
// reports progress against the student's fee structure.
func (s *PaymentService) Summary(ctx context.Context, studentID string, query dto.PaymentQuery) (*dto.PaymentSummary, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment query")
	}
	filter := models.PaymentFilter{StudentID: studentID, Semester: query.Semester}
	if query.AcademicYear != "" {
		year, err := models.NormalizeAcademicYear(query.AcademicYear)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
		filter.AcademicYear = year
	}

	student, err := s.students.Get(ctx, studentID)
	if err != nil {
		return nil, err
	}
	payments, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}

	var paidCents int64
	for _, p := range payments {
		paidCents += money.ToCents(p.Amount)
	}
	if payments == nil {
		payments = []models.PaymentRecord{}
	}
	summary := &dto.PaymentSummary{
		StudentID:          student.ID,
		Payments:           payments,
		TotalPaid:          money.FromCents(paidCents),
		TotalPaidFormatted: s.formatter.Number(money.FromCents(paidCents)),
	}

	if filter.AcademicYear == "" || filter.Semester == 0 {
		return summary, nil
	}
	fee := s.fees.GetFeeStructure(student.Level, student.StudyMode)
	if fee == nil {
		return summary, nil
	}
	totalCents := money.ToCents(fee.Total)
	feeTotal := fee.Total
	outstanding := money.FromCents(max(totalCents-paidCents, 0))
	ratio := 0.0
	if totalCents > 0 {
		ratio = math.Round(float64(paidCents)/float64(totalCents)*10000) / 10000
	}
	summary.FeeTotal = &feeTotal
	summary.Outstanding = &outstanding
	summary.PaidRatio = &ratio
	return summary, nil
}
