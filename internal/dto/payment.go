package dto

import (
	"time"

	"github.com/noah-isme/unireg-api/internal/models"
)

// CreatePaymentRequest records a settled fee payment.
type CreatePaymentRequest struct {
	StudentID    string     `json:"student_id" validate:"required"`
	Amount       float64    `json:"amount" validate:"gt=0"`
	AcademicYear string     `json:"academic_year" validate:"required"`
	Semester     int        `json:"semester" validate:"required,min=1,max=3"`
	Reference    string     `json:"reference" validate:"required,max=128"`
	PaidAt       *time.Time `json:"paid_at"`
}

// PaymentQuery scopes a student's payment listing.
type PaymentQuery struct {
	AcademicYear string `form:"academicYear"`
	Semester     int    `form:"semester" validate:"omitempty,min=1,max=3"`
}

// PaymentSummary lists a student's payments with progress against the applicable fee total.
type PaymentSummary struct {
	StudentID          string                 `json:"student_id"`
	Payments           []models.PaymentRecord `json:"payments"`
	TotalPaid          float64                `json:"total_paid"`
	TotalPaidFormatted string                 `json:"total_paid_formatted"`
	FeeTotal           *float64               `json:"fee_total"`
	Outstanding        *float64               `json:"outstanding"`
	PaidRatio          *float64               `json:"paid_ratio"`
}
