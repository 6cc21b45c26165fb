package dto

// EligibilityQuery selects the period to evaluate. Both fields empty means the current period.
type EligibilityQuery struct {
	AcademicYear string `form:"academicYear"`
	Semester     int    `form:"semester"`
}

// EligibilityDecision reports whether a student may register for an academic period.
// Reason is nil when registration is allowed.
type EligibilityDecision struct {
	StudentID      string  `json:"student_id"`
	AcademicYear   string  `json:"academic_year"`
	Semester       int     `json:"semester"`
	CanRegister    bool    `json:"can_register"`
	Reason         *string `json:"reason"`
	FeeTotal       float64 `json:"fee_total"`
	AmountPaid     float64 `json:"amount_paid"`
	RequiredAmount float64 `json:"required_amount"`
	Threshold      float64 `json:"threshold"`
	PaidRatio      float64 `json:"paid_ratio"`
}
