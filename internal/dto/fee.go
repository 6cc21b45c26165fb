package dto

// FeeInstallmentResponse is an installment with display renderings.
type FeeInstallmentResponse struct {
	Sequence        int     `json:"sequence"`
	Label           string  `json:"label"`
	Amount          float64 `json:"amount"`
	AmountFormatted string  `json:"amount_formatted"`
	AmountInWords   string  `json:"amount_in_words"`
}

// FeeStructureResponse is a fee structure with display renderings.
type FeeStructureResponse struct {
	Level          string                   `json:"level"`
	StudyMode      string                   `json:"study_mode"`
	Currency       string                   `json:"currency"`
	Total          float64                  `json:"total"`
	TotalFormatted string                   `json:"total_formatted"`
	TotalInWords   string                   `json:"total_in_words"`
	Installments   []FeeInstallmentResponse `json:"installments"`
}
