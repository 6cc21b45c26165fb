package models

// FeeInstallment is one partial payment of a fee structure.
type FeeInstallment struct {
	Sequence int     `json:"sequence"`
	Label    string  `json:"label"`
	Amount   float64 `json:"amount"`
}

// FeeStructure is the fee total and installment split for a (level, study mode) pair.
type FeeStructure struct {
	Level        string           `json:"level"`
	StudyMode    StudyMode        `json:"study_mode"`
	Total        float64          `json:"total"`
	Currency     string           `json:"currency"`
	Installments []FeeInstallment `json:"installments"`
}
