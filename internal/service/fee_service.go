package service

import (
	"github.com/noah-isme/unireg-api/internal/dto"
	"github.com/noah-isme/unireg-api/internal/models"
	"github.com/noah-isme/unireg-api/pkg/money"
)

type feeTable interface {
	Lookup(level string, mode models.StudyMode) *models.FeeStructure
	All() []models.FeeStructure
}

// FeeService answers fee structure lookups from the static fee table.
type FeeService struct {
	table     feeTable
	formatter *money.Formatter
}

// NewFeeService constructs a FeeService.
func NewFeeService(table feeTable, formatter *money.Formatter) *FeeService {
	if formatter == nil {
		formatter = money.NewFormatter("", "", "")
	}
	return &FeeService{table: table, formatter: formatter}
}

// GetFeeStructure returns the structure for (level, studyMode) or nil when none is configured.
func (s *FeeService) GetFeeStructure(level string, mode models.StudyMode) *models.FeeStructure {
	if s.table == nil {
		return nil
	}
	return s.table.Lookup(level, mode)
}

// List returns every configured fee structure.
func (s *FeeService) List() []models.FeeStructure {
	if s.table == nil {
		return nil
	}
	return s.table.All()
}

// Formatter returns the currency formatter used for responses.
func (s *FeeService) Formatter() *money.Formatter {
	return s.formatter
}

// Describe renders a fee structure for display.
func (s *FeeService) Describe(fs models.FeeStructure) dto.FeeStructureResponse {
	resp := dto.FeeStructureResponse{
		Level:          fs.Level,
		StudyMode:      string(fs.StudyMode),
		Currency:       fs.Currency,
		Total:          fs.Total,
		TotalFormatted: s.formatter.Number(fs.Total),
		TotalInWords:   s.formatter.Words(fs.Total),
		Installments:   make([]dto.FeeInstallmentResponse, 0, len(fs.Installments)),
	}
	for _, inst := range fs.Installments {
		resp.Installments = append(resp.Installments, dto.FeeInstallmentResponse{
			Sequence:        inst.Sequence,
			Label:           inst.Label,
			Amount:          inst.Amount,
			AmountFormatted: s.formatter.Number(inst.Amount),
			AmountInWords:   s.formatter.Words(inst.Amount),
		})
	}
	return resp
}
