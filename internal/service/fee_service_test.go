package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/unireg-api/internal/models"
	"github.com/noah-isme/unireg-api/pkg/feetable"
	"github.com/noah-isme/unireg-api/pkg/money"
)

func newTestFeeTable(t *testing.T) *feetable.Table {
	t.Helper()
	table, err := feetable.New("GHS", []models.FeeStructure{
		{
			Level: "100", StudyMode: models.StudyModeRegular, Total: 4310,
			Installments: []models.FeeInstallment{{Label: "First", Amount: 3017}, {Label: "Second", Amount: 1293}},
		},
		{
			Level: "100", StudyMode: models.StudyModeWeekend, Total: 4650,
			Installments: []models.FeeInstallment{{Amount: 2325}, {Amount: 1162.5}, {Amount: 1162.5}},
		},
	})
	require.NoError(t, err)
	return table
}

func TestFeeServiceLookupStable(t *testing.T) {
	svc := NewFeeService(newTestFeeTable(t), nil)

	first := svc.GetFeeStructure("100", models.StudyModeRegular)
	second := svc.GetFeeStructure("Level 100", "regular")
	require.NotNil(t, first)
	assert.Equal(t, first, second)
	assert.Nil(t, svc.GetFeeStructure("200", models.StudyModeRegular))
	assert.Len(t, svc.List(), 2)
}

func TestFeeServiceWithoutTable(t *testing.T) {
	svc := NewFeeService(nil, nil)
	assert.Nil(t, svc.GetFeeStructure("100", models.StudyModeRegular))
	assert.Empty(t, svc.List())
}

func TestFeeServiceDescribe(t *testing.T) {
	svc := NewFeeService(newTestFeeTable(t), money.NewFormatter("GHS", "cedis", "pesewas"))
	fs := svc.GetFeeStructure("100", models.StudyModeWeekend)
	require.NotNil(t, fs)

	resp := svc.Describe(*fs)
	assert.Equal(t, "4,650.00", resp.TotalFormatted)
	assert.Equal(t, "four thousand six hundred fifty cedis and 00 pesewas", resp.TotalInWords)
	require.Len(t, resp.Installments, 3)
	assert.Equal(t, "1,162.50", resp.Installments[1].AmountFormatted)
	assert.Equal(t, "one thousand one hundred sixty-two cedis and 50 pesewas", resp.Installments[1].AmountInWords)
}
