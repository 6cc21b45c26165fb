// Package feetable loads the static fee schedule keyed by level and study mode.
//
// Installment amounts in the file may be plain numbers or expressions over "total"
// (for example "total * 0.6"). Expressions are evaluated once at load time; the table is
// immutable afterwards.
package feetable

import (
	"fmt"
	"io"
	"sort"

	"github.com/Knetic/govaluate"
	"github.com/spf13/viper"

	"github.com/noah-isme/unireg-api/internal/models"
	"github.com/noah-isme/unireg-api/pkg/money"
)

type document struct {
	Currency   string              `mapstructure:"currency"`
	Structures []structureDocument `mapstructure:"structures"`
}

type structureDocument struct {
	Level        string                `mapstructure:"level"`
	StudyMode    string                `mapstructure:"study_mode"`
	Total        float64               `mapstructure:"total"`
	Installments []installmentDocument `mapstructure:"installments"`
}

type installmentDocument struct {
	Label  string      `mapstructure:"label"`
	Amount interface{} `mapstructure:"amount"`
}

type key struct {
	level string
	mode  models.StudyMode
}

// Table is an immutable fee lookup.
type Table struct {
	currency   string
	structures map[key]models.FeeStructure
}

// Load reads the fee table file (YAML, JSON or TOML by extension).
func Load(path string) (*Table, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read fee table %s: %w", path, err)
	}
	return fromViper(v)
}

// LoadReader reads a fee table of the given config type ("yaml", "json", ...) from r.
func LoadReader(r io.Reader, configType string) (*Table, error) {
	v := viper.New()
	v.SetConfigType(configType)
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("read fee table: %w", err)
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Table, error) {
	var doc document
	if err := v.Unmarshal(&doc); err != nil {
		return nil, fmt.Errorf("decode fee table: %w", err)
	}

	structures := make([]models.FeeStructure, 0, len(doc.Structures))
	for i, sd := range doc.Structures {
		fs := models.FeeStructure{
			Level:     sd.Level,
			StudyMode: models.StudyMode(sd.StudyMode),
			Total:     sd.Total,
			Currency:  doc.Currency,
		}
		for j, inst := range sd.Installments {
			amount, err := evaluateAmount(inst.Amount, sd.Total)
			if err != nil {
				return nil, fmt.Errorf("fee table entry %d installment %d: %w", i+1, j+1, err)
			}
			fs.Installments = append(fs.Installments, models.FeeInstallment{
				Sequence: j + 1,
				Label:    inst.Label,
				Amount:   amount,
			})
		}
		structures = append(structures, fs)
	}
	return New(doc.Currency, structures)
}

// New validates structures and builds a table. Regular structures need two installments,
// Weekend structures three, and installments must add up to the total to the cent.
func New(currency string, structures []models.FeeStructure) (*Table, error) {
	t := &Table{currency: currency, structures: make(map[key]models.FeeStructure, len(structures))}
	for _, fs := range structures {
		level := models.NormalizeLevel(fs.Level)
		if !models.ValidLevel(level) {
			return nil, fmt.Errorf("fee structure: unknown level %q", fs.Level)
		}
		mode, ok := models.ParseStudyMode(string(fs.StudyMode))
		if !ok {
			return nil, fmt.Errorf("fee structure %s: unknown study mode %q", level, fs.StudyMode)
		}
		if fs.Total <= 0 {
			return nil, fmt.Errorf("fee structure %s/%s: total must be positive", level, mode)
		}
		if len(fs.Installments) != mode.InstallmentCount() {
			return nil, fmt.Errorf("fee structure %s/%s: expected %d installments, got %d", level, mode, mode.InstallmentCount(), len(fs.Installments))
		}
		var sum int64
		installments := make([]models.FeeInstallment, len(fs.Installments))
		for i, inst := range fs.Installments {
			if inst.Amount <= 0 {
				return nil, fmt.Errorf("fee structure %s/%s: installment %d must be positive", level, mode, i+1)
			}
			sum += money.ToCents(inst.Amount)
			installments[i] = models.FeeInstallment{Sequence: i + 1, Label: inst.Label, Amount: money.FromCents(money.ToCents(inst.Amount))}
			if installments[i].Label == "" {
				installments[i].Label = fmt.Sprintf("Installment %d", i+1)
			}
		}
		if sum != money.ToCents(fs.Total) {
			return nil, fmt.Errorf("fee structure %s/%s: installments sum to %.2f, total is %.2f", level, mode, money.FromCents(sum), fs.Total)
		}
		k := key{level: level, mode: mode}
		if _, dup := t.structures[k]; dup {
			return nil, fmt.Errorf("fee structure %s/%s defined twice", level, mode)
		}
		t.structures[k] = models.FeeStructure{
			Level:        level,
			StudyMode:    mode,
			Total:        fs.Total,
			Currency:     currency,
			Installments: installments,
		}
	}
	return t, nil
}

// Lookup returns the structure for (level, mode) or nil when the table has none.
// The returned value is a copy.
func (t *Table) Lookup(level string, mode models.StudyMode) *models.FeeStructure {
	if t == nil {
		return nil
	}
	parsed, ok := models.ParseStudyMode(string(mode))
	if !ok {
		return nil
	}
	fs, ok := t.structures[key{level: models.NormalizeLevel(level), mode: parsed}]
	if !ok {
		return nil
	}
	out := fs
	out.Installments = append([]models.FeeInstallment(nil), fs.Installments...)
	return &out
}

// All returns every structure ordered by level then study mode.
func (t *Table) All() []models.FeeStructure {
	if t == nil {
		return nil
	}
	out := make([]models.FeeStructure, 0, len(t.structures))
	for _, fs := range t.structures {
		fs.Installments = append([]models.FeeInstallment(nil), fs.Installments...)
		out = append(out, fs)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level < out[j].Level
		}
		return out[i].StudyMode < out[j].StudyMode
	})
	return out
}

// Currency returns the table's currency code.
func (t *Table) Currency() string {
	if t == nil {
		return ""
	}
	return t.currency
}

func evaluateAmount(raw interface{}, total float64) (float64, error) {
	switch v := raw.(type) {
	case nil:
		return 0, fmt.Errorf("amount missing")
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	}

	formula := fmt.Sprint(raw)
	expr, err := govaluate.NewEvaluableExpression(formula)
	if err != nil {
		return 0, fmt.Errorf("invalid amount formula %q: %w", formula, err)
	}
	result, err := expr.Evaluate(map[string]interface{}{"total": total})
	if err != nil {
		return 0, fmt.Errorf("evaluate amount formula %q: %w", formula, err)
	}
	amount, ok := result.(float64)
	if !ok {
		return 0, fmt.Errorf("amount formula %q is not numeric", formula)
	}
	return amount, nil
}
