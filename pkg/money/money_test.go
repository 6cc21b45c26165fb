package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToCentsRounds(t *testing.T) {
	assert.Equal(t, int64(301700), ToCents(0.7*4310))
	assert.Equal(t, int64(431000), ToCents(4310))
	assert.Equal(t, int64(1), ToCents(0.005))
	assert.InDelta(t, 43.1, FromCents(4310), 1e-9)
}

func TestFormatterNumber(t *testing.T) {
	f := NewFormatter("ghs", "cedis", "pesewas")
	assert.Equal(t, "GHS", f.Code())
	assert.Equal(t, "4,310.00", f.Number(4310))
	assert.Equal(t, "GHS 1,250.50", f.Format(1250.5))
}

func TestFormatterWords(t *testing.T) {
	f := NewFormatter("GHS", "cedis", "pesewas")
	assert.Equal(t, "four thousand three hundred ten cedis and 00 pesewas", f.Words(4310))
	assert.Equal(t, "twelve cedis and 05 pesewas", f.Words(12.05))
}
