// Package money renders fee amounts for portal display.
package money

import (
	"fmt"
	"math"
	"strings"

	"github.com/divan/num2words"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ToCents converts an amount to integer minor units, rounding half away from zero.
func ToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// FromCents converts minor units back to an amount.
func FromCents(cents int64) float64 {
	return float64(cents) / 100
}

// Formatter renders amounts with grouping separators and in words.
type Formatter struct {
	code    string
	major   string
	minor   string
	printer *message.Printer
}

// NewFormatter builds a formatter for the given currency code and unit names.
func NewFormatter(code, major, minor string) *Formatter {
	if major == "" {
		major = "units"
	}
	if minor == "" {
		minor = "cents"
	}
	return &Formatter{
		code:    strings.ToUpper(code),
		major:   major,
		minor:   minor,
		printer: message.NewPrinter(language.English),
	}
}

// Code returns the ISO currency code.
func (f *Formatter) Code() string {
	return f.code
}

// Number renders the amount with two decimals and thousands separators, e.g. 4,310.00.
func (f *Formatter) Number(amount float64) string {
	return f.printer.Sprintf("%.2f", FromCents(ToCents(amount)))
}

// Format prefixes the number with the currency code.
func (f *Formatter) Format(amount float64) string {
	if f.code == "" {
		return f.Number(amount)
	}
	return f.code + " " + f.Number(amount)
}

// Words spells out the amount, e.g. "four thousand three hundred ten cedis and 50 pesewas".
func (f *Formatter) Words(amount float64) string {
	cents := ToCents(amount)
	sign := ""
	if cents < 0 {
		sign = "minus "
		cents = -cents
	}
	major := int(cents / 100)
	minor := int(cents % 100)
	return fmt.Sprintf("%s%s %s and %02d %s", sign, num2words.Convert(major), f.major, minor, f.minor)
}
