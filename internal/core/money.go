// Package core provides money parsing and handling utilities.
//
// Amounts are kept as integer cents everywhere they are stored or summed. Decimal
// values only appear at the edges: parsing user input and computing ratios.
package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// MaxAmountCents is the largest value a decimal(10,2) column holds.
const MaxAmountCents int64 = 99_999_999_99

var hundred = decimal.NewFromInt(100)

// ErrAmountTooLarge is returned for amounts that do not fit in decimal(10,2).
var ErrAmountTooLarge = errors.New("amount too large")

// maxAmountInputLength bounds the text handed to the decimal parser.
const maxAmountInputLength = 32

// ParseDecimalToCents converts a decimal string to cents with half-up rounding.
//
// Both dot (12.34) and comma (12,34) separators are accepted. The result must be
// positive after rounding to cents and fit in decimal(10,2).
//
// Examples:
//
//	ParseDecimalToCents("12.34")  -> 1234, nil
//	ParseDecimalToCents("12,34")  -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil
//	ParseDecimalToCents("0.001")  -> 0, ErrInvalidAmount
//	ParseDecimalToCents("1e3")    -> 0, ErrInvalidAmount
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > maxAmountInputLength {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if !plainDecimal(s) {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return 0, ErrInvalidAmount
	}
	cents := d.Mul(hundred).Round(0)
	if cents.GreaterThan(decimal.NewFromInt(MaxAmountCents)) {
		return 0, ErrAmountTooLarge
	}
	c := cents.IntPart()
	if c <= 0 {
		return 0, ErrInvalidAmount
	}
	return c, nil
}

// plainDecimal accepts an optional sign, digits and at most one dot. Exponent
// notation is refused so scale arithmetic stays bounded.
func plainDecimal(s string) bool {
	if s[0] == '-' || s[0] == '+' {
		s = s[1:]
	}
	digits, dots := 0, 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String formats the amount with two decimals, e.g. "12.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

var printer = message.NewPrinter(language.English)

// Format renders the amount with thousands grouping and the given symbol, e.g. "₹1,234.50".
func (m Money) Format(symbol string) string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return printer.Sprintf("%s%s%d.%02d", sign, symbol, cents/100, cents%100)
}
