// Package core provides money parsing and handling utilities.
//
// Amounts are carried as integer cents. Parsing goes through
// shopspring/decimal so that inputs such as "0.1" or 19.999 round the way
// a person expects instead of the way a float64 does.
package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxAmountCents bounds a single expense at one billion in major units.
const MaxAmountCents int64 = 100_000_000_000

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrAmountNotPositive = errors.New("amount must be positive")
	ErrAmountTooLarge    = errors.New("amount too large")
)

// ParseDecimalToCents converts a decimal string to cents with half-up rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Amounts
// that round to zero or below are rejected with ErrAmountNotPositive.
//
// Examples:
//
//	ParseDecimalToCents("12.34")  -> 1234, nil
//	ParseDecimalToCents("12,34")  -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil
//	ParseDecimalToCents("12.344") -> 1234, nil
func ParseDecimalToCents(s string) (int64, error) {
	cents, err := decimalCents(s)
	if err != nil {
		return 0, err
	}
	if !cents.IsPositive() {
		return 0, ErrAmountNotPositive
	}
	if cents.GreaterThan(decimal.NewFromInt(MaxAmountCents)) {
		return 0, ErrAmountTooLarge
	}
	return cents.IntPart(), nil
}

func decimalCents(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	return d.Shift(2).Round(0), nil
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String formats the amount with exactly two fractional digits.
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Float returns the amount as a float64 for spreadsheet cells.
// Use cents for calculations.
func (m Money) Float() float64 {
	f, _ := m.Decimal().Float64()
	return f
}

// MarshalJSON encodes the amount as a bare JSON number, e.g. 12.50.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a number or a numeric string. Zero is allowed so
// that summaries of empty listings decode.
func (m *Money) UnmarshalJSON(data []byte) error {
	cents, err := decimalCents(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	m.Cents = cents.IntPart()
	return nil
}
