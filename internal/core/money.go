// Package core provides money parsing and handling utilities.
//
// Amounts are decimals end to end. They are decoded from the backend as JSON
// numbers or strings and encoded back as bare JSON numbers.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a decimal amount in the account currency.
type Money struct {
	decimal.Decimal
}

// NewMoney builds Money from a string literal and panics on bad input.
// Intended for constants and tests.
func NewMoney(s string) Money {
	return Money{Decimal: decimal.RequireFromString(s)}
}

// MoneyFromFloat converts a float value returned by an external API.
func MoneyFromFloat(f float64) Money {
	return Money{Decimal: decimal.NewFromFloat(f)}
}

// ParseAmount converts user input into a strictly positive amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// rounds half-up to cents.
//
// Examples:
//   ParseAmount("12.34") -> 12.34, nil
//   ParseAmount("12,345") -> 12.35, nil
//   ParseAmount("-1") -> error
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return Money{}, ErrInvalidAmount
	}
	return Money{Decimal: d}, nil
}

// MarshalJSON writes the amount as a bare JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal.String()), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		m.Decimal = decimal.Zero
		return nil
	}
	return m.Decimal.UnmarshalJSON(b)
}

// Add returns m+o.
func (m Money) Add(o Money) Money {
	return Money{Decimal: m.Decimal.Add(o.Decimal)}
}

// Sub returns m-o.
func (m Money) Sub(o Money) Money {
	return Money{Decimal: m.Decimal.Sub(o.Decimal)}
}
