// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of fractional digits kept for stored amounts.
const MoneyPlaces int32 = 2

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// MoneyTolerance is the largest difference at which two amounts are considered equal.
var MoneyTolerance = decimal.New(1, -MoneyPlaces)

// NewMoney creates a Money value from a float.
// WARNING: Use NewMoneyFromString for precise values.
func NewMoney(f float64) Money {
	return decimal.NewFromFloat(f)
}

// NewMoneyFromString creates a Money value from a string.
// This is the preferred method for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// RoundMoney rounds half away from zero to MoneyPlaces.
func RoundMoney(m Money) Money {
	return m.Round(MoneyPlaces)
}

// MoneyClose reports whether a and b differ by no more than MoneyTolerance.
func MoneyClose(a, b Money) bool {
	return a.Sub(b).Abs().LessThanOrEqual(MoneyTolerance)
}

// Percent returns pct percent of m, rounded to MoneyPlaces.
func Percent(m Money, pct decimal.Decimal) Money {
	return RoundMoney(m.Mul(pct).Div(decimal.NewFromInt(100)))
}
