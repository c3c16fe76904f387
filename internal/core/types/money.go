// Package types provides common type aliases and utilities.
package types

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Used for intermediate arithmetic (discount and tax application) where
// fractions of a cent appear before rounding.
type Money = decimal.Decimal

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
// Use only for constants.
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

// MinorUnits represents a stored monetary amount in minor currency units
// (cents). Storage: int64 - sufficient for ±92 quadrillion cents.
// Example: 19.80 USD → 1980.
type MinorUnits int64

// MinorUnitsFromDecimal rounds a major-unit decimal amount to minor units,
// half away from zero (standard retail rounding).
func MinorUnitsFromDecimal(d decimal.Decimal) MinorUnits {
	return MinorUnits(d.Mul(decimal.NewFromInt(100)).Round(0).IntPart())
}

// NewMinorUnitsFromMajor creates MinorUnits from a float major-unit amount.
// Prefer MinorUnitsFromDecimal for computed values.
func NewMinorUnitsFromMajor(major float64) MinorUnits {
	return MinorUnits(math.Round(major * 100))
}

// Decimal converts minor units to a major-unit decimal for arithmetic.
func (m MinorUnits) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(m)).Div(decimal.NewFromInt(100))
}

// String renders the amount in major units with two fractional digits.
func (m MinorUnits) String() string {
	neg := m < 0
	v := m
	if neg {
		v = -v
	}
	if neg {
		return fmt.Sprintf("-%d.%02d", int64(v)/100, int64(v)%100)
	}
	return fmt.Sprintf("%d.%02d", int64(v)/100, int64(v)%100)
}

// MulQuantity multiplies a unit price by a line quantity.
func (m MinorUnits) MulQuantity(q Quantity) MinorUnits {
	return m * MinorUnits(q)
}

func (m MinorUnits) IsZero() bool     { return m == 0 }
func (m MinorUnits) IsPositive() bool { return m > 0 }
func (m MinorUnits) IsNegative() bool { return m < 0 }
func (m MinorUnits) Neg() MinorUnits  { return -m }
func (m MinorUnits) Abs() MinorUnits {
	if m < 0 {
		return -m
	}
	return m
}

// Quantity is a whole-unit stock or line count. The POS sells discrete
// units only; fractional quantities are not representable.
type Quantity int64

func (q Quantity) IsZero() bool     { return q == 0 }
func (q Quantity) IsPositive() bool { return q > 0 }
func (q Quantity) IsNegative() bool { return q < 0 }
func (q Quantity) Neg() Quantity    { return -q }

func (q Quantity) Abs() Quantity {
	if q < 0 {
		return -q
	}
	return q
}

// Int64 returns the raw count.
func (q Quantity) Int64() int64 { return int64(q) }
