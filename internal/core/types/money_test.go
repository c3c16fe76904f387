package types

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMinorUnitsFromDecimal_Rounding(t *testing.T) {
	tests := []struct {
		in   string
		want MinorUnits
	}{
		{"19.80", 1980},
		{"19.804", 1980},
		{"19.805", 1981}, // half away from zero
		{"0", 0},
		{"-5.005", -501},
		{"100", 10000},
	}

	for _, tt := range tests {
		d := decimal.RequireFromString(tt.in)
		assert.Equal(t, tt.want, MinorUnitsFromDecimal(d), "input %s", tt.in)
	}
}

func TestMinorUnits_Decimal_RoundTrip(t *testing.T) {
	m := MinorUnits(1980)
	assert.True(t, m.Decimal().Equal(decimal.RequireFromString("19.80")))
	assert.Equal(t, m, MinorUnitsFromDecimal(m.Decimal()))
}

func TestMinorUnits_String(t *testing.T) {
	assert.Equal(t, "19.80", MinorUnits(1980).String())
	assert.Equal(t, "0.05", MinorUnits(5).String())
	assert.Equal(t, "-3.50", MinorUnits(-350).String())
	assert.Equal(t, "0.00", MinorUnits(0).String())
}

func TestQuantity_SignHelpers(t *testing.T) {
	assert.True(t, Quantity(2).IsPositive())
	assert.True(t, Quantity(-2).IsNegative())
	assert.True(t, Quantity(0).IsZero())
	assert.Equal(t, Quantity(2), Quantity(-2).Abs())
	assert.Equal(t, Quantity(-2), Quantity(2).Neg())
}
