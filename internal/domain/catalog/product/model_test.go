package product

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tillpoint/internal/core/types"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		name     string
		current  types.Quantity
		minimum  types.Quantity
		expected StockStatus
	}{
		{"well stocked", 50, 5, StatusInStock},
		{"just above minimum", 6, 5, StatusInStock},
		{"at minimum", 5, 5, StatusLowStock},
		{"below minimum", 3, 5, StatusLowStock},
		{"zero", 0, 5, StatusOutOfStock},
		{"negative after oversell", -2, 5, StatusOutOfStock},
		{"zero minimum in stock", 1, 0, StatusInStock},
		{"zero stock zero minimum", 0, 0, StatusOutOfStock},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, StatusFor(tc.current, tc.minimum))
		})
	}
}
