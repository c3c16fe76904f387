package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillpoint/internal/core/id"
	"tillpoint/internal/core/tenant"
	"tillpoint/internal/core/types"
	"tillpoint/internal/domain/catalog/product"
)

func testProduct(price types.MinorUnits) *product.Product {
	return &product.Product{
		ID:        id.New(),
		TenantID:  "acme",
		SKU:       "SKU-1",
		Name:      "Widget",
		UnitPrice: price,
		CostPrice: price / 2,
	}
}

func TestCartAddItem_AccumulatesAndResnapshotsPrice(t *testing.T) {
	c := New("acme", "reg-1")
	p := testProduct(1000)

	c.AddItem(p, 2)
	require.Len(t, c.Items, 1)
	assert.Equal(t, types.MinorUnits(2000), c.Subtotal())

	// catalog price changed between adds; whole line is re-priced
	p.UnitPrice = 1200
	c.AddItem(p, 1)
	require.Len(t, c.Items, 1)
	assert.Equal(t, types.Quantity(3), c.Items[0].Quantity)
	assert.Equal(t, types.MinorUnits(3600), c.Subtotal())
}

func TestCartSetQuantity(t *testing.T) {
	c := New("acme", "reg-1")
	p := testProduct(500)
	c.AddItem(p, 1)

	require.True(t, c.SetQuantity(p, 4))
	assert.Equal(t, types.MinorUnits(2000), c.Subtotal())

	// zero removes the line
	require.True(t, c.SetQuantity(p, 0))
	assert.True(t, c.IsEmpty())

	assert.False(t, c.SetQuantity(p, 2))
}

func TestCartClear_ResetsCustomerAndDiscount(t *testing.T) {
	c := New("acme", "reg-1")
	c.AddItem(testProduct(100), 1)
	c.SetCustomer("cust-1")
	c.SetDiscount(&Discount{Type: DiscountFixed, Value: decimal.NewFromInt(5)})

	c.Clear()

	assert.True(t, c.IsEmpty())
	assert.Nil(t, c.Discount)
	assert.Equal(t, tenant.WalkInCustomerID, c.CustomerID)
}

func TestCartClone_IsDeepCopy(t *testing.T) {
	c := New("acme", "reg-1")
	p := testProduct(100)
	c.AddItem(p, 3)
	c.SetCustomer("cust-1")
	c.SetDiscount(&Discount{Type: DiscountFixed, Value: decimal.NewFromInt(5)})

	cp := c.Clone()
	c.SetQuantity(p, 1)
	c.SetDiscount(nil)
	c.SetCustomer("")

	assert.Equal(t, types.Quantity(3), cp.Items[0].Quantity)
	require.NotNil(t, cp.Discount)
	assert.True(t, cp.Discount.Value.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, "cust-1", cp.CustomerID)
}

func TestDiscountAmountOff(t *testing.T) {
	cases := []struct {
		name     string
		discount Discount
		subtotal types.MinorUnits
		expected types.MinorUnits
	}{
		{"ten percent", Discount{Type: DiscountPercentage, Value: decimal.NewFromInt(10)}, 2000, 200},
		{"percentage rounds half away", Discount{Type: DiscountPercentage, Value: decimal.NewFromInt(15)}, 1010, 152},
		{"fixed", Discount{Type: DiscountFixed, Value: decimal.NewFromInt(5)}, 2000, 500},
		{"fixed capped at subtotal", Discount{Type: DiscountFixed, Value: decimal.NewFromInt(50)}, 2000, 2000},
		{"full percentage", Discount{Type: DiscountPercentage, Value: decimal.NewFromInt(100)}, 999, 999},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.discount.AmountOff(tc.subtotal))
		})
	}
}
