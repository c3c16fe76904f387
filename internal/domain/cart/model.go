// Package cart provides the live pre-sale cart: an ephemeral, mutable
// collection of line items plus at most one discount and an optional
// customer reference. Cart edits have no side effects; inventory and
// audit writes happen only at checkout or hold.
package cart

import (
	"time"

	"github.com/shopspring/decimal"

	"tillpoint/internal/core/id"
	"tillpoint/internal/core/tenant"
	"tillpoint/internal/core/types"
	"tillpoint/internal/domain/catalog/product"
)

// DiscountType distinguishes percentage from fixed-amount discounts.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Discount is a cart-level price reduction. At most one per cart/sale,
// applied to the subtotal at checkout, never per line.
type Discount struct {
	Type   DiscountType    `json:"type"`
	Value  decimal.Decimal `json:"value"`
	Reason string          `json:"reason,omitempty"`
}

// AmountOff computes the reduction for the given subtotal.
// Percentage discounts round half away from zero; fixed discounts are
// capped at the subtotal so a total never goes negative.
func (d Discount) AmountOff(subtotal types.MinorUnits) types.MinorUnits {
	var off types.MinorUnits
	switch d.Type {
	case DiscountPercentage:
		off = types.MinorUnitsFromDecimal(subtotal.Decimal().Mul(d.Value).Div(decimal.NewFromInt(100)))
	case DiscountFixed:
		off = types.MinorUnitsFromDecimal(d.Value)
	}
	if off > subtotal {
		off = subtotal
	}
	if off < 0 {
		off = 0
	}
	return off
}

// Item is a cart line. UnitPrice is snapshotted from the catalog when
// the line is added and re-snapshotted on every quantity change.
type Item struct {
	ProductID id.ID            `json:"productId"`
	SKU       string           `json:"sku"`
	Name      string           `json:"name"`
	UnitPrice types.MinorUnits `json:"unitPrice"`
	CostPrice types.MinorUnits `json:"costPrice"`
	Quantity  types.Quantity   `json:"quantity"`
	Subtotal  types.MinorUnits `json:"subtotal"`
}

// Cart is the live cart for one register. Items are ordered and unique
// by product id.
type Cart struct {
	TenantID   string    `json:"tenantId"`
	RegisterID string    `json:"registerId"`
	Items      []Item    `json:"items"`
	Discount   *Discount `json:"discount,omitempty"`
	CustomerID string    `json:"customerId"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// New creates an empty cart for a register with the walk-in customer.
func New(tenantID, registerID string) *Cart {
	return &Cart{
		TenantID:   tenantID,
		RegisterID: registerID,
		CustomerID: tenant.WalkInCustomerID,
		UpdatedAt:  time.Now().UTC(),
	}
}

// IsEmpty reports whether the cart has no line items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Subtotal sums the line subtotals.
func (c *Cart) Subtotal() types.MinorUnits {
	var total types.MinorUnits
	for _, it := range c.Items {
		total += it.Subtotal
	}
	return total
}

// AddItem accumulates quantity for an existing line or appends a new
// one. The line price is re-snapshotted from the catalog product at the
// moment of the call.
func (c *Cart) AddItem(p *product.Product, qty types.Quantity) {
	c.touch()
	for i := range c.Items {
		if c.Items[i].ProductID == p.ID {
			c.Items[i].Quantity += qty
			c.Items[i].UnitPrice = p.UnitPrice
			c.Items[i].CostPrice = p.CostPrice
			c.Items[i].Subtotal = p.UnitPrice.MulQuantity(c.Items[i].Quantity)
			return
		}
	}
	c.Items = append(c.Items, Item{
		ProductID: p.ID,
		SKU:       p.SKU,
		Name:      p.Name,
		UnitPrice: p.UnitPrice,
		CostPrice: p.CostPrice,
		Quantity:  qty,
		Subtotal:  p.UnitPrice.MulQuantity(qty),
	})
}

// SetQuantity updates a line's quantity, re-snapshotting its price.
// A quantity of zero or less removes the line. Returns false if the
// product is not in the cart.
func (c *Cart) SetQuantity(p *product.Product, qty types.Quantity) bool {
	if qty <= 0 {
		return c.RemoveItem(p.ID)
	}
	for i := range c.Items {
		if c.Items[i].ProductID == p.ID {
			c.touch()
			c.Items[i].Quantity = qty
			c.Items[i].UnitPrice = p.UnitPrice
			c.Items[i].CostPrice = p.CostPrice
			c.Items[i].Subtotal = p.UnitPrice.MulQuantity(qty)
			return true
		}
	}
	return false
}

// RemoveItem deletes a line by product id. Returns false if absent.
func (c *Cart) RemoveItem(productID id.ID) bool {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.touch()
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the cart and resets customer and discount.
func (c *Cart) Clear() {
	c.touch()
	c.Items = nil
	c.Discount = nil
	c.CustomerID = tenant.WalkInCustomerID
}

// SetDiscount attaches or removes the cart's single discount.
func (c *Cart) SetDiscount(d *Discount) {
	c.touch()
	c.Discount = d
}

// SetCustomer sets the customer reference; empty reverts to walk-in.
func (c *Cart) SetCustomer(customerID string) {
	c.touch()
	if customerID == "" {
		customerID = tenant.WalkInCustomerID
	}
	c.CustomerID = customerID
}

// Clone returns a deep copy, used when a cart is parked as a held order.
func (c *Cart) Clone() *Cart {
	cp := *c
	cp.Items = make([]Item, len(c.Items))
	copy(cp.Items, c.Items)
	if c.Discount != nil {
		d := *c.Discount
		cp.Discount = &d
	}
	return &cp
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now().UTC()
}
