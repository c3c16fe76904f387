package dto

import (
	"github.com/shopspring/decimal"

	"tillpoint/internal/core/types"
	"tillpoint/internal/domain/cart"
)

// AddItemRequest adds quantity of a product to the live cart.
type AddItemRequest struct {
	ProductID string         `json:"productId" binding:"required"`
	Quantity  types.Quantity `json:"quantity" binding:"required,min=1"`
}

// SetQuantityRequest sets the absolute quantity of a cart line.
// Zero or less removes the line.
type SetQuantityRequest struct {
	Quantity types.Quantity `json:"quantity"`
}

// DiscountRequest applies a cart-level discount.
type DiscountRequest struct {
	Type   string          `json:"type" binding:"required,oneof=percentage fixed"`
	Value  decimal.Decimal `json:"value" binding:"required"`
	Reason string          `json:"reason"`
}

// ToDiscount converts the request to the domain discount.
func (r *DiscountRequest) ToDiscount() *cart.Discount {
	return &cart.Discount{
		Type:   cart.DiscountType(r.Type),
		Value:  r.Value,
		Reason: r.Reason,
	}
}

// SetCustomerRequest attaches a customer to the cart. An empty id
// reverts to the walk-in sentinel.
type SetCustomerRequest struct {
	CustomerID string `json:"customerId"`
}
