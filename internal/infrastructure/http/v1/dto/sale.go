package dto

import (
	"tillpoint/internal/core/types"
)

// CheckoutRequest turns the register's live cart into a sale. Customer
// and discount normally ride on the cart; values here override when set.
type CheckoutRequest struct {
	ShiftID        string           `json:"shiftId" binding:"required"`
	PaymentMethod  string           `json:"paymentMethod" binding:"required,oneof=cash card transfer"`
	AmountTendered types.MinorUnits `json:"amountTendered" binding:"min=0"`
	CustomerID     string           `json:"customerId"`
	Discount       *DiscountRequest `json:"discount"`
}

// RefundItemRequest is one refunded line.
type RefundItemRequest struct {
	ProductID    string           `json:"productId" binding:"required"`
	Quantity     types.Quantity   `json:"quantity" binding:"required,min=1"`
	RefundAmount types.MinorUnits `json:"refundAmount" binding:"min=0"`
}

// RefundRequest refunds part or all of a completed sale.
type RefundRequest struct {
	Items  []RefundItemRequest `json:"items" binding:"required,min=1,dive"`
	Reason string              `json:"reason" binding:"required"`
}
