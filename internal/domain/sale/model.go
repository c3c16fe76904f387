// Package sale provides the checkout engine: it turns a live cart into
// an immutable Sale with its Payment and Receipt, moves stock through
// the inventory ledger and records the audit trail, all in one
// transaction.
package sale

import (
	"time"

	"tillpoint/internal/core/id"
	"tillpoint/internal/core/types"
	"tillpoint/internal/domain/cart"
)

// PaymentMethod identifies how a sale was paid.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
)

// Line is an immutable snapshot of a cart line at sale time. Name and
// prices are captured here and stay fixed even when the catalog
// changes later.
type Line struct {
	ID        id.ID            `db:"id" json:"id"`
	SaleID    id.ID            `db:"sale_id" json:"saleId"`
	ProductID id.ID            `db:"product_id" json:"productId"`
	SKU       string           `db:"sku" json:"sku"`
	Name      string           `db:"name" json:"name"`
	UnitPrice types.MinorUnits `db:"unit_price" json:"unitPrice"`
	CostPrice types.MinorUnits `db:"cost_price" json:"costPrice"`
	Quantity  types.Quantity   `db:"quantity" json:"quantity"`
	Subtotal  types.MinorUnits `db:"subtotal" json:"subtotal"`
}

// Sale is the immutable record of a completed transaction.
// Corrections are expressed as Refund records referencing it, never by
// mutating the sale.
type Sale struct {
	ID             id.ID            `db:"id" json:"id"`
	Number         string           `db:"number" json:"number"`
	TenantID       string           `db:"tenant_id" json:"tenantId"`
	RegisterID     string           `db:"register_id" json:"registerId"`
	ShiftID        id.ID            `db:"shift_id" json:"shiftId"`
	CustomerID     string           `db:"customer_id" json:"customerId"`
	Lines          []Line           `db:"-" json:"lines"`
	Discount       *cart.Discount   `db:"-" json:"discount,omitempty"`
	Subtotal       types.MinorUnits `db:"subtotal" json:"subtotal"`
	DiscountAmount types.MinorUnits `db:"discount_amount" json:"discountAmount"`
	TaxAmount      types.MinorUnits `db:"tax_amount" json:"taxAmount"`
	GrandTotal     types.MinorUnits `db:"grand_total" json:"grandTotal"`
	PaymentMethod  PaymentMethod    `db:"payment_method" json:"paymentMethod"`
	CashierID      string           `db:"cashier_id" json:"cashierId"`
	CreatedAt      time.Time        `db:"created_at" json:"createdAt"`
}

// Payment records the tender for a sale. One payment per sale; split
// tender is not supported.
type Payment struct {
	ID             id.ID            `db:"id" json:"id"`
	SaleID         id.ID            `db:"sale_id" json:"saleId"`
	TenantID       string           `db:"tenant_id" json:"tenantId"`
	Method         PaymentMethod    `db:"method" json:"method"`
	AmountTendered types.MinorUnits `db:"amount_tendered" json:"amountTendered"`
	ChangeGiven    types.MinorUnits `db:"change_given" json:"changeGiven"`
	CreatedAt      time.Time        `db:"created_at" json:"createdAt"`
}

// Receipt is the printable record for a sale, 1:1 and created in the
// same transaction.
type Receipt struct {
	ID        id.ID      `db:"id" json:"id"`
	SaleID    id.ID      `db:"sale_id" json:"saleId"`
	TenantID  string     `db:"tenant_id" json:"tenantId"`
	Number    string     `db:"number" json:"number"`
	PrintedAt *time.Time `db:"printed_at" json:"printedAt,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
}

// Summary is a sale listing row. Refunded is true when any refund
// references the sale, partial or not.
type Summary struct {
	ID         id.ID            `db:"id" json:"id"`
	Number     string           `db:"number" json:"number"`
	CustomerID string           `db:"customer_id" json:"customerId"`
	GrandTotal types.MinorUnits `db:"grand_total" json:"grandTotal"`
	CashierID  string           `db:"cashier_id" json:"cashierId"`
	Refunded   bool             `db:"refunded" json:"refunded"`
	CreatedAt  time.Time        `db:"created_at" json:"createdAt"`
}
