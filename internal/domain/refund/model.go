// Package refund provides the refund engine: it reverses part or all
// of a prior sale as a new immutable Refund record, returns stock
// through the inventory ledger and records the audit trail. The
// original sale is never mutated.
package refund

import (
	"context"
	"time"

	"tillpoint/internal/core/id"
	"tillpoint/internal/core/types"
)

// Line is one refunded position.
type Line struct {
	ID           id.ID            `db:"id" json:"id"`
	RefundID     id.ID            `db:"refund_id" json:"refundId"`
	ProductID    id.ID            `db:"product_id" json:"productId"`
	Quantity     types.Quantity   `db:"quantity" json:"quantity"`
	RefundAmount types.MinorUnits `db:"refund_amount" json:"refundAmount"`
}

// Refund is an immutable reversal record referencing the original sale.
// A sale may accumulate multiple partial refunds.
type Refund struct {
	ID             id.ID            `db:"id" json:"id"`
	TenantID       string           `db:"tenant_id" json:"tenantId"`
	OriginalSaleID id.ID            `db:"original_sale_id" json:"originalSaleId"`
	Lines          []Line           `db:"-" json:"lines"`
	RefundTotal    types.MinorUnits `db:"refund_total" json:"refundTotal"`
	Reason         string           `db:"reason" json:"reason"`
	ProcessedBy    string           `db:"processed_by" json:"processedBy"`
	CreatedAt      time.Time        `db:"created_at" json:"createdAt"`
}

// Repository persists refunds. Create participates in the caller's
// transaction.
type Repository interface {
	// Create inserts the refund header and its lines.
	Create(ctx context.Context, r *Refund) error

	GetByID(ctx context.Context, tenantID string, refundID id.ID) (*Refund, error)

	ListBySale(ctx context.Context, tenantID string, saleID id.ID) ([]*Refund, error)

	// SumRefundedQuantities returns cumulative refunded quantity per
	// product for a sale. Used to cap refunds at the sold quantity;
	// call within the refund transaction so concurrent refunds of the
	// same sale serialize against the insert.
	SumRefundedQuantities(ctx context.Context, tenantID string, saleID id.ID) (map[id.ID]types.Quantity, error)
}
