package sale

import (
	"context"
	"time"

	"tillpoint/internal/core/id"
)

// Repository persists sales and their satellite records. All Create
// methods participate in the caller's transaction.
type Repository interface {
	// CreateSale inserts the sale header and its lines.
	CreateSale(ctx context.Context, s *Sale) error

	CreatePayment(ctx context.Context, p *Payment) error

	CreateReceipt(ctx context.Context, r *Receipt) error

	// GetByID loads a sale with its lines.
	GetByID(ctx context.Context, tenantID string, saleID id.ID) (*Sale, error)

	GetReceiptBySale(ctx context.Context, tenantID string, saleID id.ID) (*Receipt, error)

	// MarkReceiptPrinted stamps the printed timestamp once; later calls
	// keep the first timestamp.
	MarkReceiptPrinted(ctx context.Context, tenantID string, receiptID id.ID) error

	// List returns sale summaries, newest first, with the refunded flag
	// derived from refund existence.
	List(ctx context.Context, tenantID string, filter ListFilter) ([]*Summary, error)
}

// ListFilter narrows sale listings.
type ListFilter struct {
	RegisterID string
	ShiftID    *id.ID
	CustomerID string
	FromDate   *time.Time
	ToDate     *time.Time
	Limit      int
	Offset     int
}
