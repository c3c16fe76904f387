// Package product provides the product catalog reference data consumed by
// the POS core. The catalog itself is maintained elsewhere; the core reads
// price, cost and stock levels, and is the only writer of current stock
// (through the inventory ledger).
package product

import (
	"context"
	"time"

	"tillpoint/internal/core/id"
	"tillpoint/internal/core/types"
)

// StockStatus is the derived display status of a product.
type StockStatus string

const (
	StatusInStock    StockStatus = "in_stock"
	StatusLowStock   StockStatus = "low_stock"
	StatusOutOfStock StockStatus = "out_of_stock"
)

// StatusFor derives the stock status from current and minimum stock.
// It is a pure function: recomputing from stored values always matches
// the stored status.
func StatusFor(current, minimum types.Quantity) StockStatus {
	switch {
	case current <= 0:
		return StatusOutOfStock
	case current <= minimum:
		return StatusLowStock
	default:
		return StatusInStock
	}
}

// Product is catalog reference data plus the authoritative stock count.
type Product struct {
	ID           id.ID            `db:"id" json:"id"`
	TenantID     string           `db:"tenant_id" json:"tenantId"`
	SKU          string           `db:"sku" json:"sku"`
	Name         string           `db:"name" json:"name"`
	UnitPrice    types.MinorUnits `db:"unit_price" json:"unitPrice"`
	CostPrice    types.MinorUnits `db:"cost_price" json:"costPrice"`
	CurrentStock types.Quantity   `db:"current_stock" json:"currentStock"`
	MinimumStock types.Quantity   `db:"minimum_stock" json:"minimumStock"`
	Status       StockStatus      `db:"status" json:"status"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updatedAt"`
}

// Repository defines catalog read access plus the single stock-write hook
// used by the inventory ledger.
type Repository interface {
	// GetByID retrieves a product within the tenant.
	GetByID(ctx context.Context, tenantID string, productID id.ID) (*Product, error)

	// GetByIDs batch fetches products in a single query.
	GetByIDs(ctx context.Context, tenantID string, productIDs []id.ID) ([]*Product, error)

	// AdjustStock atomically applies delta to current stock with a row
	// lock and rederives status. Returns the resulting levels.
	// Must be called within a transaction; only the inventory ledger
	// calls it.
	AdjustStock(ctx context.Context, tenantID string, productID id.ID, delta types.Quantity) (*Product, error)

	// ListLowStock returns products at or below their minimum stock.
	ListLowStock(ctx context.Context, tenantID string, limit int) ([]*Product, error)
}
