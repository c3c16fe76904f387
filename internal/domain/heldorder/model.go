// Package heldorder provides suspended carts: a cashier parks the live
// cart (with its customer and discount), serves someone else, and
// recalls it later. Held orders have no expiry; they persist until
// recalled or deleted.
package heldorder

import (
	"context"
	"time"

	"tillpoint/internal/core/id"
	"tillpoint/internal/domain/cart"
)

// HeldOrder is a parked cart snapshot. The snapshot is a deep copy;
// later edits to the live cart never leak into it.
type HeldOrder struct {
	ID         id.ID      `db:"id" json:"id"`
	TenantID   string     `db:"tenant_id" json:"tenantId"`
	RegisterID string     `db:"register_id" json:"registerId"`
	Cart       *cart.Cart `db:"-" json:"cart"`
	CustomerID string     `db:"customer_id" json:"customerId"`
	Note       string     `db:"note" json:"note,omitempty"`
	HeldBy     string     `db:"held_by" json:"heldBy"`
	HeldAt     time.Time  `db:"held_at" json:"heldAt"`
}

// Repository persists held orders.
type Repository interface {
	Create(ctx context.Context, o *HeldOrder) error

	GetByID(ctx context.Context, tenantID string, orderID id.ID) (*HeldOrder, error)

	// Delete removes a held order. Returns a not-found error when the
	// order does not exist, so a double recall is reported cleanly.
	Delete(ctx context.Context, tenantID string, orderID id.ID) error

	List(ctx context.Context, tenantID, registerID string) ([]*HeldOrder, error)
}
