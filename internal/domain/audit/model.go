// Package audit provides the append-only activity trail. Every mutating
// POS operation records an entry; entries are never updated or deleted.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"tillpoint/internal/core/id"
)

// Action names for audited POS operations.
const (
	ActionSaleCompleted   = "sale_completed"
	ActionDiscountApplied = "discount_applied"
	ActionRefundProcessed = "refund_processed"
	ActionOrderHeld       = "order_held"
	ActionOrderRecalled   = "order_recalled"
	ActionShiftOpened     = "shift_opened"
	ActionShiftClosed     = "shift_closed"
	ActionStockAdjusted   = "stock_adjusted"
)

// Entry is a single audit record.
type Entry struct {
	ID         id.ID           `db:"id" json:"id"`
	TenantID   string          `db:"tenant_id" json:"tenantId"`
	Action     string          `db:"action" json:"action"`
	EntityType string          `db:"entity_type" json:"entityType"`
	EntityID   string          `db:"entity_id" json:"entityId"`
	ActorID    string          `db:"actor_id" json:"actorId"`
	Before     json.RawMessage `db:"before_state" json:"before,omitempty"`
	After      json.RawMessage `db:"after_state" json:"after,omitempty"`
	Metadata   json.RawMessage `db:"metadata" json:"metadata,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"createdAt"`
}

// Filter narrows audit feed queries.
type Filter struct {
	Action     string
	EntityType string
	EntityID   string
	ActorID    string
	FromDate   *time.Time
	ToDate     *time.Time
	Limit      int
	Offset     int
}

// Repository persists audit entries. Insert participates in the
// caller's transaction so an audit entry commits atomically with the
// operation it describes.
type Repository interface {
	Insert(ctx context.Context, entry Entry) error
	Feed(ctx context.Context, tenantID string, filter Filter) ([]Entry, error)
}
