// Package inventory provides the stock accumulation ledger.
// Every stock change is journaled as an immutable movement; the product
// row carries the materialized balance.
package inventory

import (
	"time"

	"tillpoint/internal/core/id"
	"tillpoint/internal/core/types"
)

// RecordType defines movement direction.
type RecordType string

const (
	// RecordTypeReceipt increases stock (restock, refund return)
	RecordTypeReceipt RecordType = "receipt"
	// RecordTypeExpense decreases stock (sale, shrinkage)
	RecordTypeExpense RecordType = "expense"
)

// Recorder types identify the business event behind a movement.
const (
	RecorderTypeSale       = "Sale"
	RecorderTypeRefund     = "Refund"
	RecorderTypeAdjustment = "Adjustment"
)

// Movement is an entry in the stock ledger. Movements are immutable:
// corrections are made by recording compensating movements, never by
// updating or deleting rows.
type Movement struct {
	// LineID is the unique identifier for this ledger line (UUIDv7)
	LineID id.ID `db:"line_id" json:"lineId"`

	TenantID string `db:"tenant_id" json:"tenantId"`

	// RecorderID is the business document that created this movement
	RecorderID id.ID `db:"recorder_id" json:"recorderId"`

	// RecorderType is the document type ("Sale", "Refund", "Adjustment")
	RecorderType string `db:"recorder_type" json:"recorderType"`

	// Period is the business date of the movement
	Period time.Time `db:"period" json:"period"`

	RecordType RecordType `db:"record_type" json:"recordType"`

	ProductID id.ID `db:"product_id" json:"productId"`

	// Quantity is always positive; direction comes from RecordType
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	// Reason is free text for manual adjustments, empty otherwise
	Reason string `db:"reason" json:"reason,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewMovement creates a ledger movement with a generated line ID.
func NewMovement(tenantID string, recorderID id.ID, recorderType string, recordType RecordType, productID id.ID, quantity types.Quantity) Movement {
	now := time.Now().UTC()
	return Movement{
		LineID:       id.New(),
		TenantID:     tenantID,
		RecorderID:   recorderID,
		RecorderType: recorderType,
		Period:       now,
		RecordType:   recordType,
		ProductID:    productID,
		Quantity:     quantity,
		CreatedAt:    now,
	}
}

// SignedQuantity returns quantity with sign based on record type.
// Receipt = positive, Expense = negative.
func (m *Movement) SignedQuantity() types.Quantity {
	if m.RecordType == RecordTypeExpense {
		return m.Quantity.Neg()
	}
	return m.Quantity
}
