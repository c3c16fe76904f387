package inventory

import (
	"context"
	"time"

	"tillpoint/internal/core/id"
)

// Repository defines persistence for the stock ledger journal.
type Repository interface {
	// CreateMovements batch inserts movements within the caller's transaction.
	CreateMovements(ctx context.Context, movements []Movement) error

	// GetMovementsByRecorder retrieves all movements for a business document.
	GetMovementsByRecorder(ctx context.Context, tenantID string, recorderID id.ID) ([]Movement, error)

	// GetMovementHistory returns the movement history for a product,
	// newest first.
	GetMovementHistory(ctx context.Context, tenantID string, productID id.ID, filter MovementFilter) ([]Movement, error)
}

// MovementFilter narrows movement history queries.
type MovementFilter struct {
	RecordType *RecordType
	FromDate   *time.Time
	ToDate     *time.Time
	Limit      int
	Offset     int
}
