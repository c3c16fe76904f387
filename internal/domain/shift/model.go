// Package shift provides cash-register shift management: a shift
// brackets a period of register usage between a cash open and a cash
// close, and reconciles expected against counted cash at close time.
package shift

import (
	"context"
	"time"

	"tillpoint/internal/core/id"
	"tillpoint/internal/core/types"
)

// Status is the shift lifecycle state. The transition open -> closed
// is one-way; there is no reopen.
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Shift is a bounded period of register usage. Created on open,
// mutated exactly once on close, immutable afterward.
type Shift struct {
	ID          id.ID             `db:"id" json:"id"`
	TenantID    string            `db:"tenant_id" json:"tenantId"`
	RegisterID  string            `db:"register_id" json:"registerId"`
	CashierID   string            `db:"cashier_id" json:"cashierId"`
	OpeningCash types.MinorUnits  `db:"opening_cash" json:"openingCash"`
	ClosingCash *types.MinorUnits `db:"closing_cash" json:"closingCash,omitempty"`
	// ExpectedCash = openingCash + sum(amountTendered - changeGiven)
	// over payments belonging to this shift. Set once at close.
	ExpectedCash *types.MinorUnits `db:"expected_cash" json:"expectedCash,omitempty"`
	Status       Status            `db:"status" json:"status"`
	OpenedAt     time.Time         `db:"opened_at" json:"openedAt"`
	ClosedAt     *time.Time        `db:"closed_at" json:"closedAt,omitempty"`
}

// IsOpen reports whether the shift still accepts sales.
func (s *Shift) IsOpen() bool {
	return s.Status == StatusOpen
}

// Variance is closingCash minus expectedCash. Informational only:
// over/under amounts are reported, never rejected. Returns zero until
// the shift is closed.
func (s *Shift) Variance() types.MinorUnits {
	if s.ClosingCash == nil || s.ExpectedCash == nil {
		return 0
	}
	return *s.ClosingCash - *s.ExpectedCash
}

// Repository persists shifts and answers the payment reconciliation
// query at close time.
type Repository interface {
	Create(ctx context.Context, s *Shift) error

	GetByID(ctx context.Context, tenantID string, shiftID id.ID) (*Shift, error)

	// GetByIDForUpdate loads a shift with a row lock. Used at close so
	// two concurrent closes serialize. Must run within a transaction.
	GetByIDForUpdate(ctx context.Context, tenantID string, shiftID id.ID) (*Shift, error)

	// GetOpenByRegister returns the open shift for a register, or nil
	// when none is open.
	GetOpenByRegister(ctx context.Context, tenantID, registerID string) (*Shift, error)

	// Close writes the closing fields of a shift that is still open.
	Close(ctx context.Context, s *Shift) error

	// SumShiftPayments returns sum(amountTendered - changeGiven) over
	// payments whose sale belongs to the shift.
	SumShiftPayments(ctx context.Context, tenantID string, shiftID id.ID) (types.MinorUnits, error)

	List(ctx context.Context, tenantID string, filter ListFilter) ([]*Shift, error)
}

// ListFilter narrows shift listings.
type ListFilter struct {
	RegisterID string
	Status     *Status
	Limit      int
	Offset     int
}
