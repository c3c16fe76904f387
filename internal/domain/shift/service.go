package shift

import (
	"context"
	"fmt"
	"time"

	"tillpoint/internal/core/apperror"
	appctx "tillpoint/internal/core/context"
	"tillpoint/internal/core/id"
	"tillpoint/internal/core/tenant"
	"tillpoint/internal/core/tx"
	"tillpoint/internal/core/types"
	"tillpoint/internal/domain/audit"
	"tillpoint/pkg/logger"
)

// Service manages the shift lifecycle. A register has at most one open
// shift; the repository backs this with a partial unique index, the
// service check just produces the friendlier error.
type Service struct {
	txm   tx.Manager
	repo  Repository
	audit *audit.Service
}

// NewService creates a new shift service.
func NewService(txm tx.Manager, repo Repository, auditSvc *audit.Service) *Service {
	return &Service{
		txm:   txm,
		repo:  repo,
		audit: auditSvc,
	}
}

// Open starts a new shift for a register. Fails with SHIFT_ALREADY_OPEN
// if the register already has one.
func (s *Service) Open(ctx context.Context, registerID string, openingCash types.MinorUnits) (*Shift, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}
	if registerID == "" {
		return nil, apperror.NewValidation("register_id is required")
	}
	if openingCash.IsNegative() {
		return nil, apperror.NewValidation("opening cash must not be negative")
	}

	sh := &Shift{
		ID:          id.New(),
		TenantID:    tenantID,
		RegisterID:  registerID,
		CashierID:   appctx.GetUserID(ctx),
		OpeningCash: openingCash,
		Status:      StatusOpen,
		OpenedAt:    time.Now().UTC(),
	}

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.repo.GetOpenByRegister(ctx, tenantID, registerID)
		if err != nil {
			return fmt.Errorf("check open shift: %w", err)
		}
		if existing != nil {
			return apperror.NewShiftAlreadyOpen(registerID, existing.ID.String())
		}
		if err := s.repo.Create(ctx, sh); err != nil {
			return fmt.Errorf("create shift: %w", err)
		}
		return s.audit.Record(ctx, audit.ActionShiftOpened, "shift", sh.ID.String(), nil, sh, nil)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "shift opened",
		"shift_id", sh.ID,
		"register_id", registerID,
		"opening_cash", openingCash,
	)

	return sh, nil
}

// Close ends a shift, computing expected cash from the payments
// recorded during it. The transition is one-way; closing a closed
// shift is rejected. Variance is informational and never rejected.
func (s *Service) Close(ctx context.Context, shiftID id.ID, closingCash types.MinorUnits) (*Shift, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}
	if closingCash.IsNegative() {
		return nil, apperror.NewValidation("closing cash must not be negative")
	}

	var sh *Shift
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		sh, err = s.repo.GetByIDForUpdate(ctx, tenantID, shiftID)
		if err != nil {
			return err
		}
		if !sh.IsOpen() {
			return apperror.NewConflict(fmt.Sprintf("shift %s is already closed", shiftID))
		}

		payments, err := s.repo.SumShiftPayments(ctx, tenantID, shiftID)
		if err != nil {
			return fmt.Errorf("sum shift payments: %w", err)
		}

		before := *sh
		expected := sh.OpeningCash + payments
		now := time.Now().UTC()
		sh.ClosingCash = &closingCash
		sh.ExpectedCash = &expected
		sh.Status = StatusClosed
		sh.ClosedAt = &now

		if err := s.repo.Close(ctx, sh); err != nil {
			return fmt.Errorf("close shift: %w", err)
		}

		return s.audit.Record(ctx, audit.ActionShiftClosed, "shift", sh.ID.String(), before, sh, map[string]any{
			"variance": sh.Variance().String(),
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "shift closed",
		"shift_id", sh.ID,
		"expected_cash", *sh.ExpectedCash,
		"closing_cash", closingCash,
		"variance", sh.Variance(),
	)

	return sh, nil
}

// Get loads a single shift.
func (s *Service) Get(ctx context.Context, shiftID id.ID) (*Shift, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, tenantID, shiftID)
}

// ActiveForRegister returns the register's open shift, or nil.
func (s *Service) ActiveForRegister(ctx context.Context, registerID string) (*Shift, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.GetOpenByRegister(ctx, tenantID, registerID)
}

// List returns shifts for reconciliation reporting.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Shift, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	return s.repo.List(ctx, tenantID, filter)
}
