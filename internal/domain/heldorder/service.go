package heldorder

import (
	"context"
	"fmt"
	"time"

	"tillpoint/internal/core/apperror"
	appctx "tillpoint/internal/core/context"
	"tillpoint/internal/core/id"
	"tillpoint/internal/core/tenant"
	"tillpoint/internal/core/tx"
	"tillpoint/internal/domain/audit"
	"tillpoint/internal/domain/cart"
	"tillpoint/pkg/logger"
)

// Service manages the hold/recall lifecycle.
type Service struct {
	txm   tx.Manager
	repo  Repository
	carts *cart.Service
	audit *audit.Service
}

// NewService creates a new held-order service.
func NewService(txm tx.Manager, repo Repository, carts *cart.Service, auditSvc *audit.Service) *Service {
	return &Service{
		txm:   txm,
		repo:  repo,
		carts: carts,
		audit: auditSvc,
	}
}

// Hold parks the register's live cart as a held order and clears the
// cart, including its customer and discount.
func (s *Service) Hold(ctx context.Context, registerID, note string) (*HeldOrder, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}

	c, err := s.carts.Get(ctx, registerID)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, apperror.NewEmptyCart(registerID)
	}

	order := &HeldOrder{
		ID:         id.New(),
		TenantID:   tenantID,
		RegisterID: registerID,
		Cart:       c.Clone(),
		CustomerID: c.CustomerID,
		Note:       note,
		HeldBy:     appctx.GetUserID(ctx),
		HeldAt:     time.Now().UTC(),
	}

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, order); err != nil {
			return fmt.Errorf("create held order: %w", err)
		}
		return s.audit.Record(ctx, audit.ActionOrderHeld, "held_order", order.ID.String(), nil, order, nil)
	})
	if err != nil {
		return nil, err
	}

	// The live cart is cleared only after the snapshot is durable; a
	// clear failure leaves a stale cart, never a lost order.
	if err := s.carts.Clear(ctx, registerID); err != nil {
		logger.Warn(ctx, "cart clear after hold failed",
			"register_id", registerID,
			"order_id", order.ID,
			"error", err,
		)
	}

	logger.Info(ctx, "order held",
		"order_id", order.ID,
		"register_id", registerID,
		"items", len(order.Cart.Items),
	)

	return order, nil
}

// Recall restores a held order into the live cart of the register it
// was held on, replacing the cart wholesale, and removes the held
// order. Items already in the live cart are discarded, not merged.
func (s *Service) Recall(ctx context.Context, orderID id.ID) (*cart.Cart, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}

	order, err := s.repo.GetByID(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}

	// Restore first: if the delete below fails the order stays parked
	// and recall can simply be retried, replacing the cart again.
	restored := order.Cart.Clone()
	if err := s.carts.Replace(ctx, restored); err != nil {
		return nil, err
	}

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Delete(ctx, tenantID, orderID); err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.ActionOrderRecalled, "held_order", orderID.String(), order, nil, nil)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "order recalled",
		"order_id", orderID,
		"register_id", order.RegisterID,
	)

	return restored, nil
}

// Delete discards a held order without recall. No audit entry is
// written for a plain discard.
func (s *Service) Delete(ctx context.Context, orderID id.ID) error {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, tenantID, orderID)
}

// List returns held orders for a register; empty registerID lists the
// whole tenant.
func (s *Service) List(ctx context.Context, registerID string) ([]*HeldOrder, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, tenantID, registerID)
}
