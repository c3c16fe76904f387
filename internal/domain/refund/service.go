package refund

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
	"tillpoint/internal/domain/inventory"
	"tillpoint/internal/domain/sale"
	"tillpoint/pkg/logger"
)

// Item is one requested refund position.
type Item struct {
	ProductID    id.ID            `json:"productId"`
	Quantity     types.Quantity   `json:"quantity"`
	RefundAmount types.MinorUnits `json:"refundAmount"`
}

// Service is the refund engine.
type Service struct {
	txm    tx.Manager
	repo   Repository
	sales  sale.Repository
	ledger *inventory.Ledger
	audit  *audit.Service
}

// NewService creates a new refund engine.
func NewService(txm tx.Manager, repo Repository, sales sale.Repository, ledger *inventory.Ledger, auditSvc *audit.Service) *Service {
	return &Service{
		txm:    txm,
		repo:   repo,
		sales:  sales,
		ledger: ledger,
		audit:  auditSvc,
	}
}

// Process creates a refund against a prior sale, restores stock and
// records the audit trail. Cumulative refunded quantity per product is
// capped at the originally sold quantity, so the same line cannot be
// refunded twice.
func (s *Service) Process(ctx context.Context, saleID id.ID, items []Item, reason string) (*Refund, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateItems(items); err != nil {
		return nil, err
	}

	var ref *Refund
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		original, err := s.sales.GetByID(ctx, tenantID, saleID)
		if err != nil {
			return err
		}

		soldQty := make(map[id.ID]types.Quantity, len(original.Lines))
		for _, line := range original.Lines {
			soldQty[line.ProductID] += line.Quantity
		}
		refundedQty, err := s.repo.SumRefundedQuantities(ctx, tenantID, saleID)
		if err != nil {
			return fmt.Errorf("sum refunded quantities: %w", err)
		}

		for _, item := range items {
			sold, ok := soldQty[item.ProductID]
			if !ok {
				return apperror.NewValidation(fmt.Sprintf("product %s is not part of sale %s", item.ProductID, saleID))
			}
			refundable := sold - refundedQty[item.ProductID]
			if item.Quantity > refundable {
				return apperror.NewRefundExceedsSale(item.ProductID.String(), item.Quantity.Int64(), refundable.Int64())
			}
		}

		ref = build(tenantID, saleID, items, reason, appctx.GetUserID(ctx))
		if err := s.repo.Create(ctx, ref); err != nil {
			return fmt.Errorf("create refund: %w", err)
		}

		movements := make([]inventory.Movement, 0, len(ref.Lines))
		for _, line := range ref.Lines {
			movements = append(movements, inventory.NewMovement(
				tenantID, ref.ID, inventory.RecorderTypeRefund,
				inventory.RecordTypeReceipt, line.ProductID, line.Quantity,
			))
		}
		if _, err := s.ledger.Apply(ctx, movements); err != nil {
			return err
		}

		return s.audit.Record(ctx, audit.ActionRefundProcessed, "refund", ref.ID.String(), nil, ref, map[string]any{
			"original_sale_id": saleID.String(),
			"refund_total":     ref.RefundTotal.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "refund processed",
		"refund_id", ref.ID,
		"sale_id", saleID,
		"refund_total", ref.RefundTotal,
		"lines", len(ref.Lines),
	)

	return ref, nil
}

// Get loads a refund with its lines.
func (s *Service) Get(ctx context.Context, refundID id.ID) (*Refund, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, tenantID, refundID)
}

// ListBySale returns all refunds referencing a sale.
func (s *Service) ListBySale(ctx context.Context, saleID id.ID) ([]*Refund, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListBySale(ctx, tenantID, saleID)
}

func build(tenantID string, saleID id.ID, items []Item, reason, processedBy string) *Refund {
	ref := &Refund{
		ID:             id.New(),
		TenantID:       tenantID,
		OriginalSaleID: saleID,
		Reason:         reason,
		ProcessedBy:    processedBy,
		CreatedAt:      time.Now().UTC(),
	}
	for _, item := range items {
		ref.Lines = append(ref.Lines, Line{
			ID:           id.New(),
			RefundID:     ref.ID,
			ProductID:    item.ProductID,
			Quantity:     item.Quantity,
			RefundAmount: item.RefundAmount,
		})
		ref.RefundTotal += item.RefundAmount
	}
	return ref
}

func validateItems(items []Item) error {
	if len(items) == 0 {
		return apperror.NewValidation("refund requires at least one item")
	}
	for i, item := range items {
		if id.IsNil(item.ProductID) {
			return apperror.NewValidation(fmt.Sprintf("item %d: product_id is required", i))
		}
		if !item.Quantity.IsPositive() {
			return apperror.NewValidation(fmt.Sprintf("item %d: quantity must be positive", i))
		}
		if item.RefundAmount.IsNegative() {
			return apperror.NewValidation(fmt.Sprintf("item %d: refund amount must not be negative", i))
		}
	}
	return nil
}
