package inventory

import (
	"context"
	"fmt"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/id"
	"tillpoint/internal/domain/catalog/product"
	"tillpoint/pkg/logger"
)

// Ledger provides business operations for the stock ledger.
// Transactions are managed by the caller (checkout and refund engines):
// journaling a movement and adjusting the product balance commit together.
type Ledger struct {
	repo     Repository
	products product.Repository
}

// StockAlert reports a product that crossed a stock threshold while
// movements were applied.
type StockAlert struct {
	ProductID    id.ID               `json:"productId"`
	SKU          string              `json:"sku"`
	Status       product.StockStatus `json:"status"`
	CurrentStock int64               `json:"currentStock"`
}

// NewLedger creates a new stock ledger service.
func NewLedger(repo Repository, products product.Repository) *Ledger {
	return &Ledger{
		repo:     repo,
		products: products,
	}
}

// Apply journals movements and adjusts product balances in one pass.
// Must be called within a transaction. Overselling is permitted: stock
// may go negative and is reported as an alert rather than an error, so
// a mis-counted shelf never blocks a checkout.
func (l *Ledger) Apply(ctx context.Context, movements []Movement) ([]StockAlert, error) {
	if len(movements) == 0 {
		return nil, nil
	}

	for i, m := range movements {
		if !m.Quantity.IsPositive() {
			return nil, apperror.NewValidation(fmt.Sprintf("movement %d: quantity must be positive", i))
		}
		if id.IsNil(m.RecorderID) {
			return nil, apperror.NewValidation(fmt.Sprintf("movement %d: recorder_id is required", i))
		}
		if id.IsNil(m.ProductID) {
			return nil, apperror.NewValidation(fmt.Sprintf("movement %d: product_id is required", i))
		}
	}

	if err := l.repo.CreateMovements(ctx, movements); err != nil {
		return nil, fmt.Errorf("create movements: %w", err)
	}

	var alerts []StockAlert
	for _, m := range movements {
		p, err := l.products.AdjustStock(ctx, m.TenantID, m.ProductID, m.SignedQuantity())
		if err != nil {
			return nil, fmt.Errorf("adjust stock for %s: %w", m.ProductID, err)
		}

		if m.RecordType == RecordTypeExpense && p.Status != product.StatusInStock {
			alerts = append(alerts, StockAlert{
				ProductID:    p.ID,
				SKU:          p.SKU,
				Status:       p.Status,
				CurrentStock: p.CurrentStock.Int64(),
			})
			if p.CurrentStock.IsNegative() {
				logger.Warn(ctx, "stock oversold",
					"product_id", p.ID,
					"sku", p.SKU,
					"current_stock", p.CurrentStock,
					"recorder_id", m.RecorderID,
					"recorder_type", m.RecorderType,
				)
			}
		}
	}

	logger.Info(ctx, "applied stock movements",
		"count", len(movements),
		"recorder_id", movements[0].RecorderID,
		"recorder_type", movements[0].RecorderType,
	)

	return alerts, nil
}

// History returns the movement history for a product, newest first.
func (l *Ledger) History(ctx context.Context, tenantID string, productID id.ID, filter MovementFilter) ([]Movement, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	return l.repo.GetMovementHistory(ctx, tenantID, productID, filter)
}
