package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"tillpoint/internal/core/id"
	"tillpoint/internal/domain/inventory"
)

const stockMovementsTable = "stock_movements"

var movementColumns = []string{
	"line_id", "tenant_id", "recorder_id", "recorder_type", "period",
	"record_type", "product_id", "quantity", "reason", "created_at",
}

// InventoryRepo implements inventory.Repository over the movement
// journal table.
type InventoryRepo struct {
	txm     *TxManager
	builder squirrel.StatementBuilderType
}

var _ inventory.Repository = (*InventoryRepo)(nil)

// NewInventoryRepo creates a new stock movement repository.
func NewInventoryRepo(txm *TxManager) *InventoryRepo {
	return &InventoryRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateMovements batch inserts movements. Inside a transaction the
// COPY protocol is used; a large ticket journals in one round trip.
func (r *InventoryRepo) CreateMovements(ctx context.Context, movements []inventory.Movement) error {
	if len(movements) == 0 {
		return nil
	}

	if tx := r.txm.GetTx(ctx); tx != nil {
		inserter := NewBatchInserter(r.txm)
		rows := make([][]any, 0, len(movements))
		for _, m := range movements {
			rows = append(rows, []any{
				m.LineID, m.TenantID, m.RecorderID, m.RecorderType, m.Period,
				m.RecordType, m.ProductID, m.Quantity, m.Reason, m.CreatedAt,
			})
		}
		if _, err := inserter.CopyFromSlice(ctx, stockMovementsTable, movementColumns, rows); err != nil {
			return fmt.Errorf("copy movements: %w", err)
		}
		return nil
	}

	q := r.builder.Insert(stockMovementsTable).Columns(movementColumns...)
	for _, m := range movements {
		q = q.Values(
			m.LineID, m.TenantID, m.RecorderID, m.RecorderType, m.Period,
			m.RecordType, m.ProductID, m.Quantity, m.Reason, m.CreatedAt,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movements: %w", err)
	}

	return nil
}

// GetMovementsByRecorder retrieves all movements for a business document.
func (r *InventoryRepo) GetMovementsByRecorder(ctx context.Context, tenantID string, recorderID id.ID) ([]inventory.Movement, error) {
	q := r.builder.Select(movementColumns...).
		From(stockMovementsTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "recorder_id": recorderID}).
		OrderBy("created_at ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var movements []inventory.Movement
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select movements: %w", err)
	}

	return movements, nil
}

// GetMovementHistory returns the movement history for a product,
// newest first.
func (r *InventoryRepo) GetMovementHistory(ctx context.Context, tenantID string, productID id.ID, filter inventory.MovementFilter) ([]inventory.Movement, error) {
	q := r.builder.Select(movementColumns...).
		From(stockMovementsTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "product_id": productID}).
		OrderBy("created_at DESC").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset))

	if filter.RecordType != nil {
		q = q.Where(squirrel.Eq{"record_type": *filter.RecordType})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"period": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"period": *filter.ToDate})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var movements []inventory.Movement
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select movement history: %w", err)
	}

	return movements, nil
}
