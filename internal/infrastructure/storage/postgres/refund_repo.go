package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/id"
	"tillpoint/internal/core/types"
	"tillpoint/internal/domain/refund"
)

const (
	refundsTable     = "refunds"
	refundLinesTable = "refund_lines"
)

var refundLineColumns = []string{
	"id", "refund_id", "product_id", "quantity", "refund_amount",
}

// RefundRepo implements refund.Repository.
type RefundRepo struct {
	txm     *TxManager
	builder squirrel.StatementBuilderType
}

var _ refund.Repository = (*RefundRepo)(nil)

// NewRefundRepo creates a new refund repository.
func NewRefundRepo(txm *TxManager) *RefundRepo {
	return &RefundRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts the refund header and its lines.
func (r *RefundRepo) Create(ctx context.Context, ref *refund.Refund) error {
	q := r.builder.Insert(refundsTable).
		Columns("id", "tenant_id", "original_sale_id", "refund_total", "reason", "processed_by", "created_at").
		Values(ref.ID, ref.TenantID, ref.OriginalSaleID, ref.RefundTotal, ref.Reason, ref.ProcessedBy, ref.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert refund: %w", err)
	}

	lq := r.builder.Insert(refundLinesTable).Columns(refundLineColumns...)
	for _, line := range ref.Lines {
		lq = lq.Values(line.ID, line.RefundID, line.ProductID, line.Quantity, line.RefundAmount)
	}

	sql, args, err = lq.ToSql()
	if err != nil {
		return fmt.Errorf("build lines insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert refund lines: %w", err)
	}

	return nil
}

// GetByID loads a refund with its lines.
func (r *RefundRepo) GetByID(ctx context.Context, tenantID string, refundID id.ID) (*refund.Refund, error) {
	q := r.builder.Select("id", "tenant_id", "original_sale_id", "refund_total", "reason", "processed_by", "created_at").
		From(refundsTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "id": refundID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var ref refund.Refund
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &ref, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("refund", refundID.String())
		}
		return nil, fmt.Errorf("select refund: %w", err)
	}

	if err := r.loadLines(ctx, []*refund.Refund{&ref}); err != nil {
		return nil, err
	}

	return &ref, nil
}

// ListBySale returns all refunds referencing a sale.
func (r *RefundRepo) ListBySale(ctx context.Context, tenantID string, saleID id.ID) ([]*refund.Refund, error) {
	q := r.builder.Select("id", "tenant_id", "original_sale_id", "refund_total", "reason", "processed_by", "created_at").
		From(refundsTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "original_sale_id": saleID}).
		OrderBy("created_at ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var refunds []*refund.Refund
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &refunds, sql, args...); err != nil {
		return nil, fmt.Errorf("select refunds: %w", err)
	}

	if err := r.loadLines(ctx, refunds); err != nil {
		return nil, err
	}

	return refunds, nil
}

func (r *RefundRepo) loadLines(ctx context.Context, refunds []*refund.Refund) error {
	if len(refunds) == 0 {
		return nil
	}

	ids := make([]id.ID, 0, len(refunds))
	byID := make(map[id.ID]*refund.Refund, len(refunds))
	for _, ref := range refunds {
		ids = append(ids, ref.ID)
		byID[ref.ID] = ref
	}

	q := r.builder.Select(refundLineColumns...).
		From(refundLinesTable).
		Where(squirrel.Eq{"refund_id": ids}).
		OrderBy("id ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build lines select: %w", err)
	}

	var lines []refund.Line
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return fmt.Errorf("select refund lines: %w", err)
	}

	for _, line := range lines {
		ref := byID[line.RefundID]
		ref.Lines = append(ref.Lines, line)
	}

	return nil
}

// SumRefundedQuantities returns cumulative refunded quantity per
// product for a sale. The sale row is locked first so two concurrent
// refunds of one sale cannot both pass the cap check.
func (r *RefundRepo) SumRefundedQuantities(ctx context.Context, tenantID string, saleID id.ID) (map[id.ID]types.Quantity, error) {
	lockSQL := `SELECT 1 FROM sales WHERE tenant_id = $1 AND id = $2 FOR UPDATE`
	var one int
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, lockSQL, tenantID, saleID).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("sale", saleID.String())
		}
		return nil, fmt.Errorf("lock sale: %w", err)
	}

	sumSQL := `
		SELECT l.product_id, COALESCE(SUM(l.quantity), 0) AS quantity
		FROM refund_lines l
		JOIN refunds r ON r.id = l.refund_id
		WHERE r.tenant_id = $1 AND r.original_sale_id = $2
		GROUP BY l.product_id
	`

	type sumRow struct {
		ProductID id.ID          `db:"product_id"`
		Quantity  types.Quantity `db:"quantity"`
	}
	var sums []sumRow
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &sums, sumSQL, tenantID, saleID); err != nil {
		return nil, fmt.Errorf("sum refunded quantities: %w", err)
	}

	out := make(map[id.ID]types.Quantity, len(sums))
	for _, row := range sums {
		out[row.ProductID] = row.Quantity
	}

	return out, nil
}
