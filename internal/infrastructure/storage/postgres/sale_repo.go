package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/id"
	"tillpoint/internal/domain/cart"
	"tillpoint/internal/domain/sale"
)

const (
	salesTable     = "sales"
	saleLinesTable = "sale_lines"
	paymentsTable  = "payments"
	receiptsTable  = "receipts"
)

var saleLineColumns = []string{
	"id", "sale_id", "product_id", "sku", "name",
	"unit_price", "cost_price", "quantity", "subtotal",
}

// SaleRepo implements sale.Repository. Sales are write-once: no update
// statements exist for the sales or sale_lines tables.
type SaleRepo struct {
	txm     *TxManager
	builder squirrel.StatementBuilderType
}

var _ sale.Repository = (*SaleRepo)(nil)

// NewSaleRepo creates a new sale repository.
func NewSaleRepo(txm *TxManager) *SaleRepo {
	return &SaleRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// saleRow is the storage shape of a sale header; the discount snapshot
// is kept as jsonb.
type saleRow struct {
	sale.Sale
	DiscountJSON []byte `db:"discount"`
}

// CreateSale inserts the sale header and its lines.
func (r *SaleRepo) CreateSale(ctx context.Context, s *sale.Sale) error {
	var discountJSON []byte
	if s.Discount != nil {
		b, err := json.Marshal(s.Discount)
		if err != nil {
			return fmt.Errorf("marshal discount: %w", err)
		}
		discountJSON = b
	}

	q := r.builder.Insert(salesTable).
		Columns(
			"id", "number", "tenant_id", "register_id", "shift_id", "customer_id",
			"discount", "subtotal", "discount_amount", "tax_amount", "grand_total",
			"payment_method", "cashier_id", "created_at",
		).
		Values(
			s.ID, s.Number, s.TenantID, s.RegisterID, s.ShiftID, s.CustomerID,
			discountJSON, s.Subtotal, s.DiscountAmount, s.TaxAmount, s.GrandTotal,
			s.PaymentMethod, s.CashierID, s.CreatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}

	if len(s.Lines) == 0 {
		return nil
	}

	if tx := r.txm.GetTx(ctx); tx != nil {
		inserter := NewBatchInserter(r.txm)
		rows := make([][]any, 0, len(s.Lines))
		for _, line := range s.Lines {
			rows = append(rows, []any{
				line.ID, line.SaleID, line.ProductID, line.SKU, line.Name,
				line.UnitPrice, line.CostPrice, line.Quantity, line.Subtotal,
			})
		}
		if _, err := inserter.CopyFromSlice(ctx, saleLinesTable, saleLineColumns, rows); err != nil {
			return fmt.Errorf("copy sale lines: %w", err)
		}
		return nil
	}

	lq := r.builder.Insert(saleLinesTable).Columns(saleLineColumns...)
	for _, line := range s.Lines {
		lq = lq.Values(
			line.ID, line.SaleID, line.ProductID, line.SKU, line.Name,
			line.UnitPrice, line.CostPrice, line.Quantity, line.Subtotal,
		)
	}
	sql, args, err = lq.ToSql()
	if err != nil {
		return fmt.Errorf("build lines insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert sale lines: %w", err)
	}

	return nil
}

// CreatePayment inserts the payment record.
func (r *SaleRepo) CreatePayment(ctx context.Context, p *sale.Payment) error {
	q := r.builder.Insert(paymentsTable).
		Columns("id", "sale_id", "tenant_id", "method", "amount_tendered", "change_given", "created_at").
		Values(p.ID, p.SaleID, p.TenantID, p.Method, p.AmountTendered, p.ChangeGiven, p.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// CreateReceipt inserts the receipt record.
func (r *SaleRepo) CreateReceipt(ctx context.Context, rec *sale.Receipt) error {
	q := r.builder.Insert(receiptsTable).
		Columns("id", "sale_id", "tenant_id", "number", "printed_at", "created_at").
		Values(rec.ID, rec.SaleID, rec.TenantID, rec.Number, rec.PrintedAt, rec.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert receipt: %w", err)
	}
	return nil
}

// GetByID loads a sale with its lines.
func (r *SaleRepo) GetByID(ctx context.Context, tenantID string, saleID id.ID) (*sale.Sale, error) {
	q := r.builder.Select(
		"id", "number", "tenant_id", "register_id", "shift_id", "customer_id",
		"discount", "subtotal", "discount_amount", "tax_amount", "grand_total",
		"payment_method", "cashier_id", "created_at",
	).
		From(salesTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "id": saleID})

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var row saleRow
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &row, sqlStr, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("sale", saleID.String())
		}
		return nil, fmt.Errorf("select sale: %w", err)
	}

	s := row.Sale
	if len(row.DiscountJSON) > 0 {
		var d cart.Discount
		if err := json.Unmarshal(row.DiscountJSON, &d); err != nil {
			return nil, fmt.Errorf("unmarshal discount: %w", err)
		}
		s.Discount = &d
	}

	lq := r.builder.Select(saleLineColumns...).
		From(saleLinesTable).
		Where(squirrel.Eq{"sale_id": saleID}).
		OrderBy("id ASC")

	sqlStr, args, err = lq.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build lines select: %w", err)
	}
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &s.Lines, sqlStr, args...); err != nil {
		return nil, fmt.Errorf("select sale lines: %w", err)
	}

	return &s, nil
}

// GetReceiptBySale loads the receipt for a sale.
func (r *SaleRepo) GetReceiptBySale(ctx context.Context, tenantID string, saleID id.ID) (*sale.Receipt, error) {
	q := r.builder.Select("id", "sale_id", "tenant_id", "number", "printed_at", "created_at").
		From(receiptsTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "sale_id": saleID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var rec sale.Receipt
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &rec, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("receipt", saleID.String())
		}
		return nil, fmt.Errorf("select receipt: %w", err)
	}

	return &rec, nil
}

// MarkReceiptPrinted stamps the printed timestamp once.
func (r *SaleRepo) MarkReceiptPrinted(ctx context.Context, tenantID string, receiptID id.ID) error {
	sql := `
		UPDATE receipts SET printed_at = now()
		WHERE tenant_id = $1 AND id = $2 AND printed_at IS NULL
	`
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, tenantID, receiptID); err != nil {
		return fmt.Errorf("mark receipt printed: %w", err)
	}
	return nil
}

// List returns sale summaries, newest first. The refunded flag is true
// when any refund references the sale, partial or not.
func (r *SaleRepo) List(ctx context.Context, tenantID string, filter sale.ListFilter) ([]*sale.Summary, error) {
	q := r.builder.Select(
		"s.id", "s.number", "s.customer_id", "s.grand_total", "s.cashier_id", "s.created_at",
		"EXISTS(SELECT 1 FROM refunds r WHERE r.original_sale_id = s.id) AS refunded",
	).
		From(salesTable + " s").
		Where(squirrel.Eq{"s.tenant_id": tenantID}).
		OrderBy("s.created_at DESC").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset))

	if filter.RegisterID != "" {
		q = q.Where(squirrel.Eq{"s.register_id": filter.RegisterID})
	}
	if filter.ShiftID != nil {
		q = q.Where(squirrel.Eq{"s.shift_id": *filter.ShiftID})
	}
	if filter.CustomerID != "" {
		q = q.Where(squirrel.Eq{"s.customer_id": filter.CustomerID})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"s.created_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"s.created_at": *filter.ToDate})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var summaries []*sale.Summary
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &summaries, sql, args...); err != nil {
		return nil, fmt.Errorf("select sales: %w", err)
	}

	return summaries, nil
}
