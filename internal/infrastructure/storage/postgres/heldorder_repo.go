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
	"tillpoint/internal/domain/heldorder"
)

const heldOrdersTable = "held_orders"

var heldOrderColumns = []string{
	"id", "tenant_id", "register_id", "cart", "customer_id",
	"note", "held_by", "held_at",
}

// heldOrderRow carries the cart snapshot as raw jsonb.
type heldOrderRow struct {
	heldorder.HeldOrder
	CartJSON []byte `db:"cart"`
}

// HeldOrderRepo implements heldorder.Repository. The cart snapshot is
// stored whole as a jsonb column; held orders are small and never
// queried by content.
type HeldOrderRepo struct {
	txm     *TxManager
	builder squirrel.StatementBuilderType
}

var _ heldorder.Repository = (*HeldOrderRepo)(nil)

// NewHeldOrderRepo creates a new held order repository.
func NewHeldOrderRepo(txm *TxManager) *HeldOrderRepo {
	return &HeldOrderRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *HeldOrderRepo) Create(ctx context.Context, o *heldorder.HeldOrder) error {
	cartJSON, err := json.Marshal(o.Cart)
	if err != nil {
		return fmt.Errorf("marshal cart snapshot: %w", err)
	}

	q := r.builder.Insert(heldOrdersTable).
		Columns(heldOrderColumns...).
		Values(
			o.ID, o.TenantID, o.RegisterID, cartJSON, o.CustomerID,
			o.Note, o.HeldBy, o.HeldAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert held order: %w", err)
	}
	return nil
}

func (r *HeldOrderRepo) GetByID(ctx context.Context, tenantID string, orderID id.ID) (*heldorder.HeldOrder, error) {
	q := r.builder.Select(heldOrderColumns...).
		From(heldOrdersTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "id": orderID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var row heldOrderRow
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &row, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("held order", orderID.String())
		}
		return nil, fmt.Errorf("select held order: %w", err)
	}
	return row.unwrap()
}

// Delete removes a held order. RowsAffected distinguishes a missing
// order from a successful recall.
func (r *HeldOrderRepo) Delete(ctx context.Context, tenantID string, orderID id.ID) error {
	q := r.builder.Delete(heldOrdersTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "id": orderID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete held order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("held order", orderID.String())
	}
	return nil
}

func (r *HeldOrderRepo) List(ctx context.Context, tenantID, registerID string) ([]*heldorder.HeldOrder, error) {
	q := r.builder.Select(heldOrderColumns...).
		From(heldOrdersTable).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		OrderBy("held_at DESC")
	if registerID != "" {
		q = q.Where(squirrel.Eq{"register_id": registerID})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var rows []heldOrderRow
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select held orders: %w", err)
	}

	orders := make([]*heldorder.HeldOrder, 0, len(rows))
	for i := range rows {
		o, err := rows[i].unwrap()
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (row *heldOrderRow) unwrap() (*heldorder.HeldOrder, error) {
	o := row.HeldOrder
	if len(row.CartJSON) > 0 {
		var c cart.Cart
		if err := json.Unmarshal(row.CartJSON, &c); err != nil {
			return nil, fmt.Errorf("unmarshal cart snapshot: %w", err)
		}
		o.Cart = &c
	}
	return &o, nil
}
