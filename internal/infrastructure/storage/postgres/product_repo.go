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
	"tillpoint/internal/domain/catalog/product"
)

const productsTable = "products"

var productColumns = []string{
	"id", "tenant_id", "sku", "name", "unit_price", "cost_price",
	"current_stock", "minimum_stock", "status", "updated_at",
}

// ProductRepo implements product.Repository.
type ProductRepo struct {
	txm     *TxManager
	builder squirrel.StatementBuilderType
}

var _ product.Repository = (*ProductRepo)(nil)

// NewProductRepo creates a new product repository.
func NewProductRepo(txm *TxManager) *ProductRepo {
	return &ProductRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetByID retrieves a product within the tenant.
func (r *ProductRepo) GetByID(ctx context.Context, tenantID string, productID id.ID) (*product.Product, error) {
	q := r.builder.Select(productColumns...).
		From(productsTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var p product.Product
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &p, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("product", productID.String())
		}
		return nil, fmt.Errorf("select product: %w", err)
	}

	return &p, nil
}

// GetByIDs batch fetches products in a single query.
func (r *ProductRepo) GetByIDs(ctx context.Context, tenantID string, productIDs []id.ID) ([]*product.Product, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}

	q := r.builder.Select(productColumns...).
		From(productsTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "id": productIDs})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var products []*product.Product
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &products, sql, args...); err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}

	return products, nil
}

// AdjustStock atomically applies delta to current stock and rederives
// the status in the same statement. The row lock taken by UPDATE
// serializes concurrent checkouts of the same product.
func (r *ProductRepo) AdjustStock(ctx context.Context, tenantID string, productID id.ID, delta types.Quantity) (*product.Product, error) {
	sql := `
		UPDATE products SET
			current_stock = current_stock + $3,
			status = CASE
				WHEN current_stock + $3 <= 0 THEN 'out_of_stock'
				WHEN current_stock + $3 <= minimum_stock THEN 'low_stock'
				ELSE 'in_stock'
			END,
			updated_at = now()
		WHERE tenant_id = $1 AND id = $2
		RETURNING id, tenant_id, sku, name, unit_price, cost_price,
			current_stock, minimum_stock, status, updated_at
	`

	var p product.Product
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &p, sql, tenantID, productID, delta); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("product", productID.String())
		}
		return nil, fmt.Errorf("adjust stock: %w", err)
	}

	return &p, nil
}

// ListLowStock returns products at or below their minimum stock.
func (r *ProductRepo) ListLowStock(ctx context.Context, tenantID string, limit int) ([]*product.Product, error) {
	if limit <= 0 {
		limit = 50
	}

	q := r.builder.Select(productColumns...).
		From(productsTable).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where("current_stock <= minimum_stock").
		OrderBy("current_stock ASC").
		Limit(uint64(limit))

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var products []*product.Product
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &products, sql, args...); err != nil {
		return nil, fmt.Errorf("select low stock: %w", err)
	}

	return products, nil
}
