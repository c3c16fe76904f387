package refund

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillpoint/internal/core/apperror"
	appctx "tillpoint/internal/core/context"
	"tillpoint/internal/core/id"
	"tillpoint/internal/core/tenant"
	"tillpoint/internal/core/types"
	"tillpoint/internal/domain/audit"
	"tillpoint/internal/domain/catalog/product"
	"tillpoint/internal/domain/inventory"
	"tillpoint/internal/domain/sale"
)

type passthroughTxManager struct{}

func (passthroughTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeAuditRepo struct {
	entries []audit.Entry
}

func (f *fakeAuditRepo) Insert(_ context.Context, e audit.Entry) error {
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeAuditRepo) Feed(_ context.Context, _ string, _ audit.Filter) ([]audit.Entry, error) {
	return f.entries, nil
}

type fakeMovementRepo struct {
	created []inventory.Movement
}

func (f *fakeMovementRepo) CreateMovements(_ context.Context, movements []inventory.Movement) error {
	f.created = append(f.created, movements...)
	return nil
}

func (f *fakeMovementRepo) GetMovementsByRecorder(_ context.Context, _ string, _ id.ID) ([]inventory.Movement, error) {
	return nil, nil
}

func (f *fakeMovementRepo) GetMovementHistory(_ context.Context, _ string, _ id.ID, _ inventory.MovementFilter) ([]inventory.Movement, error) {
	return nil, nil
}

type fakeProductRepo struct {
	products map[id.ID]*product.Product
}

func (f *fakeProductRepo) GetByID(_ context.Context, _ string, productID id.ID) (*product.Product, error) {
	p, ok := f.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID.String())
	}
	return p, nil
}

func (f *fakeProductRepo) GetByIDs(_ context.Context, _ string, _ []id.ID) ([]*product.Product, error) {
	return nil, nil
}

func (f *fakeProductRepo) AdjustStock(_ context.Context, _ string, productID id.ID, delta types.Quantity) (*product.Product, error) {
	p := f.products[productID]
	p.CurrentStock += delta
	p.Status = product.StatusFor(p.CurrentStock, p.MinimumStock)
	return p, nil
}

func (f *fakeProductRepo) ListLowStock(_ context.Context, _ string, _ int) ([]*product.Product, error) {
	return nil, nil
}

type fakeSaleRepo struct {
	sales map[id.ID]*sale.Sale
}

func (f *fakeSaleRepo) CreateSale(_ context.Context, s *sale.Sale) error {
	f.sales[s.ID] = s
	return nil
}

func (f *fakeSaleRepo) CreatePayment(_ context.Context, _ *sale.Payment) error { return nil }

func (f *fakeSaleRepo) CreateReceipt(_ context.Context, _ *sale.Receipt) error { return nil }

func (f *fakeSaleRepo) GetByID(_ context.Context, _ string, saleID id.ID) (*sale.Sale, error) {
	s, ok := f.sales[saleID]
	if !ok {
		return nil, apperror.NewNotFound("sale", saleID.String())
	}
	return s, nil
}

func (f *fakeSaleRepo) GetReceiptBySale(_ context.Context, _ string, saleID id.ID) (*sale.Receipt, error) {
	return nil, apperror.NewNotFound("receipt", saleID.String())
}

func (f *fakeSaleRepo) MarkReceiptPrinted(_ context.Context, _ string, _ id.ID) error { return nil }

func (f *fakeSaleRepo) List(_ context.Context, _ string, _ sale.ListFilter) ([]*sale.Summary, error) {
	return nil, nil
}

type fakeRefundRepo struct {
	refunds map[id.ID]*Refund
}

func newFakeRefundRepo() *fakeRefundRepo {
	return &fakeRefundRepo{refunds: make(map[id.ID]*Refund)}
}

func (f *fakeRefundRepo) Create(_ context.Context, r *Refund) error {
	f.refunds[r.ID] = r
	return nil
}

func (f *fakeRefundRepo) GetByID(_ context.Context, _ string, refundID id.ID) (*Refund, error) {
	r, ok := f.refunds[refundID]
	if !ok {
		return nil, apperror.NewNotFound("refund", refundID.String())
	}
	return r, nil
}

func (f *fakeRefundRepo) ListBySale(_ context.Context, _ string, saleID id.ID) ([]*Refund, error) {
	var out []*Refund
	for _, r := range f.refunds {
		if r.OriginalSaleID == saleID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRefundRepo) SumRefundedQuantities(_ context.Context, _ string, saleID id.ID) (map[id.ID]types.Quantity, error) {
	out := make(map[id.ID]types.Quantity)
	for _, r := range f.refunds {
		if r.OriginalSaleID != saleID {
			continue
		}
		for _, line := range r.Lines {
			out[line.ProductID] += line.Quantity
		}
	}
	return out, nil
}

type refundHarness struct {
	svc      *Service
	products *fakeProductRepo
	sales    *fakeSaleRepo
	refunds  *fakeRefundRepo
	auditLog *fakeAuditRepo
	ctx      context.Context
}

func newRefundHarness(t *testing.T) *refundHarness {
	t.Helper()

	products := &fakeProductRepo{products: make(map[id.ID]*product.Product)}
	sales := &fakeSaleRepo{sales: make(map[id.ID]*sale.Sale)}
	refunds := newFakeRefundRepo()
	auditLog := &fakeAuditRepo{}

	ledger := inventory.NewLedger(&fakeMovementRepo{}, products)
	svc := NewService(passthroughTxManager{}, refunds, sales, ledger, audit.NewService(auditLog))

	ctx := tenant.WithTenant(context.Background(), &tenant.Tenant{ID: "acme", Status: tenant.StatusActive})
	ctx = appctx.WithUser(ctx, &appctx.UserContext{UserID: "manager-1", TenantID: "acme"})

	return &refundHarness{svc: svc, products: products, sales: sales, refunds: refunds, auditLog: auditLog, ctx: ctx}
}

// seedSale records a completed sale of qty units and the corresponding
// stock state after that sale.
func (h *refundHarness) seedSale(qty types.Quantity, stockAfterSale types.Quantity) (*sale.Sale, *product.Product) {
	p := &product.Product{
		ID:           id.New(),
		TenantID:     "acme",
		SKU:          "SKU-1",
		Name:         "Widget",
		UnitPrice:    1000,
		CurrentStock: stockAfterSale,
		Status:       product.StatusFor(stockAfterSale, 0),
	}
	h.products.products[p.ID] = p

	s := &sale.Sale{
		ID:       id.New(),
		TenantID: "acme",
		Lines: []sale.Line{{
			ID:        id.New(),
			ProductID: p.ID,
			Quantity:  qty,
			UnitPrice: 1000,
			Subtotal:  types.MinorUnits(1000).MulQuantity(qty),
		}},
		GrandTotal: types.MinorUnits(1000).MulQuantity(qty),
		CreatedAt:  time.Now().UTC(),
	}
	h.sales.sales[s.ID] = s
	return s, p
}

func TestRefund_PartialRestoresStock(t *testing.T) {
	h := newRefundHarness(t)
	s, p := h.seedSale(2, 3) // sold 2, stock now 3

	ref, err := h.svc.Process(h.ctx, s.ID, []Item{
		{ProductID: p.ID, Quantity: 1, RefundAmount: 990},
	}, "damaged")
	require.NoError(t, err)

	assert.Equal(t, types.MinorUnits(990), ref.RefundTotal)
	assert.Equal(t, "manager-1", ref.ProcessedBy)
	assert.Equal(t, types.Quantity(4), p.CurrentStock)

	require.Len(t, h.auditLog.entries, 1)
	assert.Equal(t, audit.ActionRefundProcessed, h.auditLog.entries[0].Action)
}

func TestRefund_CapsAtSoldQuantity(t *testing.T) {
	h := newRefundHarness(t)
	s, p := h.seedSale(2, 3)

	_, err := h.svc.Process(h.ctx, s.ID, []Item{
		{ProductID: p.ID, Quantity: 3, RefundAmount: 3000},
	}, "")
	assert.True(t, apperror.IsCode(err, apperror.CodeRefundExceedsSale))
	assert.Equal(t, types.Quantity(3), p.CurrentStock)
	assert.Empty(t, h.auditLog.entries)
}

func TestRefund_CumulativeCap(t *testing.T) {
	h := newRefundHarness(t)
	s, p := h.seedSale(2, 3)

	_, err := h.svc.Process(h.ctx, s.ID, []Item{
		{ProductID: p.ID, Quantity: 1, RefundAmount: 1000},
	}, "")
	require.NoError(t, err)

	_, err = h.svc.Process(h.ctx, s.ID, []Item{
		{ProductID: p.ID, Quantity: 2, RefundAmount: 2000},
	}, "")
	assert.True(t, apperror.IsCode(err, apperror.CodeRefundExceedsSale))

	// the remaining unit is still refundable
	_, err = h.svc.Process(h.ctx, s.ID, []Item{
		{ProductID: p.ID, Quantity: 1, RefundAmount: 1000},
	}, "")
	require.NoError(t, err)
	assert.Equal(t, types.Quantity(5), p.CurrentStock)
}

func TestRefund_StockConservation(t *testing.T) {
	h := newRefundHarness(t)
	s, p := h.seedSale(2, 3) // pre-sale stock was 5

	_, err := h.svc.Process(h.ctx, s.ID, []Item{
		{ProductID: p.ID, Quantity: 2, RefundAmount: 2000},
	}, "full return")
	require.NoError(t, err)

	assert.Equal(t, types.Quantity(5), p.CurrentStock)
}

func TestRefund_UnknownSaleAndForeignProduct(t *testing.T) {
	h := newRefundHarness(t)
	s, p := h.seedSale(1, 4)

	_, err := h.svc.Process(h.ctx, id.New(), []Item{
		{ProductID: p.ID, Quantity: 1},
	}, "")
	assert.True(t, apperror.IsNotFound(err))

	_, err = h.svc.Process(h.ctx, s.ID, []Item{
		{ProductID: id.New(), Quantity: 1},
	}, "")
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}
