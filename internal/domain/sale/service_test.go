package sale

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillpoint/internal/core/apperror"
	appctx "tillpoint/internal/core/context"
	"tillpoint/internal/core/id"
	"tillpoint/internal/core/tenant"
	"tillpoint/internal/core/types"
	"tillpoint/internal/domain/audit"
	"tillpoint/internal/domain/cart"
	"tillpoint/internal/domain/catalog/product"
	"tillpoint/internal/domain/inventory"
	"tillpoint/internal/domain/shift"
	"tillpoint/pkg/numerator"
)

// --- fakes ---

type passthroughTxManager struct{}

func (passthroughTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memCartStore struct {
	carts map[string]*cart.Cart
}

func newMemCartStore() *memCartStore {
	return &memCartStore{carts: make(map[string]*cart.Cart)}
}

func (m *memCartStore) Get(_ context.Context, tenantID, registerID string) (*cart.Cart, error) {
	c, ok := m.carts[tenantID+"/"+registerID]
	if !ok {
		return nil, nil
	}
	return c.Clone(), nil
}

func (m *memCartStore) Put(_ context.Context, c *cart.Cart) error {
	m.carts[c.TenantID+"/"+c.RegisterID] = c.Clone()
	return nil
}

func (m *memCartStore) Delete(_ context.Context, tenantID, registerID string) error {
	delete(m.carts, tenantID+"/"+registerID)
	return nil
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

func (f *fakeProductRepo) GetByIDs(_ context.Context, _ string, ids []id.ID) ([]*product.Product, error) {
	var out []*product.Product
	for _, pid := range ids {
		if p, ok := f.products[pid]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProductRepo) AdjustStock(_ context.Context, _ string, productID id.ID, delta types.Quantity) (*product.Product, error) {
	p, ok := f.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID.String())
	}
	p.CurrentStock += delta
	p.Status = product.StatusFor(p.CurrentStock, p.MinimumStock)
	return p, nil
}

func (f *fakeProductRepo) ListLowStock(_ context.Context, _ string, _ int) ([]*product.Product, error) {
	return nil, nil
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

type fakeShiftRepo struct {
	shifts map[id.ID]*shift.Shift
}

func (f *fakeShiftRepo) Create(_ context.Context, s *shift.Shift) error {
	f.shifts[s.ID] = s
	return nil
}

func (f *fakeShiftRepo) GetByID(_ context.Context, _ string, shiftID id.ID) (*shift.Shift, error) {
	s, ok := f.shifts[shiftID]
	if !ok {
		return nil, apperror.NewNotFound("shift", shiftID.String())
	}
	return s, nil
}

func (f *fakeShiftRepo) GetByIDForUpdate(ctx context.Context, tenantID string, shiftID id.ID) (*shift.Shift, error) {
	return f.GetByID(ctx, tenantID, shiftID)
}

func (f *fakeShiftRepo) GetOpenByRegister(_ context.Context, _, _ string) (*shift.Shift, error) {
	return nil, nil
}

func (f *fakeShiftRepo) Close(_ context.Context, s *shift.Shift) error {
	f.shifts[s.ID] = s
	return nil
}

func (f *fakeShiftRepo) SumShiftPayments(_ context.Context, _ string, _ id.ID) (types.MinorUnits, error) {
	return 0, nil
}

func (f *fakeShiftRepo) List(_ context.Context, _ string, _ shift.ListFilter) ([]*shift.Shift, error) {
	return nil, nil
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

func (f *fakeAuditRepo) actions() []string {
	var out []string
	for _, e := range f.entries {
		out = append(out, e.Action)
	}
	return out
}

type fakeSaleRepo struct {
	sales    map[id.ID]*Sale
	payments []*Payment
	receipts []*Receipt
}

func newFakeSaleRepo() *fakeSaleRepo {
	return &fakeSaleRepo{sales: make(map[id.ID]*Sale)}
}

func (f *fakeSaleRepo) CreateSale(_ context.Context, s *Sale) error {
	f.sales[s.ID] = s
	return nil
}

func (f *fakeSaleRepo) CreatePayment(_ context.Context, p *Payment) error {
	f.payments = append(f.payments, p)
	return nil
}

func (f *fakeSaleRepo) CreateReceipt(_ context.Context, r *Receipt) error {
	f.receipts = append(f.receipts, r)
	return nil
}

func (f *fakeSaleRepo) GetByID(_ context.Context, _ string, saleID id.ID) (*Sale, error) {
	s, ok := f.sales[saleID]
	if !ok {
		return nil, apperror.NewNotFound("sale", saleID.String())
	}
	return s, nil
}

func (f *fakeSaleRepo) GetReceiptBySale(_ context.Context, _ string, saleID id.ID) (*Receipt, error) {
	for _, r := range f.receipts {
		if r.SaleID == saleID {
			return r, nil
		}
	}
	return nil, apperror.NewNotFound("receipt", saleID.String())
}

func (f *fakeSaleRepo) MarkReceiptPrinted(_ context.Context, _ string, _ id.ID) error {
	return nil
}

func (f *fakeSaleRepo) List(_ context.Context, _ string, _ ListFilter) ([]*Summary, error) {
	return nil, nil
}

// seqRow feeds the numerator incrementing values per key.
type seqRow struct {
	val int64
}

func (r seqRow) Scan(dest ...any) error {
	*(dest[0].(*int64)) = r.val
	return nil
}

type seqQuerier struct {
	counters map[any]int64
}

func (q *seqQuerier) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	if q.counters == nil {
		q.counters = make(map[any]int64)
	}
	key := args[0]
	q.counters[key]++
	return seqRow{val: q.counters[key]}
}

// --- harness ---

type checkoutHarness struct {
	svc      *Service
	carts    *cart.Service
	store    *memCartStore
	products *fakeProductRepo
	shifts   *fakeShiftRepo
	sales    *fakeSaleRepo
	auditLog *fakeAuditRepo
	ctx      context.Context
	shiftID  id.ID
}

func newCheckoutHarness(t *testing.T, taxPercent string) *checkoutHarness {
	t.Helper()

	store := newMemCartStore()
	products := &fakeProductRepo{products: make(map[id.ID]*product.Product)}
	shifts := &fakeShiftRepo{shifts: make(map[id.ID]*shift.Shift)}
	sales := newFakeSaleRepo()
	auditLog := &fakeAuditRepo{}

	carts := cart.NewService(store, products)
	ledger := inventory.NewLedger(&fakeMovementRepo{}, products)
	numbers := numerator.New(&seqQuerier{})

	svc := NewService(passthroughTxManager{}, sales, carts, shifts, ledger, audit.NewService(auditLog), numbers)

	tn := &tenant.Tenant{ID: "acme", Status: tenant.StatusActive, Settings: tenant.DefaultSettings()}
	tn.Settings.TaxRatePercent = decimal.RequireFromString(taxPercent)
	ctx := tenant.WithTenant(context.Background(), tn)
	ctx = appctx.WithUser(ctx, &appctx.UserContext{UserID: "cashier-1", TenantID: "acme"})

	sh := &shift.Shift{
		ID:       id.New(),
		TenantID: "acme",
		Status:   shift.StatusOpen,
		OpenedAt: time.Now().UTC(),
	}
	shifts.shifts[sh.ID] = sh

	return &checkoutHarness{
		svc:      svc,
		carts:    carts,
		store:    store,
		products: products,
		shifts:   shifts,
		sales:    sales,
		auditLog: auditLog,
		ctx:      ctx,
		shiftID:  sh.ID,
	}
}

func (h *checkoutHarness) addProduct(price types.MinorUnits, stock types.Quantity) *product.Product {
	p := &product.Product{
		ID:           id.New(),
		TenantID:     "acme",
		SKU:          "SKU-" + id.New().String()[:8],
		Name:         "Widget",
		UnitPrice:    price,
		CostPrice:    price / 2,
		CurrentStock: stock,
		Status:       product.StatusFor(stock, 0),
	}
	h.products.products[p.ID] = p
	return p
}

// --- tests ---

func TestCheckout_DiscountAndTax(t *testing.T) {
	h := newCheckoutHarness(t, "10")
	p := h.addProduct(1000, 5) // 10.00, stock 5

	_, err := h.carts.AddItem(h.ctx, "reg-1", p.ID, 2)
	require.NoError(t, err)
	_, err = h.carts.SetDiscount(h.ctx, "reg-1", &cart.Discount{
		Type:  cart.DiscountPercentage,
		Value: decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	res, err := h.svc.Checkout(h.ctx, CheckoutInput{
		RegisterID:     "reg-1",
		ShiftID:        h.shiftID,
		PaymentMethod:  PaymentCash,
		AmountTendered: 2000,
	})
	require.NoError(t, err)

	// 20.00 subtotal, 10% off -> 18.00, 10% tax -> 19.80
	assert.Equal(t, types.MinorUnits(2000), res.Sale.Subtotal)
	assert.Equal(t, types.MinorUnits(200), res.Sale.DiscountAmount)
	assert.Equal(t, types.MinorUnits(180), res.Sale.TaxAmount)
	assert.Equal(t, types.MinorUnits(1980), res.Sale.GrandTotal)
	assert.Equal(t, types.MinorUnits(20), res.Payment.ChangeGiven)

	assert.Equal(t, types.Quantity(3), p.CurrentStock)
	assert.Equal(t, []string{audit.ActionSaleCompleted, audit.ActionDiscountApplied}, h.auditLog.actions())

	// cart cleared after commit
	c, err := h.carts.Get(h.ctx, "reg-1")
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
}

func TestCheckout_EmptyCartLeavesNoTrace(t *testing.T) {
	h := newCheckoutHarness(t, "10")

	_, err := h.svc.Checkout(h.ctx, CheckoutInput{
		RegisterID:     "reg-1",
		ShiftID:        h.shiftID,
		PaymentMethod:  PaymentCash,
		AmountTendered: 1000,
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeEmptyCart))

	assert.Empty(t, h.sales.sales)
	assert.Empty(t, h.sales.receipts)
	assert.Empty(t, h.auditLog.entries)
}

func TestCheckout_ClosedShiftRejected(t *testing.T) {
	h := newCheckoutHarness(t, "0")
	p := h.addProduct(500, 5)

	_, err := h.carts.AddItem(h.ctx, "reg-1", p.ID, 1)
	require.NoError(t, err)

	h.shifts.shifts[h.shiftID].Status = shift.StatusClosed

	_, err = h.svc.Checkout(h.ctx, CheckoutInput{
		RegisterID:     "reg-1",
		ShiftID:        h.shiftID,
		PaymentMethod:  PaymentCash,
		AmountTendered: 500,
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeShiftClosed))

	// nothing moved, cart untouched
	assert.Equal(t, types.Quantity(5), p.CurrentStock)
	c, err := h.carts.Get(h.ctx, "reg-1")
	require.NoError(t, err)
	assert.False(t, c.IsEmpty())
}

func TestCheckout_FixedDiscountFloorsAtZero(t *testing.T) {
	h := newCheckoutHarness(t, "0")
	p := h.addProduct(300, 5)

	_, err := h.carts.AddItem(h.ctx, "reg-1", p.ID, 1)
	require.NoError(t, err)
	_, err = h.carts.SetDiscount(h.ctx, "reg-1", &cart.Discount{
		Type:  cart.DiscountFixed,
		Value: decimal.NewFromInt(50), // 50.00 off a 3.00 sale
	})
	require.NoError(t, err)

	res, err := h.svc.Checkout(h.ctx, CheckoutInput{
		RegisterID:    "reg-1",
		ShiftID:       h.shiftID,
		PaymentMethod: PaymentCard,
	})
	require.NoError(t, err)

	assert.Equal(t, types.MinorUnits(300), res.Sale.DiscountAmount)
	assert.Equal(t, types.MinorUnits(0), res.Sale.GrandTotal)
	assert.Equal(t, types.MinorUnits(0), res.Payment.ChangeGiven)
}

func TestCheckout_OversellReportsAlert(t *testing.T) {
	h := newCheckoutHarness(t, "0")
	p := h.addProduct(100, 1)

	_, err := h.carts.AddItem(h.ctx, "reg-1", p.ID, 3)
	require.NoError(t, err)

	res, err := h.svc.Checkout(h.ctx, CheckoutInput{
		RegisterID:     "reg-1",
		ShiftID:        h.shiftID,
		PaymentMethod:  PaymentCash,
		AmountTendered: 300,
	})
	require.NoError(t, err)

	assert.Equal(t, types.Quantity(-2), p.CurrentStock)
	require.Len(t, res.StockAlerts, 1)
	assert.Equal(t, product.StatusOutOfStock, res.StockAlerts[0].Status)
}

func TestCheckout_SaleNumbersAdvance(t *testing.T) {
	h := newCheckoutHarness(t, "0")
	p := h.addProduct(100, 10)

	for range 2 {
		_, err := h.carts.AddItem(h.ctx, "reg-1", p.ID, 1)
		require.NoError(t, err)
		_, err = h.svc.Checkout(h.ctx, CheckoutInput{
			RegisterID:     "reg-1",
			ShiftID:        h.shiftID,
			PaymentMethod:  PaymentCash,
			AmountTendered: 100,
		})
		require.NoError(t, err)
	}

	numbers := make(map[string]bool)
	for _, s := range h.sales.sales {
		numbers[s.Number] = true
	}
	assert.Len(t, numbers, 2)
}
