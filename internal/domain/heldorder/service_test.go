package heldorder

import (
	"context"
	"testing"

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
)

type passthroughTxManager struct{}

func (passthroughTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memCartStore struct {
	carts map[string]*cart.Cart
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

func (f *fakeProductRepo) GetByIDs(_ context.Context, _ string, _ []id.ID) ([]*product.Product, error) {
	return nil, nil
}

func (f *fakeProductRepo) AdjustStock(_ context.Context, _ string, _ id.ID, _ types.Quantity) (*product.Product, error) {
	return nil, nil
}

func (f *fakeProductRepo) ListLowStock(_ context.Context, _ string, _ int) ([]*product.Product, error) {
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

type fakeHeldOrderRepo struct {
	orders map[id.ID]*HeldOrder
}

func (f *fakeHeldOrderRepo) Create(_ context.Context, o *HeldOrder) error {
	f.orders[o.ID] = o
	return nil
}

func (f *fakeHeldOrderRepo) GetByID(_ context.Context, _ string, orderID id.ID) (*HeldOrder, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return nil, apperror.NewNotFound("held order", orderID.String())
	}
	return o, nil
}

func (f *fakeHeldOrderRepo) Delete(_ context.Context, _ string, orderID id.ID) error {
	if _, ok := f.orders[orderID]; !ok {
		return apperror.NewNotFound("held order", orderID.String())
	}
	delete(f.orders, orderID)
	return nil
}

func (f *fakeHeldOrderRepo) List(_ context.Context, _ string, registerID string) ([]*HeldOrder, error) {
	var out []*HeldOrder
	for _, o := range f.orders {
		if registerID == "" || o.RegisterID == registerID {
			out = append(out, o)
		}
	}
	return out, nil
}

type holdHarness struct {
	svc      *Service
	carts    *cart.Service
	orders   *fakeHeldOrderRepo
	auditLog *fakeAuditRepo
	ctx      context.Context
	product  *product.Product
}

func newHoldHarness(t *testing.T) *holdHarness {
	t.Helper()

	store := &memCartStore{carts: make(map[string]*cart.Cart)}
	p := &product.Product{
		ID:        id.New(),
		TenantID:  "acme",
		SKU:       "SKU-Q",
		Name:      "Gadget",
		UnitPrice: 700,
	}
	products := &fakeProductRepo{products: map[id.ID]*product.Product{p.ID: p}}
	orders := &fakeHeldOrderRepo{orders: make(map[id.ID]*HeldOrder)}
	auditLog := &fakeAuditRepo{}

	carts := cart.NewService(store, products)
	svc := NewService(passthroughTxManager{}, orders, carts, audit.NewService(auditLog))

	ctx := tenant.WithTenant(context.Background(), &tenant.Tenant{ID: "acme", Status: tenant.StatusActive})
	ctx = appctx.WithUser(ctx, &appctx.UserContext{UserID: "cashier-1", TenantID: "acme"})

	return &holdHarness{svc: svc, carts: carts, orders: orders, auditLog: auditLog, ctx: ctx, product: p}
}

func TestHoldThenRecall_ReproducesCartExactly(t *testing.T) {
	h := newHoldHarness(t)

	_, err := h.carts.AddItem(h.ctx, "reg-1", h.product.ID, 3)
	require.NoError(t, err)
	_, err = h.carts.SetCustomer(h.ctx, "reg-1", "cust-1")
	require.NoError(t, err)
	_, err = h.carts.SetDiscount(h.ctx, "reg-1", &cart.Discount{
		Type:  cart.DiscountFixed,
		Value: decimal.NewFromInt(5),
	})
	require.NoError(t, err)

	order, err := h.svc.Hold(h.ctx, "reg-1", "customer stepped out")
	require.NoError(t, err)

	// live cart is now empty
	live, err := h.carts.Get(h.ctx, "reg-1")
	require.NoError(t, err)
	assert.True(t, live.IsEmpty())
	assert.Nil(t, live.Discount)
	assert.Equal(t, tenant.WalkInCustomerID, live.CustomerID)

	restored, err := h.svc.Recall(h.ctx, order.ID)
	require.NoError(t, err)

	require.Len(t, restored.Items, 1)
	assert.Equal(t, types.Quantity(3), restored.Items[0].Quantity)
	assert.Equal(t, "cust-1", restored.CustomerID)
	require.NotNil(t, restored.Discount)
	assert.True(t, restored.Discount.Value.Equal(decimal.NewFromInt(5)))

	// held order no longer exists
	assert.Empty(t, h.orders.orders)
	_, err = h.svc.Recall(h.ctx, order.ID)
	assert.True(t, apperror.IsNotFound(err))

	// the live cart matches the restored one
	live, err = h.carts.Get(h.ctx, "reg-1")
	require.NoError(t, err)
	assert.Equal(t, restored.Items, live.Items)

	actions := []string{h.auditLog.entries[0].Action, h.auditLog.entries[1].Action}
	assert.Equal(t, []string{audit.ActionOrderHeld, audit.ActionOrderRecalled}, actions)
}

func TestHold_EmptyCartRejected(t *testing.T) {
	h := newHoldHarness(t)

	_, err := h.svc.Hold(h.ctx, "reg-1", "")
	assert.True(t, apperror.IsCode(err, apperror.CodeEmptyCart))
	assert.Empty(t, h.orders.orders)
	assert.Empty(t, h.auditLog.entries)
}

func TestHold_SnapshotIsIsolatedFromLaterEdits(t *testing.T) {
	h := newHoldHarness(t)

	_, err := h.carts.AddItem(h.ctx, "reg-1", h.product.ID, 2)
	require.NoError(t, err)

	order, err := h.svc.Hold(h.ctx, "reg-1", "")
	require.NoError(t, err)

	// new items on the register after the hold
	_, err = h.carts.AddItem(h.ctx, "reg-1", h.product.ID, 9)
	require.NoError(t, err)

	assert.Equal(t, types.Quantity(2), order.Cart.Items[0].Quantity)

	// recall replaces the live cart wholesale
	restored, err := h.svc.Recall(h.ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, types.Quantity(2), restored.Items[0].Quantity)
}

func TestDelete_RemovesWithoutAudit(t *testing.T) {
	h := newHoldHarness(t)

	_, err := h.carts.AddItem(h.ctx, "reg-1", h.product.ID, 1)
	require.NoError(t, err)
	order, err := h.svc.Hold(h.ctx, "reg-1", "")
	require.NoError(t, err)
	auditCount := len(h.auditLog.entries)

	require.NoError(t, h.svc.Delete(h.ctx, order.ID))
	assert.Empty(t, h.orders.orders)
	assert.Len(t, h.auditLog.entries, auditCount)

	err = h.svc.Delete(h.ctx, order.ID)
	assert.True(t, apperror.IsNotFound(err))
}
