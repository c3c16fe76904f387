package shift

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillpoint/internal/core/apperror"
	appctx "tillpoint/internal/core/context"
	"tillpoint/internal/core/id"
	"tillpoint/internal/core/tenant"
	"tillpoint/internal/core/types"
	"tillpoint/internal/domain/audit"
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

type fakeShiftRepo struct {
	shifts   map[id.ID]*Shift
	payments map[id.ID]types.MinorUnits
}

func newFakeShiftRepo() *fakeShiftRepo {
	return &fakeShiftRepo{
		shifts:   make(map[id.ID]*Shift),
		payments: make(map[id.ID]types.MinorUnits),
	}
}

func (f *fakeShiftRepo) Create(_ context.Context, s *Shift) error {
	f.shifts[s.ID] = s
	return nil
}

func (f *fakeShiftRepo) GetByID(_ context.Context, _ string, shiftID id.ID) (*Shift, error) {
	s, ok := f.shifts[shiftID]
	if !ok {
		return nil, apperror.NewNotFound("shift", shiftID.String())
	}
	return s, nil
}

func (f *fakeShiftRepo) GetByIDForUpdate(ctx context.Context, tenantID string, shiftID id.ID) (*Shift, error) {
	return f.GetByID(ctx, tenantID, shiftID)
}

func (f *fakeShiftRepo) GetOpenByRegister(_ context.Context, _ string, registerID string) (*Shift, error) {
	for _, s := range f.shifts {
		if s.RegisterID == registerID && s.IsOpen() {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeShiftRepo) Close(_ context.Context, s *Shift) error {
	f.shifts[s.ID] = s
	return nil
}

func (f *fakeShiftRepo) SumShiftPayments(_ context.Context, _ string, shiftID id.ID) (types.MinorUnits, error) {
	return f.payments[shiftID], nil
}

func (f *fakeShiftRepo) List(_ context.Context, _ string, _ ListFilter) ([]*Shift, error) {
	var out []*Shift
	for _, s := range f.shifts {
		out = append(out, s)
	}
	return out, nil
}

func shiftTestContext() context.Context {
	ctx := context.Background()
	ctx = tenant.WithTenant(ctx, &tenant.Tenant{ID: "acme", Status: tenant.StatusActive})
	return appctx.WithUser(ctx, &appctx.UserContext{UserID: "cashier-1", TenantID: "acme"})
}

func newShiftService(repo *fakeShiftRepo) *Service {
	return NewService(passthroughTxManager{}, repo, audit.NewService(&fakeAuditRepo{}))
}

func TestOpenShift(t *testing.T) {
	repo := newFakeShiftRepo()
	svc := newShiftService(repo)
	ctx := shiftTestContext()

	sh, err := svc.Open(ctx, "reg-1", 10000)
	require.NoError(t, err)

	assert.Equal(t, StatusOpen, sh.Status)
	assert.Equal(t, "cashier-1", sh.CashierID)
	assert.Equal(t, types.MinorUnits(10000), sh.OpeningCash)
}

func TestOpenShift_RejectsDoubleOpen(t *testing.T) {
	repo := newFakeShiftRepo()
	svc := newShiftService(repo)
	ctx := shiftTestContext()

	_, err := svc.Open(ctx, "reg-1", 0)
	require.NoError(t, err)

	_, err = svc.Open(ctx, "reg-1", 0)
	assert.True(t, apperror.IsCode(err, apperror.CodeShiftAlreadyOpen))

	// a different register is unaffected
	_, err = svc.Open(ctx, "reg-2", 0)
	assert.NoError(t, err)
}

func TestCloseShift_ReconcilesExpectedCash(t *testing.T) {
	repo := newFakeShiftRepo()
	svc := newShiftService(repo)
	ctx := shiftTestContext()

	// opening 100.00, one cash sale tendered 50.00 with 8.00 change
	sh, err := svc.Open(ctx, "reg-1", 10000)
	require.NoError(t, err)
	repo.payments[sh.ID] = 4200

	closed, err := svc.Close(ctx, sh.ID, 14000)
	require.NoError(t, err)

	require.NotNil(t, closed.ExpectedCash)
	assert.Equal(t, types.MinorUnits(14200), *closed.ExpectedCash)
	assert.Equal(t, types.MinorUnits(-200), closed.Variance())
	assert.Equal(t, StatusClosed, closed.Status)
	assert.NotNil(t, closed.ClosedAt)
}

func TestCloseShift_RejectsDoubleClose(t *testing.T) {
	repo := newFakeShiftRepo()
	svc := newShiftService(repo)
	ctx := shiftTestContext()

	sh, err := svc.Open(ctx, "reg-1", 0)
	require.NoError(t, err)

	_, err = svc.Close(ctx, sh.ID, 0)
	require.NoError(t, err)

	_, err = svc.Close(ctx, sh.ID, 0)
	assert.True(t, apperror.IsCode(err, apperror.CodeConflict))
}

func TestCloseShift_UnknownShift(t *testing.T) {
	svc := newShiftService(newFakeShiftRepo())

	_, err := svc.Close(shiftTestContext(), id.New(), 0)
	assert.True(t, apperror.IsNotFound(err))
}
