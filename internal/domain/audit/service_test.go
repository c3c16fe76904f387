package audit

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "tillpoint/internal/core/context"
	"tillpoint/internal/core/tenant"
)

type fakeAuditRepo struct {
	entries []Entry
}

func (r *fakeAuditRepo) Insert(_ context.Context, e Entry) error {
	r.entries = append(r.entries, e)
	return nil
}

func (r *fakeAuditRepo) Feed(_ context.Context, tenantID string, filter Filter) ([]Entry, error) {
	var out []Entry
	for _, e := range r.entries {
		if e.TenantID == tenantID {
			out = append(out, e)
		}
	}
	return out, nil
}

func auditTestContext() context.Context {
	ctx := tenant.WithTenant(context.Background(), &tenant.Tenant{
		ID:     "11111111-1111-1111-1111-111111111111",
		Status: tenant.StatusActive,
	})
	return appctx.WithUser(ctx, &appctx.UserContext{UserID: "cashier-7"})
}

func TestRecord_EnrichesFromContext(t *testing.T) {
	repo := &fakeAuditRepo{}
	svc := NewService(repo)

	type snapshot struct {
		Total int64 `json:"total"`
	}
	err := svc.Record(auditTestContext(), ActionSaleCompleted, "sale", "s-1",
		nil, snapshot{Total: 1980}, map[string]string{"register": "reg-1"})
	require.NoError(t, err)

	require.Len(t, repo.entries, 1)
	e := repo.entries[0]
	assert.Equal(t, "11111111-1111-1111-1111-111111111111", e.TenantID)
	assert.Equal(t, "cashier-7", e.ActorID)
	assert.Equal(t, ActionSaleCompleted, e.Action)
	assert.Nil(t, e.Before)
	assert.JSONEq(t, `{"total":1980}`, string(e.After))
	assert.False(t, e.CreatedAt.IsZero())
}

func TestRecord_RawMessagePassthrough(t *testing.T) {
	repo := &fakeAuditRepo{}
	svc := NewService(repo)

	raw := json.RawMessage(`{"already":"encoded"}`)
	err := svc.Record(auditTestContext(), ActionStockAdjusted, "product", "p-1", raw, nil, nil)
	require.NoError(t, err)

	require.Len(t, repo.entries, 1)
	assert.Equal(t, string(raw), string(repo.entries[0].Before))
}

func TestRecord_RequiresTenant(t *testing.T) {
	svc := NewService(&fakeAuditRepo{})

	err := svc.Record(context.Background(), ActionShiftOpened, "shift", "s-1", nil, nil, nil)
	assert.Error(t, err)
}

func TestFeed_CapsLimit(t *testing.T) {
	repo := &fakeAuditRepo{}
	svc := NewService(repo)
	ctx := auditTestContext()

	require.NoError(t, svc.Record(ctx, ActionShiftOpened, "shift", "s-1", nil, nil, nil))

	entries, err := svc.Feed(ctx, Filter{Limit: -5})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
