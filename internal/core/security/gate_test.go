package security

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillpoint/internal/core/apperror"
	appctx "tillpoint/internal/core/context"
	"tillpoint/internal/core/tenant"
)

func ctxWithUser(perms []string, admin bool) context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{
		UserID:      "user-1",
		TenantID:    "tenant-1",
		Permissions: perms,
		Roles:       []string{"cashier"},
		IsAdmin:     admin,
	})
}

func TestCanPerform_DefaultPolicy(t *testing.T) {
	gate, err := NewGate()
	require.NoError(t, err)

	t.Run("permission granted", func(t *testing.T) {
		ctx := ctxWithUser([]string{ActionCheckout, ActionHoldOrder}, false)
		assert.NoError(t, gate.CanPerform(ctx, ActionCheckout))
	})

	t.Run("permission denied", func(t *testing.T) {
		ctx := ctxWithUser([]string{ActionCheckout}, false)
		err := gate.CanPerform(ctx, ActionRefund)
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodeForbidden))
	})

	t.Run("admin bypasses", func(t *testing.T) {
		ctx := ctxWithUser(nil, true)
		assert.NoError(t, gate.CanPerform(ctx, ActionRefund))
	})

	t.Run("no actor", func(t *testing.T) {
		err := gate.CanPerform(context.Background(), ActionCheckout)
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodeUnauthorized))
	})
}

func TestCanPerform_TenantOverride(t *testing.T) {
	gate, err := NewGate()
	require.NoError(t, err)

	settings := tenant.DefaultSettings()
	settings.PermissionExpr = `"supervisor" in roles`

	ctx := ctxWithUser([]string{ActionRefund}, false)
	ctx = tenant.WithTenant(ctx, &tenant.Tenant{
		ID:       "tenant-1",
		Slug:     "acme",
		Status:   tenant.StatusActive,
		Settings: settings,
	})

	// Permission list no longer matters, only the supervisor role does.
	err = gate.CanPerform(ctx, ActionRefund)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeForbidden))
}

func TestCanPerform_BrokenExpression(t *testing.T) {
	gate, err := NewGate()
	require.NoError(t, err)

	settings := tenant.DefaultSettings()
	settings.PermissionExpr = `action ==` // syntax error

	ctx := ctxWithUser([]string{ActionCheckout}, false)
	ctx = tenant.WithTenant(ctx, &tenant.Tenant{ID: "t", Slug: "t", Settings: settings})

	err = gate.CanPerform(ctx, ActionCheckout)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInternal))
}
