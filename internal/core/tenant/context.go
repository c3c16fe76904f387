package tenant

import (
	"context"
	"errors"
)

type ctxKey int

const tenantKey ctxKey = iota

// ErrNoTenantInContext is returned when a request reaches domain code
// without tenant resolution having run.
var ErrNoTenantInContext = errors.New("tenant not found in context")

// WithTenant stores tenant info in context.
func WithTenant(ctx context.Context, t *Tenant) context.Context {
	return context.WithValue(ctx, tenantKey, t)
}

// GetTenant retrieves tenant from context.
func GetTenant(ctx context.Context) *Tenant {
	t, _ := ctx.Value(tenantKey).(*Tenant)
	return t
}

// GetTenantID returns tenant ID or empty string.
func GetTenantID(ctx context.Context) string {
	if t := GetTenant(ctx); t != nil {
		return t.ID
	}
	return ""
}

// RequireTenantID returns the tenant ID or ErrNoTenantInContext.
// Domain services use it so an unresolved tenant fails loudly instead
// of scoping queries to an empty id.
func RequireTenantID(ctx context.Context) (string, error) {
	if t := GetTenant(ctx); t != nil {
		return t.ID, nil
	}
	return "", ErrNoTenantInContext
}

// GetSettings returns tenant settings or defaults when no tenant is bound.
func GetSettings(ctx context.Context) Settings {
	if t := GetTenant(ctx); t != nil {
		return t.Settings
	}
	return DefaultSettings()
}

// MustGetTenant retrieves tenant or panics.
// Use in places where a missing tenant is a programming error.
func MustGetTenant(ctx context.Context) *Tenant {
	t := GetTenant(ctx)
	if t == nil {
		panic("tenant not in context: " + ErrNoTenantInContext.Error())
	}
	return t
}
