// Package tenant provides multi-tenant settings and request-scoped tenant
// resolution. All POS rows carry a tenant id; a single shared PostgreSQL
// database holds every tenant.
package tenant

import (
	"strings"

	"github.com/shopspring/decimal"

	"tillpoint/internal/core/apperror"
)

// Status represents tenant lifecycle state.
type Status string

const (
	// StatusActive - tenant can accept requests
	StatusActive Status = "active"

	// StatusSuspended - tenant is temporarily disabled (e.g., payment issues)
	StatusSuspended Status = "suspended"

	// StatusDeleted - tenant is marked for deletion
	StatusDeleted Status = "deleted"
)

// WalkInCustomerID is the sentinel customer for anonymous sales.
const WalkInCustomerID = "walk-in"

// Settings holds per-tenant POS configuration consumed by the core.
// Tax rate is applied multiplicatively on the discounted subtotal at
// checkout time.
type Settings struct {
	// TaxRatePercent, e.g. "10" for 10% sales tax.
	TaxRatePercent decimal.Decimal `json:"taxRatePercent"`

	// CurrencySymbol for receipt rendering, e.g. "$".
	CurrencySymbol string `json:"currencySymbol"`

	// PermissionExpr optionally overrides the default CEL permission
	// expression for the canPerform gate. Empty means default policy.
	PermissionExpr string `json:"permissionExpr,omitempty"`
}

// DefaultSettings returns settings for tenants without overrides.
func DefaultSettings() Settings {
	return Settings{
		TaxRatePercent: decimal.Zero,
		CurrencySymbol: "$",
	}
}

// Tenant represents a tenant record.
type Tenant struct {
	ID          string   `db:"id"`
	Slug        string   `db:"slug"` // URL-safe identifier
	DisplayName string   `db:"display_name"`
	Status      Status   `db:"status"`
	Settings    Settings `db:"settings"` // JSONB
}

// IsActive returns true if tenant can accept requests.
func (t *Tenant) IsActive() bool {
	return t.Status == StatusActive
}

// CreateTenantInput contains data for creating a new tenant.
type CreateTenantInput struct {
	Slug        string
	DisplayName string
	Settings    Settings
}

// Validate checks if input is valid.
func (i *CreateTenantInput) Validate() error {
	if i.Slug == "" {
		return apperror.NewValidation("slug is required").WithDetail("field", "slug")
	}
	i.Slug = strings.ToLower(i.Slug)
	if len(i.Slug) > 63 {
		return apperror.NewValidation("slug must be 63 characters or less").WithDetail("field", "slug")
	}
	if i.DisplayName == "" {
		return apperror.NewValidation("display_name is required").WithDetail("field", "displayName")
	}
	return nil
}
