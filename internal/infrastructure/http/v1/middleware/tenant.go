package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/tenant"
	"tillpoint/pkg/logger"
)

// TenantHeader is the HTTP header for tenant identification.
const TenantHeader = "X-Tenant-ID"

// Tenant middleware resolves the tenant from the X-Tenant-ID header and
// binds the tenant record (with its settings) to the request context.
// Must run before Auth and before any database operation that filters
// by tenant.
func Tenant(registry tenant.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		rawTenantID := c.GetHeader(TenantHeader)
		if rawTenantID == "" {
			_ = c.Error(
				apperror.NewValidation("tenant is required").
					WithDetail("header", TenantHeader),
			)
			c.Abort()
			return
		}

		tenantUUID, err := uuid.Parse(rawTenantID)
		if err != nil {
			_ = c.Error(
				apperror.NewValidation("invalid tenant id").
					WithDetail("header", TenantHeader).
					WithDetail("value", rawTenantID),
			)
			c.Abort()
			return
		}
		tenantID := tenantUUID.String()

		t, err := registry.GetByID(ctx, tenantID)
		if err != nil {
			logger.Warn(ctx, "tenant lookup failed", "tenant_id", tenantID, "error", err)
			if appErr, ok := apperror.AsAppError(err); ok {
				_ = c.Error(appErr)
			} else {
				_ = c.Error(apperror.NewInternal(err).WithDetail("tenant_id", tenantID))
			}
			c.Abort()
			return
		}

		if !t.IsActive() {
			_ = c.Error(
				apperror.NewForbidden("tenant is not active").
					WithDetail("tenant_id", tenantID),
			)
			c.Abort()
			return
		}

		ctx = tenant.WithTenant(ctx, t)
		c.Request = c.Request.WithContext(ctx)
		c.Set("tenant_id", t.ID)

		c.Next()
	}
}
