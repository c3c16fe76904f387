package middleware

import (
	"github.com/gin-gonic/gin"

	"tillpoint/internal/core/security"
)

// RequireAction middleware asks the policy gate whether the actor may
// perform the given POS action. The tenant's policy expression applies;
// admins pass under the default policy.
func RequireAction(gate *security.Gate, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := gate.CanPerform(c.Request.Context(), action); err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Next()
	}
}
