package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/isaacmuchunu/poam-sub001/internal/tenant"
)

const ContextKeyTenant = "tenant"

// RequireTenant rejects requests without a tenant and forwards the derived
// namespace in x-tenant-schema.
func RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		tc, err := tenant.Resolve(c.Request.Header)
		if err != nil {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Missing tenant context",
			})
			c.Abort()
			return
		}

		c.Request.Header.Set(tenant.HeaderTenantSchema, tc.Namespace)
		c.Set(ContextKeyTenant, tc)

		c.Next()
	}
}

// TenantFrom returns the tenant stored by RequireTenant.
func TenantFrom(c *gin.Context) (tenant.Context, bool) {
	v, ok := c.Get(ContextKeyTenant)
	if !ok {
		return tenant.Context{}, false
	}
	tc, ok := v.(tenant.Context)
	return tc, ok
}
