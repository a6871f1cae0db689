package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/isaacmuchunu/poam-sub001/internal/ratelimit"
	"github.com/isaacmuchunu/poam-sub001/internal/tenant"
)

const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
	HeaderRateLimitTier      = "X-RateLimit-Tier"

	ContextKeyQuota = "quota_decision"

	// anonymousTenant stands in for the tenant part of the quota identifier
	// when none was sent; RequireTenant rejects such requests later. No derived
	// namespace can equal it.
	anonymousTenant = "-"
)

// QuotaLimit charges one unit of the tenant's quota per request and annotates
// the response with the quota state. Rejected requests never reach the
// remaining handlers.
func QuotaLimit(enforcer *ratelimit.Enforcer, lookup ratelimit.TierLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		tenantID := strings.TrimSpace(c.GetHeader(tenant.HeaderTenantID))

		tier := ratelimit.ResolveTier(ctx, lookup, tenantID)
		decision := enforcer.CheckAndConsume(ctx, quotaIdentifier(tenantID, c.ClientIP()), tier)

		c.Header(HeaderRateLimitLimit, strconv.Itoa(decision.Limit))
		c.Header(HeaderRateLimitRemaining, strconv.Itoa(decision.Remaining))
		c.Header(HeaderRateLimitReset, strconv.FormatInt(decision.ResetAt.Unix(), 10))
		c.Header(HeaderRateLimitTier, decision.Tier.String())
		c.Set(ContextKeyQuota, decision)

		if !decision.Allowed {
			retryAfter := decision.RetryAfter(enforcer.Now())
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded",
				"limit": decision.Limit,
				"reset": decision.ResetAt.Unix(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// quotaIdentifier keys the window by tenant namespace and client address. The
// namespace never contains ":", so the first colon always ends the tenant part
// even for IPv6 clients.
func quotaIdentifier(tenantID, clientIP string) string {
	prefix := anonymousTenant
	if tenantID != "" {
		prefix = tenant.DeriveNamespace(tenantID)
	}
	return prefix + ":" + clientIP
}
