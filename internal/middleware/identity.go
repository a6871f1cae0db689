package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/isaacmuchunu/poam-sub001/internal/service"
	"github.com/isaacmuchunu/poam-sub001/internal/tenant"
)

type TokenVerifier interface {
	Validate(token string) (*service.IdentityClaims, error)
}

// Identity turns a verified bearer token into the tenant and user headers.
// Requests without an Authorization header pass through unchanged, with their
// headers trusted as set upstream.
func Identity(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid authorization header format. Use: Bearer <token>",
			})
			c.Abort()
			return
		}

		claims, err := verifier.Validate(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		// token claims win over anything the client sent
		c.Request.Header.Set(tenant.HeaderTenantID, claims.OrgID)
		if claims.Subject != "" {
			c.Request.Header.Set(tenant.HeaderUserID, claims.Subject)
		} else {
			c.Request.Header.Del(tenant.HeaderUserID)
		}
		c.Set("user_id", claims.Subject)

		c.Next()
	}
}
