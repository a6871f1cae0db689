package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/isaacmuchunu/poam-sub001/internal/models"
	"github.com/isaacmuchunu/poam-sub001/internal/tenant"
)

type AuditRecorder interface {
	Record(entry models.AuditLog) bool
}

// AuditTrail records every mutating tenant request once it has been handled.
// It must run after RequireTenant.
func AuditTrail(rec AuditRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return
		}
		tc, ok := TenantFrom(c)
		if !ok {
			return
		}

		rec.Record(models.AuditLog{
			Namespace:  tc.Namespace,
			UserID:     tenant.UserID(c.Request.Header),
			Method:     c.Request.Method,
			Path:       c.Request.URL.Path,
			StatusCode: c.Writer.Status(),
			RequestID:  c.GetString("request_id"),
			IPAddress:  c.ClientIP(),
			CreatedAt:  time.Now().UTC(),
		})
	}
}
