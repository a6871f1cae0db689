package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/isaacmuchunu/poam-sub001/internal/ratelimit"
	"github.com/rs/zerolog/log"
)

const HeaderCache = "X-Cache"

type cachedResponse struct {
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// bodyCapture tees the response body so it can be cached after the handler ran.
type bodyCapture struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyCapture) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyCapture) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// CacheResponse serves GET requests from the tenant's response cache and fills
// it from successful handler results. It must run after RequireTenant.
func CacheResponse(enforcer *ratelimit.Enforcer, opts ratelimit.CacheOptions) (gin.HandlerFunc, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}
		tc, ok := TenantFrom(c)
		if !ok {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := opts.CacheKey + ":" + c.Request.URL.RequestURI()

		if raw, hit := enforcer.CacheLookup(ctx, tc.Namespace, key); hit {
			var cached cachedResponse
			if err := json.Unmarshal(raw, &cached); err == nil {
				c.Header(HeaderCache, "HIT")
				c.Data(http.StatusOK, cached.ContentType, cached.Body)
				c.Abort()
				return
			}
			log.Warn().Str("namespace", tc.Namespace).Str("key", key).Msg("Discarding unreadable cache entry")
		}

		c.Header(HeaderCache, "MISS")
		capture := &bodyCapture{ResponseWriter: c.Writer}
		c.Writer = capture

		c.Next()

		if capture.Status() != http.StatusOK || len(c.Errors) > 0 {
			return
		}
		payload, err := json.Marshal(cachedResponse{
			ContentType: capture.Header().Get("Content-Type"),
			Body:        capture.body.Bytes(),
		})
		if err != nil {
			return
		}
		enforcer.CacheStore(ctx, tc.Namespace, key, payload, opts.TTL())
	}, nil
}
