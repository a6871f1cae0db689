package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestRequireSecret(t *testing.T) {
	newRouter := func(secret string) *gin.Engine {
		r := gin.New()
		r.POST("/hook", RequireSecret("x-webhook-secret", secret), func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})
		return r
	}

	cases := []struct {
		name       string
		configured string
		sent       string
		want       int
	}{
		{"match", "s3cret", "s3cret", http.StatusNoContent},
		{"mismatch", "s3cret", "guess", http.StatusUnauthorized},
		{"missing header", "s3cret", "", http.StatusUnauthorized},
		{"not configured", "", "", http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/hook", nil)
			if tc.sent != "" {
				req.Header.Set("x-webhook-secret", tc.sent)
			}
			w := httptest.NewRecorder()
			newRouter(tc.configured).ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestRequireAdminToken(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("admin-token"), bcrypt.MinCost)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/admin", RequireAdminToken("x-admin-token", string(hash)), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for token, want := range map[string]int{
		"admin-token": http.StatusOK,
		"wrong":       http.StatusUnauthorized,
		"":            http.StatusUnauthorized,
	} {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if token != "" {
			req.Header.Set("x-admin-token", token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, token)
	}

	closed := gin.New()
	closed.GET("/admin", RequireAdminToken("x-admin-token", ""), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	w := httptest.NewRecorder()
	closed.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
