package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// RequireSecret admits requests whose header carries the configured shared
// secret. With no secret configured the route is closed.
func RequireSecret(header, secret string) gin.HandlerFunc {
	return guard(secret != "", func(got string) bool {
		return subtle.ConstantTimeCompare([]byte(got), []byte(secret)) == 1
	}, header)
}

// RequireAdminToken admits requests whose header carries a token matching the
// configured bcrypt hash.
func RequireAdminToken(header, tokenHash string) gin.HandlerFunc {
	return guard(tokenHash != "", func(got string) bool {
		return got != "" && bcrypt.CompareHashAndPassword([]byte(tokenHash), []byte(got)) == nil
	}, header)
}

func guard(configured bool, match func(string) bool, header string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !configured {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Endpoint not configured"})
			c.Abort()
			return
		}

		if !match(c.GetHeader(header)) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			c.Abort()
			return
		}

		c.Next()
	}
}
