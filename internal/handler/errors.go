package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/isaacmuchunu/poam-sub001/internal/service"
	"github.com/rs/zerolog/log"
)

// writeError maps service errors onto HTTP responses. Anything unrecognised
// is a 500 and is attached to the gin context so it is never cached.
func writeError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message, "field": verr.Field})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	default:
		_ = c.Error(err)
		log.Error().Err(err).
			Str("request_id", c.GetString("request_id")).
			Str("path", c.Request.URL.Path).
			Msg("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func rejectMissingTenant(c *gin.Context) {
	c.JSON(http.StatusForbidden, gin.H{"error": "Missing tenant context"})
}
