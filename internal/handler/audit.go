package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/isaacmuchunu/poam-sub001/internal/models"
	"github.com/isaacmuchunu/poam-sub001/internal/tenant"
)

type AuditReader interface {
	Recent(ctx context.Context, namespace string, limit int) ([]models.AuditLog, error)
}

type AuditHandler struct {
	reader AuditReader
}

func NewAuditHandler(reader AuditReader) *AuditHandler {
	return &AuditHandler{reader: reader}
}

// List returns the caller's most recent audit entries.
func (h *AuditHandler) List(c *gin.Context) {
	tc, err := tenant.Resolve(c.Request.Header)
	if err != nil {
		rejectMissingTenant(c)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	logs, err := h.reader.Recent(c.Request.Context(), tc.Namespace, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	if logs == nil {
		logs = []models.AuditLog{}
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": logs,
		"count":   len(logs),
	})
}
