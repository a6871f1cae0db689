package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/isaacmuchunu/poam-sub001/internal/models"
	"github.com/isaacmuchunu/poam-sub001/internal/service"
	"github.com/rs/zerolog/log"
)

const EventOrganizationCreated = "organization.created"

type Provisioner interface {
	Provision(ctx context.Context, evt service.OrgCreated) (*models.Organization, error)
}

type WebhookHandler struct {
	provisioner Provisioner
}

func NewWebhookHandler(provisioner Provisioner) *WebhookHandler {
	return &WebhookHandler{provisioner: provisioner}
}

type webhookEvent struct {
	Type string          `json:"type" binding:"required"`
	Data json.RawMessage `json:"data"`
}

// OrganizationEvents provisions tenants for organization.created events and
// acknowledges everything else.
func (h *WebhookHandler) OrganizationEvents(c *gin.Context) {
	var evt webhookEvent
	if err := c.ShouldBindJSON(&evt); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if evt.Type != EventOrganizationCreated {
		log.Debug().Str("type", evt.Type).Msg("Ignoring webhook event")
		c.JSON(http.StatusAccepted, gin.H{"status": "ignored"})
		return
	}

	var data service.OrgCreated
	if err := json.Unmarshal(evt.Data, &data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid organization payload"})
		return
	}

	org, err := h.provisioner.Provision(c.Request.Context(), data)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "provisioned",
		"organization": org,
	})
}
