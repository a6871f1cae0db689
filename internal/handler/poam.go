package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/isaacmuchunu/poam-sub001/internal/models"
	"github.com/isaacmuchunu/poam-sub001/internal/repository"
	"github.com/isaacmuchunu/poam-sub001/internal/service"
	"github.com/isaacmuchunu/poam-sub001/internal/tenant"
)

// POAMStore is the tenant-bound POA&M API the handlers drive.
type POAMStore interface {
	Namespace() string
	ListItems(ctx context.Context, filter repository.ItemFilter) ([]models.POAMItem, error)
	GetItem(ctx context.Context, id string) (*models.POAMItem, error)
	CreateItem(ctx context.Context, in service.CreateItemInput, createdBy string) (*models.POAMItem, error)
	UpdateItem(ctx context.Context, id string, in service.UpdateItemInput) (*models.POAMItem, error)
	DeleteItem(ctx context.Context, id string) error
	ListSystems(ctx context.Context) ([]models.System, error)
	CreateSystem(ctx context.Context, in service.CreateSystemInput) (*models.System, error)
}

type POAMHandler struct {
	access *tenant.Access[POAMStore]
}

func NewPOAMHandler(access *tenant.Access[POAMStore]) *POAMHandler {
	return &POAMHandler{access: access}
}

// store returns the caller's tenant-bound store, or writes a 403 and false.
func (h *POAMHandler) store(c *gin.Context) (POAMStore, bool) {
	store, _, err := h.access.ForRequest(c.Request)
	if err != nil {
		rejectMissingTenant(c)
		return nil, false
	}
	return store, true
}

func (h *POAMHandler) ListItems(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}

	filter := repository.ItemFilter{
		Status:    c.Query("status"),
		Severity:  c.Query("severity"),
		Framework: c.Query("framework"),
		SystemID:  c.Query("system_id"),
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 || limit > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500", "field": "limit"})
			return
		}
		filter.Limit = limit
	}
	if v := c.Query("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be a non-negative integer", "field": "offset"})
			return
		}
		filter.Offset = offset
	}

	items, err := store.ListItems(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	if items == nil {
		items = []models.POAMItem{}
	}

	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}

func (h *POAMHandler) GetItem(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}

	item, err := store.GetItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

func (h *POAMHandler) CreateItem(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}

	var req service.CreateItemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := store.CreateItem(c.Request.Context(), req, tenant.UserID(c.Request.Header))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, item)
}

func (h *POAMHandler) UpdateItem(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}

	var req service.UpdateItemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := store.UpdateItem(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

func (h *POAMHandler) DeleteItem(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}

	if err := store.DeleteItem(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *POAMHandler) ListSystems(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}

	systems, err := store.ListSystems(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if systems == nil {
		systems = []models.System{}
	}

	c.JSON(http.StatusOK, gin.H{
		"systems": systems,
		"count":   len(systems),
	})
}

func (h *POAMHandler) CreateSystem(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}

	var req service.CreateSystemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	system, err := store.CreateSystem(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, system)
}
