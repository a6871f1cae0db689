package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/isaacmuchunu/poam-sub001/internal/models"
	"github.com/isaacmuchunu/poam-sub001/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryPOAM is a single-tenant in-memory POAMData.
type memoryPOAM struct {
	namespace string
	items     map[string]*models.POAMItem
	systems   map[string]*models.System
	updates   []map[string]interface{}
}

func newMemoryPOAM() *memoryPOAM {
	return &memoryPOAM{
		namespace: "tenant_a",
		items:     map[string]*models.POAMItem{},
		systems:   map[string]*models.System{},
	}
}

func (m *memoryPOAM) Namespace() string { return m.namespace }

func (m *memoryPOAM) ListItems(_ context.Context, filter repository.ItemFilter) ([]models.POAMItem, error) {
	var out []models.POAMItem
	for _, item := range m.items {
		if filter.Status != "" && item.Status != filter.Status {
			continue
		}
		out = append(out, *item)
	}
	return out, nil
}

func (m *memoryPOAM) FindItem(_ context.Context, id string) (*models.POAMItem, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	cp := *item
	return &cp, nil
}

func (m *memoryPOAM) CreateItem(_ context.Context, item *models.POAMItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	cp := *item
	m.items[item.ID.String()] = &cp
	return nil
}

func (m *memoryPOAM) UpdateItem(_ context.Context, id string, updates map[string]interface{}) (bool, error) {
	item, ok := m.items[id]
	if !ok {
		return false, nil
	}
	m.updates = append(m.updates, updates)
	if v, ok := updates["status"].(string); ok {
		item.Status = v
	}
	if v, ok := updates["title"].(string); ok {
		item.Title = v
	}
	if v, ok := updates["severity"].(string); ok {
		item.Severity = v
	}
	return true, nil
}

func (m *memoryPOAM) DeleteItem(_ context.Context, id string) (bool, error) {
	if _, ok := m.items[id]; !ok {
		return false, nil
	}
	delete(m.items, id)
	return true, nil
}

func (m *memoryPOAM) ListSystems(context.Context) ([]models.System, error) {
	var out []models.System
	for _, s := range m.systems {
		out = append(out, *s)
	}
	return out, nil
}

func (m *memoryPOAM) CreateSystem(_ context.Context, system *models.System) error {
	if system.ID == uuid.Nil {
		system.ID = uuid.New()
	}
	cp := *system
	m.systems[system.ID.String()] = &cp
	return nil
}

func (m *memoryPOAM) SystemExists(_ context.Context, id string) (bool, error) {
	_, ok := m.systems[id]
	return ok, nil
}

func TestCreateItemDefaults(t *testing.T) {
	svc := NewPOAMService(newMemoryPOAM())

	item, err := svc.CreateItem(context.Background(), CreateItemInput{Title: " Patch OpenSSL ", Framework: "NIST"}, "user_1")
	require.NoError(t, err)

	assert.Equal(t, "Patch OpenSSL", item.Title)
	assert.Equal(t, models.SeverityModerate, item.Severity)
	assert.Equal(t, models.StatusOpen, item.Status)
	assert.Equal(t, "user_1", item.CreatedBy)
	assert.NotEqual(t, uuid.Nil, item.ID)
}

func TestCreateItemValidation(t *testing.T) {
	svc := NewPOAMService(newMemoryPOAM())
	ctx := context.Background()

	cases := map[string]CreateItemInput{
		"title":     {Title: "   "},
		"severity":  {Title: "x", Severity: "urgent"},
		"status":    {Title: "x", Status: "closed"},
		"system_id": {Title: "x", SystemID: uuid.NewString()},
	}
	for field, in := range cases {
		_, err := svc.CreateItem(ctx, in, "")
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, field)
		assert.Equal(t, field, verr.Field)
	}
}

func TestCreateItemLinksExistingSystem(t *testing.T) {
	svc := NewPOAMService(newMemoryPOAM())
	ctx := context.Background()

	system, err := svc.CreateSystem(ctx, CreateSystemInput{Name: "Payroll"})
	require.NoError(t, err)

	item, err := svc.CreateItem(ctx, CreateItemInput{Title: "Harden DB", SystemID: system.ID.String()}, "")
	require.NoError(t, err)
	require.NotNil(t, item.SystemID)
	assert.Equal(t, system.ID, *item.SystemID)
}

func TestUpdateItem(t *testing.T) {
	data := newMemoryPOAM()
	svc := NewPOAMService(data)
	ctx := context.Background()

	item, err := svc.CreateItem(ctx, CreateItemInput{Title: "Enable MFA"}, "")
	require.NoError(t, err)

	status := models.StatusCompleted
	updated, err := svc.UpdateItem(ctx, item.ID.String(), UpdateItemInput{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, updated.Status)
	require.Len(t, data.updates, 1)
	assert.Contains(t, data.updates[0], "updated_at")

	bad := "done"
	_, err = svc.UpdateItem(ctx, item.ID.String(), UpdateItemInput{Status: &bad})
	assert.True(t, IsValidationError(err))

	_, err = svc.UpdateItem(ctx, item.ID.String(), UpdateItemInput{})
	assert.True(t, IsValidationError(err))

	_, err = svc.UpdateItem(ctx, uuid.NewString(), UpdateItemInput{Status: &status})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetAndDeleteItem(t *testing.T) {
	svc := NewPOAMService(newMemoryPOAM())
	ctx := context.Background()

	_, err := svc.GetItem(ctx, "not-a-uuid")
	require.ErrorIs(t, err, ErrNotFound)

	item, err := svc.CreateItem(ctx, CreateItemInput{Title: "Rotate keys"}, "")
	require.NoError(t, err)

	got, err := svc.GetItem(ctx, item.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Rotate keys", got.Title)

	require.NoError(t, svc.DeleteItem(ctx, item.ID.String()))
	require.ErrorIs(t, svc.DeleteItem(ctx, item.ID.String()), ErrNotFound)
	_, err = svc.GetItem(ctx, item.ID.String())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListItemsValidatesFilter(t *testing.T) {
	svc := NewPOAMService(newMemoryPOAM())
	ctx := context.Background()

	_, err := svc.ListItems(ctx, repository.ItemFilter{Status: "bogus"})
	assert.True(t, IsValidationError(err))
	_, err = svc.ListItems(ctx, repository.ItemFilter{SystemID: "nope"})
	assert.True(t, IsValidationError(err))

	_, err = svc.CreateItem(ctx, CreateItemInput{Title: "a"}, "")
	require.NoError(t, err)
	items, err := svc.ListItems(ctx, repository.ItemFilter{Status: models.StatusOpen})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, "tenant_a", svc.Namespace())
}
