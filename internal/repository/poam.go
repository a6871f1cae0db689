package repository

import (
	"context"
	"errors"

	"github.com/isaacmuchunu/poam-sub001/internal/models"
	"github.com/isaacmuchunu/poam-sub001/internal/storage"
	"gorm.io/gorm"
)

// ItemFilter narrows ListItems. Empty fields match everything.
type ItemFilter struct {
	Status    string
	Severity  string
	Framework string
	SystemID  string
	Limit     int
	Offset    int
}

// POAMRepository reads and writes one tenant's POA&M data. Every query goes
// through the schema-bound handle it was built with.
type POAMRepository struct {
	db *storage.ScopedDB
}

func NewPOAMRepository(db *storage.ScopedDB) *POAMRepository {
	return &POAMRepository{db: db}
}

func (r *POAMRepository) Namespace() string {
	return r.db.Schema()
}

func (r *POAMRepository) items(ctx context.Context) *gorm.DB {
	return r.db.Table(ctx, models.POAMItem{}.TableName())
}

func (r *POAMRepository) ListItems(ctx context.Context, filter ItemFilter) ([]models.POAMItem, error) {
	query := r.items(ctx)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Severity != "" {
		query = query.Where("severity = ?", filter.Severity)
	}
	if filter.Framework != "" {
		query = query.Where("framework = ?", filter.Framework)
	}
	if filter.SystemID != "" {
		query = query.Where("system_id = ?", filter.SystemID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	var items []models.POAMItem
	err := query.Order("created_at DESC").Find(&items).Error
	return items, err
}

func (r *POAMRepository) FindItem(ctx context.Context, id string) (*models.POAMItem, error) {
	var item models.POAMItem
	err := r.items(ctx).Where("id = ?", id).First(&item).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *POAMRepository) CreateItem(ctx context.Context, item *models.POAMItem) error {
	return r.items(ctx).Create(item).Error
}

// UpdateItem applies updates and reports whether a row matched.
func (r *POAMRepository) UpdateItem(ctx context.Context, id string, updates map[string]interface{}) (bool, error) {
	res := r.items(ctx).Where("id = ?", id).Updates(updates)
	return res.RowsAffected > 0, res.Error
}

func (r *POAMRepository) DeleteItem(ctx context.Context, id string) (bool, error) {
	res := r.items(ctx).Where("id = ?", id).Delete(&models.POAMItem{})
	return res.RowsAffected > 0, res.Error
}

func (r *POAMRepository) ListSystems(ctx context.Context) ([]models.System, error) {
	var systems []models.System
	err := r.db.Table(ctx, models.System{}.TableName()).
		Order("name ASC").
		Find(&systems).Error
	return systems, err
}

func (r *POAMRepository) CreateSystem(ctx context.Context, system *models.System) error {
	return r.db.Table(ctx, models.System{}.TableName()).Create(system).Error
}

func (r *POAMRepository) SystemExists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.Table(ctx, models.System{}.TableName()).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}
