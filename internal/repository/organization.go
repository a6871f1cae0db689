package repository

import (
	"context"
	"errors"

	"github.com/isaacmuchunu/poam-sub001/internal/models"
	"github.com/isaacmuchunu/poam-sub001/internal/storage"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrganizationRepository struct {
	db *storage.Postgres
}

func NewOrganizationRepository(db *storage.Postgres) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// Upsert inserts the organization or refreshes its name and tier.
func (r *OrganizationRepository) Upsert(ctx context.Context, org *models.Organization) error {
	return r.db.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "tier", "updated_at"}),
		}).
		Create(org).Error
}

func (r *OrganizationRepository) FindByID(ctx context.Context, id string) (*models.Organization, error) {
	var org models.Organization
	err := r.db.DB.WithContext(ctx).
		Where("id = ?", id).
		First(&org).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &org, nil
}

func (r *OrganizationRepository) List(ctx context.Context) ([]models.Organization, error) {
	var orgs []models.Organization
	err := r.db.DB.WithContext(ctx).
		Order("created_at ASC").
		Find(&orgs).Error

	return orgs, err
}
