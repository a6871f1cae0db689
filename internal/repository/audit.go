package repository

import (
	"context"

	"github.com/isaacmuchunu/poam-sub001/internal/models"
	"github.com/isaacmuchunu/poam-sub001/internal/storage"
)

type AuditRepository struct {
	db *storage.Postgres
}

func NewAuditRepository(db *storage.Postgres) *AuditRepository {
	return &AuditRepository{db: db}
}

// InsertBatch writes logs into the audit table of namespace.
func (r *AuditRepository) InsertBatch(ctx context.Context, namespace string, logs []models.AuditLog) error {
	if len(logs) == 0 {
		return nil
	}
	return r.db.Scoped(namespace).
		Table(ctx, models.AuditLog{}.TableName()).
		Create(&logs).Error
}

// Recent returns the newest audit entries of namespace.
func (r *AuditRepository) Recent(ctx context.Context, namespace string, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var logs []models.AuditLog
	err := r.db.Scoped(namespace).
		Table(ctx, models.AuditLog{}.TableName()).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
