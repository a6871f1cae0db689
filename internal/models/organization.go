package models

import "time"

// Organization lives in the shared public schema; everything else a tenant
// owns lives in that tenant's own schema.
type Organization struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Tier      string    `gorm:"not null;default:'free'" json:"tier"`
	Namespace string    `gorm:"uniqueIndex;not null" json:"namespace"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Organization) TableName() string {
	return "organizations"
}
