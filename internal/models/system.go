package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// System is an information system that POA&M items are raised against.
type System struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description"`
	Owner       string    `json:"owner"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s *System) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (System) TableName() string {
	return "systems"
}
