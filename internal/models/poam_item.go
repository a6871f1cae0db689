package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusOpen         = "open"
	StatusInProgress   = "in_progress"
	StatusCompleted    = "completed"
	StatusRiskAccepted = "risk_accepted"
)

const (
	SeverityLow      = "low"
	SeverityModerate = "moderate"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

var (
	ItemStatuses   = []string{StatusOpen, StatusInProgress, StatusCompleted, StatusRiskAccepted}
	ItemSeverities = []string{SeverityLow, SeverityModerate, SeverityHigh, SeverityCritical}
)

// POAMItem is a single remediation entry in a tenant's plan of action.
type POAMItem struct {
	ID                  uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	SystemID            *uuid.UUID `gorm:"type:uuid;index" json:"system_id,omitempty"`
	Title               string     `gorm:"not null" json:"title"`
	Description         string     `json:"description"`
	Weakness            string     `json:"weakness"`
	Framework           string     `gorm:"index" json:"framework"` // NIST, ISO27001, SOC2, PCI-DSS, GDPR
	ControlID           string     `json:"control_id"`
	Severity            string     `gorm:"not null;default:'moderate'" json:"severity"`
	Status              string     `gorm:"index;not null;default:'open'" json:"status"`
	ScheduledCompletion *time.Time `json:"scheduled_completion,omitempty"`
	CreatedBy           string     `json:"created_by"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func (p *POAMItem) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (POAMItem) TableName() string {
	return "poam_items"
}
