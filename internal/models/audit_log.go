package models

import "time"

// Records a mutating request made against a tenant's data
type AuditLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Namespace  string    `gorm:"-" json:"-"`
	UserID     string    `gorm:"index" json:"user_id,omitempty"`
	Method     string    `json:"method"`
	Path       string    `gorm:"index" json:"path"`
	StatusCode int       `json:"status_code"`
	RequestID  string    `json:"request_id"`
	IPAddress  string    `json:"ip_address"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// TenantModels are migrated into every tenant schema.
func TenantModels() []interface{} {
	return []interface{}{
		&System{},
		&POAMItem{},
		&AuditLog{},
	}
}
