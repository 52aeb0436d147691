package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLog rows are append-only, so they skip BaseModel's UpdatedAt.
type AuditLog struct {
	ID           uuid.UUID              `json:"id" gorm:"type:uuid;primaryKey"`
	UserID       *uuid.UUID             `json:"user_id,omitempty" gorm:"type:uuid;index"`
	PageID       *uuid.UUID             `json:"page_id,omitempty" gorm:"type:uuid;index"`
	Action       string                 `json:"action" gorm:"type:varchar(50);not null;index"`
	ResourceType string                 `json:"resource_type" gorm:"type:varchar(30);not null"`
	ResourceID   *uuid.UUID             `json:"resource_id,omitempty" gorm:"type:uuid"`
	Details      map[string]interface{} `json:"details,omitempty" gorm:"type:jsonb;serializer:json"`
	IPAddress    string                 `json:"ip_address" gorm:"type:varchar(45);not null"`
	RequestID    string                 `json:"request_id,omitempty" gorm:"type:varchar(36)"`
	CreatedAt    time.Time              `json:"created_at" gorm:"not null;index"`
	ExportedAt   *time.Time             `json:"-" gorm:"index"`
}

func (a *AuditLog) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	return nil
}

type AuditExportCursor struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	LastExportAt  time.Time `json:"last_export_at" gorm:"not null"`
	ExportedCount int64     `json:"exported_count" gorm:"not null;default:0"`
}

func (a *AuditExportCursor) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
