package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const AuditActionRunAllocation = "RUN_ALLOCATION"

// AuditLog rows are written once and never updated.
type AuditLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Action     string    `gorm:"type:varchar(50);not null" json:"action"`
	Actor      string    `gorm:"type:varchar(64)" json:"actor"`
	Quota      float64   `gorm:"type:float" json:"quota"`
	MatchCount int       `json:"match_count"`
	Details    string    `gorm:"type:text" json:"details"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func (a *AuditLog) TableName() string {
	return "audit_logs"
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
