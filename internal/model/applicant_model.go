package model

import (
	"strings"
	"time"
)

const DefaultCategory = "General"

// Applicant is owned by the profile service; the allocator only reads it.
type Applicant struct {
	ID             int64      `gorm:"primaryKey" json:"id"`
	UserID         string     `gorm:"type:varchar(64);uniqueIndex" json:"user_id"`
	FullName       string     `gorm:"type:varchar(255)" json:"full_name"`
	Skills         StringList `json:"skills"`
	SocialCategory *string    `gorm:"type:varchar(50)" json:"social_category"`
	District       *string    `gorm:"type:varchar(100)" json:"district"`
	PreferLocal    *bool      `json:"prefer_local"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (a *Applicant) TableName() string {
	return "applicants"
}

// Category returns the social category, defaulting to General.
func (a *Applicant) Category() string {
	if a.SocialCategory == nil || *a.SocialCategory == "" {
		return DefaultCategory
	}
	return *a.SocialCategory
}

// IsReservedCategory reports whether a category counts toward the fairness quota.
func IsReservedCategory(category string) bool {
	return category != "" && !strings.EqualFold(category, DefaultCategory)
}
