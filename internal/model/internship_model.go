package model

import "time"

// Internship is owned by the posting service; the allocator only reads it.
type Internship struct {
	ID             int64      `gorm:"primaryKey" json:"id"`
	CompanyUserID  string     `gorm:"type:varchar(64);index" json:"company_user_id"`
	Title          string     `gorm:"type:varchar(255)" json:"title"`
	Description    string     `gorm:"type:text" json:"description"`
	RequiredSkills StringList `json:"required_skills"`
	Capacity       int        `json:"capacity"`
	Location       *string    `gorm:"type:varchar(255)" json:"location"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (i *Internship) TableName() string {
	return "internships"
}
