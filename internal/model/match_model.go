package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MatchStatus string

const (
	MatchStatusProposed     MatchStatus = "proposed"
	MatchStatusInterviewing MatchStatus = "interviewing"
	MatchStatusHired        MatchStatus = "hired"
	MatchStatusRejected     MatchStatus = "rejected"
)

// Advanced reports whether a company has acted on the match.
func (s MatchStatus) Advanced() bool {
	return s == MatchStatusInterviewing || s == MatchStatusHired || s == MatchStatusRejected
}

// HoldsSeat reports whether the match occupies the applicant and a seat of the internship.
func (s MatchStatus) HoldsSeat() bool {
	return s == MatchStatusInterviewing || s == MatchStatusHired
}

type Match struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	ApplicantID  int64       `gorm:"not null;uniqueIndex:idx_matches_pair,priority:1" json:"applicant_id"`
	InternshipID int64       `gorm:"not null;uniqueIndex:idx_matches_pair,priority:2;index" json:"internship_id"`
	Score        float64     `gorm:"type:float" json:"score"`
	Reasons      StringList  `json:"reasons"`
	Status       MatchStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

func (m *Match) TableName() string {
	return "matches"
}

func (m *Match) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
