package dto

import (
	"time"

	"github.com/google/uuid"
)

// MatchView is a match joined with the applicant and internship display fields.
type MatchView struct {
	MatchID       uuid.UUID `json:"match_id"`
	ApplicantID   int64     `json:"applicant_id"`
	FullName      string    `json:"full_name"`
	Category      string    `json:"category"`
	StudentSkills []string  `json:"student_skills,omitempty"`
	InternshipID  int64     `json:"internship_id"`
	JobTitle      string    `json:"job_title"`
	Location      string    `json:"location"`
	CompanyUserID string    `json:"company_user_id,omitempty"`
	CompanyName   string    `json:"company_name,omitempty"`
	MatchScore    float64   `json:"match_score"`
	MatchReason   []string  `json:"match_reason"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// RunAllocationRequest takes the quota as a fraction, or as a 0-100 percent
// under either key the dashboards use.
type RunAllocationRequest struct {
	Quota              *float64 `json:"quota"`
	QuotaPercent       *float64 `json:"quota_percent"`
	LegacyQuotaPercent *float64 `json:"quotaPercent"`
}

// Fraction resolves the requested quota. No value means no quota.
func (r RunAllocationRequest) Fraction() float64 {
	switch {
	case r.Quota != nil:
		return *r.Quota
	case r.QuotaPercent != nil:
		return *r.QuotaPercent / 100
	case r.LegacyQuotaPercent != nil:
		return *r.LegacyQuotaPercent / 100
	default:
		return 0
	}
}

type AllocationResult struct {
	RunID        uuid.UUID `json:"run_id"`
	Quota        float64   `json:"quota"`
	TotalMatches int       `json:"total_matches"`
	Proposed     int       `json:"proposed"`
	Preserved    int       `json:"preserved"`
	Removed      int       `json:"removed"`
	Dropped      int       `json:"dropped"`
}

type UpdateStatusRequest struct {
	MatchID string `json:"match_id"`
	Status  string `json:"status"`
}

type CategoryCount struct {
	Category string  `json:"social_category"`
	Count    int64   `json:"count"`
	Share    float64 `json:"share"`
}

type FairnessStats struct {
	Categories    []CategoryCount `json:"categories"`
	TotalMatches  int64           `json:"total_matches"`
	ReservedShare float64         `json:"reserved_share"`
}
