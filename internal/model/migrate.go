package model

import "gorm.io/gorm"

// Migrate creates the tables and the index that forbids two non-rejected
// matches for one applicant.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Applicant{}, &Internship{}, &Match{}, &AuditLog{}); err != nil {
		return err
	}
	return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_matches_one_live_per_applicant
		ON matches (applicant_id) WHERE status <> 'rejected'`).Error
}
