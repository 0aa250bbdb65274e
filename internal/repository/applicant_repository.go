package repository

import (
	"context"
	"errors"

	"github.com/Puru1375/ai-smart-internship-allocation/internal/apperror"
	"github.com/Puru1375/ai-smart-internship-allocation/internal/model"
	"gorm.io/gorm"
)

type ApplicantRepository struct {
	db *gorm.DB
}

func NewApplicantRepository(db *gorm.DB) *ApplicantRepository {
	return &ApplicantRepository{db}
}

func (r *ApplicantRepository) ListAll(ctx context.Context) ([]model.Applicant, error) {
	var applicants []model.Applicant
	if err := r.db.WithContext(ctx).Order("id").Find(&applicants).Error; err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, "failed to load applicants", err)
	}
	return applicants, nil
}

func (r *ApplicantRepository) FindByUserID(ctx context.Context, userID string) (*model.Applicant, error) {
	var a model.Applicant
	err := r.db.WithContext(ctx).First(&a, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Wrap(apperror.KindNotFound, "applicant profile not found", err)
	}
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, "failed to load applicant", err)
	}
	return &a, nil
}
