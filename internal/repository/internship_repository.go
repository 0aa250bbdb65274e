package repository

import (
	"context"

	"github.com/Puru1375/ai-smart-internship-allocation/internal/apperror"
	"github.com/Puru1375/ai-smart-internship-allocation/internal/model"
	"gorm.io/gorm"
)

type InternshipRepository struct {
	db *gorm.DB
}

func NewInternshipRepository(db *gorm.DB) *InternshipRepository {
	return &InternshipRepository{db}
}

func (r *InternshipRepository) ListAll(ctx context.Context) ([]model.Internship, error) {
	var internships []model.Internship
	if err := r.db.WithContext(ctx).Order("id").Find(&internships).Error; err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, "failed to load internships", err)
	}
	return internships, nil
}
