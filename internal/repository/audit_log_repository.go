package repository

import (
	"context"

	"github.com/Puru1375/ai-smart-internship-allocation/internal/apperror"
	"github.com/Puru1375/ai-smart-internship-allocation/internal/model"
	"gorm.io/gorm"
)

// AuditLogRepository is append-only: there is no update or delete.
type AuditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db}
}

// WithTx binds the repository to an open transaction.
func (r *AuditLogRepository) WithTx(tx *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{tx}
}

func (r *AuditLogRepository) Create(ctx context.Context, entry *model.AuditLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return apperror.Wrap(apperror.KindInternal, "failed to write audit log", err)
	}
	return nil
}

// ListRecent returns entries newest first.
func (r *AuditLogRepository) ListRecent(ctx context.Context, limit, offset int) ([]model.AuditLog, error) {
	var logs []model.AuditLog
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id").
		Limit(limit).
		Offset(offset).
		Find(&logs).Error
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, "failed to load audit logs", err)
	}
	return logs, nil
}

func (r *AuditLogRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.AuditLog{}).Count(&n).Error; err != nil {
		return 0, apperror.Wrap(apperror.KindInternal, "failed to count audit logs", err)
	}
	return n, nil
}
