package usecase

import (
	"context"

	"github.com/Puru1375/ai-smart-internship-allocation/internal/dto"
	"github.com/Puru1375/ai-smart-internship-allocation/internal/model"
	"github.com/Puru1375/ai-smart-internship-allocation/internal/repository"
	"github.com/Puru1375/ai-smart-internship-allocation/internal/response"
	"github.com/Puru1375/ai-smart-internship-allocation/internal/service"
)

const (
	DefaultAuditLimit = 50
	MaxAuditLimit     = 500
)

type ReportUsecase struct {
	matchRepo      *repository.MatchRepository
	applicantRepo  *repository.ApplicantRepository
	internshipRepo *repository.InternshipRepository
	auditRepo      *repository.AuditLogRepository
	optimizer      service.OptimizerServiceInterface
}

func NewReportUsecase(
	matchRepo *repository.MatchRepository,
	applicantRepo *repository.ApplicantRepository,
	internshipRepo *repository.InternshipRepository,
	auditRepo *repository.AuditLogRepository,
	optimizer service.OptimizerServiceInterface,
) *ReportUsecase {
	return &ReportUsecase{
		matchRepo:      matchRepo,
		applicantRepo:  applicantRepo,
		internshipRepo: internshipRepo,
		auditRepo:      auditRepo,
		optimizer:      optimizer,
	}
}

// Fairness counts every match row by applicant category. The total is the
// sum of the groups so both come from the same read.
func (uc *ReportUsecase) Fairness(ctx context.Context) (*dto.FairnessStats, error) {
	stats := &dto.FairnessStats{Categories: []dto.CategoryCount{}}
	counts, err := uc.matchRepo.CountByCategory(ctx)
	if err != nil {
		return stats, err
	}
	var reserved int64
	for _, c := range counts {
		stats.TotalMatches += c.Count
		if model.IsReservedCategory(c.Category) {
			reserved += c.Count
		}
	}
	if stats.TotalMatches > 0 {
		for i := range counts {
			counts[i].Share = float64(counts[i].Count) / float64(stats.TotalMatches)
		}
		stats.ReservedShare = float64(reserved) / float64(stats.TotalMatches)
	}
	stats.Categories = counts
	return stats, nil
}

// SkillGap asks the optimizer which missing skills cost the applicant the
// most opportunities. It does not look at persisted matches.
func (uc *ReportUsecase) SkillGap(ctx context.Context, userID string) ([]dto.SkillGap, error) {
	applicant, err := uc.applicantRepo.FindByUserID(ctx, userID)
	if err != nil {
		return []dto.SkillGap{}, err
	}
	internships, err := uc.internshipRepo.ListAll(ctx)
	if err != nil {
		return []dto.SkillGap{}, err
	}
	gaps, err := uc.optimizer.AnalyzeGap(ctx, BuildGapRequest(applicant.Skills, internships))
	if err != nil {
		return []dto.SkillGap{}, err
	}
	return gaps, nil
}

// AuditLogs pages through the run history, newest first.
func (uc *ReportUsecase) AuditLogs(ctx context.Context, page, pageSize int) ([]model.AuditLog, *response.Pagination, error) {
	if pageSize <= 0 {
		pageSize = DefaultAuditLimit
	}
	if pageSize > MaxAuditLimit {
		pageSize = MaxAuditLimit
	}
	if page <= 0 {
		page = 1
	}
	total, err := uc.auditRepo.Count(ctx)
	if err != nil {
		return []model.AuditLog{}, nil, err
	}
	offset := (page - 1) * pageSize
	logs, err := uc.auditRepo.ListRecent(ctx, pageSize, offset)
	if err != nil {
		return []model.AuditLog{}, nil, err
	}
	return logs, response.NewPagination(page, pageSize, total, len(logs)), nil
}
