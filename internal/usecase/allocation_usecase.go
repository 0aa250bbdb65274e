package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/Puru1375/ai-smart-internship-allocation/internal/apperror"
	"github.com/Puru1375/ai-smart-internship-allocation/internal/dto"
	"github.com/Puru1375/ai-smart-internship-allocation/internal/metrics"
	"github.com/Puru1375/ai-smart-internship-allocation/internal/model"
	"github.com/Puru1375/ai-smart-internship-allocation/internal/repository"
	"github.com/Puru1375/ai-smart-internship-allocation/internal/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const allocationLockName = "allocation-run"

type AllocationUsecase struct {
	applicantRepo  *repository.ApplicantRepository
	internshipRepo *repository.InternshipRepository
	matchRepo      *repository.MatchRepository
	auditRepo      *repository.AuditLogRepository
	optimizer      service.OptimizerServiceInterface
	locker         service.RunLocker
	lockWait       time.Duration
	log            *zap.Logger
}

func NewAllocationUsecase(
	applicantRepo *repository.ApplicantRepository,
	internshipRepo *repository.InternshipRepository,
	matchRepo *repository.MatchRepository,
	auditRepo *repository.AuditLogRepository,
	optimizer service.OptimizerServiceInterface,
	locker service.RunLocker,
	lockWait time.Duration,
	log *zap.Logger,
) *AllocationUsecase {
	return &AllocationUsecase{
		applicantRepo:  applicantRepo,
		internshipRepo: internshipRepo,
		matchRepo:      matchRepo,
		auditRepo:      auditRepo,
		optimizer:      optimizer,
		locker:         locker,
		lockWait:       lockWait,
		log:            log,
	}
}

// Run executes one allocation: build the request, call the optimizer and
// merge the result into the match store. The whole sequence holds the
// allocation lock, and the merge plus its audit entry commit together or
// not at all.
func (uc *AllocationUsecase) Run(ctx context.Context, actor string, quota float64) (*dto.AllocationResult, error) {
	result, err := uc.run(ctx, actor, quota)
	if err != nil {
		kind := apperror.KindOf(err)
		metrics.RecordRun(string(kind))
		uc.log.Error("allocation run failed",
			zap.String("actor", actor),
			zap.Float64("quota", quota),
			zap.String("kind", string(kind)),
			zap.Error(err))
		return nil, err
	}
	metrics.RecordRun("success")
	metrics.SetLiveMatches(result.TotalMatches)
	uc.log.Info("allocation run committed",
		zap.String("run_id", result.RunID.String()),
		zap.String("actor", actor),
		zap.Float64("quota", quota),
		zap.Int("total_matches", result.TotalMatches),
		zap.Int("proposed", result.Proposed),
		zap.Int("preserved", result.Preserved),
		zap.Int("removed", result.Removed),
		zap.Int("dropped", result.Dropped))
	return result, nil
}

func (uc *AllocationUsecase) run(ctx context.Context, actor string, quota float64) (*dto.AllocationResult, error) {
	if err := ValidateQuota(quota); err != nil {
		return nil, err
	}

	lockCtx, cancel := context.WithTimeout(ctx, uc.lockWait)
	release, err := uc.locker.Acquire(lockCtx, allocationLockName)
	cancel()
	if err != nil {
		return nil, err
	}
	defer release()

	applicants, err := uc.applicantRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	internships, err := uc.internshipRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	req, err := BuildOptimizeRequest(applicants, internships, quota)
	if err != nil {
		return nil, err
	}

	pairs, err := uc.optimizer.Optimize(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, apperror.Wrap(apperror.KindOptimizerUnavailable, "allocation run was cancelled", err)
	}

	categories := make(map[int64]string, len(req.Students))
	for _, s := range req.Students {
		categories[s.ID] = s.Category
	}
	capacity := make(map[int64]int, len(req.Internships))
	for _, in := range req.Internships {
		capacity[in.ID] = in.Capacity
	}
	pairs, unknown := filterUnknownApplicants(pairs, categories)

	var result dto.AllocationResult
	err = uc.matchRepo.Transaction(ctx, func(tx *gorm.DB) error {
		matches := uc.matchRepo.WithTx(tx)

		existing, err := matches.LockAll(ctx)
		if err != nil {
			return err
		}
		plan := PlanMerge(existing, pairs, capacity)
		plan.Dropped = append(unknown, plan.Dropped...)
		uc.logDropped(plan.Dropped)

		removed, err := matches.DeleteProposed(ctx, plan.Deletes)
		if err != nil {
			return err
		}
		for _, m := range plan.Refreshes {
			n, err := matches.RefreshProposal(ctx, m.ID, m.Score, m.Reasons)
			if err != nil {
				return err
			}
			if n != 1 {
				return apperror.New(apperror.KindInternal, "proposal changed during merge")
			}
		}
		if err := matches.CreateBatch(ctx, plan.Inserts); err != nil {
			return err
		}
		total, err := matches.Count(ctx)
		if err != nil {
			return err
		}

		proposed := len(plan.Refreshes) + len(plan.Inserts)
		entry := model.AuditLog{
			Action:     model.AuditActionRunAllocation,
			Actor:      actor,
			Quota:      quota,
			MatchCount: int(total),
			Details:    uc.summary(quota, proposed, int(total), plan, categories),
		}
		if err := uc.auditRepo.WithTx(tx).Create(ctx, &entry); err != nil {
			return err
		}

		result = dto.AllocationResult{
			RunID:        entry.ID,
			Quota:        quota,
			TotalMatches: int(total),
			Proposed:     proposed,
			Preserved:    plan.Preserved,
			Removed:      int(removed),
			Dropped:      len(plan.Dropped),
		}
		return nil
	})
	if err != nil {
		var appErr *apperror.Error
		if !errors.As(err, &appErr) {
			err = apperror.Wrap(apperror.KindInternal, "failed to commit allocation", err)
		}
		return nil, err
	}
	return &result, nil
}

func filterUnknownApplicants(pairs []dto.ProposedPair, known map[int64]string) ([]dto.ProposedPair, []DroppedPair) {
	kept := make([]dto.ProposedPair, 0, len(pairs))
	var dropped []DroppedPair
	for _, p := range pairs {
		if _, ok := known[p.StudentID]; !ok {
			dropped = append(dropped, DroppedPair{Pair: p, Reason: DropUnknownApplicant})
			continue
		}
		kept = append(kept, p)
	}
	return kept, dropped
}

func (uc *AllocationUsecase) logDropped(dropped []DroppedPair) {
	for _, d := range dropped {
		uc.log.Warn("dropping optimizer pair",
			zap.Int64("student_id", d.Pair.StudentID),
			zap.Int64("internship_id", d.Pair.InternshipID),
			zap.String("reason", d.Reason))
	}
}

// summary also records when the proposals fall short of the requested
// reserved-category share. The optimizer owns the quota; this is a note,
// not a failure.
func (uc *AllocationUsecase) summary(quota float64, proposed, total int, plan MergePlan, categories map[int64]string) string {
	s := fmt.Sprintf("Executed optimizer with quota: %s%% | matches generated: %d | live matches: %d",
		percent(quota), proposed, total)
	if proposed == 0 || quota == 0 {
		return s
	}
	reserved := 0
	for _, m := range plan.Refreshes {
		if model.IsReservedCategory(categories[m.ApplicantID]) {
			reserved++
		}
	}
	for _, m := range plan.Inserts {
		if model.IsReservedCategory(categories[m.ApplicantID]) {
			reserved++
		}
	}
	share := float64(reserved) / float64(proposed)
	if share < quota {
		uc.log.Warn("optimizer result below requested quota",
			zap.Float64("quota", quota),
			zap.Float64("reserved_share", share))
		s += fmt.Sprintf(" | reserved share %s%% below quota", percent(share))
	}
	return s
}

func percent(fraction float64) string {
	return strconv.FormatFloat(math.Round(fraction*10000)/100, 'f', -1, 64)
}
