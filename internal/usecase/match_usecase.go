package usecase

import (
	"context"
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/Puru1375/ai-smart-internship-allocation/internal/apperror"
	"github.com/Puru1375/ai-smart-internship-allocation/internal/dto"
	"github.com/Puru1375/ai-smart-internship-allocation/internal/metrics"
	"github.com/Puru1375/ai-smart-internship-allocation/internal/model"
	"github.com/Puru1375/ai-smart-internship-allocation/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// legalSources lists, per target status, the statuses a match may move from.
// Each target includes itself so a repeated request is a no-op.
var legalSources = map[model.MatchStatus][]model.MatchStatus{
	model.MatchStatusInterviewing: {model.MatchStatusProposed, model.MatchStatusInterviewing},
	model.MatchStatusHired:        {model.MatchStatusInterviewing, model.MatchStatusHired},
	model.MatchStatusRejected:     {model.MatchStatusProposed, model.MatchStatusInterviewing, model.MatchStatusRejected},
}

// CanTransition reports whether a company action may move a match from one status to another.
func CanTransition(from, to model.MatchStatus) bool {
	for _, s := range legalSources[to] {
		if s == from {
			return true
		}
	}
	return false
}

// ParseStatus accepts the canonical names plus the aliases the dashboards send.
func ParseStatus(raw string) (model.MatchStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "proposed", "suggested":
		return model.MatchStatusProposed, true
	case "interviewing", "interview":
		return model.MatchStatusInterviewing, true
	case "hired", "hire", "accepted", "accept":
		return model.MatchStatusHired, true
	case "rejected", "reject":
		return model.MatchStatusRejected, true
	default:
		return "", false
	}
}

type MatchUsecase struct {
	matchRepo     *repository.MatchRepository
	applicantRepo *repository.ApplicantRepository
	log           *zap.Logger
}

func NewMatchUsecase(matchRepo *repository.MatchRepository, applicantRepo *repository.ApplicantRepository, log *zap.Logger) *MatchUsecase {
	return &MatchUsecase{matchRepo: matchRepo, applicantRepo: applicantRepo, log: log}
}

// Transition applies a company action to a match owned by companyUserID.
// The status check happens inside the UPDATE, so the outcome reflects the
// row as it is when the write lands.
func (uc *MatchUsecase) Transition(ctx context.Context, companyUserID string, matchID uuid.UUID, rawStatus string) (*model.Match, error) {
	m, err := uc.transition(ctx, companyUserID, matchID, rawStatus)
	if err != nil {
		metrics.RecordTransition(statusLabel(rawStatus), string(apperror.KindOf(err)))
		uc.log.Error("match transition failed",
			zap.String("match_id", matchID.String()),
			zap.String("company_user_id", companyUserID),
			zap.String("status", rawStatus),
			zap.String("kind", string(apperror.KindOf(err))),
			zap.Error(err))
		return nil, err
	}
	metrics.RecordTransition(string(m.Status), "success")
	return m, nil
}

// statusLabel keeps the metric label set closed: unknown input is "invalid".
func statusLabel(rawStatus string) string {
	if target, ok := ParseStatus(rawStatus); ok {
		return string(target)
	}
	return "invalid"
}

func (uc *MatchUsecase) transition(ctx context.Context, companyUserID string, matchID uuid.UUID, rawStatus string) (*model.Match, error) {
	target, ok := ParseStatus(rawStatus)
	if !ok {
		return nil, apperror.New(apperror.KindValidation, "status must be interviewing, hired or rejected").
			WithDetails(map[string]any{"status": rawStatus})
	}

	owner, err := uc.matchRepo.OwnerOf(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if owner != companyUserID {
		return nil, apperror.New(apperror.KindForbidden, "match belongs to another organization")
	}

	sources, ok := legalSources[target]
	if ok {
		n, err := uc.matchRepo.UpdateStatusFrom(ctx, matchID, target, sources)
		if err != nil {
			return nil, err
		}
		if n == 1 {
			return uc.matchRepo.FindByID(ctx, matchID)
		}
	}

	current, err := uc.matchRepo.FindByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	return nil, apperror.InvalidTransition(string(current.Status), string(target))
}

func (uc *MatchUsecase) ListAll(ctx context.Context) ([]dto.MatchView, error) {
	views, err := uc.matchRepo.ListViews(ctx)
	if err != nil {
		return []dto.MatchView{}, err
	}
	return views, nil
}

// MyMatch returns the applicant's current match, preferring a live one over
// a rejected one.
func (uc *MatchUsecase) MyMatch(ctx context.Context, userID string) (*dto.MatchView, error) {
	applicant, err := uc.applicantRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	views, err := uc.matchRepo.ListViewsForApplicant(ctx, applicant.ID)
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, apperror.New(apperror.KindNotFound, "no match yet")
	}
	v := views[0]
	v.StudentSkills = nil
	v.CompanyName = companyDisplayName(v.CompanyUserID)
	return &v, nil
}

func (uc *MatchUsecase) CompanyMatches(ctx context.Context, companyUserID string) ([]dto.MatchView, error) {
	views, err := uc.matchRepo.ListViewsForCompany(ctx, companyUserID)
	if err != nil {
		return []dto.MatchView{}, err
	}
	return views, nil
}

var exportHeader = []string{"Match ID", "Student Name", "Category", "Job Role", "Score", "Status"}

// ExportCSV writes every match as a CSV report.
func (uc *MatchUsecase) ExportCSV(ctx context.Context, w io.Writer) error {
	views, err := uc.matchRepo.ListViews(ctx)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return apperror.Wrap(apperror.KindInternal, "failed to write report", err)
	}
	for _, v := range views {
		record := []string{
			v.MatchID.String(),
			v.FullName,
			v.Category,
			v.JobTitle,
			strconv.FormatFloat(math.Round(v.MatchScore), 'f', 0, 64),
			v.Status,
		}
		if err := cw.Write(record); err != nil {
			return apperror.Wrap(apperror.KindInternal, "failed to write report", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return apperror.Wrap(apperror.KindInternal, "failed to write report", err)
	}
	return nil
}

// companyDisplayName derives a label from the owning organization id. Ids
// that are e-mail addresses show their local part.
func companyDisplayName(companyUserID string) string {
	if at := strings.Index(companyUserID, "@"); at > 0 {
		return companyUserID[:at]
	}
	return "Industry Partner"
}
