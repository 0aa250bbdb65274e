package usecase

import (
	"github.com/Puru1375/ai-smart-internship-allocation/internal/dto"
	"github.com/Puru1375/ai-smart-internship-allocation/internal/model"
	"github.com/google/uuid"
)

const (
	DropUnknownApplicant  = "unknown applicant"
	DropUnknownInternship = "unknown internship"
	DropDuplicate         = "applicant already assigned in this run"
	DropInPipeline        = "applicant is already interviewing or hired"
	DropRejectedBefore    = "company already rejected this pair"
	DropAtCapacity        = "internship is at capacity"
)

type DroppedPair struct {
	Pair   dto.ProposedPair
	Reason string
}

// MergePlan is the set of writes that moves the match store from the
// existing rows to the optimizer's new proposals.
type MergePlan struct {
	Deletes   []uuid.UUID
	Refreshes []model.Match
	Inserts   []model.Match
	Preserved int
	Dropped   []DroppedPair
}

type pairKey struct {
	applicant  int64
	internship int64
}

// PlanMerge reconciles existing matches with the optimizer result.
//
// Interviewing, hired and rejected rows are never touched. An applicant
// holding an interviewing or hired match gets no new proposal. A proposed
// row is kept (with fresh score and reasons) when the optimizer proposes the
// same pair again, replaced when it proposes a different internship, and
// removed otherwise. Seats held by interviewing and hired matches count
// against capacity; capacity lists every known internship.
func PlanMerge(existing []model.Match, pairs []dto.ProposedPair, capacity map[int64]int) MergePlan {
	var plan MergePlan

	inPipeline := make(map[int64]bool)
	proposedBy := make(map[int64]model.Match)
	rejected := make(map[pairKey]bool)
	seats := make(map[int64]int)
	for _, m := range existing {
		switch {
		case !m.Status.Advanced():
			proposedBy[m.ApplicantID] = m
			continue
		case m.Status.HoldsSeat():
			inPipeline[m.ApplicantID] = true
			seats[m.InternshipID]++
		default:
			rejected[pairKey{m.ApplicantID, m.InternshipID}] = true
		}
		plan.Preserved++
	}

	accepted := make(map[int64]dto.ProposedPair)
	order := make([]int64, 0, len(pairs))
	for _, p := range pairs {
		reason := ""
		limit, known := capacity[p.InternshipID]
		switch {
		case !known:
			reason = DropUnknownInternship
		case hasApplicant(accepted, p.StudentID):
			reason = DropDuplicate
		case inPipeline[p.StudentID]:
			reason = DropInPipeline
		case rejected[pairKey{p.StudentID, p.InternshipID}]:
			reason = DropRejectedBefore
		case seats[p.InternshipID] >= limit:
			reason = DropAtCapacity
		}
		if reason != "" {
			plan.Dropped = append(plan.Dropped, DroppedPair{Pair: p, Reason: reason})
			continue
		}
		seats[p.InternshipID]++
		accepted[p.StudentID] = p
		order = append(order, p.StudentID)
	}

	for _, m := range existing {
		if m.Status.Advanced() {
			continue
		}
		p, ok := accepted[m.ApplicantID]
		if ok && p.InternshipID == m.InternshipID {
			m.Score = p.Score
			m.Reasons = model.StringList(reasonsOrEmpty(p.Reasons))
			plan.Refreshes = append(plan.Refreshes, m)
			continue
		}
		plan.Deletes = append(plan.Deletes, m.ID)
	}

	for _, applicantID := range order {
		p := accepted[applicantID]
		if m, ok := proposedBy[applicantID]; ok && m.InternshipID == p.InternshipID {
			continue
		}
		plan.Inserts = append(plan.Inserts, model.Match{
			ApplicantID:  p.StudentID,
			InternshipID: p.InternshipID,
			Score:        p.Score,
			Reasons:      model.StringList(reasonsOrEmpty(p.Reasons)),
			Status:       model.MatchStatusProposed,
		})
	}
	return plan
}

func hasApplicant(accepted map[int64]dto.ProposedPair, applicantID int64) bool {
	_, ok := accepted[applicantID]
	return ok
}

func reasonsOrEmpty(reasons []string) []string {
	if reasons == nil {
		return []string{}
	}
	return reasons
}
