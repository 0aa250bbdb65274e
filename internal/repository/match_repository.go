package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Puru1375/ai-smart-internship-allocation/internal/apperror"
	"github.com/Puru1375/ai-smart-internship-allocation/internal/dto"
	"github.com/Puru1375/ai-smart-internship-allocation/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MatchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(db *gorm.DB) *MatchRepository {
	return &MatchRepository{db}
}

// Transaction runs fn in a single database transaction.
func (r *MatchRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// WithTx binds the repository to an open transaction.
func (r *MatchRepository) WithTx(tx *gorm.DB) *MatchRepository {
	return &MatchRepository{tx}
}

// LockAll reads every match row and holds a write lock on them until the
// surrounding transaction ends.
func (r *MatchRepository) LockAll(ctx context.Context) ([]model.Match, error) {
	var matches []model.Match
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Order("created_at").
		Order("id").
		Find(&matches).Error
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, "failed to lock matches", err)
	}
	return matches, nil
}

// DeleteProposed removes the given matches, skipping any that are no longer proposed.
func (r *MatchRepository) DeleteProposed(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Where("id IN ? AND status = ?", ids, string(model.MatchStatusProposed)).
		Delete(&model.Match{})
	if res.Error != nil {
		return 0, apperror.Wrap(apperror.KindInternal, "failed to delete stale proposals", res.Error)
	}
	return res.RowsAffected, nil
}

// RefreshProposal rewrites score and reasons of a match that is still proposed.
func (r *MatchRepository) RefreshProposal(ctx context.Context, id uuid.UUID, score float64, reasons []string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Match{}).
		Where("id = ? AND status = ?", id, string(model.MatchStatusProposed)).
		Updates(map[string]any{
			"score":      score,
			"reasons":    model.StringList(reasons),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, apperror.Wrap(apperror.KindInternal, "failed to refresh proposal", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *MatchRepository) CreateBatch(ctx context.Context, matches []model.Match) error {
	if len(matches) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&matches).Error; err != nil {
		return apperror.Wrap(apperror.KindInternal, "failed to insert proposals", err)
	}
	return nil
}

func (r *MatchRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Match{}).Count(&n).Error; err != nil {
		return 0, apperror.Wrap(apperror.KindInternal, "failed to count matches", err)
	}
	return n, nil
}

func (r *MatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Match, error) {
	var m model.Match
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Wrap(apperror.KindNotFound, "match not found", err)
	}
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, "failed to load match", err)
	}
	return &m, nil
}

// OwnerOf returns the organisation that owns the match's internship.
func (r *MatchRepository) OwnerOf(ctx context.Context, id uuid.UUID) (string, error) {
	var owners []string
	err := r.db.WithContext(ctx).
		Table("matches AS m").
		Joins("JOIN internships i ON i.id = m.internship_id").
		Where("m.id = ?", id).
		Limit(1).
		Pluck("i.company_user_id", &owners).Error
	if err != nil {
		return "", apperror.Wrap(apperror.KindInternal, "failed to load match owner", err)
	}
	if len(owners) == 0 {
		return "", apperror.New(apperror.KindNotFound, "match not found")
	}
	return owners[0], nil
}

// UpdateStatusFrom sets the status only if the row is currently in one of
// the given states. The check and the write are one statement.
func (r *MatchRepository) UpdateStatusFrom(ctx context.Context, id uuid.UUID, to model.MatchStatus, from []model.MatchStatus) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Match{}).
		Where("id = ? AND status IN ?", id, statusStrings(from)).
		Updates(map[string]any{
			"status":     string(to),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, apperror.Wrap(apperror.KindInternal, "failed to update match status", res.Error)
	}
	return res.RowsAffected, nil
}

type matchViewRow struct {
	MatchID       uuid.UUID
	ApplicantID   int64
	FullName      string
	Category      string
	StudentSkills model.StringList
	InternshipID  int64
	JobTitle      string
	Location      string
	CompanyUserID string
	MatchScore    float64
	MatchReason   model.StringList
	Status        string
	CreatedAt     time.Time
}

func (r *MatchRepository) viewQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("matches AS m").
		Select(`m.id AS match_id, m.applicant_id, a.full_name,
			COALESCE(NULLIF(a.social_category, ''), 'General') AS category,
			a.skills AS student_skills, m.internship_id, i.title AS job_title,
			COALESCE(i.location, '') AS location, i.company_user_id,
			m.score AS match_score, m.reasons AS match_reason, m.status, m.created_at`).
		Joins("JOIN applicants a ON a.id = m.applicant_id").
		Joins("JOIN internships i ON i.id = m.internship_id")
}

func (r *MatchRepository) scanViews(q *gorm.DB) ([]dto.MatchView, error) {
	var rows []matchViewRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, "failed to load matches", err)
	}
	views := make([]dto.MatchView, 0, len(rows))
	for _, row := range rows {
		views = append(views, dto.MatchView{
			MatchID:       row.MatchID,
			ApplicantID:   row.ApplicantID,
			FullName:      row.FullName,
			Category:      row.Category,
			StudentSkills: []string(row.StudentSkills),
			InternshipID:  row.InternshipID,
			JobTitle:      row.JobTitle,
			Location:      row.Location,
			CompanyUserID: row.CompanyUserID,
			MatchScore:    row.MatchScore,
			MatchReason:   []string(row.MatchReason),
			Status:        row.Status,
			CreatedAt:     row.CreatedAt,
		})
	}
	return views, nil
}

// ListViews returns every match, best score first.
func (r *MatchRepository) ListViews(ctx context.Context) ([]dto.MatchView, error) {
	return r.scanViews(r.viewQuery(ctx).Order("m.score DESC").Order("m.id"))
}

// ListViewsForApplicant returns the applicant's matches, live ones first.
func (r *MatchRepository) ListViewsForApplicant(ctx context.Context, applicantID int64) ([]dto.MatchView, error) {
	return r.scanViews(r.viewQuery(ctx).
		Where("m.applicant_id = ?", applicantID).
		Order("CASE WHEN m.status = 'rejected' THEN 1 ELSE 0 END").
		Order("m.created_at DESC"))
}

func (r *MatchRepository) ListViewsForCompany(ctx context.Context, companyUserID string) ([]dto.MatchView, error) {
	return r.scanViews(r.viewQuery(ctx).
		Where("i.company_user_id = ?", companyUserID).
		Order("m.score DESC").
		Order("m.id"))
}

type categoryRow struct {
	Category string
	Count    int64
}

// CountByCategory groups match rows by the applicant's social category. It
// joins applicants the same way the match views do, so both agree on which
// rows exist.
func (r *MatchRepository) CountByCategory(ctx context.Context) ([]dto.CategoryCount, error) {
	const categoryExpr = "COALESCE(NULLIF(a.social_category, ''), 'General')"
	var rows []categoryRow
	err := r.db.WithContext(ctx).
		Table("matches AS m").
		Select(categoryExpr + " AS category, COUNT(*) AS count").
		Joins("JOIN applicants a ON a.id = m.applicant_id").
		Group(categoryExpr).
		Order("category").
		Scan(&rows).Error
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, "failed to aggregate matches", err)
	}
	out := make([]dto.CategoryCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, dto.CategoryCount{Category: row.Category, Count: row.Count})
	}
	return out, nil
}

func statusStrings(statuses []model.MatchStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
