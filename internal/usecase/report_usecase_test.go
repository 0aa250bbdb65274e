package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/Puru1375/ai-smart-internship-allocation/internal/apperror"
	"github.com/Puru1375/ai-smart-internship-allocation/internal/dto"
	"github.com/Puru1375/ai-smart-internship-allocation/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFairness(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stats, err := f.reports.Fairness(ctx)
	require.NoError(t, err)
	assert.Empty(t, stats.Categories)
	assert.Zero(t, stats.TotalMatches)

	f.addApplicant(t, 1, "General", "go")
	f.addApplicant(t, 2, "SC", "go")
	f.addApplicant(t, 3, "", "go")
	f.addApplicant(t, 4, "SC", "go")
	f.addInternship(t, 10, 4, "company-1", "go")
	f.optimizer.set(pair(1, 10, 90), pair(2, 10, 80), pair(3, 10, 70), pair(4, 10, 60))
	_, err = f.allocation.Run(ctx, "admin", 0.25)
	require.NoError(t, err)

	stats, err = f.reports.Fairness(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalMatches)
	assert.Equal(t, []dto.CategoryCount{
		{Category: "General", Count: 2, Share: 0.5},
		{Category: "SC", Count: 2, Share: 0.5},
	}, stats.Categories)
	assert.Equal(t, 0.5, stats.ReservedShare)
}

func TestSkillGap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addApplicant(t, 1, "General", "Python")
	f.addInternship(t, 10, 1, "company-1", "python", "docker")
	f.optimizer.gaps = []dto.SkillGap{{Skill: "docker", MissedOpportunities: 1}}

	gaps, err := f.reports.SkillGap(ctx, "student-1")
	require.NoError(t, err)
	assert.Equal(t, []dto.SkillGap{{Skill: "docker", MissedOpportunities: 1}}, gaps)
	assert.Equal(t, []string{"python"}, f.optimizer.lastGap.StudentSkills)
	require.Len(t, f.optimizer.lastGap.Internships, 1)

	_, err = f.reports.SkillGap(ctx, "nobody")
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	f.optimizer.err = apperror.New(apperror.KindOptimizerUnavailable, "down")
	gaps, err = f.reports.SkillGap(ctx, "student-1")
	assert.Equal(t, apperror.KindOptimizerUnavailable, apperror.KindOf(err))
	assert.Empty(t, gaps)
}

func TestAuditLogsNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addApplicant(t, 1, "General", "go")
	f.addInternship(t, 10, 1, "company-1", "go")
	f.optimizer.set(pair(1, 10, 90))

	var ids []string
	for _, q := range []float64{0, 0.1, 0.2} {
		res, err := f.allocation.Run(ctx, "admin", q)
		require.NoError(t, err)
		ids = append(ids, res.RunID.String())
		time.Sleep(5 * time.Millisecond)
	}

	logs, page, err := f.reports.AuditLogs(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, ids[2], logs[0].ID.String())
	assert.Equal(t, ids[1], logs[1].ID.String())
	assert.Equal(t, int64(3), page.TotalItems)
	assert.True(t, page.HasMore)

	logs, page, err = f.reports.AuditLogs(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, ids[0], logs[0].ID.String())
	assert.False(t, page.HasMore)

	_, page, err = f.reports.AuditLogs(ctx, 0, 10000)
	require.NoError(t, err)
	assert.Equal(t, MaxAuditLimit, page.PageSize)
	assert.Equal(t, 1, page.Page)
}

func TestFairnessAgreesWithMatchViews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addApplicant(t, 1, "General", "go")
	f.addApplicant(t, 2, "ST", "go")
	f.addInternship(t, 10, 2, "company-1", "go")
	f.optimizer.set(pair(1, 10, 90), pair(2, 10, 80))
	_, err := f.allocation.Run(ctx, "admin", 0)
	require.NoError(t, err)

	var m2 model.Match
	require.NoError(t, f.db.First(&m2, "applicant_id = ?", 2).Error)
	_, err = f.matches.Transition(ctx, "company-1", m2.ID, "interviewing")
	require.NoError(t, err)
	require.NoError(t, f.db.Exec("DELETE FROM applicants WHERE id = ?", 2).Error)

	stats, err := f.reports.Fairness(ctx)
	require.NoError(t, err)
	views, err := f.matches.ListAll(ctx)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, f.matches.ExportCSV(ctx, &buf))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)

	assert.Equal(t, int64(1), stats.TotalMatches)
	assert.Len(t, views, 1)
	assert.Len(t, records, 2)
	assert.Equal(t, []dto.CategoryCount{{Category: "General", Count: 1, Share: 1}}, stats.Categories)
	assert.Zero(t, stats.ReservedShare)
}
