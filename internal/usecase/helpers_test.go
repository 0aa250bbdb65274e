package usecase

import (
	"context"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Puru1375/ai-smart-internship-allocation/internal/dto"
	"github.com/Puru1375/ai-smart-internship-allocation/internal/model"
	"github.com/Puru1375/ai-smart-internship-allocation/internal/repository"
	"github.com/Puru1375/ai-smart-internship-allocation/internal/service"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeOptimizer struct {
	mu       sync.Mutex
	pairs    []dto.ProposedPair
	gaps     []dto.SkillGap
	err      error
	calls    int
	lastReq  dto.OptimizeRequest
	lastGap  dto.GapRequest
	delay    time.Duration
	inFlight int32
	maxSeen  int32
}

func (f *fakeOptimizer) Optimize(ctx context.Context, req dto.OptimizeRequest) ([]dto.ProposedPair, error) {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		m := atomic.LoadInt32(&f.maxSeen)
		if n <= m || atomic.CompareAndSwapInt32(&f.maxSeen, m, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return append([]dto.ProposedPair(nil), f.pairs...), nil
}

func (f *fakeOptimizer) AnalyzeGap(ctx context.Context, req dto.GapRequest) ([]dto.SkillGap, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastGap = req
	if f.err != nil {
		return nil, f.err
	}
	return f.gaps, nil
}

func (f *fakeOptimizer) set(pairs ...dto.ProposedPair) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pairs = pairs
	f.err = nil
}

type fixture struct {
	db         *gorm.DB
	optimizer  *fakeOptimizer
	allocation *AllocationUsecase
	matches    *MatchUsecase
	reports    *ReportUsecase
	matchRepo  *repository.MatchRepository
	auditRepo  *repository.AuditLogRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "allocation.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, model.Migrate(db))

	opt := &fakeOptimizer{}
	applicants := repository.NewApplicantRepository(db)
	internships := repository.NewInternshipRepository(db)
	matches := repository.NewMatchRepository(db)
	audits := repository.NewAuditLogRepository(db)
	log := zap.NewNop()
	return &fixture{
		db:         db,
		optimizer:  opt,
		allocation: NewAllocationUsecase(applicants, internships, matches, audits, opt, service.NewLocalRunLocker(), 5*time.Second, log),
		matches:    NewMatchUsecase(matches, applicants, log),
		reports:    NewReportUsecase(matches, applicants, internships, audits, opt),
		matchRepo:  matches,
		auditRepo:  audits,
	}
}

func strPtr(s string) *string { return &s }

func (f *fixture) addApplicant(t *testing.T, id int64, category string, skills ...string) {
	t.Helper()
	a := model.Applicant{
		ID:       id,
		UserID:   "student-" + itoa(id),
		FullName: "Student " + itoa(id),
		Skills:   model.StringList(skills),
	}
	if category != "" {
		a.SocialCategory = strPtr(category)
	}
	require.NoError(t, f.db.Create(&a).Error)
}

func (f *fixture) addInternship(t *testing.T, id int64, capacity int, company string, skills ...string) {
	t.Helper()
	in := model.Internship{
		ID:             id,
		CompanyUserID:  company,
		Title:          "Internship " + itoa(id),
		RequiredSkills: model.StringList(skills),
		Capacity:       capacity,
		Location:       strPtr("Pune"),
	}
	require.NoError(t, f.db.Create(&in).Error)
}

func (f *fixture) allMatches(t *testing.T) []model.Match {
	t.Helper()
	var ms []model.Match
	require.NoError(t, f.db.Order("applicant_id").Order("internship_id").Find(&ms).Error)
	return ms
}

func (f *fixture) auditCount(t *testing.T) int64 {
	t.Helper()
	n, err := f.auditRepo.Count(context.Background())
	require.NoError(t, err)
	return n
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func pair(student, internship int64, score float64, reasons ...string) dto.ProposedPair {
	return dto.ProposedPair{StudentID: student, InternshipID: internship, Score: score, Reasons: reasons}
}
