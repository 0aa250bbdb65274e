package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Puru1375/ai-smart-internship-allocation/internal/apperror"
	"github.com/Puru1375/ai-smart-internship-allocation/internal/config"
	"github.com/Puru1375/ai-smart-internship-allocation/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestOptimizer(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *OptimizerService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOptimizerService(&config.OptimizerConfig{BaseURL: srv.URL, Timeout: timeout}, zap.NewNop())
}

func TestOptimizeSendsContractAndParsesPairs(t *testing.T) {
	var got dto.OptimizeRequest
	svc := newTestOptimizer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/optimize", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"status":"Optimal","matches":[{"student_id":1,"internship_id":10,"score":90,"reasons":["skill match: python"]},{"student_id":2,"internship_id":10,"score":40.5}]}`))
	}, time.Second)

	req := dto.OptimizeRequest{
		Students:         []dto.OptimizerStudent{{ID: 1, Skills: []string{"python"}, Category: "General"}},
		Internships:      []dto.OptimizerInternship{{ID: 10, RequiredSkills: []string{"python"}, Capacity: 1}},
		MinCategoryQuota: 0.2,
	}
	pairs, err := svc.Optimize(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, req, got)
	require.Len(t, pairs, 2)
	assert.Equal(t, dto.ProposedPair{StudentID: 1, InternshipID: 10, Score: 90, Reasons: []string{"skill match: python"}}, pairs[0])
	assert.Equal(t, []string{}, pairs[1].Reasons)
	assert.Equal(t, 40.5, pairs[1].Score)
}

func TestOptimizeEmptyResultIsNotAnError(t *testing.T) {
	svc := newTestOptimizer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"matches":[]}`))
	}, time.Second)

	pairs, err := svc.Optimize(context.Background(), dto.OptimizeRequest{})
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestOptimizeFailuresMapToUnavailable(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		timeout time.Duration
		delay   time.Duration
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"detail":"boom"}`},
		{name: "not json", status: http.StatusOK, body: `<html>`},
		{name: "solver missing", status: http.StatusOK, body: `{"error":"Solver not found"}`},
		{name: "string id", status: http.StatusOK, body: `{"matches":[{"student_id":"1","internship_id":10,"score":50}]}`},
		{name: "fractional id", status: http.StatusOK, body: `{"matches":[{"student_id":1.5,"internship_id":10,"score":50}]}`},
		{name: "score out of range", status: http.StatusOK, body: `{"matches":[{"student_id":1,"internship_id":10,"score":150}]}`},
		{name: "bad reasons", status: http.StatusOK, body: `{"matches":[{"student_id":1,"internship_id":10,"score":50,"reasons":[1]}]}`},
		{name: "timeout", status: http.StatusOK, body: `{"matches":[]}`, timeout: 50 * time.Millisecond, delay: 300 * time.Millisecond},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			timeout := tc.timeout
			if timeout == 0 {
				timeout = time.Second
			}
			svc := newTestOptimizer(t, func(w http.ResponseWriter, r *http.Request) {
				if tc.delay > 0 {
					time.Sleep(tc.delay)
				}
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}, timeout)

			_, err := svc.Optimize(context.Background(), dto.OptimizeRequest{})
			require.Error(t, err)
			assert.Equal(t, apperror.KindOptimizerUnavailable, apperror.KindOf(err))
		})
	}
}

func TestOptimizeDoesNotRetry(t *testing.T) {
	calls := 0
	svc := newTestOptimizer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}, time.Second)

	_, err := svc.Optimize(context.Background(), dto.OptimizeRequest{})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestOptimizeUnreachable(t *testing.T) {
	svc := NewOptimizerService(&config.OptimizerConfig{BaseURL: "http://127.0.0.1:1", Timeout: time.Second}, zap.NewNop())
	_, err := svc.Optimize(context.Background(), dto.OptimizeRequest{})
	assert.True(t, apperror.Is(err, apperror.KindOptimizerUnavailable))
}

func TestAnalyzeGap(t *testing.T) {
	var got dto.GapRequest
	svc := newTestOptimizer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/analyze-gap", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"gaps":[{"skill":"sql","missed_opportunities":3},{"skill":"react","missed_opportunities":1}]}`))
	}, time.Second)

	req := dto.GapRequest{
		StudentSkills: []string{"python"},
		Internships:   []dto.GapInternship{{ID: 10, RequiredSkills: []string{"python", "sql"}, Capacity: 2, Location: "Pune"}},
	}
	gaps, err := svc.AnalyzeGap(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, req, got)
	assert.Equal(t, []dto.SkillGap{{Skill: "sql", MissedOpportunities: 3}, {Skill: "react", MissedOpportunities: 1}}, gaps)
}

func TestAnalyzeGapMalformed(t *testing.T) {
	svc := newTestOptimizer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"gaps":[{"skill":"","missed_opportunities":3}]}`))
	}, time.Second)

	_, err := svc.AnalyzeGap(context.Background(), dto.GapRequest{})
	assert.True(t, apperror.Is(err, apperror.KindOptimizerUnavailable))
}
