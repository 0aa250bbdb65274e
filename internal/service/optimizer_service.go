package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/Puru1375/ai-smart-internship-allocation/internal/apperror"
	"github.com/Puru1375/ai-smart-internship-allocation/internal/config"
	"github.com/Puru1375/ai-smart-internship-allocation/internal/dto"
	"github.com/Puru1375/ai-smart-internship-allocation/internal/metrics"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	optimizeEndpoint = "/optimize"
	gapEndpoint      = "/analyze-gap"
)

type OptimizerServiceInterface interface {
	Optimize(ctx context.Context, req dto.OptimizeRequest) ([]dto.ProposedPair, error)
	AnalyzeGap(ctx context.Context, req dto.GapRequest) ([]dto.SkillGap, error)
}

// OptimizerService talks to the external assignment engine. It never retries:
// a failed run has to be triggered again by the caller.
type OptimizerService struct {
	client *resty.Client
	log    *zap.Logger
}

func NewOptimizerService(cfg *config.OptimizerConfig, log *zap.Logger) *OptimizerService {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &OptimizerService{client: client, log: log}
}

func (s *OptimizerService) Optimize(ctx context.Context, req dto.OptimizeRequest) ([]dto.ProposedPair, error) {
	raw, err := s.post(ctx, optimizeEndpoint, req)
	if err != nil {
		return nil, err
	}
	pairs, err := parseMatches(raw)
	if err != nil {
		s.log.Error("optimizer returned malformed matches", zap.Error(err))
		return nil, apperror.Wrap(apperror.KindOptimizerUnavailable, "optimizer returned a malformed response", err)
	}
	return pairs, nil
}

func (s *OptimizerService) AnalyzeGap(ctx context.Context, req dto.GapRequest) ([]dto.SkillGap, error) {
	raw, err := s.post(ctx, gapEndpoint, req)
	if err != nil {
		return nil, err
	}
	gaps, err := parseGaps(raw)
	if err != nil {
		s.log.Error("optimizer returned malformed gaps", zap.Error(err))
		return nil, apperror.Wrap(apperror.KindOptimizerUnavailable, "optimizer returned a malformed response", err)
	}
	return gaps, nil
}

func (s *OptimizerService) post(ctx context.Context, endpoint string, body any) (string, error) {
	start := time.Now()
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(endpoint)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		metrics.ObserveOptimizer(endpoint, "transport_error", elapsed)
		s.log.Error("optimizer request failed", zap.String("endpoint", endpoint), zap.Error(err))
		return "", apperror.Wrap(apperror.KindOptimizerUnavailable, "optimizer is unreachable", err)
	}
	if code := resp.StatusCode(); code < 200 || code >= 300 {
		metrics.ObserveOptimizer(endpoint, "http_error", elapsed)
		s.log.Error("optimizer responded with error status",
			zap.String("endpoint", endpoint),
			zap.Int("status", code),
			zap.String("body", truncate(resp.String(), 512)))
		return "", apperror.New(apperror.KindOptimizerUnavailable, fmt.Sprintf("optimizer responded with status %d", code))
	}
	metrics.ObserveOptimizer(endpoint, "success", elapsed)
	return resp.String(), nil
}

func parseMatches(raw string) ([]dto.ProposedPair, error) {
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("response is not valid JSON")
	}
	matches := gjson.Get(raw, "matches")
	if !matches.IsArray() {
		return nil, fmt.Errorf("response has no matches array")
	}
	pairs := make([]dto.ProposedPair, 0, len(matches.Array()))
	for i, item := range matches.Array() {
		studentID, err := integerField(item, "student_id")
		if err != nil {
			return nil, fmt.Errorf("matches[%d]: %w", i, err)
		}
		internshipID, err := integerField(item, "internship_id")
		if err != nil {
			return nil, fmt.Errorf("matches[%d]: %w", i, err)
		}
		score := item.Get("score")
		if score.Type != gjson.Number || score.Num < 0 || score.Num > 100 {
			return nil, fmt.Errorf("matches[%d]: score must be a number within 0..100", i)
		}
		reasons, err := stringList(item.Get("reasons"))
		if err != nil {
			return nil, fmt.Errorf("matches[%d]: %w", i, err)
		}
		pairs = append(pairs, dto.ProposedPair{
			StudentID:    studentID,
			InternshipID: internshipID,
			Score:        score.Num,
			Reasons:      reasons,
		})
	}
	return pairs, nil
}

func parseGaps(raw string) ([]dto.SkillGap, error) {
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("response is not valid JSON")
	}
	gapsResult := gjson.Get(raw, "gaps")
	if !gapsResult.IsArray() {
		return nil, fmt.Errorf("response has no gaps array")
	}
	gaps := make([]dto.SkillGap, 0, len(gapsResult.Array()))
	for i, item := range gapsResult.Array() {
		skill := item.Get("skill")
		if skill.Type != gjson.String || skill.Str == "" {
			return nil, fmt.Errorf("gaps[%d]: skill must be a non-empty string", i)
		}
		missed, err := integerField(item, "missed_opportunities")
		if err != nil || missed < 0 {
			return nil, fmt.Errorf("gaps[%d]: missed_opportunities must be a non-negative integer", i)
		}
		gaps = append(gaps, dto.SkillGap{Skill: skill.Str, MissedOpportunities: int(missed)})
	}
	return gaps, nil
}

func integerField(item gjson.Result, name string) (int64, error) {
	v := item.Get(name)
	if v.Type != gjson.Number || v.Num != math.Trunc(v.Num) {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return v.Int(), nil
}

// stringList accepts a missing field as an empty list.
func stringList(v gjson.Result) ([]string, error) {
	if !v.Exists() || v.Type == gjson.Null {
		return []string{}, nil
	}
	if !v.IsArray() {
		return nil, fmt.Errorf("reasons must be an array of strings")
	}
	out := make([]string, 0, len(v.Array()))
	for _, r := range v.Array() {
		if r.Type != gjson.String {
			return nil, fmt.Errorf("reasons must be an array of strings")
		}
		out = append(out, r.Str)
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
