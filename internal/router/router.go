// Package router 는 능력 탐지, 점수 계산, 순차 폴백으로 프롬프트를 프로바이더에 배정한다.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/capability"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/domain"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/metrics"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/provider"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/scoring"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/telemetry"
)

// AutoPreference 는 선호 모델 미지정과 같게 취급된다.
const AutoPreference = "auto"

// Credentials 는 프로바이더 이름으로 API 키를 조회한다.
type Credentials interface {
	Key(provider string) string
}

// Candidate: 점수가 매겨진 적격 어댑터입니다.
type Candidate struct {
	Adapter provider.Adapter
	Score   float64
}

// Router: 요청별 상태를 갖지 않는 디스패처입니다. 동시 호출에 안전합니다.
type Router struct {
	adapters []provider.Adapter
	creds    Credentials
	detector *capability.Detector
	metrics  *metrics.Store
	logger   *slog.Logger
	tracer   trace.Tracer
}

// New: 라우터를 생성합니다. adapters 순서가 동점 처리 순서입니다.
func New(adapters []provider.Adapter, creds Credentials, detector *capability.Detector, store *metrics.Store, logger *slog.Logger) *Router {
	if detector == nil {
		detector = capability.NewDetector()
	}
	if store == nil {
		store = metrics.NewStore()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		adapters: adapters,
		creds:    creds,
		detector: detector,
		metrics:  store,
		logger:   logger,
		tracer:   telemetry.Tracer(),
	}
}

// ListProviders: 카탈로그 순서대로 디스크립터를 반환합니다. Available 은 조회 시점 자격 증명 기준입니다.
func (r *Router) ListProviders() []domain.ProviderDescriptor {
	out := make([]domain.ProviderDescriptor, 0, len(r.adapters))
	for _, a := range r.adapters {
		desc := a.Descriptor()
		desc.Available = r.hasCredential(desc.Provider)
		out = append(out, desc)
	}
	return out
}

// Detect: 프롬프트의 능력 프로파일을 반환합니다.
func (r *Router) Detect(prompt string) domain.CapabilityProfile {
	return r.detector.Detect(prompt)
}

func (r *Router) hasCredential(providerName string) bool {
	if r.creds == nil {
		return false
	}
	return provider.UsableCredential(r.creds.Key(providerName))
}

func (r *Router) eligible(a provider.Adapter, req domain.PromptRequest) bool {
	desc := a.Descriptor()
	if !r.hasCredential(desc.Provider) {
		return false
	}
	return a.EstimateTokens(req.Prompt) <= desc.MaxTokens
}

// Candidates: 적격 어댑터를 점수 내림차순으로 반환합니다. 동점은 카탈로그 순서를 유지합니다.
func (r *Router) Candidates(req domain.PromptRequest, profile domain.CapabilityProfile) []Candidate {
	out := make([]Candidate, 0, len(r.adapters))
	for _, a := range r.adapters {
		if !r.eligible(a, req) {
			continue
		}
		out = append(out, Candidate{Adapter: a, Score: scoring.Score(a.Descriptor(), profile)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// Adapter: 모델 ID 로 어댑터를 조회합니다.
func (r *Router) Adapter(id string) (provider.Adapter, bool) {
	a := r.lookup(id)
	return a, a != nil
}

func (r *Router) lookup(id string) provider.Adapter {
	for _, a := range r.adapters {
		if a.Descriptor().ID == id {
			return a
		}
	}
	return nil
}

// Route: 선호 모델을 먼저 시도한 뒤 후보를 순서대로 호출하고 첫 성공 응답을 반환합니다.
// 후보가 없으면 ErrNoProviderAvailable, 모두 실패하면 *AllProvidersFailedError 를 반환합니다.
func (r *Router) Route(ctx context.Context, req domain.PromptRequest) (domain.PromptResponse, error) {
	ctx, span := r.tracer.Start(ctx, "router.route", trace.WithAttributes(
		attribute.String("request.id", req.ID),
		attribute.String("request.model_preference", req.ModelPreference),
	))
	defer span.End()

	profile := r.detector.Detect(req.Prompt)
	span.SetAttributes(attribute.String("capability.primary_task", string(profile.PrimaryTask)))

	var (
		attempts  int
		lastErr   error
		preferred string
	)

	if req.ModelPreference != "" && req.ModelPreference != AutoPreference {
		if a := r.lookup(req.ModelPreference); a != nil && r.eligible(a, req) {
			preferred = req.ModelPreference
			attempts++
			resp, err := r.attempt(ctx, a, req, 0)
			if err == nil {
				r.finish(span, metrics.OutcomeSuccess, attempts)
				return resp, nil
			}
			lastErr = err
			r.logger.Warn("preferred_model_failed", "request_id", req.ID, "model", preferred, "err", err)
		} else {
			r.logger.Info("preferred_model_ineligible", "request_id", req.ID, "model", req.ModelPreference)
		}
	}

	candidates := r.Candidates(req, profile)
	if len(candidates) == 0 && attempts == 0 {
		r.finish(span, metrics.OutcomeNoProvider, 0)
		span.SetStatus(codes.Error, ErrNoProviderAvailable.Error())
		return domain.PromptResponse{}, ErrNoProviderAvailable
	}

	for _, c := range candidates {
		id := c.Adapter.Descriptor().ID
		if id == preferred {
			continue
		}
		if err := ctx.Err(); err != nil {
			r.finish(span, metrics.OutcomeContextCancel, attempts)
			span.SetStatus(codes.Error, err.Error())
			return domain.PromptResponse{}, fmt.Errorf("route canceled after %d attempts: %w", attempts, err)
		}

		attempts++
		resp, err := r.attempt(ctx, c.Adapter, req, c.Score)
		if err == nil {
			r.finish(span, metrics.OutcomeSuccess, attempts)
			return resp, nil
		}
		lastErr = err
		r.logger.Warn("route_attempt_failed", "request_id", req.ID, "model", id, "score", c.Score, "err", err)
	}

	failure := &AllProvidersFailedError{Attempts: attempts, Last: lastErr}
	r.finish(span, metrics.OutcomeAllFailed, attempts)
	span.SetStatus(codes.Error, failure.Error())
	r.logger.Error("route_exhausted", "request_id", req.ID, "attempts", attempts, "err", lastErr)
	return domain.PromptResponse{}, failure
}

func (r *Router) attempt(ctx context.Context, a provider.Adapter, req domain.PromptRequest, score float64) (domain.PromptResponse, error) {
	desc := a.Descriptor()
	ctx, span := r.tracer.Start(ctx, "router.attempt", trace.WithAttributes(
		attribute.String("provider", desc.Provider),
		attribute.String("model", desc.ID),
		attribute.Float64("score", score),
	))
	defer span.End()

	started := time.Now()
	resp, err := a.GenerateResponse(ctx, req)
	elapsed := time.Since(started)
	if err != nil {
		r.metrics.RecordError(desc.Provider, desc.ID, elapsed)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.PromptResponse{}, err
	}

	// 어댑터 구현과 무관하게 응답은 항상 원 요청을 가리킨다.
	resp.RequestID = req.ID
	if resp.ModelUsed == "" {
		resp.ModelUsed = desc.ID
	}
	r.metrics.RecordSuccess(desc.Provider, desc.ID, elapsed, resp.TokensUsed, resp.Cost)
	span.SetAttributes(attribute.Int("tokens_used", resp.TokensUsed))
	r.logger.Info("route_succeeded", "request_id", req.ID, "model", resp.ModelUsed,
		"tokens", resp.TokensUsed, "cost", resp.Cost, "duration_ms", elapsed.Milliseconds())
	return resp, nil
}

func (r *Router) finish(span trace.Span, outcome string, attempts int) {
	r.metrics.RecordRoute(outcome, attempts)
	span.SetAttributes(
		attribute.String("route.outcome", outcome),
		attribute.Int("route.attempts", attempts),
	)
}
