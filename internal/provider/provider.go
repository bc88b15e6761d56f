// Package provider 는 외부 모델 프로바이더 호출을 Adapter 인터페이스 뒤로 감춘다.
// 어댑터는 재시도하지 않는다. 실패 시 다음 후보로 넘어가는 것은 라우터의 책임이다.
package provider

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/config"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/domain"
)

// Temperature 는 모든 프로바이더 호출에 고정으로 쓰는 샘플링 온도다.
const Temperature = 0.7

// defaultMaxOutputTokens 는 요청에 max_tokens 가 없을 때 쓰는 출력 상한이다.
// 카탈로그의 max_tokens 는 컨텍스트 한도이므로 그대로 출력 상한으로 보내지 않는다.
const defaultMaxOutputTokens = 4096

// ErrMissingAPIKey 는 호출 시점에 자격 증명이 없을 때 반환된다.
var ErrMissingAPIKey = errors.New("missing provider api key")

// Adapter 는 하나의 외부 프로바이더 모델을 감싼다.
type Adapter interface {
	Descriptor() domain.ProviderDescriptor
	EstimateTokens(text string) int
	GenerateResponse(ctx context.Context, req domain.PromptRequest) (domain.PromptResponse, error)
}

// Error 는 단일 프로바이더 호출 실패를 나타낸다.
type Error struct {
	Provider string
	Model    string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider %s model %s: %v", e.Provider, e.Model, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

var placeholderKeys = []string{
	"your_openai_key",
	"your_anthropic_key",
	"your_google_key",
	"your_deepseek_key",
}

// UsableCredential 은 키가 비어있지 않고 예시 자리표시자도 아닌지 확인한다.
func UsableCredential(key string) bool {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return false
	}
	return !slices.Contains(placeholderKeys, strings.ToLower(trimmed))
}

// base 는 어댑터 공통 메타데이터와 응답 생성 로직이다.
type base struct {
	spec    config.ModelSpec
	limiter *rate.Limiter
	now     func() time.Time
}

func newBase(spec config.ModelSpec) base {
	b := base{spec: spec, now: time.Now}
	if spec.RateLimitRPS > 0 {
		b.limiter = rate.NewLimiter(rate.Limit(spec.RateLimitRPS), 1)
	}
	return b
}

func (b base) Descriptor() domain.ProviderDescriptor {
	return domain.ProviderDescriptor{
		ID:           b.spec.ID(),
		Name:         b.spec.Name,
		Provider:     b.spec.Provider,
		CostPer1K:    b.spec.CostPer1K,
		MaxTokens:    b.spec.MaxTokens,
		Capabilities: slices.Clone(b.spec.Capabilities),
	}
}

// EstimateTokens: 네이티브 토크나이저 없이 4문자당 1토큰으로 근사합니다.
func (b base) EstimateTokens(text string) int {
	return len(text) / 4
}

// cost 는 (tokens/1000) * cost_per_1k 이다.
func (b base) cost(tokens int) float64 {
	return float64(tokens) / 1000 * b.spec.CostPer1K
}

func (b base) maxOutputTokens(req domain.PromptRequest) int {
	if req.MaxTokens > 0 {
		return min(req.MaxTokens, b.spec.MaxTokens)
	}
	return min(defaultMaxOutputTokens, b.spec.MaxTokens)
}

// wait 는 설정된 초당 호출 한도를 지킨다. 한도가 없으면 즉시 반환한다.
func (b base) wait(ctx context.Context) error {
	if b.limiter == nil {
		return nil
	}
	if err := b.limiter.Wait(ctx); err != nil {
		return b.fail(fmt.Errorf("rate limiter: %w", err))
	}
	return nil
}

func (b base) fail(err error) error {
	return &Error{Provider: b.spec.Provider, Model: b.spec.Name, Err: err}
}

func (b base) respond(req domain.PromptRequest, text string, tokens int) domain.PromptResponse {
	if tokens <= 0 {
		tokens = b.EstimateTokens(req.Prompt) + b.EstimateTokens(text)
	}
	return domain.PromptResponse{
		ID:         uuid.NewString(),
		RequestID:  req.ID,
		ModelUsed:  b.spec.ID(),
		Response:   text,
		TokensUsed: tokens,
		Cost:       b.cost(tokens),
		Timestamp:  b.now().UTC(),
	}
}
