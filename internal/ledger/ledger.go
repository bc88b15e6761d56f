// Package ledger 는 프로바이더별 월간 토큰/비용/요청 수를 무료 한도와 비교해 추적한다.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/config"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/domain"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/store"
)

const (
	// MonthlyTTL 은 월간 카운터 키의 만료 시간이다. 달력 월과 정확히 맞지는 않는다.
	MonthlyTTL = 30 * 24 * time.Hour

	freeTierWarnPercent = 80.0
	highCostThreshold   = 10.0
	microsPerDollar     = 1_000_000

	// analysisTimeout 은 singleflight 로 공유되는 비용 분석 한 번의 상한이다.
	analysisTimeout = 5 * time.Second
)

const (
	fieldTokens   = "tokens_used"
	fieldCost     = "cost_micros"
	fieldRequests = "requests"
)

// FreeTierStatus: 프로바이더의 당월 무료 한도 상태입니다.
type FreeTierStatus struct {
	TokensRemaining int64   `json:"tokens_remaining"`
	PercentageUsed  float64 `json:"percentage_used"`
	TokensUsed      int64   `json:"tokens_used"`
	Limit           int64   `json:"limit"`
}

// ProviderRank: 비용 효율 순위 항목입니다. EfficiencyScore 가 낮을수록 우선합니다.
type ProviderRank struct {
	Provider          string  `json:"provider"`
	Cost              float64 `json:"cost"`
	TokensUsed        int64   `json:"tokens_used"`
	FreeTierRemaining int64   `json:"free_tier_remaining"`
	EfficiencyScore   float64 `json:"efficiency_score"`
}

// Analysis: 전체 프로바이더 비용 집계입니다.
type Analysis struct {
	MonthlyUsage    map[string]domain.MonthlyUsage `json:"monthly_usage"`
	FreeTierStatus  map[string]FreeTierStatus      `json:"free_tier_status"`
	TotalCost       float64                        `json:"total_cost"`
	TotalTokens     int64                          `json:"total_tokens"`
	Recommendations []string                       `json:"recommendations"`
}

// Ledger 는 카운터 저장소 위의 월간 비용 원장이다. 카운터의 유일한 변경 주체다.
type Ledger struct {
	store   store.CounterStore
	catalog config.CatalogConfig
	logger  *slog.Logger
	now     func() time.Time
	group   singleflight.Group
}

// New 는 원장을 생성한다.
func New(counters store.CounterStore, catalog config.CatalogConfig, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		store:   counters,
		catalog: catalog,
		logger:  logger,
		now:     time.Now,
	}
}

func (l *Ledger) period() string {
	return l.now().UTC().Format("2006-01")
}

func counterKey(provider, period, field string) string {
	return fmt.Sprintf("monthly_usage:%s:%s:%s", provider, period, field)
}

// RecordUsage 는 당월 카운터에 사용량을 더한다. 각 카운터 증가는 원자적이다.
func (l *Ledger) RecordUsage(ctx context.Context, provider string, tokens int, cost float64) error {
	period := l.period()
	micros := int64(math.Round(cost * microsPerDollar))

	if _, err := l.store.IncrBy(ctx, counterKey(provider, period, fieldTokens), int64(tokens), MonthlyTTL); err != nil {
		return fmt.Errorf("record tokens for %s: %w", provider, err)
	}
	if _, err := l.store.IncrBy(ctx, counterKey(provider, period, fieldCost), micros, MonthlyTTL); err != nil {
		return fmt.Errorf("record cost for %s: %w", provider, err)
	}
	if _, err := l.store.IncrBy(ctx, counterKey(provider, period, fieldRequests), 1, MonthlyTTL); err != nil {
		return fmt.Errorf("record request for %s: %w", provider, err)
	}
	return nil
}

// MonthlyUsage 는 프로바이더의 당월 누적값을 반환한다. 기록이 없으면 0 이다.
func (l *Ledger) MonthlyUsage(ctx context.Context, provider string) (domain.MonthlyUsage, error) {
	period := l.period()
	tokens, _, err := l.store.Get(ctx, counterKey(provider, period, fieldTokens))
	if err != nil {
		return domain.MonthlyUsage{}, fmt.Errorf("read tokens for %s: %w", provider, err)
	}
	micros, _, err := l.store.Get(ctx, counterKey(provider, period, fieldCost))
	if err != nil {
		return domain.MonthlyUsage{}, fmt.Errorf("read cost for %s: %w", provider, err)
	}
	requests, _, err := l.store.Get(ctx, counterKey(provider, period, fieldRequests))
	if err != nil {
		return domain.MonthlyUsage{}, fmt.Errorf("read requests for %s: %w", provider, err)
	}
	return domain.MonthlyUsage{
		TokensUsed: tokens,
		Cost:       float64(micros) / microsPerDollar,
		Requests:   requests,
	}, nil
}

func freeTierStatus(limit int64, known bool, used int64) FreeTierStatus {
	if !known || limit <= 0 {
		return FreeTierStatus{TokensRemaining: 0, PercentageUsed: 100, TokensUsed: used, Limit: limit}
	}
	return FreeTierStatus{
		TokensRemaining: max(0, limit-used),
		PercentageUsed:  float64(used) / float64(limit) * 100,
		TokensUsed:      used,
		Limit:           limit,
	}
}

// RemainingFreeTier 는 당월 무료 한도 잔량을 계산한다. 한도가 없거나 0 이면 100% 사용으로 본다.
func (l *Ledger) RemainingFreeTier(ctx context.Context, provider string) (FreeTierStatus, error) {
	usage, err := l.MonthlyUsage(ctx, provider)
	if err != nil {
		return FreeTierStatus{}, err
	}
	limit, known := l.catalog.FreeTierLimit(provider)
	return freeTierStatus(limit, known, usage.TokensUsed), nil
}

// FreeTierAvailable 은 무료 한도가 남아있는지 반환한다.
func (l *Ledger) FreeTierAvailable(ctx context.Context, provider string) (bool, error) {
	status, err := l.RemainingFreeTier(ctx, provider)
	if err != nil {
		return false, err
	}
	return status.TokensRemaining > 0, nil
}

// RankProviders 는 비용 효율 점수(당월 비용, 무료 한도가 남으면 절반) 오름차순으로 정렬한다.
func (l *Ledger) RankProviders(ctx context.Context) ([]ProviderRank, error) {
	providers := l.catalog.FreeTierProviders()
	ranks := make([]ProviderRank, 0, len(providers))
	for _, p := range providers {
		usage, err := l.MonthlyUsage(ctx, p)
		if err != nil {
			return nil, err
		}
		limit, known := l.catalog.FreeTierLimit(p)
		status := freeTierStatus(limit, known, usage.TokensUsed)

		efficiency := usage.Cost
		if status.TokensRemaining > 0 {
			efficiency *= 0.5
		}
		ranks = append(ranks, ProviderRank{
			Provider:          p,
			Cost:              usage.Cost,
			TokensUsed:        usage.TokensUsed,
			FreeTierRemaining: status.TokensRemaining,
			EfficiencyScore:   efficiency,
		})
	}
	sort.SliceStable(ranks, func(i, j int) bool {
		return ranks[i].EfficiencyScore < ranks[j].EfficiencyScore
	})
	return ranks, nil
}

// CostAnalysis 는 전체 프로바이더 사용량과 권고 사항을 집계한다.
// 동시 요청은 singleflight 로 한 번만 계산되며, 계산은 첫 호출자의 취소와 분리된다.
func (l *Ledger) CostAnalysis(ctx context.Context) (Analysis, error) {
	value, err, _ := l.group.Do("cost_analysis:"+l.period(), func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), analysisTimeout)
		defer cancel()
		return l.costAnalysis(shared)
	})
	if err != nil {
		return Analysis{}, err
	}
	analysis, ok := value.(Analysis)
	if !ok {
		return Analysis{}, fmt.Errorf("unexpected cost analysis type %T", value)
	}
	return analysis, nil
}

func (l *Ledger) costAnalysis(ctx context.Context) (Analysis, error) {
	analysis := Analysis{
		MonthlyUsage:    make(map[string]domain.MonthlyUsage),
		FreeTierStatus:  make(map[string]FreeTierStatus),
		Recommendations: []string{},
	}

	var totalMicros int64
	for _, p := range l.catalog.FreeTierProviders() {
		usage, err := l.MonthlyUsage(ctx, p)
		if err != nil {
			return Analysis{}, err
		}
		limit, known := l.catalog.FreeTierLimit(p)
		status := freeTierStatus(limit, known, usage.TokensUsed)

		analysis.MonthlyUsage[p] = usage
		analysis.FreeTierStatus[p] = status
		totalMicros += int64(math.Round(usage.Cost * microsPerDollar))
		analysis.TotalTokens += usage.TokensUsed

		if status.PercentageUsed > freeTierWarnPercent {
			analysis.Recommendations = append(analysis.Recommendations, fmt.Sprintf(
				"Free tier for %s is %.1f%% used. Consider switching to paid models soon.", p, status.PercentageUsed))
		}
		if usage.Cost > highCostThreshold {
			analysis.Recommendations = append(analysis.Recommendations, fmt.Sprintf(
				"High cost detected for %s: $%.2f. Consider optimizing usage patterns.", p, usage.Cost))
		}
	}
	analysis.TotalCost = float64(totalMicros) / microsPerDollar
	return analysis, nil
}

// ResetMonthlyUsage 는 당월 카운터를 지운다. provider 가 비어있으면 무료 한도가 정의된 전체가 대상이다.
func (l *Ledger) ResetMonthlyUsage(ctx context.Context, provider string) error {
	providers := []string{provider}
	if provider == "" {
		providers = l.catalog.FreeTierProviders()
	}

	period := l.period()
	keys := make([]string, 0, len(providers)*3)
	for _, p := range providers {
		keys = append(keys,
			counterKey(p, period, fieldTokens),
			counterKey(p, period, fieldCost),
			counterKey(p, period, fieldRequests),
		)
	}
	if err := l.store.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("reset monthly usage: %w", err)
	}

	target := provider
	if target == "" {
		target = "all"
	}
	l.logger.Info("monthly_usage_reset", "provider", target, "period", period)
	return nil
}
