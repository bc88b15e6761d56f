package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/config"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/domain"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/store"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/usage"
)

const (
	hourlyTTL      = time.Hour
	historyTTL     = 24 * time.Hour
	historyKeep    = 24
	abnormalFactor = 3.0
	alertWindow    = 24 * time.Hour
	maxStatsHours  = 7 * 24

	defaultSpikeThreshold = 1000
	defaultFraudThreshold = 10000
)

// ModelStats: 한 모델의 시간대별 사용량 통계입니다.
type ModelStats struct {
	TotalTokens   int64   `json:"total_tokens"`
	AverageTokens float64 `json:"average_tokens"`
	MaxTokens     int64   `json:"max_tokens"`
	UsageCount    int     `json:"usage_count"`
}

// Monitor 는 (user, model) 시간 버킷 카운터를 유지하고 급증, 과다 사용, 이상 패턴을 탐지한다.
type Monitor struct {
	counters store.CounterStore
	recorder *usage.Recorder
	repo     usage.Store
	sink     *AlertSink
	models   []string
	spike    int64
	fraud    int64
	logger   *slog.Logger
	now      func() time.Time
}

// NewMonitor 는 사용량 감시기를 생성한다.
func NewMonitor(
	counters store.CounterStore,
	recorder *usage.Recorder,
	repo usage.Store,
	sink *AlertSink,
	catalog config.CatalogConfig,
	logger *slog.Logger,
) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	spike := catalog.Monitoring.SpikeThreshold
	if spike <= 0 {
		spike = defaultSpikeThreshold
	}
	fraud := catalog.Monitoring.FraudThreshold
	if fraud <= 0 {
		fraud = defaultFraudThreshold
	}
	return &Monitor{
		counters: counters,
		recorder: recorder,
		repo:     repo,
		sink:     sink,
		models:   catalog.ModelIDs(),
		spike:    spike,
		fraud:    fraud,
		logger:   logger,
		now:      time.Now,
	}
}

func hourBucket(t time.Time) string {
	return t.UTC().Format("2006-01-02:15")
}

func hourlyKey(userID, modelID, bucket string) string {
	return fmt.Sprintf("usage:%s:%s:%s", userID, modelID, bucket)
}

func historyKey(userID, modelID string) string {
	return fmt.Sprintf("historical:%s:%s", userID, modelID)
}

// RecordUsage 는 현재 시간 버킷에 토큰을 더하고 요약을 저장한 뒤 이상 규칙을 평가한다.
// 모든 실패는 로그로만 남는다.
func (m *Monitor) RecordUsage(ctx context.Context, u domain.TokenUsage) {
	now := m.now()
	current, err := m.counters.IncrBy(ctx, hourlyKey(u.UserID, u.ModelID, hourBucket(now)), int64(u.TokensUsed), hourlyTTL)
	if err != nil {
		m.logger.Warn("usage_counter_failed", "user_id", u.UserID, "model", u.ModelID, "err", err)
		return
	}

	m.recorder.Record(ctx, usage.SummaryFromUsage(u))

	m.checkAnomalies(ctx, u.UserID, u.ModelID, current, now)
}

// 규칙은 서로 독립적으로 평가된다.
func (m *Monitor) checkAnomalies(ctx context.Context, userID, modelID string, current int64, now time.Time) {
	if current > m.spike {
		m.emit(ctx, domain.UsageAlert{
			Type:      domain.AlertSpike,
			UserID:    userID,
			Message:   fmt.Sprintf("Token usage spike detected: %d tokens in the last hour", current),
			Severity:  domain.SeverityMedium,
			Timestamp: now.UTC(),
		})
	}

	if current > m.fraud {
		m.emit(ctx, domain.UsageAlert{
			Type:      domain.AlertFraud,
			UserID:    userID,
			Message:   fmt.Sprintf("Unusually high token usage detected: %d tokens in the last hour", current),
			Severity:  domain.SeverityHigh,
			Timestamp: now.UTC(),
		})
	}

	m.checkAbnormal(ctx, userID, modelID, current, now)
}

func (m *Monitor) checkAbnormal(ctx context.Context, userID, modelID string, current int64, now time.Time) {
	key := historyKey(userID, modelID)
	history, err := m.counters.Range(ctx, key)
	if err != nil {
		m.logger.Warn("usage_history_read_failed", "user_id", userID, "model", modelID, "err", err)
		return
	}

	if len(history) > 0 {
		var sum int64
		for _, v := range history {
			sum += v
		}
		avg := float64(sum) / float64(len(history))
		if float64(current) > avg*abnormalFactor {
			m.emit(ctx, domain.UsageAlert{
				Type:      domain.AlertAbnormal,
				UserID:    userID,
				Message:   fmt.Sprintf("Abnormal usage pattern detected: %d vs avg %.0f", current, avg),
				Severity:  domain.SeverityMedium,
				Timestamp: now.UTC(),
			})
		}
	}

	if err := m.counters.PushTrim(ctx, key, current, historyKeep, historyTTL); err != nil {
		m.logger.Warn("usage_history_write_failed", "user_id", userID, "model", modelID, "err", err)
	}
}

func (m *Monitor) emit(ctx context.Context, alert domain.UsageAlert) {
	if m.sink == nil {
		return
	}
	m.sink.Emit(ctx, alert)
}

// UsageStats: 최근 hours 시간 동안 카탈로그 모델별 시간 버킷 통계를 집계합니다.
// 기록이 없는 모델은 결과에 포함되지 않습니다.
func (m *Monitor) UsageStats(ctx context.Context, userID string, hours int) map[string]ModelStats {
	if hours <= 0 {
		hours = 24
	}
	hours = min(hours, maxStatsHours)

	now := m.now()
	stats := make(map[string]ModelStats)
	for _, modelID := range m.models {
		var entry ModelStats
		for h := range hours {
			bucket := hourBucket(now.Add(-time.Duration(h) * time.Hour))
			value, ok, err := m.counters.Get(ctx, hourlyKey(userID, modelID, bucket))
			if err != nil {
				m.logger.Warn("usage_stats_read_failed", "user_id", userID, "model", modelID, "err", err)
				return map[string]ModelStats{}
			}
			if !ok {
				continue
			}
			entry.TotalTokens += value
			entry.MaxTokens = max(entry.MaxTokens, value)
			entry.UsageCount++
		}
		if entry.UsageCount == 0 {
			continue
		}
		entry.AverageTokens = float64(entry.TotalTokens) / float64(entry.UsageCount)
		stats[modelID] = entry
	}
	return stats
}

// ActiveAlerts 는 최근 24시간 경보를 최신순으로 반환한다. userID 가 비어 있으면 전체 사용자 대상이다.
func (m *Monitor) ActiveAlerts(ctx context.Context, userID string) []domain.UsageAlert {
	if m.repo == nil {
		return []domain.UsageAlert{}
	}
	rows, err := m.repo.ListAlerts(ctx, userID, m.now().Add(-alertWindow))
	if err != nil {
		m.logger.Warn("active_alerts_failed", "user_id", userID, "err", err)
		return []domain.UsageAlert{}
	}
	alerts := make([]domain.UsageAlert, 0, len(rows))
	for _, row := range rows {
		alerts = append(alerts, row.ToDomain())
	}
	return alerts
}
