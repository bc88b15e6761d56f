// Package monitor 는 사용자별 사용량 이상 탐지와 요청 단위 부정 사용 탐지를 담당한다.
// 두 탐지기는 같은 AlertSink 로 경보를 생성하므로 (user, type) 쿨다운을 공유한다.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/domain"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/metrics"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/store"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/usage"
)

const (
	defaultCooldown = time.Hour
	dailyCounterTTL = 48 * time.Hour
)

func cooldownKey(userID string, alertType domain.AlertType) string {
	return fmt.Sprintf("alert:%s:%s", userID, alertType)
}

func dailyAlertsKey(userID string, now time.Time) string {
	return fmt.Sprintf("alerts:%s:%s", userID, now.UTC().Format("2006-01-02"))
}

// AlertSink 는 쿨다운 가드를 통과한 경보만 저장하고 발행한다.
type AlertSink struct {
	counters  store.CounterStore
	repo      usage.Store
	publisher Publisher
	metrics   *metrics.Store
	cooldown  time.Duration
	logger    *slog.Logger
}

// NewAlertSink 는 경보 싱크를 생성한다. cooldown 이 0 이하이면 1시간을 쓴다.
func NewAlertSink(
	counters store.CounterStore,
	repo usage.Store,
	publisher Publisher,
	metricsStore *metrics.Store,
	cooldown time.Duration,
	logger *slog.Logger,
) *AlertSink {
	if logger == nil {
		logger = slog.Default()
	}
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}
	return &AlertSink{
		counters:  counters,
		repo:      repo,
		publisher: publisher,
		metrics:   metricsStore,
		cooldown:  cooldown,
		logger:    logger,
	}
}

// Emit 은 경보 생성을 시도하고 실제로 생성되었는지 반환한다.
// 같은 (user, type) 쿨다운 키가 살아 있으면 억제된다. 가드 확인에 실패해도 생성하지 않는다.
// 저장에 실패하면 쿨다운 키를 풀어 다음 경보가 다시 저장될 수 있게 한다.
func (s *AlertSink) Emit(ctx context.Context, alert domain.UsageAlert) bool {
	acquired, err := s.counters.SetNX(ctx, cooldownKey(alert.UserID, alert.Type), "1", s.cooldown)
	if err != nil {
		s.logger.Warn("alert_cooldown_check_failed", "user_id", alert.UserID, "type", alert.Type, "err", err)
		return false
	}
	if !acquired {
		s.logger.Debug("alert_suppressed", "user_id", alert.UserID, "type", alert.Type)
		return false
	}

	if s.repo != nil {
		if err := s.repo.SaveAlert(ctx, usage.AlertRecordFrom(alert)); err != nil {
			s.logger.Warn("alert_save_failed", "user_id", alert.UserID, "type", alert.Type, "err", err)
			if delErr := s.counters.Delete(ctx, cooldownKey(alert.UserID, alert.Type)); delErr != nil {
				s.logger.Warn("alert_cooldown_release_failed", "user_id", alert.UserID, "type", alert.Type, "err", delErr)
			}
			return false
		}
	}

	if _, err := s.counters.IncrBy(ctx, dailyAlertsKey(alert.UserID, alert.Timestamp), 1, dailyCounterTTL); err != nil {
		s.logger.Warn("alert_daily_count_failed", "user_id", alert.UserID, "err", err)
	}

	if err := s.publisher.Publish(ctx, alert); err != nil {
		s.logger.Warn("alert_publish_failed", "user_id", alert.UserID, "type", alert.Type, "err", err)
	}

	if s.metrics != nil {
		s.metrics.RecordAlert(string(alert.Type), string(alert.Severity))
	}

	s.logger.Warn(
		"usage_alert_created",
		"user_id", alert.UserID,
		"type", alert.Type,
		"severity", alert.Severity,
		"message", alert.Message,
	)
	return true
}
