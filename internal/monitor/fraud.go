package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/config"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/domain"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/store"
)

// RiskLevel: 사용자 위험 등급입니다.
type RiskLevel string

const (
	RiskHigh    RiskLevel = "HIGH"
	RiskMedium  RiskLevel = "MEDIUM"
	RiskLow     RiskLevel = "LOW"
	RiskUnknown RiskLevel = "UNKNOWN"
)

const (
	riskAlertCount    = 5
	riskDailyTokens   = 100000
	riskDailyRequests = 1000
	suspiciousAlerts  = 3

	blockedBy = "fraud_detector"
)

// ErrUserIDRequired 는 사용자 ID 없이 차단을 요청한 경우다.
var ErrUserIDRequired = errors.New("user id is required")

// RiskAssessment: 사용자 위험 점수 평가 결과입니다.
type RiskAssessment struct {
	UserID      string    `json:"user_id"`
	RiskScore   int       `json:"risk_score"`
	RiskLevel   RiskLevel `json:"risk_level"`
	RiskFactors []string  `json:"risk_factors"`
	Timestamp   time.Time `json:"timestamp"`
}

// BlockRecord: 차단된 사용자 기록입니다.
type BlockRecord struct {
	UserID    string    `json:"user_id"`
	Reason    string    `json:"reason"`
	BlockedAt time.Time `json:"blocked_at"`
	BlockedBy string    `json:"blocked_by"`
}

// FraudDetector 는 요청 단위 규칙(빠른 반복, 대량 토큰, 비정상 시간대, 다중 IP)으로 부정 사용을 탐지한다.
type FraudDetector struct {
	counters store.CounterStore
	sink     *AlertSink
	cfg      config.FraudConfig
	logger   *slog.Logger
	now      func() time.Time
}

// NewFraudDetector 는 부정 사용 탐지기를 생성한다. 0 인 설정값은 기본값으로 채운다.
func NewFraudDetector(counters store.CounterStore, sink *AlertSink, cfg config.FraudConfig, logger *slog.Logger) *FraudDetector {
	if logger == nil {
		logger = slog.Default()
	}
	return &FraudDetector{
		counters: counters,
		sink:     sink,
		cfg:      withFraudDefaults(cfg),
		logger:   logger,
		now:      time.Now,
	}
}

func withFraudDefaults(cfg config.FraudConfig) config.FraudConfig {
	if cfg.RapidRequestThreshold <= 0 {
		cfg.RapidRequestThreshold = 100
	}
	if cfg.RapidRequestWindowSeconds <= 0 {
		cfg.RapidRequestWindowSeconds = 300
	}
	if cfg.HighTokenThreshold <= 0 {
		cfg.HighTokenThreshold = 50000
	}
	if cfg.UnusualHourStart == 0 && cfg.UnusualHourEnd == 0 {
		cfg.UnusualHourStart, cfg.UnusualHourEnd = 2, 6
	}
	if cfg.MultipleIPThreshold <= 0 {
		cfg.MultipleIPThreshold = 5
	}
	if cfg.MultipleIPWindowSeconds <= 0 {
		cfg.MultipleIPWindowSeconds = 3600
	}
	if cfg.BlockTTLHours <= 0 {
		cfg.BlockTTLHours = 24
	}
	return cfg
}

func rapidKey(userID string, now time.Time) string {
	return fmt.Sprintf("requests:%s:%s", userID, now.UTC().Format("2006-01-02:15:04"))
}

func ipsKey(userID string, now time.Time) string {
	return fmt.Sprintf("ips:%s:%s", userID, now.UTC().Format("2006-01-02:15"))
}

func dailyUsageKey(userID string, now time.Time, field string) string {
	return fmt.Sprintf("usage_daily:%s:%s:%s", userID, now.UTC().Format("2006-01-02"), field)
}

func blockKey(userID string) string {
	return "blocked:" + userID
}

// AnalyzeRequest 는 요청 하나를 규칙별로 평가해 탐지된 경보 전체를 반환한다.
// 저장과 발행은 쿨다운을 통과한 경보에만 일어난다.
func (d *FraudDetector) AnalyzeRequest(ctx context.Context, userID string, tokens int, ip string) []domain.UsageAlert {
	now := d.now().UTC()
	var alerts []domain.UsageAlert

	if d.checkRapidRequests(ctx, userID, now) {
		alerts = append(alerts, domain.UsageAlert{
			Type:      domain.AlertFraud,
			UserID:    userID,
			Message:   "Rapid request pattern detected - possible automated abuse",
			Severity:  domain.SeverityHigh,
			Timestamp: now,
		})
	}

	if tokens > d.cfg.HighTokenThreshold {
		alerts = append(alerts, domain.UsageAlert{
			Type:      domain.AlertFraud,
			UserID:    userID,
			Message:   fmt.Sprintf("Unusually high token usage: %d tokens", tokens),
			Severity:  domain.SeverityHigh,
			Timestamp: now,
		})
	}

	if hour := now.Hour(); hour >= d.cfg.UnusualHourStart && hour <= d.cfg.UnusualHourEnd {
		alerts = append(alerts, domain.UsageAlert{
			Type:      domain.AlertAbnormal,
			UserID:    userID,
			Message:   fmt.Sprintf("Request made during unusual hours: %d:00 UTC", hour),
			Severity:  domain.SeverityMedium,
			Timestamp: now,
		})
	}

	if ip != "" && d.checkMultipleIPs(ctx, userID, ip, now) {
		alerts = append(alerts, domain.UsageAlert{
			Type:      domain.AlertFraud,
			UserID:    userID,
			Message:   "Multiple IP addresses detected - possible account sharing",
			Severity:  domain.SeverityHigh,
			Timestamp: now,
		})
	}

	if d.sink != nil {
		for _, alert := range alerts {
			d.sink.Emit(ctx, alert)
		}
	}
	return alerts
}

func (d *FraudDetector) checkRapidRequests(ctx context.Context, userID string, now time.Time) bool {
	window := time.Duration(d.cfg.RapidRequestWindowSeconds) * time.Second
	count, err := d.counters.IncrBy(ctx, rapidKey(userID, now), 1, window)
	if err != nil {
		d.logger.Warn("fraud_rapid_check_failed", "user_id", userID, "err", err)
		return false
	}
	return count > d.cfg.RapidRequestThreshold
}

func (d *FraudDetector) checkMultipleIPs(ctx context.Context, userID, ip string, now time.Time) bool {
	window := time.Duration(d.cfg.MultipleIPWindowSeconds) * time.Second
	count, err := d.counters.SetAdd(ctx, ipsKey(userID, now), ip, window)
	if err != nil {
		d.logger.Warn("fraud_ip_check_failed", "user_id", userID, "err", err)
		return false
	}
	return count > d.cfg.MultipleIPThreshold
}

// RecordDaily 는 사용자 일간 토큰/요청 합계를 증가시킨다. 위험 점수 계산에 쓰인다.
func (d *FraudDetector) RecordDaily(ctx context.Context, userID string, tokens int) {
	now := d.now()
	if _, err := d.counters.IncrBy(ctx, dailyUsageKey(userID, now, "tokens"), int64(tokens), dailyCounterTTL); err != nil {
		d.logger.Warn("daily_usage_record_failed", "user_id", userID, "field", "tokens", "err", err)
		return
	}
	if _, err := d.counters.IncrBy(ctx, dailyUsageKey(userID, now, "requests"), 1, dailyCounterTTL); err != nil {
		d.logger.Warn("daily_usage_record_failed", "user_id", userID, "field", "requests", "err", err)
	}
}

// RiskScore 는 당일 경보 수, 일간 사용량, 빠른 반복 패턴으로 위험 점수를 계산한다.
// 빠른 반복 확인은 카운터를 증가시키지 않는다. 조회 실패 시 UNKNOWN 을 반환한다.
func (d *FraudDetector) RiskScore(ctx context.Context, userID string) RiskAssessment {
	now := d.now().UTC()
	assessment, err := d.assess(ctx, userID, now)
	if err != nil {
		d.logger.Warn("risk_score_failed", "user_id", userID, "err", err)
		return RiskAssessment{
			UserID:      userID,
			RiskLevel:   RiskUnknown,
			RiskFactors: []string{},
			Timestamp:   now,
		}
	}
	return assessment
}

func (d *FraudDetector) assess(ctx context.Context, userID string, now time.Time) (RiskAssessment, error) {
	factors := []string{}
	score := 0

	alerts, _, err := d.counters.Get(ctx, dailyAlertsKey(userID, now))
	if err != nil {
		return RiskAssessment{}, fmt.Errorf("read alert count: %w", err)
	}
	if alerts > riskAlertCount {
		factors = append(factors, "High number of alerts")
		score += 30
	}

	tokens, _, err := d.counters.Get(ctx, dailyUsageKey(userID, now, "tokens"))
	if err != nil {
		return RiskAssessment{}, fmt.Errorf("read daily tokens: %w", err)
	}
	if tokens > riskDailyTokens {
		factors = append(factors, "High token usage")
		score += 25
	}

	requests, _, err := d.counters.Get(ctx, dailyUsageKey(userID, now, "requests"))
	if err != nil {
		return RiskAssessment{}, fmt.Errorf("read daily requests: %w", err)
	}
	if requests > riskDailyRequests {
		factors = append(factors, "High request count")
		score += 20
	}

	rapid, _, err := d.counters.Get(ctx, rapidKey(userID, now))
	if err != nil {
		return RiskAssessment{}, fmt.Errorf("read request rate: %w", err)
	}
	if rapid > d.cfg.RapidRequestThreshold {
		factors = append(factors, "Rapid request pattern")
		score += 25
	}

	return RiskAssessment{
		UserID:      userID,
		RiskScore:   score,
		RiskLevel:   riskLevel(score),
		RiskFactors: factors,
		Timestamp:   now,
	}, nil
}

func riskLevel(score int) RiskLevel {
	switch {
	case score >= 70:
		return RiskHigh
	case score >= 40:
		return RiskMedium
	default:
		return RiskLow
	}
}

// SuspiciousUsers 는 당일 경보가 3건을 넘고 위험 등급이 MEDIUM 이상인 사용자를 점수 내림차순으로 반환한다.
func (d *FraudDetector) SuspiciousUsers(ctx context.Context) []RiskAssessment {
	now := d.now().UTC()
	suffix := ":" + now.Format("2006-01-02")
	keys, err := d.counters.Keys(ctx, "alerts:*"+suffix)
	if err != nil {
		d.logger.Warn("suspicious_users_scan_failed", "err", err)
		return []RiskAssessment{}
	}

	result := []RiskAssessment{}
	for _, key := range keys {
		userID := strings.TrimSuffix(strings.TrimPrefix(key, "alerts:"), suffix)
		count, ok, err := d.counters.Get(ctx, key)
		if err != nil || !ok || count <= suspiciousAlerts {
			continue
		}
		assessment := d.RiskScore(ctx, userID)
		if assessment.RiskLevel == RiskMedium || assessment.RiskLevel == RiskHigh {
			result = append(result, assessment)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].RiskScore != result[j].RiskScore {
			return result[i].RiskScore > result[j].RiskScore
		}
		return result[i].UserID < result[j].UserID
	})
	return result
}

// BlockUser 는 사용자를 설정된 시간(기본 24시간) 동안 차단한다.
func (d *FraudDetector) BlockUser(ctx context.Context, userID, reason string) (BlockRecord, error) {
	if userID == "" {
		return BlockRecord{}, ErrUserIDRequired
	}
	record := BlockRecord{
		UserID:    userID,
		Reason:    reason,
		BlockedAt: d.now().UTC(),
		BlockedBy: blockedBy,
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return BlockRecord{}, fmt.Errorf("marshal block record: %w", err)
	}
	ttl := time.Duration(d.cfg.BlockTTLHours) * time.Hour
	if err := d.counters.SetBlob(ctx, blockKey(userID), payload, ttl); err != nil {
		return BlockRecord{}, fmt.Errorf("store block record: %w", err)
	}
	d.logger.Warn("user_blocked", "user_id", userID, "reason", reason, "ttl", ttl)
	return record, nil
}

// IsUserBlocked 는 차단 여부를 반환한다. 조회 실패 시 차단하지 않은 것으로 본다.
func (d *FraudDetector) IsUserBlocked(ctx context.Context, userID string) bool {
	blocked, err := d.counters.Exists(ctx, blockKey(userID))
	if err != nil {
		d.logger.Warn("block_check_failed", "user_id", userID, "err", err)
		return false
	}
	return blocked
}

// BlockRecord 는 저장된 차단 기록을 조회한다.
func (d *FraudDetector) BlockRecord(ctx context.Context, userID string) (BlockRecord, bool, error) {
	payload, ok, err := d.counters.GetBlob(ctx, blockKey(userID))
	if err != nil {
		return BlockRecord{}, false, fmt.Errorf("read block record: %w", err)
	}
	if !ok {
		return BlockRecord{}, false, nil
	}
	var record BlockRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return BlockRecord{}, false, fmt.Errorf("decode block record: %w", err)
	}
	return record, true, nil
}
