package metrics

import (
	"math"
	"sync/atomic"
	"time"
)

// Store 는 프로바이더 호출 통계를 프로세스 내에 누적한다.
// 같은 값이 Prometheus 수집기(prometheus.go)에도 기록된다.
type Store struct {
	totalAttempts   int64
	totalErrors     int64
	totalRoutes     int64
	totalFallbacks  int64
	totalExhausted  int64
	totalTokens     int64
	totalCostMicros int64
	totalDurationMs int64
	totalAlerts     int64
}

// NewStore 는 통계 저장소를 생성한다.
func NewStore() *Store {
	return &Store{}
}

// RecordSuccess 는 성공한 프로바이더 호출을 기록한다.
func (s *Store) RecordSuccess(provider, model string, duration time.Duration, tokens int, cost float64) {
	atomic.AddInt64(&s.totalAttempts, 1)
	atomic.AddInt64(&s.totalTokens, int64(tokens))
	atomic.AddInt64(&s.totalCostMicros, int64(math.Round(cost*1_000_000)))
	atomic.AddInt64(&s.totalDurationMs, duration.Milliseconds())

	ProviderCallTotal.WithLabelValues(provider, model, "success").Inc()
	ProviderCallDuration.WithLabelValues(provider, model).Observe(duration.Seconds())
	TokensUsed.WithLabelValues(provider, model).Add(float64(tokens))
	CostUSD.WithLabelValues(provider).Add(cost)
}

// RecordError 는 실패한 프로바이더 호출을 기록한다.
func (s *Store) RecordError(provider, model string, duration time.Duration) {
	atomic.AddInt64(&s.totalAttempts, 1)
	atomic.AddInt64(&s.totalErrors, 1)
	atomic.AddInt64(&s.totalDurationMs, duration.Milliseconds())

	ProviderCallTotal.WithLabelValues(provider, model, "error").Inc()
	ProviderCallDuration.WithLabelValues(provider, model).Observe(duration.Seconds())
}

// RecordRoute 는 라우팅 한 건의 결과를 기록한다. attempts 가 1 보다 크면 폴백이 일어난 것이다.
func (s *Store) RecordRoute(outcome string, attempts int) {
	atomic.AddInt64(&s.totalRoutes, 1)
	if attempts > 1 {
		atomic.AddInt64(&s.totalFallbacks, 1)
	}
	if outcome != OutcomeSuccess {
		atomic.AddInt64(&s.totalExhausted, 1)
	}
	RouteTotal.WithLabelValues(outcome).Inc()
	RouteAttempts.Observe(float64(attempts))
}

// RecordAlert 는 생성된 사용량 경보를 기록한다.
func (s *Store) RecordAlert(alertType, severity string) {
	atomic.AddInt64(&s.totalAlerts, 1)
	AlertsTotal.WithLabelValues(alertType, severity).Inc()
}

// Snapshot 는 통계 스냅샷을 반환한다.
func (s *Store) Snapshot() map[string]float64 {
	attempts := atomic.LoadInt64(&s.totalAttempts)
	durationMs := atomic.LoadInt64(&s.totalDurationMs)

	avgDuration := 0.0
	if attempts > 0 {
		avgDuration = float64(durationMs) / float64(attempts)
	}

	return map[string]float64{
		"total_attempts":    float64(attempts),
		"total_errors":      float64(atomic.LoadInt64(&s.totalErrors)),
		"total_routes":      float64(atomic.LoadInt64(&s.totalRoutes)),
		"total_fallbacks":   float64(atomic.LoadInt64(&s.totalFallbacks)),
		"total_exhausted":   float64(atomic.LoadInt64(&s.totalExhausted)),
		"total_tokens":      float64(atomic.LoadInt64(&s.totalTokens)),
		"total_cost_usd":    float64(atomic.LoadInt64(&s.totalCostMicros)) / 1_000_000,
		"total_duration_ms": float64(durationMs),
		"avg_duration_ms":   avgDuration,
		"total_alerts":      float64(atomic.LoadInt64(&s.totalAlerts)),
	}
}
