package usage

import (
	"context"
	"log/slog"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/config"
)

// Recorder 는 요청 요약을 즉시 저장하거나 배치로 적재한다.
type Recorder struct {
	repo    Store
	batcher *batcher
	logger  *slog.Logger
}

// NewRecorder 는 설정에 따라 배치 사용 여부를 결정해 Recorder를 생성한다.
func NewRecorder(cfg config.DatabaseConfig, repo Store, logger *slog.Logger) *Recorder {
	recorder := &Recorder{
		repo:   repo,
		logger: logger,
	}

	if cfg.UsageBatchEnabled && repo != nil {
		recorder.batcher = newBatcher(cfg, repo, logger)
		recorder.batcher.start()
		if logger != nil {
			logger.Info(
				"usage_db_batch_enabled",
				"flush_interval_seconds", cfg.UsageBatchFlushIntervalSeconds,
				"flush_timeout_seconds", cfg.UsageBatchFlushTimeoutSeconds,
				"max_pending_requests", cfg.UsageBatchMaxPendingRequests,
				"max_backoff_seconds", cfg.UsageBatchMaxBackoffSeconds,
				"error_log_max_interval_seconds", cfg.UsageBatchErrorLogMaxIntervalSeconds,
			)
		}
	}

	return recorder
}

// Record 는 요청 요약 한 건을 기록한다. 실패는 로그만 남긴다.
func (r *Recorder) Record(ctx context.Context, row RequestSummary) {
	if r == nil || r.repo == nil {
		return
	}

	if r.batcher != nil {
		r.batcher.add(row)
		return
	}

	if err := r.repo.SaveRequests(ctx, []RequestSummary{row}); err != nil {
		if r.logger != nil {
			r.logger.Warn("usage_db_save_failed", "request_id", row.RequestID, "err", err)
		}
	}
}

// Close 는 배치 플러셔를 중지하고 남은 요약을 플러시한다.
func (r *Recorder) Close() {
	if r == nil || r.batcher == nil {
		return
	}
	r.batcher.stop()
}
