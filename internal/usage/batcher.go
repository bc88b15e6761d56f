package usage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/config"
)

const defaultFlushTimeout = 5 * time.Second

// batcher 는 요청 요약을 모아 DB에 플러시한다.
type batcher struct {
	repo                     Store
	logger                   *slog.Logger
	flushInterval            time.Duration
	flushTimeout             time.Duration
	maxPendingRequests       int
	maxBackoff               time.Duration
	errorLogMaxInterval      time.Duration
	mu                       sync.Mutex
	pending                  []RequestSummary
	wakeup                   chan struct{}
	stopCh                   chan struct{}
	doneCh                   chan struct{}
	consecutiveFlushFailures int
	nextFlushAllowedAt       time.Time
	lastErrorLoggedAt        time.Time
	flushSuccessTotal        int
	flushFailureTotal        int
	flushRequeuedTotal       int
	flushDroppedTotal        int
}

// newBatcher 새로운 배치 플러셔 생성
func newBatcher(cfg config.DatabaseConfig, repo Store, logger *slog.Logger) *batcher {
	interval := time.Duration(cfg.UsageBatchFlushIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Second
	}
	maxBackoff := time.Duration(cfg.UsageBatchMaxBackoffSeconds) * time.Second
	if maxBackoff <= 0 {
		maxBackoff = interval
	}
	maxPending := max(1, cfg.UsageBatchMaxPendingRequests)
	flushTimeout := defaultFlushTimeout
	if cfg.UsageBatchFlushTimeoutSeconds > 0 {
		flushTimeout = time.Duration(cfg.UsageBatchFlushTimeoutSeconds) * time.Second
	}
	return &batcher{
		repo:                repo,
		logger:              logger,
		flushInterval:       interval,
		flushTimeout:        flushTimeout,
		maxPendingRequests:  maxPending,
		maxBackoff:          maxBackoff,
		errorLogMaxInterval: time.Duration(cfg.UsageBatchErrorLogMaxIntervalSeconds) * time.Second,
		wakeup:              make(chan struct{}, 1),
		stopCh:              make(chan struct{}),
		doneCh:              make(chan struct{}),
	}
}

func (b *batcher) start() {
	go b.loop()
}

func (b *batcher) stop() {
	close(b.stopCh)
	<-b.doneCh
}

func (b *batcher) add(row RequestSummary) {
	b.mu.Lock()
	b.pending = append(b.pending, row)
	shouldFlush := len(b.pending) >= b.maxPendingRequests
	b.mu.Unlock()

	if shouldFlush {
		b.signal()
	}
}

func (b *batcher) loop() {
	ticker := time.NewTicker(b.flushInterval)
	defer func() {
		ticker.Stop()
		close(b.doneCh)
	}()

	for {
		select {
		case <-ticker.C:
			b.flush(false)
		case <-b.wakeup:
			b.flush(false)
		case <-b.stopCh:
			b.flush(true)
			return
		}
	}
}

func (b *batcher) signal() {
	select {
	case b.wakeup <- struct{}{}:
	default:
	}
}

func (b *batcher) flush(isShutdown bool) {
	if b.shouldSkipFlush(isShutdown) {
		return
	}

	snapshot := b.takeSnapshot()
	if len(snapshot) == 0 {
		return
	}

	if err := b.apply(snapshot); err != nil {
		b.flushFailureTotal++
		if isShutdown {
			b.flushDroppedTotal += len(snapshot)
		} else {
			b.requeue(snapshot)
			b.flushRequeuedTotal += len(snapshot)
		}
		b.registerFailure(err)
		return
	}

	b.flushSuccessTotal++
	b.resetFailures()
}

func (b *batcher) shouldSkipFlush(isShutdown bool) bool {
	if isShutdown {
		return false
	}
	if b.nextFlushAllowedAt.IsZero() {
		return false
	}
	return time.Now().Before(b.nextFlushAllowedAt)
}

func (b *batcher) takeSnapshot() []RequestSummary {
	b.mu.Lock()
	snapshot := b.pending
	b.pending = nil
	b.mu.Unlock()
	return snapshot
}

func (b *batcher) apply(snapshot []RequestSummary) error {
	ctx, cancel := context.WithTimeout(context.Background(), b.flushTimeout)
	defer cancel()
	return b.repo.SaveRequests(ctx, snapshot)
}

// requeue 는 실패한 배치를 새로 들어온 항목 앞에 되돌린다.
func (b *batcher) requeue(rows []RequestSummary) {
	b.mu.Lock()
	b.pending = append(rows, b.pending...)
	b.mu.Unlock()
}

func (b *batcher) pendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

func (b *batcher) registerFailure(firstErr error) {
	b.consecutiveFlushFailures++
	backoff := b.computeBackoff()
	b.nextFlushAllowedAt = time.Now().Add(backoff)

	if b.shouldLogFailure() {
		b.lastErrorLoggedAt = time.Now()
		if b.logger != nil {
			b.logger.Warn(
				"usage_db_batch_flush_failed",
				"failures", b.consecutiveFlushFailures,
				"backoff", backoff,
				"pending_requests", b.pendingCount(),
				"err", firstErr,
			)
		}
	}
}

func (b *batcher) computeBackoff() time.Duration {
	backoff := b.flushInterval * time.Duration(1<<max(0, b.consecutiveFlushFailures-1))
	if backoff > b.maxBackoff {
		backoff = b.maxBackoff
	}
	if backoff <= 0 {
		backoff = b.flushInterval
	}
	return backoff
}

func (b *batcher) resetFailures() {
	b.consecutiveFlushFailures = 0
	b.nextFlushAllowedAt = time.Time{}
}

func (b *batcher) shouldLogFailure() bool {
	if b.consecutiveFlushFailures <= 0 {
		return false
	}
	if isPowerOfTwo(b.consecutiveFlushFailures) {
		return true
	}
	if b.errorLogMaxInterval <= 0 {
		return false
	}
	return time.Since(b.lastErrorLoggedAt) >= b.errorLogMaxInterval
}

// isPowerOfTwo 2의 거듭제곱인지 확인
func isPowerOfTwo(value int) bool {
	return value > 0 && (value&(value-1)) == 0
}
