package monitor

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/config"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/domain"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/store"
)

// Publisher 는 생성된 경보를 외부 구독자에게 전달한다.
type Publisher interface {
	Publish(ctx context.Context, alert domain.UsageAlert) error
}

// StreamConfig: 경보 스트림 키, 최대 길이, XADD 타임아웃 설정입니다.
type StreamConfig struct {
	Stream  string
	MaxLen  int64
	Timeout time.Duration
}

// StreamPublisher 는 경보를 Valkey 스트림에 XADD 로 발행한다.
type StreamPublisher struct {
	client valkey.Client
	logger *slog.Logger
	cfg    StreamConfig
}

// NewStreamPublisher 는 스트림 발행기를 생성한다.
func NewStreamPublisher(client valkey.Client, logger *slog.Logger, cfg StreamConfig) *StreamPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamPublisher{client: client, logger: logger, cfg: cfg}
}

// Publish: 경보 필드를 고정 순서로 XADD 합니다. MaxLen 이 있으면 MAXLEN ~ 로 자릅니다.
func (p *StreamPublisher) Publish(ctx context.Context, alert domain.UsageAlert) error {
	var args []string
	if p.cfg.MaxLen > 0 {
		args = append(args, "MAXLEN", "~", strconv.FormatInt(p.cfg.MaxLen, 10))
	}
	args = append(args, "*",
		"type", string(alert.Type),
		"user_id", alert.UserID,
		"severity", string(alert.Severity),
		"message", alert.Message,
		"timestamp", alert.Timestamp.UTC().Format(time.RFC3339),
	)

	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	cmd := p.client.B().Arbitrary("XADD").Keys(p.cfg.Stream).Args(args...).Build()
	id, err := p.client.Do(ctx, cmd).ToString()
	if err != nil {
		return fmt.Errorf("xadd failed stream=%s: %w", p.cfg.Stream, err)
	}

	p.logger.Debug("message_published", "stream", p.cfg.Stream, "id", id)
	return nil
}

// NopPublisher 는 발행 대상이 없을 때 쓰는 빈 구현이다.
type NopPublisher struct{}

// Publish 는 아무 것도 하지 않는다.
func (NopPublisher) Publish(context.Context, domain.UsageAlert) error { return nil }

// NewPublisher 는 카운터 저장소가 Valkey 이고 스트림 키가 설정된 경우 스트림 발행기를,
// 그 외에는 NopPublisher 를 반환한다.
func NewPublisher(counters store.CounterStore, cfg config.CounterStoreConfig, logger *slog.Logger) Publisher {
	vs, ok := counters.(*store.ValkeyStore)
	if !ok || cfg.AlertStream == "" {
		return NopPublisher{}
	}
	return NewStreamPublisher(vs.Client(), logger, StreamConfig{
		Stream:  cfg.AlertStream,
		MaxLen:  cfg.AlertStreamMaxLen,
		Timeout: cmp.Or(cfg.OpTimeout, config.DefaultCounterStoreOpTimeout),
	})
}
