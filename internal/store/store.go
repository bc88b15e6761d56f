// Package store 는 사용량 카운터를 위한 원자적 증가/TTL 저장소 추상화와
// Valkey, 인메모리 구현을 제공한다.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/config"
)

var (
	// ErrStoreRequired 는 저장소가 필수인데 비활성화된 경우다.
	ErrStoreRequired = errors.New("counter store required but disabled")
	// ErrWrongType 는 키에 다른 종류의 값이 저장되어 있는 경우다.
	ErrWrongType = errors.New("counter store: wrong value type")
)

// CounterStore 는 카운터, set-once 가드, 짧은 리스트, 집합을 TTL 과 함께 다루는 저장소다.
// 모든 구현은 동시 호출에 안전해야 한다.
type CounterStore interface {
	// IncrBy 는 key 를 delta 만큼 원자적으로 증가시키고 TTL 을 갱신한 뒤 새 값을 반환한다.
	IncrBy(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)
	Get(ctx context.Context, key string) (int64, bool, error)
	// SetNX 는 key 가 없을 때만 값을 쓰고 기록 여부를 반환한다.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	SetBlob(ctx context.Context, key string, value []byte, ttl time.Duration) error
	GetBlob(ctx context.Context, key string) ([]byte, bool, error)
	// PushTrim 은 리스트 끝에 value 를 추가하고 최근 keep 개만 남긴다.
	PushTrim(ctx context.Context, key string, value int64, keep int, ttl time.Duration) error
	Range(ctx context.Context, key string) ([]int64, error)
	// SetAdd 는 집합에 member 를 추가하고 현재 원소 수를 반환한다.
	SetAdd(ctx context.Context, key, member string, ttl time.Duration) (int64, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, keys ...string) error
	Keys(ctx context.Context, pattern string) ([]string, error)
	Ping(ctx context.Context) error
	Close()
}

// Open 은 설정에 따라 Valkey 저장소를 연결하고, 사용할 수 없으면 메모리 저장소로 대체한다.
func Open(ctx context.Context, cfg config.CounterStoreConfig, logger *slog.Logger) (CounterStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.Enabled {
		if cfg.Required {
			return nil, ErrStoreRequired
		}
		return openMemory(cfg, logger), nil
	}

	vs, err := NewValkeyStore(cfg)
	if err != nil {
		if cfg.Required {
			return nil, err
		}
		logger.Warn("counter_store_fallback_memory", "err", err)
		return openMemory(cfg, logger), nil
	}

	if err := pingWithRetry(ctx, vs, cfg, logger); err != nil {
		vs.Close()
		if cfg.Required {
			return nil, fmt.Errorf("connect counter store: %w", err)
		}
		logger.Warn("counter_store_fallback_memory", "err", err)
		return openMemory(cfg, logger), nil
	}

	logger.Info("counter_store_connected", "backend", "valkey")
	return vs, nil
}

func openMemory(cfg config.CounterStoreConfig, logger *slog.Logger) *MemoryStore {
	mem := NewMemoryStore()
	if cfg.SnapshotPath == "" {
		return mem
	}
	restored, err := mem.LoadSnapshot(cfg.SnapshotPath)
	if err != nil {
		logger.Warn("counter_snapshot_load_failed", "path", cfg.SnapshotPath, "err", err)
		return mem
	}
	logger.Info("counter_snapshot_loaded", "path", cfg.SnapshotPath, "keys", restored)
	return mem
}

func pingWithRetry(ctx context.Context, s CounterStore, cfg config.CounterStoreConfig, logger *slog.Logger) error {
	attempts := max(1, cfg.ConnectMaxAttempts)
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Duration(cfg.ConnectRetrySeconds)*time.Second), uint64(attempts-1)),
		ctx,
	)

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		pingErr := s.Ping(ctx)
		if pingErr != nil {
			logger.Warn("counter_store_ping_failed", "attempt", attempt, "max_attempts", attempts, "err", pingErr)
		}
		return pingErr
	}, policy)
	if err != nil {
		return fmt.Errorf("ping after %d attempts: %w", attempt, err)
	}
	return nil
}
