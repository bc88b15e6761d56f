package store

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/config"
)

// ValkeyStore 는 Valkey(Redis 호환) 기반 CounterStore 구현이다.
// 모든 명령은 opTimeout 으로 묶여 저장소 장애가 요청 경로를 멈추지 않는다.
type ValkeyStore struct {
	client    valkey.Client
	opTimeout time.Duration
}

var _ CounterStore = (*ValkeyStore)(nil)

// NewValkeyStore 는 URL 설정으로 Valkey 클라이언트를 생성한다.
func NewValkeyStore(cfg config.CounterStoreConfig) (*ValkeyStore, error) {
	conn, err := parseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse counter store url: %w", err)
	}

	var tlsConfig *tls.Config
	if conn.useTLS {
		host, _, splitErr := net.SplitHostPort(conn.addr)
		if splitErr != nil {
			return nil, fmt.Errorf("parse counter store addr: %w", splitErr)
		}
		tlsConfig = &tls.Config{MinVersion: tls.VersionTLS12, ServerName: host}
	}

	opTimeout := cfg.OpTimeout
	if opTimeout <= 0 {
		opTimeout = config.DefaultCounterStoreOpTimeout
	}

	client, err := valkey.NewClient(valkey.ClientOption{
		TLSConfig:        tlsConfig,
		Username:         conn.username,
		Password:         conn.password,
		InitAddress:      []string{conn.addr},
		SelectDB:         conn.selectDB,
		DisableCache:     cfg.DisableCache,
		DisableRetry:     true,
		Dialer:           net.Dialer{Timeout: opTimeout},
		ConnWriteTimeout: opTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to valkey: %w", err)
	}
	return &ValkeyStore{client: client, opTimeout: opTimeout}, nil
}

// NewValkeyStoreFromClient 는 이미 생성된 클라이언트를 기본 명령 타임아웃으로 감싼다.
func NewValkeyStoreFromClient(client valkey.Client) *ValkeyStore {
	return &ValkeyStore{client: client, opTimeout: config.DefaultCounterStoreOpTimeout}
}

func (s *ValkeyStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opTimeout)
}

// Client 는 스트림 발행 등 저장소 외 용도로 원본 클라이언트를 노출한다.
func (s *ValkeyStore) Client() valkey.Client {
	return s.client
}

func ttlSeconds(ttl time.Duration) int64 {
	return max(1, int64(ttl/time.Second))
}

// IncrBy: INCRBY 와 EXPIRE 를 한 번의 왕복으로 실행합니다.
func (s *ValkeyStore) IncrBy(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	cmds := []valkey.Completed{s.client.B().Incrby().Key(key).Increment(delta).Build()}
	if ttl > 0 {
		cmds = append(cmds, s.client.B().Expire().Key(key).Seconds(ttlSeconds(ttl)).Build())
	}
	results := s.client.DoMulti(ctx, cmds...)
	value, err := results[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("incrby %s: %w", key, err)
	}
	if len(results) > 1 {
		if err := results[1].Error(); err != nil {
			return value, fmt.Errorf("expire %s: %w", key, err)
		}
	}
	return value, nil
}

func (s *ValkeyStore) Get(ctx context.Context, key string) (int64, bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	value, err := s.client.Do(ctx, s.client.B().Get().Key(key).Build()).AsInt64()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *ValkeyStore) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	cmd := s.client.B().Set().Key(key).Value(value).Nx().Ex(ttl).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return false, nil
		}
		return false, fmt.Errorf("set nx %s: %w", key, err)
	}
	return true, nil
}

// SetBlob: 값을 zstd 로 압축해 저장합니다.
func (s *ValkeyStore) SetBlob(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	packed, err := compress(value)
	if err != nil {
		return err
	}
	cmd := s.client.B().Set().Key(key).Value(valkey.BinaryString(packed)).Ex(ttl).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *ValkeyStore) GetBlob(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	packed, err := s.client.Do(ctx, s.client.B().Get().Key(key).Build()).AsBytes()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	value, err := decompress(packed)
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// PushTrim: RPUSH, LTRIM, EXPIRE 를 DoMulti 로 묶어 실행합니다.
func (s *ValkeyStore) PushTrim(ctx context.Context, key string, value int64, keep int, ttl time.Duration) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	cmds := []valkey.Completed{
		s.client.B().Rpush().Key(key).Element(strconv.FormatInt(value, 10)).Build(),
	}
	if keep > 0 {
		cmds = append(cmds, s.client.B().Ltrim().Key(key).Start(int64(-keep)).Stop(-1).Build())
	}
	if ttl > 0 {
		cmds = append(cmds, s.client.B().Expire().Key(key).Seconds(ttlSeconds(ttl)).Build())
	}
	for _, result := range s.client.DoMulti(ctx, cmds...) {
		if err := result.Error(); err != nil {
			return fmt.Errorf("push trim %s: %w", key, err)
		}
	}
	return nil
}

func (s *ValkeyStore) Range(ctx context.Context, key string) ([]int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	items, err := s.client.Do(ctx, s.client.B().Lrange().Key(key).Start(0).Stop(-1).Build()).AsStrSlice()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lrange %s: %w", key, err)
	}
	values := make([]int64, 0, len(items))
	for _, item := range items {
		n, convErr := strconv.ParseInt(item, 10, 64)
		if convErr != nil {
			continue
		}
		values = append(values, n)
	}
	return values, nil
}

func (s *ValkeyStore) SetAdd(ctx context.Context, key, member string, ttl time.Duration) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	cmds := []valkey.Completed{
		s.client.B().Sadd().Key(key).Member(member).Build(),
		s.client.B().Scard().Key(key).Build(),
	}
	if ttl > 0 {
		cmds = append(cmds, s.client.B().Expire().Key(key).Seconds(ttlSeconds(ttl)).Build())
	}
	results := s.client.DoMulti(ctx, cmds...)
	if err := results[0].Error(); err != nil {
		return 0, fmt.Errorf("sadd %s: %w", key, err)
	}
	count, err := results[1].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("scard %s: %w", key, err)
	}
	return count, nil
}

func (s *ValkeyStore) Exists(ctx context.Context, key string) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	n, err := s.client.Do(ctx, s.client.B().Exists().Key(key).Build()).AsInt64()
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", key, err)
	}
	return n > 0, nil
}

func (s *ValkeyStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.client.Do(ctx, s.client.B().Del().Key(keys...).Build()).Error(); err != nil {
		return fmt.Errorf("del: %w", err)
	}
	return nil
}

// Keys: KEYS 대신 SCAN 으로 패턴에 맞는 키를 모읍니다.
func (s *ValkeyStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	for {
		cmd := s.client.B().Scan().Cursor(cursor).Match(pattern).Count(100).Build()
		pageCtx, cancel := s.withTimeout(ctx)
		entry, err := s.client.Do(pageCtx, cmd).AsScanEntry()
		cancel()
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", pattern, err)
		}
		keys = append(keys, entry.Elements...)
		cursor = entry.Cursor
		if cursor == 0 {
			return keys, nil
		}
	}
}

func (s *ValkeyStore) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.client.Do(ctx, s.client.B().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("ping valkey: %w", err)
	}
	return nil
}

func (s *ValkeyStore) Close() {
	if s != nil && s.client != nil {
		s.client.Close()
	}
}
