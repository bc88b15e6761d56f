package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/config"
)

func newValkeyTestStore(t *testing.T) (*ValkeyStore, *miniredis.Miniredis) {
	t.Helper()
	mini := miniredis.RunT(t)
	s, err := NewValkeyStore(config.CounterStoreConfig{URL: "redis://" + mini.Addr(), Enabled: true, DisableCache: true})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(s.Close)
	return s, mini
}

func backends(t *testing.T) map[string]CounterStore {
	vs, _ := newValkeyTestStore(t)
	return map[string]CounterStore{
		"valkey": vs,
		"memory": NewMemoryStore(),
	}
}

func TestCounterStoreContract(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			n, err := s.IncrBy(ctx, "c", 100, time.Hour)
			if err != nil || n != 100 {
				t.Fatalf("first incr: n=%d err=%v", n, err)
			}
			n, err = s.IncrBy(ctx, "c", 50, time.Hour)
			if err != nil || n != 150 {
				t.Fatalf("second incr: n=%d err=%v", n, err)
			}
			got, ok, err := s.Get(ctx, "c")
			if err != nil || !ok || got != 150 {
				t.Fatalf("get: %d %v %v", got, ok, err)
			}
			if _, ok, _ := s.Get(ctx, "missing"); ok {
				t.Fatalf("expected missing key")
			}

			set, err := s.SetNX(ctx, "guard", "1", time.Hour)
			if err != nil || !set {
				t.Fatalf("first setnx: %v %v", set, err)
			}
			set, err = s.SetNX(ctx, "guard", "1", time.Hour)
			if err != nil || set {
				t.Fatalf("second setnx should not set: %v %v", set, err)
			}
			if exists, _ := s.Exists(ctx, "guard"); !exists {
				t.Fatalf("expected guard to exist")
			}

			for i := int64(1); i <= 30; i++ {
				if err := s.PushTrim(ctx, "hist", i, 24, time.Hour); err != nil {
					t.Fatalf("push: %v", err)
				}
			}
			values, err := s.Range(ctx, "hist")
			if err != nil {
				t.Fatalf("range: %v", err)
			}
			if len(values) != 24 || values[0] != 7 || values[23] != 30 {
				t.Fatalf("unexpected history: %v", values)
			}
			if empty, _ := s.Range(ctx, "nohist"); len(empty) != 0 {
				t.Fatalf("expected empty range, got %v", empty)
			}

			for _, ip := range []string{"a", "b", "a", "c"} {
				if _, err := s.SetAdd(ctx, "ips", ip, time.Hour); err != nil {
					t.Fatalf("sadd: %v", err)
				}
			}
			count, _ := s.SetAdd(ctx, "ips", "c", time.Hour)
			if count != 3 {
				t.Fatalf("expected 3 members, got %d", count)
			}

			blob := []byte(`{"user_id":"u1","reason":"abuse"}`)
			if err := s.SetBlob(ctx, "blob", blob, time.Hour); err != nil {
				t.Fatalf("set blob: %v", err)
			}
			back, ok, err := s.GetBlob(ctx, "blob")
			if err != nil || !ok || string(back) != string(blob) {
				t.Fatalf("get blob: %q %v %v", back, ok, err)
			}

			keys, err := s.Keys(ctx, "h*")
			if err != nil || len(keys) != 1 || keys[0] != "hist" {
				t.Fatalf("keys: %v %v", keys, err)
			}

			if err := s.Delete(ctx, "c", "guard"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if exists, _ := s.Exists(ctx, "c"); exists {
				t.Fatalf("expected counter deleted")
			}
			if err := s.Ping(ctx); err != nil {
				t.Fatalf("ping: %v", err)
			}
		})
	}
}

func TestValkeyStoreTTL(t *testing.T) {
	s, mini := newValkeyTestStore(t)
	ctx := context.Background()

	if _, err := s.IncrBy(ctx, "hourly", 10, time.Hour); err != nil {
		t.Fatalf("incr: %v", err)
	}
	if ttl := mini.TTL("hourly"); ttl != time.Hour {
		t.Fatalf("unexpected ttl: %v", ttl)
	}
	mini.FastForward(time.Hour + time.Second)
	if _, ok, _ := s.Get(ctx, "hourly"); ok {
		t.Fatalf("expected key to expire")
	}
}

func TestValkeyStoreUnreachableReturnsPromptly(t *testing.T) {
	mini := miniredis.RunT(t)
	s, err := NewValkeyStore(config.CounterStoreConfig{URL: "redis://" + mini.Addr(), Enabled: true, DisableCache: true, OpTimeout: 200 * time.Millisecond})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(s.Close)
	mini.Close()

	ctx := context.Background()
	calls := map[string]func() error{
		"exists": func() error { _, err := s.Exists(ctx, "blocked"); return err },
		"get":    func() error { _, _, err := s.Get(ctx, "c"); return err },
		"range":  func() error { _, err := s.Range(ctx, "h"); return err },
		"incrby": func() error { _, err := s.IncrBy(ctx, "c", 1, time.Minute); return err },
	}
	for name, call := range calls {
		start := time.Now()
		if err := call(); err == nil {
			t.Fatalf("%s: expected error from closed server", name)
		}
		if elapsed := time.Since(start); elapsed > 2*time.Second {
			t.Fatalf("%s: took %v, expected bounded return", name, elapsed)
		}
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	_, _ = s.IncrBy(ctx, "k", 1, time.Minute)
	_, _ = s.SetNX(ctx, "g", "1", time.Minute)
	_, _ = s.IncrBy(ctx, "forever", 1, 0)

	now = now.Add(time.Minute)
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Fatalf("expected expired counter")
	}
	if set, _ := s.SetNX(ctx, "g", "1", time.Minute); !set {
		t.Fatalf("expected setnx after expiry")
	}
	if removed := s.Sweep(); removed != 0 {
		t.Fatalf("unexpected sweep count: %d", removed)
	}
	now = now.Add(2 * time.Minute)
	if removed := s.Sweep(); removed != 1 {
		t.Fatalf("expected one swept key, got %d", removed)
	}
	if v, ok, _ := s.Get(ctx, "forever"); !ok || v != 1 {
		t.Fatalf("key without ttl should persist")
	}
}

func TestMemoryStoreWrongType(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_ = s.PushTrim(ctx, "list", 1, 0, 0)
	if _, err := s.IncrBy(ctx, "list", 1, 0); !errors.Is(err, ErrWrongType) {
		t.Fatalf("expected wrong type, got %v", err)
	}
}

func TestMemoryStoreSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "snap", "counters.zst")

	src := NewMemoryStore()
	_, _ = src.IncrBy(ctx, "monthly_usage:google:2026-01:tokens_used", 1234, 30*24*time.Hour)
	_ = src.PushTrim(ctx, "historical:u1:google-gemini-pro", 42, 24, time.Hour)
	_, _ = src.SetAdd(ctx, "ips:u1", "10.0.0.1", time.Hour)
	_, _ = src.IncrBy(ctx, "gone", 1, time.Nanosecond)
	time.Sleep(time.Millisecond)

	saved, err := src.SaveSnapshot(path)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved != 3 {
		t.Fatalf("expected 3 live keys saved, got %d", saved)
	}

	dst := NewMemoryStore()
	restored, err := dst.LoadSnapshot(path)
	if err != nil || restored != 3 {
		t.Fatalf("load: restored=%d err=%v", restored, err)
	}
	if v, ok, _ := dst.Get(ctx, "monthly_usage:google:2026-01:tokens_used"); !ok || v != 1234 {
		t.Fatalf("unexpected restored counter: %d", v)
	}
	if n, _ := dst.SetAdd(ctx, "ips:u1", "10.0.0.2", time.Hour); n != 2 {
		t.Fatalf("unexpected restored set size: %d", n)
	}

	missing, err := NewMemoryStore().LoadSnapshot(filepath.Join(t.TempDir(), "none"))
	if err != nil || missing != 0 {
		t.Fatalf("missing snapshot should be ignored: %d %v", missing, err)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	if _, err := Open(ctx, config.CounterStoreConfig{Enabled: false, Required: true}, nil); !errors.Is(err, ErrStoreRequired) {
		t.Fatalf("expected ErrStoreRequired, got %v", err)
	}

	s, err := Open(ctx, config.CounterStoreConfig{Enabled: false}, nil)
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if _, ok := s.(*MemoryStore); !ok {
		t.Fatalf("expected memory store, got %T", s)
	}

	mini := miniredis.RunT(t)
	s, err = Open(ctx, config.CounterStoreConfig{URL: "redis://" + mini.Addr(), Enabled: true, DisableCache: true, ConnectMaxAttempts: 1}, nil)
	if err != nil {
		t.Fatalf("open valkey: %v", err)
	}
	defer s.Close()
	if _, ok := s.(*ValkeyStore); !ok {
		t.Fatalf("expected valkey store, got %T", s)
	}
}

func TestParseURL(t *testing.T) {
	tests := []struct {
		raw     string
		addr    string
		db      int
		tls     bool
		wantErr bool
	}{
		{"redis://localhost:6379", "localhost:6379", 0, false, false},
		{"rediss://user:pw@cache.internal/2", "cache.internal:6379", 2, true, false},
		{"localhost", "localhost:6379", 0, false, false},
		{"10.0.0.5:6380", "10.0.0.5:6380", 0, false, false},
		{"redis://localhost/abc", "", 0, false, true},
		{"", "", 0, false, true},
	}
	for _, tc := range tests {
		info, err := parseURL(tc.raw)
		if (err != nil) != tc.wantErr {
			t.Errorf("parseURL(%q) err=%v wantErr=%v", tc.raw, err, tc.wantErr)
			continue
		}
		if tc.wantErr {
			continue
		}
		if info.addr != tc.addr || info.selectDB != tc.db || info.useTLS != tc.tls {
			t.Errorf("parseURL(%q) = %+v", tc.raw, info)
		}
	}
}
