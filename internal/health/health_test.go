package health

import (
	"context"
	"errors"
	"testing"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/config"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/domain"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/store"
)

type stubPinger struct {
	err   error
	calls int
}

func (s *stubPinger) Ping(context.Context) error {
	s.calls++
	return s.err
}

type stubProviders []domain.ProviderDescriptor

func (s stubProviders) ListProviders() []domain.ProviderDescriptor { return s }

func TestCollectShallowSkipsPings(t *testing.T) {
	repo := &stubPinger{err: errors.New("down")}
	checker := NewChecker(&config.Config{}, store.NewMemoryStore(), repo, stubProviders{{ID: "openai-gpt-4", Available: true}})

	resp := checker.Collect(context.Background(), false)
	if resp.Status != "ok" {
		t.Fatalf("expected ok, got %s (%+v)", resp.Status, resp.Components)
	}
	if repo.calls != 0 {
		t.Fatalf("shallow check must not ping dependencies")
	}
	if resp.Components["counter_store"].Detail["backend"] != "memory" {
		t.Fatalf("unexpected backend: %+v", resp.Components["counter_store"].Detail)
	}
}

func TestCollectDeepReportsFailures(t *testing.T) {
	counters := &stubPinger{}
	repo := &stubPinger{err: errors.New("db down")}
	checker := NewChecker(&config.Config{Database: config.DatabaseConfig{Enabled: true}}, counters, repo, stubProviders{{ID: "openai-gpt-4", Available: true}})

	resp := checker.Collect(context.Background(), true)
	if resp.Status != "degraded" {
		t.Fatalf("expected degraded, got %s", resp.Status)
	}
	if counters.calls != 1 || repo.calls != 1 {
		t.Fatalf("expected one ping each, got %d/%d", counters.calls, repo.calls)
	}
	db := resp.Components["database"]
	if db.Status != "degraded" || db.Detail["error"] != "db down" || db.Detail["connected"] != false {
		t.Fatalf("unexpected database component: %+v", db)
	}
	if resp.Components["counter_store"].Status != "ok" {
		t.Fatalf("counter store must stay ok: %+v", resp.Components["counter_store"])
	}
}

func TestCollectDegradedWithoutAvailableProvider(t *testing.T) {
	checker := NewChecker(nil, nil, nil, stubProviders{{ID: "openai-gpt-4"}})

	resp := checker.Collect(context.Background(), true)
	if resp.Components["providers"].Status != "degraded" || resp.Status != "degraded" {
		t.Fatalf("expected degraded providers: %+v", resp.Components["providers"])
	}
	if resp.Components["counter_store"].Detail["backend"] != "none" {
		t.Fatalf("unexpected backend detail: %+v", resp.Components["counter_store"].Detail)
	}
}
