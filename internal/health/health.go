// Package health 는 liveness/readiness 상태를 수집한다.
package health

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/config"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/domain"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/store"
)

const (
	statusOK       = "ok"
	statusDegraded = "degraded"

	deepCheckTimeout = 2 * time.Second
)

var startTime = time.Now()

// Pinger 는 연결 확인이 가능한 의존성이다.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ProviderLister 는 카탈로그 모델과 가용 여부를 제공한다.
type ProviderLister interface {
	ListProviders() []domain.ProviderDescriptor
}

// Component 는 상태 구성 요소다.
type Component struct {
	Status string         `json:"status"`
	Detail map[string]any `json:"detail"`
}

// Response 는 상태 응답 본문이다.
type Response struct {
	Status     string               `json:"status"`
	Components map[string]Component `json:"components"`
}

// Checker 는 카운터 저장소, DB, 프로바이더 상태를 점검한다.
type Checker struct {
	cfg       *config.Config
	counters  Pinger
	repo      Pinger
	providers ProviderLister
}

// NewChecker 는 Checker 를 생성한다. repo 가 nil 이면 DB 점검을 생략한다.
func NewChecker(cfg *config.Config, counters Pinger, repo Pinger, providers ProviderLister) *Checker {
	return &Checker{cfg: cfg, counters: counters, repo: repo, providers: providers}
}

// Collect 는 헬스 상태를 수집한다. deepChecks 가 true 이면 저장소와 DB 를 병렬로 ping 한다.
func (h *Checker) Collect(ctx context.Context, deepChecks bool) Response {
	if ctx == nil {
		ctx = context.Background()
	}

	components := map[string]Component{
		"app":       buildAppStatus(),
		"providers": h.buildProviderStatus(),
	}

	counterDetail := map[string]any{"backend": backendName(h.counters), "deep_checked": deepChecks}
	dbDetail := map[string]any{"enabled": h.cfg != nil && h.cfg.Database.Enabled, "deep_checked": deepChecks}
	counterStatus, dbStatus := statusOK, statusOK

	if deepChecks {
		checkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deepCheckTimeout)
		defer cancel()

		var mu sync.Mutex
		g, gctx := errgroup.WithContext(checkCtx)
		ping := func(target Pinger, detail map[string]any, status *string) func() error {
			return func() error {
				if target == nil {
					return nil
				}
				err := target.Ping(gctx)
				mu.Lock()
				defer mu.Unlock()
				detail["connected"] = err == nil
				if err != nil {
					detail["error"] = err.Error()
					*status = statusDegraded
				}
				return nil
			}
		}
		g.Go(ping(h.counters, counterDetail, &counterStatus))
		g.Go(ping(h.repo, dbDetail, &dbStatus))
		_ = g.Wait()
	}

	components["counter_store"] = Component{Status: counterStatus, Detail: counterDetail}
	components["database"] = Component{Status: dbStatus, Detail: dbDetail}

	overall := statusOK
	for _, component := range components {
		if component.Status != statusOK {
			overall = statusDegraded
			break
		}
	}

	return Response{Status: overall, Components: components}
}

// Models 는 카탈로그 모델 목록을 가용 여부와 함께 반환한다.
func (h *Checker) Models() []domain.ProviderDescriptor {
	if h.providers == nil {
		return []domain.ProviderDescriptor{}
	}
	return h.providers.ListProviders()
}

func buildAppStatus() Component {
	return Component{
		Status: statusOK,
		Detail: map[string]any{
			"uptime_seconds": int(time.Since(startTime).Seconds()),
		},
	}
}

func (h *Checker) buildProviderStatus() Component {
	models := h.Models()
	available := 0
	for _, model := range models {
		if model.Available {
			available++
		}
	}

	status := statusOK
	if available == 0 {
		status = statusDegraded
	}
	return Component{
		Status: status,
		Detail: map[string]any{
			"models":           len(models),
			"available_models": available,
		},
	}
}

func backendName(p Pinger) string {
	switch p.(type) {
	case *store.ValkeyStore:
		return "valkey"
	case *store.MemoryStore:
		return "memory"
	case nil:
		return "none"
	default:
		return "custom"
	}
}
