package di

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/capability"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/config"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/grpcserver"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/handler"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/health"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/ledger"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/logging"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/metrics"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/monitor"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/provider"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/router"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/store"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/telemetry"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/usage"
)

const defaultProviderTimeout = 30 * time.Second

// ProvideLogger: 로거를 구성해 반환합니다.
// OTel이 활성화된 경우 로그에 trace_id/span_id가 자동으로 추가됩니다.
func ProvideLogger(cfg *config.Config) (*slog.Logger, error) {
	logger, err := logging.NewLoggerWithOTel(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

// ProvideTelemetry: TracerProvider 를 초기화합니다. 비활성화 상태면 no-op 입니다.
func ProvideTelemetry(ctx context.Context, cfg *config.Config) (*telemetry.Provider, error) {
	tp, err := telemetry.NewProvider(ctx, cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}
	return tp, nil
}

// ProvideCounterStore: 카운터 저장소를 연결합니다.
func ProvideCounterStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.CounterStore, error) {
	counters, err := store.Open(ctx, cfg.CounterStore, logger)
	if err != nil {
		return nil, fmt.Errorf("counter store: %w", err)
	}
	return counters, nil
}

// ProvideUsageRepository: 요청 요약 저장소를 생성합니다.
func ProvideUsageRepository(cfg *config.Config, logger *slog.Logger) *usage.Repository {
	return usage.NewRepository(cfg.Database, logger)
}

// ProvideUsageRecorder: 요청 요약 배치 기록기를 생성합니다.
func ProvideUsageRecorder(cfg *config.Config, repo *usage.Repository, logger *slog.Logger) *usage.Recorder {
	return usage.NewRecorder(cfg.Database, repo, logger)
}

// ProvideAdapters: 카탈로그 모델마다 프로바이더 어댑터를 만듭니다.
func ProvideAdapters(cfg *config.Config) ([]provider.Adapter, error) {
	timeout := defaultProviderTimeout
	if cfg.Providers.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.Providers.TimeoutSeconds) * time.Second
	}
	adapters, err := provider.BuildAdapters(cfg.Catalog, cfg.Providers, provider.NewHTTPClient(timeout))
	if err != nil {
		return nil, fmt.Errorf("provider adapters: %w", err)
	}
	return adapters, nil
}

// ProvideRouter: 능력 감지기와 어댑터로 라우터를 구성합니다.
func ProvideRouter(cfg *config.Config, adapters []provider.Adapter, metricsStore *metrics.Store, logger *slog.Logger) *router.Router {
	return router.New(adapters, cfg.Providers, capability.NewDetector(), metricsStore, logger)
}

// ProvideLedger: 프로바이더 비용 원장을 생성합니다.
func ProvideLedger(cfg *config.Config, counters store.CounterStore, logger *slog.Logger) *ledger.Ledger {
	return ledger.New(counters, cfg.Catalog, logger)
}

// ProvideAlertSink: 경보 싱크를 생성합니다. Valkey 저장소면 스트림 발행기를 붙입니다.
func ProvideAlertSink(
	cfg *config.Config,
	counters store.CounterStore,
	repo *usage.Repository,
	metricsStore *metrics.Store,
	logger *slog.Logger,
) *monitor.AlertSink {
	publisher := monitor.NewPublisher(counters, cfg.CounterStore, logger)
	cooldown := time.Duration(cfg.Catalog.Monitoring.AlertCooldownSeconds) * time.Second
	return monitor.NewAlertSink(counters, repo, publisher, metricsStore, cooldown, logger)
}

// ProvideMonitor: 사용량 감시기를 생성합니다.
func ProvideMonitor(
	cfg *config.Config,
	counters store.CounterStore,
	recorder *usage.Recorder,
	repo *usage.Repository,
	sink *monitor.AlertSink,
	logger *slog.Logger,
) *monitor.Monitor {
	return monitor.NewMonitor(counters, recorder, repo, sink, cfg.Catalog, logger)
}

// ProvideFraudDetector: 부정 사용 탐지기를 생성합니다.
func ProvideFraudDetector(cfg *config.Config, counters store.CounterStore, sink *monitor.AlertSink, logger *slog.Logger) *monitor.FraudDetector {
	return monitor.NewFraudDetector(counters, sink, cfg.Catalog.Fraud, logger)
}

// ProvideHealthChecker: 헬스 체커를 생성합니다.
func ProvideHealthChecker(cfg *config.Config, counters store.CounterStore, repo *usage.Repository, r *router.Router) *health.Checker {
	return health.NewChecker(cfg, counters, repo, r)
}

// GRPCEndpoint: gRPC 서버와 리스너 묶음입니다. 비활성화 상태면 두 필드 모두 nil 입니다.
type GRPCEndpoint struct {
	Server   *grpc.Server
	Listener net.Listener
}

// ProvideGRPCEndpoint: gRPC 서버를 생성하고 포트를 엽니다.
func ProvideGRPCEndpoint(cfg *config.Config, logger *slog.Logger, svc handler.RouterService) (GRPCEndpoint, error) {
	server, lis, err := grpcserver.NewServer(cfg, logger, svc)
	if err != nil {
		return GRPCEndpoint{}, fmt.Errorf("grpc server: %w", err)
	}
	return GRPCEndpoint{Server: server, Listener: lis}, nil
}
