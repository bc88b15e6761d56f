package di

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"google.golang.org/grpc"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/config"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/store"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/telemetry"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/usage"
)

const sweepInterval = time.Minute

// App: 애플리케이션 구성 요소를 묶는다.
type App struct {
	Server          *http.Server
	GRPCServer      *grpc.Server
	GRPCListener    net.Listener
	Logger          *slog.Logger
	Config          *config.Config
	Telemetry       *telemetry.Provider
	Counters        store.CounterStore
	UsageRepository *usage.Repository
	UsageRecorder   *usage.Recorder

	stopBackground context.CancelFunc
}

// NewApp: App 인스턴스를 생성합니다.
// 메모리 카운터 저장소이면 만료 키 정리 루프를 시작합니다.
func NewApp(
	server *http.Server,
	grpcEndpoint GRPCEndpoint,
	logger *slog.Logger,
	cfg *config.Config,
	tp *telemetry.Provider,
	counters store.CounterStore,
	usageRepository *usage.Repository,
	usageRecorder *usage.Recorder,
) *App {
	ctx, cancel := context.WithCancel(context.Background())
	if mem, ok := counters.(*store.MemoryStore); ok {
		go mem.RunSweeper(ctx, sweepInterval)
	}
	return &App{
		Server:          server,
		GRPCServer:      grpcEndpoint.Server,
		GRPCListener:    grpcEndpoint.Listener,
		Logger:          logger,
		Config:          cfg,
		Telemetry:       tp,
		Counters:        counters,
		UsageRepository: usageRepository,
		UsageRecorder:   usageRecorder,
		stopBackground:  cancel,
	}
}

// Close: 앱 리소스를 정리합니다.
// 기록기를 먼저 닫아 대기 중인 요청 요약을 저장소에 flush 합니다.
func (a *App) Close() {
	if a.stopBackground != nil {
		a.stopBackground()
	}
	if a.GRPCServer != nil {
		a.GRPCServer.Stop()
	}
	if a.GRPCListener != nil {
		_ = a.GRPCListener.Close()
	}
	if a.UsageRecorder != nil {
		a.UsageRecorder.Close()
	}
	if a.UsageRepository != nil {
		a.UsageRepository.Close()
	}
	a.saveSnapshot()
	if a.Counters != nil {
		a.Counters.Close()
	}
	if a.Telemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Telemetry.Shutdown(ctx); err != nil && a.Logger != nil {
			a.Logger.Warn("telemetry_shutdown_failed", "err", err)
		}
	}
}

func (a *App) saveSnapshot() {
	mem, ok := a.Counters.(*store.MemoryStore)
	if !ok || a.Config == nil || a.Config.CounterStore.SnapshotPath == "" {
		return
	}
	path := a.Config.CounterStore.SnapshotPath
	saved, err := mem.SaveSnapshot(path)
	if a.Logger == nil {
		return
	}
	if err != nil {
		a.Logger.Warn("counter_snapshot_save_failed", "path", path, "err", err)
		return
	}
	a.Logger.Info("counter_snapshot_saved", "path", path, "keys", saved)
}
