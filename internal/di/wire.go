//go:build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/config"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/handler"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/metrics"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/prompt"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/server"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/usecase/routing"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/usage"
)

func InitializeApp(ctx context.Context) (*App, error) {
	wire.Build(
		config.ProvideConfig,
		ProvideLogger,
		ProvideTelemetry,
		metrics.NewStore,
		ProvideCounterStore,
		ProvideUsageRepository,
		ProvideUsageRecorder,
		wire.Bind(new(usage.Store), new(*usage.Repository)),
		ProvideAdapters,
		ProvideRouter,
		ProvideLedger,
		ProvideAlertSink,
		ProvideMonitor,
		ProvideFraudDetector,
		prompt.NewOptimizer,
		routing.New,
		wire.Bind(new(handler.RouterService), new(*routing.Service)),
		handler.NewPromptHandler,
		handler.NewUsageHandler,
		handler.NewFraudHandler,
		handler.NewAdminHandler,
		ProvideHealthChecker,
		handler.NewRouter,
		server.NewHTTPServer,
		ProvideGRPCEndpoint,
		NewApp,
	)
	return nil, nil
}
