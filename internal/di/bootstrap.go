//go:build !wireinject

package di

import (
	"context"
	"fmt"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/config"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/handler"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/metrics"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/prompt"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/server"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/usecase/routing"
)

// InitializeApp 은 애플리케이션 의존성을 초기화하고 App 인스턴스를 반환한다.
func InitializeApp(ctx context.Context) (*App, error) {
	cfg, err := config.ProvideConfig()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	tp, err := ProvideTelemetry(ctx, cfg)
	if err != nil {
		return nil, err
	}

	metricsStore := metrics.NewStore()

	counters, err := ProvideCounterStore(ctx, cfg, logger)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	usageRepository := ProvideUsageRepository(cfg, logger)
	usageRecorder := ProvideUsageRecorder(cfg, usageRepository, logger)

	adapters, err := ProvideAdapters(cfg)
	if err != nil {
		usageRecorder.Close()
		usageRepository.Close()
		counters.Close()
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	modelRouter := ProvideRouter(cfg, adapters, metricsStore, logger)
	costLedger := ProvideLedger(cfg, counters, logger)
	sink := ProvideAlertSink(cfg, counters, usageRepository, metricsStore, logger)
	usageMonitor := ProvideMonitor(cfg, counters, usageRecorder, usageRepository, sink, logger)
	fraud := ProvideFraudDetector(cfg, counters, sink, logger)

	optimizer, err := prompt.NewOptimizer(logger)
	if err != nil {
		usageRecorder.Close()
		usageRepository.Close()
		counters.Close()
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("prompt optimizer: %w", err)
	}

	service := routing.New(modelRouter, costLedger, usageMonitor, fraud, optimizer, usageRepository, logger)

	promptHandler := handler.NewPromptHandler(service, logger)
	usageHandler := handler.NewUsageHandler(service, logger)
	fraudHandler := handler.NewFraudHandler(service, logger)
	adminHandler := handler.NewAdminHandler(service, logger)
	checker := ProvideHealthChecker(cfg, counters, usageRepository, modelRouter)

	engine := handler.NewRouter(cfg, logger, checker, promptHandler, usageHandler, fraudHandler, adminHandler)
	httpServer := server.NewHTTPServer(cfg, engine)

	grpcEndpoint, err := ProvideGRPCEndpoint(cfg, logger, service)
	if err != nil {
		usageRecorder.Close()
		usageRepository.Close()
		counters.Close()
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	return NewApp(httpServer, grpcEndpoint, logger, cfg, tp, counters, usageRepository, usageRecorder), nil
}
