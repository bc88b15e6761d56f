package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/config"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/di"
)

const shutdownTimeout = 10 * time.Second

func main() {
	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	app, err := di.InitializeApp(initCtx)
	cancelInit()
	if err != nil {
		log.Fatalf("failed to initialize app: %v", err)
	}
	defer func() {
		app.Close()
	}()

	config.LogEnvStatus(app.Config, app.Logger)
	app.Logger.Info(
		"http_server_start",
		"host", app.Config.HTTP.Host,
		"port", app.Config.HTTP.Port,
		"http2", app.Config.HTTP.HTTP2Enabled,
		"models", len(app.Config.Catalog.Models),
	)

	serverErr := make(chan error, 2)
	go func() {
		serverErr <- app.Server.ListenAndServe()
	}()

	if app.GRPCServer != nil {
		app.Logger.Info("grpc_server_start", "addr", app.GRPCListener.Addr().String())
		go func() {
			if err := app.GRPCServer.Serve(app.GRPCListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				serverErr <- err
			}
		}()
	}

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signalCh)

	select {
	case sig := <-signalCh:
		app.Logger.Info("server_shutdown_signal", "signal", sig.String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if app.GRPCServer != nil {
			stopGRPC(shutdownCtx, app.GRPCServer)
		}
		if shutdownErr := app.Server.Shutdown(shutdownCtx); shutdownErr != nil {
			app.Logger.Error("http_server_shutdown_failed", "err", shutdownErr)
			_ = app.Server.Close()
		}

		err = <-serverErr
	case err = <-serverErr:
	}

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.Logger.Error("server_failed", "err", err)
		app.Close()
		os.Exit(1)
	}
}

// stopGRPC 는 진행 중인 호출을 기다리되 ctx 가 끝나면 강제 종료한다.
func stopGRPC(ctx context.Context, server *grpc.Server) {
	done := make(chan struct{})
	go func() {
		server.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		server.Stop()
	}
}
