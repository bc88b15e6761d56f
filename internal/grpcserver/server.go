package grpcserver

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/config"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/handler"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/middleware"
)

const (
	defaultHost = "127.0.0.1"
	defaultPort = 8001

	maxRecvMsgSizeBytes = 4 * 1024 * 1024
)

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	userIDKey    ctxKey = "user_id"
)

// NewServer: gRPC 서버와 리스너를 생성합니다. 비활성화 상태이면 모두 nil 을 반환합니다.
func NewServer(cfg *config.Config, logger *slog.Logger, svc handler.RouterService) (*grpc.Server, net.Listener, error) {
	if cfg == nil || !cfg.GRPC.Enabled {
		return nil, nil, nil
	}

	host := strings.TrimSpace(cfg.GRPC.Host)
	if host == "" {
		host = defaultHost
	}
	port := cfg.GRPC.Port
	if port <= 0 {
		port = defaultPort
	}

	var lc net.ListenConfig
	listenCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	lis, err := lc.Listen(listenCtx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, nil, fmt.Errorf("listen: %w", err)
	}

	return newGRPCServer(cfg, logger, svc), lis, nil
}

func newGRPCServer(cfg *config.Config, logger *slog.Logger, svc handler.RouterService) *grpc.Server {
	if logger == nil {
		logger = slog.Default()
	}

	opts := []grpc.ServerOption{
		grpc.MaxRecvMsgSize(maxRecvMsgSizeBytes),
		grpc.ChainUnaryInterceptor(
			unaryInterceptor(logger, strings.TrimSpace(cfg.HTTPAuth.APIKey)),
			errorMapperInterceptor(),
		),
	}
	if cfg.Telemetry.Enabled {
		opts = append(opts, grpc.StatsHandler(otelgrpc.NewServerHandler()))
	}

	server := grpc.NewServer(opts...)
	RegisterRouterServiceServer(server, NewRouterService(svc, logger))

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, healthServer)

	return server
}

func unaryInterceptor(logger *slog.Logger, apiKey string) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		start := time.Now()

		requestID := metadataValue(ctx, "x-request-id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		userID := metadataValue(ctx, "x-user-id")
		if userID == "" {
			userID = middleware.AnonymousUserID
		}
		ctx = context.WithValue(ctx, requestIDKey, requestID)
		ctx = context.WithValue(ctx, userIDKey, userID)
		_ = grpc.SetHeader(ctx, metadata.Pairs("x-request-id", requestID))

		if info != nil && strings.HasPrefix(info.FullMethod, "/grpc.health.v1.Health/") {
			return handler(ctx, req)
		}

		if err := authorize(ctx, apiKey); err != nil {
			logGRPCRequest(logger, info, requestID, time.Since(start), err)
			return nil, err
		}

		resp, err := handler(ctx, req)
		logGRPCRequest(logger, info, requestID, time.Since(start), err)
		return resp, err
	}
}

func logGRPCRequest(logger *slog.Logger, info *grpc.UnaryServerInfo, requestID string, latency time.Duration, err error) {
	method := ""
	if info != nil {
		method = info.FullMethod
	}

	fields := []any{
		"request_id", requestID,
		"method", method,
		"latency", latency,
	}
	if err != nil {
		fields = append(fields, "err", err)
		logger.Warn("grpc_request_failed", fields...)
		return
	}
	logger.Debug("grpc_request", fields...)
}

func authorize(ctx context.Context, expected string) error {
	if expected == "" {
		return nil
	}

	provided := metadataValue(ctx, "x-api-key")
	if provided == "" {
		if bearer := metadataValue(ctx, "authorization"); len(bearer) > 7 && strings.EqualFold(bearer[:7], "bearer ") {
			provided = strings.TrimSpace(bearer[7:])
		}
	}
	if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
		return status.Error(codes.Unauthenticated, "invalid api key")
	}
	return nil
}

func metadataValue(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if values := md.Get(key); len(values) > 0 {
		return strings.TrimSpace(values[0])
	}
	return ""
}

// RequestIDFromContext: gRPC 컨텍스트에서 request_id를 조회합니다.
func RequestIDFromContext(ctx context.Context) string {
	value, _ := ctx.Value(requestIDKey).(string)
	return value
}

// UserIDFromContext: gRPC 컨텍스트에서 사용자 식별자를 조회합니다.
func UserIDFromContext(ctx context.Context) string {
	if value, _ := ctx.Value(userIDKey).(string); value != "" {
		return value
	}
	return middleware.AnonymousUserID
}
