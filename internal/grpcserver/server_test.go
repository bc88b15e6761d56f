package grpcserver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/config"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/domain"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/httperror"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/ledger"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/monitor"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/router"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/usecase/routing"
)

type stubService struct {
	submitErr  error
	lastPrompt domain.PromptRequest
	alertsUser string
}

func (s *stubService) SubmitPrompt(_ context.Context, req domain.PromptRequest) (domain.PromptResponse, error) {
	s.lastPrompt = req
	if s.submitErr != nil {
		return domain.PromptResponse{}, s.submitErr
	}
	return domain.PromptResponse{ID: "resp-1", RequestID: req.ID, ModelUsed: "openai-gpt-4", TokensUsed: 42, Cost: 0.5}, nil
}

func (s *stubService) AnalyzePrompt(context.Context, routing.AnalyzeRequest) (routing.Analysis, error) {
	return routing.Analysis{}, nil
}

func (s *stubService) ListProviders() []domain.ProviderDescriptor {
	return []domain.ProviderDescriptor{{ID: "openai-gpt-4", Provider: "openai", Available: true}}
}

func (s *stubService) UsageStats(context.Context, string, int) (routing.UsageReport, error) {
	return routing.UsageReport{}, nil
}

func (s *stubService) ActiveAlerts(_ context.Context, userID string) []domain.UsageAlert {
	s.alertsUser = userID
	return nil
}

func (s *stubService) CostAnalysis(context.Context) (ledger.Analysis, error) {
	return ledger.Analysis{}, nil
}

func (s *stubService) ProviderRanking(context.Context) ([]ledger.ProviderRank, error) {
	return nil, errors.New("store down")
}

func (s *stubService) RiskScore(context.Context, string) (monitor.RiskAssessment, error) {
	return monitor.RiskAssessment{}, nil
}

func (s *stubService) SuspiciousUsers(context.Context) []monitor.RiskAssessment { return nil }

func (s *stubService) BlockUser(context.Context, string, string) (monitor.BlockRecord, error) {
	return monitor.BlockRecord{}, nil
}

func (s *stubService) ResetUsage(context.Context, string) error { return nil }

func dial(t *testing.T, svc *stubService, apiKey string) *grpc.ClientConn {
	t.Helper()
	cfg := &config.Config{HTTPAuth: config.HTTPAuthConfig{APIKey: apiKey}}
	server := newGRPCServer(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), svc)

	lis := bufconn.Listen(1024 * 1024)
	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func invoke(ctx context.Context, conn *grpc.ClientConn, method string, in any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := &structpb.Struct{}
	err := conn.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...)
	return out, err
}

func testContext(t *testing.T, pairs ...string) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	if len(pairs) > 0 {
		ctx = metadata.AppendToOutgoingContext(ctx, pairs...)
	}
	return ctx
}

func TestSubmitPromptOverGRPC(t *testing.T) {
	svc := &stubService{}
	conn := dial(t, svc, "")

	in, _ := structpb.NewStruct(map[string]any{"prompt": "hello", "max_tokens": 128})
	var header metadata.MD
	out, err := invoke(testContext(t, "x-request-id", "req-grpc", "x-user-id", "u9"), conn, "SubmitPrompt", in, grpc.Header(&header))
	if err != nil {
		t.Fatalf("SubmitPrompt failed: %v", err)
	}

	if got := svc.lastPrompt; got.ID != "req-grpc" || got.UserID != "u9" || got.MaxTokens != 128 || got.Prompt != "hello" {
		t.Fatalf("unexpected forwarded request: %+v", got)
	}
	fields := out.GetFields()
	if fields["model_used"].GetStringValue() != "openai-gpt-4" || fields["tokens_used"].GetNumberValue() != 42 {
		t.Fatalf("unexpected response: %v", out)
	}
	if values := header.Get("x-request-id"); len(values) != 1 || values[0] != "req-grpc" {
		t.Fatalf("expected request id header, got %v", values)
	}
}

func TestSubmitPromptRejectsUnknownFields(t *testing.T) {
	conn := dial(t, &stubService{}, "")

	in, _ := structpb.NewStruct(map[string]any{"prompt": "hello", "temperature": 0.3})
	_, err := invoke(testContext(t), conn, "SubmitPrompt", in)
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"no provider", router.ErrNoProviderAvailable, codes.Unavailable},
		{"all failed", &router.AllProvidersFailedError{Attempts: 3}, codes.Unavailable},
		{"blocked", httperror.NewUserBlocked("u1", ""), codes.PermissionDenied},
		{"missing prompt", httperror.NewMissingField("prompt"), codes.InvalidArgument},
		{"deadline", context.DeadlineExceeded, codes.DeadlineExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := dial(t, &stubService{submitErr: tt.err}, "")
			in, _ := structpb.NewStruct(map[string]any{"prompt": "hello"})
			_, err := invoke(testContext(t), conn, "SubmitPrompt", in)
			if status.Code(err) != tt.want {
				t.Fatalf("expected %s, got %v", tt.want, err)
			}
		})
	}

	conn := dial(t, &stubService{}, "")
	if _, err := invoke(testContext(t), conn, "ProviderRanking", &emptypb.Empty{}); status.Code(err) != codes.Internal {
		t.Fatalf("expected Internal for plain error, got %v", err)
	}
}

func TestListAndAlerts(t *testing.T) {
	svc := &stubService{}
	conn := dial(t, svc, "")

	out, err := invoke(testContext(t), conn, "ListProviders", &emptypb.Empty{})
	if err != nil {
		t.Fatalf("ListProviders failed: %v", err)
	}
	models := out.GetFields()["models"].GetListValue().GetValues()
	if len(models) != 1 || !models[0].GetStructValue().GetFields()["is_available"].GetBoolValue() {
		t.Fatalf("unexpected models: %v", out)
	}

	in, _ := structpb.NewStruct(map[string]any{"user_id": "u2"})
	alerts, err := invoke(testContext(t), conn, "ActiveAlerts", in)
	if err != nil {
		t.Fatalf("ActiveAlerts failed: %v", err)
	}
	if svc.alertsUser != "u2" || alerts.GetFields()["alerts"].GetListValue() == nil {
		t.Fatalf("unexpected alerts response: %v user=%q", alerts, svc.alertsUser)
	}
}

func TestAPIKeyAndHealth(t *testing.T) {
	conn := dial(t, &stubService{}, "secret")

	if _, err := invoke(testContext(t), conn, "ListProviders", &emptypb.Empty{}); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", err)
	}
	if _, err := invoke(testContext(t, "authorization", "Bearer secret"), conn, "ListProviders", &emptypb.Empty{}); err != nil {
		t.Fatalf("expected bearer key to pass: %v", err)
	}

	resp, err := healthpb.NewHealthClient(conn).Check(testContext(t), &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatalf("health check failed: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("unexpected health status: %s", resp.GetStatus())
	}
}
