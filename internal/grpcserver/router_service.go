package grpcserver

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/domain"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/handler"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/handler/shared"
)

// ServiceName 은 gRPC 서비스 전체 이름이다.
const ServiceName = "modelrouter.v1.RouterService"

// RouterServiceServer: modelrouter.v1.RouterService 구현 인터페이스입니다.
// 메시지는 google.protobuf.Struct / Empty 를 사용합니다.
type RouterServiceServer interface {
	SubmitPrompt(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	ListProviders(ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error)
	CostAnalysis(ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error)
	ProviderRanking(ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error)
	ActiveAlerts(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

func unaryHandler[Req proto.Message](method string, newReq func() Req, call func(RouterServiceServer, context.Context, Req) (*structpb.Struct, error)) grpc.MethodHandler {
	fullMethod := "/" + ServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := newReq()
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(RouterServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(srv.(RouterServiceServer), ctx, req.(Req))
		})
	}
}

func newStruct() *structpb.Struct { return &structpb.Struct{} }

func newEmpty() *emptypb.Empty { return &emptypb.Empty{} }

// RouterServiceDesc 는 RouterService 의 grpc.ServiceDesc 다.
var RouterServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RouterServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "SubmitPrompt",
			Handler:    unaryHandler("SubmitPrompt", newStruct, RouterServiceServer.SubmitPrompt),
		},
		{
			MethodName: "ListProviders",
			Handler:    unaryHandler("ListProviders", newEmpty, RouterServiceServer.ListProviders),
		},
		{
			MethodName: "CostAnalysis",
			Handler:    unaryHandler("CostAnalysis", newEmpty, RouterServiceServer.CostAnalysis),
		},
		{
			MethodName: "ProviderRanking",
			Handler:    unaryHandler("ProviderRanking", newEmpty, RouterServiceServer.ProviderRanking),
		},
		{
			MethodName: "ActiveAlerts",
			Handler:    unaryHandler("ActiveAlerts", newStruct, RouterServiceServer.ActiveAlerts),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "modelrouter/v1/router.proto",
}

// RegisterRouterServiceServer 는 서비스 구현을 등록한다.
func RegisterRouterServiceServer(s grpc.ServiceRegistrar, srv RouterServiceServer) {
	s.RegisterService(&RouterServiceDesc, srv)
}

type submitPayload struct {
	Prompt          string `json:"prompt"`
	Context         string `json:"context"`
	ModelPreference string `json:"model_preference"`
	MaxTokens       int    `json:"max_tokens"`
	UserID          string `json:"user_id"`
}

type alertsPayload struct {
	UserID string `json:"user_id"`
}

// RouterService: HTTP API 와 같은 서비스 계층을 gRPC 로 노출합니다.
type RouterService struct {
	svc    handler.RouterService
	logger *slog.Logger
}

// NewRouterService: gRPC RouterService 를 생성합니다.
func NewRouterService(svc handler.RouterService, logger *slog.Logger) *RouterService {
	return &RouterService{svc: svc, logger: logger}
}

// SubmitPrompt 는 프롬프트를 라우팅한다. user_id 필드가 없으면 x-user-id 메타데이터를 사용한다.
func (s *RouterService) SubmitPrompt(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var payload submitPayload
	if err := shared.DecodeStrict(in.AsMap(), &payload); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	userID := payload.UserID
	if userID == "" {
		userID = UserIDFromContext(ctx)
	}

	resp, err := s.svc.SubmitPrompt(ctx, domain.PromptRequest{
		ID:              RequestIDFromContext(ctx),
		UserID:          userID,
		Prompt:          payload.Prompt,
		Context:         payload.Context,
		ModelPreference: payload.ModelPreference,
		MaxTokens:       payload.MaxTokens,
		IPAddress:       peerIP(ctx),
	})
	if err != nil {
		return nil, err
	}
	return toStruct(resp)
}

// ListProviders 는 {"models": [...]} 를 반환한다.
func (s *RouterService) ListProviders(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return wrapList("models", s.svc.ListProviders())
}

// CostAnalysis 는 당월 비용 분석을 반환한다.
func (s *RouterService) CostAnalysis(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	analysis, err := s.svc.CostAnalysis(ctx)
	if err != nil {
		return nil, err
	}
	return toStruct(analysis)
}

// ProviderRanking 는 {"providers": [...]} 를 반환한다.
func (s *RouterService) ProviderRanking(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	ranking, err := s.svc.ProviderRanking(ctx)
	if err != nil {
		return nil, err
	}
	return wrapList("providers", ranking)
}

// ActiveAlerts 는 {"alerts": [...]} 를 반환한다. user_id 가 비면 전체 사용자 대상이다.
func (s *RouterService) ActiveAlerts(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var payload alertsPayload
	if err := shared.Decode(in.AsMap(), &payload); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return wrapList("alerts", s.svc.ActiveAlerts(ctx, payload.UserID))
}

func wrapList[T any](field string, items []T) (*structpb.Struct, error) {
	if items == nil {
		items = []T{}
	}
	return toStruct(map[string]any{field: items})
}

func toStruct(v any) (*structpb.Struct, error) {
	m, err := shared.ToMap(v)
	if err != nil {
		return nil, fmt.Errorf("convert response: %w", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("build struct: %w", err)
	}
	return out, nil
}

func peerIP(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(p.Addr.String())
	if err != nil {
		return p.Addr.String()
	}
	return host
}
