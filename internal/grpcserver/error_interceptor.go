package grpcserver

import (
	"context"
	"net/http"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/httperror"
)

func errorMapperInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		resp, err := handler(ctx, req)
		if err == nil {
			return resp, nil
		}

		// 이미 status 에러이면 코드가 바뀌지 않도록 그대로 둡니다.
		if _, ok := status.FromError(err); ok {
			return resp, err
		}

		return resp, statusFromError(err)
	}
}

// statusFromError 는 도메인 에러를 HTTP 매핑과 같은 기준으로 gRPC 코드로 변환한다.
func statusFromError(err error) error {
	if err == nil {
		return nil
	}

	apiErr := httperror.FromError(err)
	var code codes.Code
	switch apiErr.Status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		code = codes.InvalidArgument
	case http.StatusUnauthorized:
		code = codes.Unauthenticated
	case http.StatusForbidden:
		code = codes.PermissionDenied
	case http.StatusNotFound:
		code = codes.NotFound
	case http.StatusRequestTimeout:
		code = codes.Canceled
	case http.StatusTooManyRequests:
		code = codes.ResourceExhausted
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		code = codes.Unavailable
	case http.StatusGatewayTimeout:
		code = codes.DeadlineExceeded
	default:
		code = codes.Internal
	}
	return status.Error(code, apiErr.Message)
}
