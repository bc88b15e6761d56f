package shared

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/httperror"
)

// LogError: 에러를 로깅합니다. 5xx 로 매핑되는 에러만 error 레벨입니다.
func LogError(logger *slog.Logger, domain string, requestID string, err error) {
	if logger == nil || err == nil {
		return
	}
	level := slog.LevelWarn
	if apiErr := httperror.FromError(err); apiErr != nil && apiErr.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logger.Log(context.Background(), level, domain+"_error", "request_id", requestID, "err", err)
}
