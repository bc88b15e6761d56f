package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/handler/shared"
)

// ResetUsageRequest: 월간 원장 초기화 요청입니다. Provider 가 비면 전체 초기화입니다.
type ResetUsageRequest struct {
	Provider string `json:"provider"`
}

// AdminHandler: 관리자 API 핸들러입니다.
type AdminHandler struct {
	svc    RouterService
	logger *slog.Logger
}

// NewAdminHandler: 관리자 핸들러를 생성합니다.
func NewAdminHandler(svc RouterService, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{svc: svc, logger: logger}
}

// RegisterRoutes: 관리자 라우트를 등록합니다.
func (h *AdminHandler) RegisterRoutes(router *gin.Engine) {
	router.POST("/api/admin/usage/reset", h.handleResetUsage)
}

func (h *AdminHandler) handleResetUsage(c *gin.Context) {
	var req ResetUsageRequest
	if !bindJSONAllowEmpty(c, &req) {
		return
	}

	requestID, userID := requestMeta(c)
	if err := h.svc.ResetUsage(c.Request.Context(), req.Provider); err != nil {
		shared.LogError(h.logger, "usage_reset", requestID, err)
		writeError(c, err)
		return
	}

	scope := req.Provider
	if scope == "" {
		scope = "all"
	}
	h.logger.Info("usage_reset", "request_id", requestID, "user_id", userID, "provider", scope)
	c.JSON(http.StatusOK, gin.H{"status": "reset", "provider": scope})
}
