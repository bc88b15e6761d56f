package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/handler/shared"
)

// BlockUserRequest: 사용자 차단 요청 본문입니다. 본문은 생략할 수 있습니다.
type BlockUserRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// FraudHandler: 부정 사용 점수와 차단 API 핸들러입니다.
type FraudHandler struct {
	svc    RouterService
	logger *slog.Logger
}

// NewFraudHandler: 부정 사용 핸들러를 생성합니다.
func NewFraudHandler(svc RouterService, logger *slog.Logger) *FraudHandler {
	return &FraudHandler{svc: svc, logger: logger}
}

// RegisterRoutes: 부정 사용 라우트를 등록합니다.
func (h *FraudHandler) RegisterRoutes(router *gin.Engine) {
	group := router.Group("/api/fraud")
	group.GET("/suspicious", h.handleSuspicious)
	group.GET("/:user_id/risk", h.handleRisk)
	group.POST("/:user_id/block", h.handleBlock)
}

func (h *FraudHandler) handleRisk(c *gin.Context) {
	userID, ok := shared.PathParam(c, "user_id")
	if !ok {
		return
	}
	assessment, err := h.svc.RiskScore(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, assessment)
}

func (h *FraudHandler) handleSuspicious(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.SuspiciousUsers(c.Request.Context()))
}

func (h *FraudHandler) handleBlock(c *gin.Context) {
	userID, ok := shared.PathParam(c, "user_id")
	if !ok {
		return
	}
	var req BlockUserRequest
	if !bindJSONAllowEmpty(c, &req) {
		return
	}

	record, err := h.svc.BlockUser(c.Request.Context(), userID, req.Reason)
	if err != nil {
		requestID, _ := requestMeta(c)
		shared.LogError(h.logger, "fraud_block", requestID, err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}
