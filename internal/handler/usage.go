package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/handler/shared"
)

const (
	defaultUsageHours = 24
	maxUsageHours     = 168
)

// UsageHandler: 사용량, 경보, 비용 분석 API 핸들러입니다.
type UsageHandler struct {
	svc    RouterService
	logger *slog.Logger
}

// NewUsageHandler: 사용량 핸들러를 생성합니다.
func NewUsageHandler(svc RouterService, logger *slog.Logger) *UsageHandler {
	return &UsageHandler{svc: svc, logger: logger}
}

// RegisterRoutes: 사용량 라우트를 등록합니다.
func (h *UsageHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.GET("/usage/:user_id", h.handleUsage)
	api.GET("/alerts", h.handleAlerts)
	api.GET("/cost-analysis", h.handleCostAnalysis)
	api.GET("/provider-ranking", h.handleProviderRanking)
}

func (h *UsageHandler) handleUsage(c *gin.Context) {
	userID, ok := shared.PathParam(c, "user_id")
	if !ok {
		return
	}
	hours, ok := shared.QueryInt(c, "hours", defaultUsageHours, 1, maxUsageHours)
	if !ok {
		return
	}

	report, err := h.svc.UsageStats(c.Request.Context(), userID, hours)
	if err != nil {
		h.fail(c, "usage", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *UsageHandler) handleAlerts(c *gin.Context) {
	userID := strings.TrimSpace(c.Query("user_id"))
	c.JSON(http.StatusOK, h.svc.ActiveAlerts(c.Request.Context(), userID))
}

func (h *UsageHandler) handleCostAnalysis(c *gin.Context) {
	analysis, err := h.svc.CostAnalysis(c.Request.Context())
	if err != nil {
		h.fail(c, "cost_analysis", err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

func (h *UsageHandler) handleProviderRanking(c *gin.Context) {
	ranking, err := h.svc.ProviderRanking(c.Request.Context())
	if err != nil {
		h.fail(c, "provider_ranking", err)
		return
	}
	c.JSON(http.StatusOK, ranking)
}

func (h *UsageHandler) fail(c *gin.Context, domain string, err error) {
	requestID, _ := requestMeta(c)
	shared.LogError(h.logger, domain, requestID, err)
	writeError(c, err)
}
