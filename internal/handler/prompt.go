package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/domain"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/handler/shared"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/usecase/routing"
)

// SubmitPromptRequest: 프롬프트 제출 요청 본문입니다.
type SubmitPromptRequest struct {
	Prompt          string `json:"prompt" binding:"required"`
	Context         string `json:"context"`
	ModelPreference string `json:"model_preference"`
	MaxTokens       int    `json:"max_tokens" binding:"gte=0"`
}

// AnalyzePromptRequest: 프롬프트 분석 요청 본문입니다.
type AnalyzePromptRequest struct {
	Prompt  string `json:"prompt" binding:"required"`
	Context string `json:"context"`
	ModelID string `json:"model_id"`
}

// PromptHandler: 프롬프트 라우팅 API 핸들러입니다.
type PromptHandler struct {
	svc    RouterService
	logger *slog.Logger
}

// NewPromptHandler: 프롬프트 핸들러를 생성합니다.
func NewPromptHandler(svc RouterService, logger *slog.Logger) *PromptHandler {
	return &PromptHandler{svc: svc, logger: logger}
}

// RegisterRoutes: 프롬프트 라우트를 등록합니다.
func (h *PromptHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.POST("/prompt", h.handleSubmit)
	api.POST("/prompt/analyze", h.handleAnalyze)
	api.GET("/models", h.handleModels)
}

func (h *PromptHandler) handleSubmit(c *gin.Context) {
	var req SubmitPromptRequest
	if !bindJSON(c, &req) {
		return
	}

	requestID, userID := requestMeta(c)
	resp, err := h.svc.SubmitPrompt(c.Request.Context(), domain.PromptRequest{
		ID:              requestID,
		UserID:          userID,
		Prompt:          req.Prompt,
		Context:         req.Context,
		ModelPreference: req.ModelPreference,
		MaxTokens:       req.MaxTokens,
		IPAddress:       c.ClientIP(),
	})
	if err != nil {
		shared.LogError(h.logger, "prompt", requestID, err)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *PromptHandler) handleAnalyze(c *gin.Context) {
	var req AnalyzePromptRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.svc.AnalyzePrompt(c.Request.Context(), routing.AnalyzeRequest{
		Prompt:  req.Prompt,
		Context: req.Context,
		ModelID: req.ModelID,
	})
	if err != nil {
		requestID, _ := requestMeta(c)
		shared.LogError(h.logger, "prompt_analyze", requestID, err)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *PromptHandler) handleModels(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.ListProviders())
}
