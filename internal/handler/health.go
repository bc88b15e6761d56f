package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/config"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/domain"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/health"
)

// ModelsHealthResponse: 카탈로그 모델 상태 응답입니다.
type ModelsHealthResponse struct {
	Models          []domain.ProviderDescriptor `json:"models"`
	AvailableModels int                         `json:"available_models"`
	TimeoutSeconds  int                         `json:"timeout_seconds"`
	HTTP2Enabled    bool                        `json:"http2_enabled"`
	TransportMode   string                      `json:"transport_mode"`
}

// RegisterHealthRoutes: 상태 확인 라우트를 등록합니다.
func RegisterHealthRoutes(router *gin.Engine, cfg *config.Config, checker *health.Checker) {
	router.GET("/health", func(c *gin.Context) {
		// liveness 는 외부 의존성 상태와 무관하게 200 을 반환합니다.
		c.JSON(http.StatusOK, checker.Collect(c.Request.Context(), false))
	})

	router.GET("/health/ready", func(c *gin.Context) {
		payload := checker.Collect(c.Request.Context(), true)
		status := http.StatusOK
		if payload.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, payload)
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/health/models", func(c *gin.Context) {
		models := checker.Models()
		available := 0
		for _, model := range models {
			if model.Available {
				available++
			}
		}

		response := ModelsHealthResponse{
			Models:          models,
			AvailableModels: available,
			TransportMode:   "h1",
		}
		if cfg != nil {
			response.TimeoutSeconds = cfg.Providers.TimeoutSeconds
			response.HTTP2Enabled = cfg.HTTP.HTTP2Enabled
			if cfg.HTTP.HTTP2Enabled {
				response.TransportMode = "h2c"
			}
		}
		c.JSON(http.StatusOK, response)
	})
}
