package handler

import (
	"log/slog"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/config"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/health"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/middleware"
)

// NewRouter 는 HTTP 라우터를 구성한다.
func NewRouter(
	cfg *config.Config,
	logger *slog.Logger,
	checker *health.Checker,
	promptHandler *PromptHandler,
	usageHandler *UsageHandler,
	fraudHandler *FraudHandler,
	adminHandler *AdminHandler,
) *gin.Engine {
	setGinMode(cfg.Logging.Level)

	router := gin.New()
	router.Use(middleware.RequestID())
	if cfg.Telemetry.Enabled {
		serviceName := cfg.Telemetry.ServiceName
		if serviceName == "" {
			serviceName = "model-router"
		}
		router.Use(otelgin.Middleware(serviceName))
	}
	router.Use(
		middleware.UserIdentity(),
		middleware.RequestLogger(logger),
		gin.Recovery(),
		cors.New(corsConfig(cfg.HTTP.CORSAllowOrigins)),
		gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})),
		middleware.APIKeyAuth(cfg),
		middleware.RateLimit(cfg),
	)

	RegisterHealthRoutes(router, cfg, checker)
	promptHandler.RegisterRoutes(router)
	usageHandler.RegisterRoutes(router)
	fraudHandler.RegisterRoutes(router)
	adminHandler.RegisterRoutes(router)

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", "X-API-Key", middleware.RequestIDHeader, middleware.UserIDHeader)
	cfg.ExposeHeaders = []string{middleware.RequestIDHeader}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}

func setGinMode(level string) {
	if strings.EqualFold(strings.TrimSpace(level), "debug") {
		gin.SetMode(gin.DebugMode)
		return
	}
	gin.SetMode(gin.ReleaseMode)
}
