package server

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/config"
)

const (
	readHeaderTimeout = 5 * time.Second
	idleTimeout       = 60 * time.Second
	writeSlack        = 10 * time.Second
)

// NewHTTPServer 는 HTTP 서버를 생성한다.
// 쓰기 타임아웃은 모든 카탈로그 모델을 순서대로 시도할 수 있는 시간으로 잡는다.
func NewHTTPServer(cfg *config.Config, router *gin.Engine) *http.Server {
	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.HTTP.Host, strconv.Itoa(cfg.HTTP.Port)),
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout(cfg),
		IdleTimeout:       idleTimeout,
	}

	if cfg.HTTP.HTTP2Enabled {
		server.Handler = h2c.NewHandler(router, &http2.Server{IdleTimeout: idleTimeout})
	}

	return server
}

func writeTimeout(cfg *config.Config) time.Duration {
	attempts := max(1, len(cfg.Catalog.Models))
	perAttempt := time.Duration(max(1, cfg.Providers.TimeoutSeconds)) * time.Second
	return time.Duration(attempts)*perAttempt + writeSlack
}
