package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/config"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/httperror"
)

// APIKeyAuth 는 /api/ 경로에 API 키 인증을 적용하는 미들웨어다.
// 키가 설정되지 않았으면 통과시킨다. 관리자 경로(/api/admin/)는 키가 없으면 항상 거부한다.
func APIKeyAuth(cfg *config.Config) gin.HandlerFunc {
	expected := ""
	if cfg != nil {
		expected = strings.TrimSpace(cfg.HTTPAuth.APIKey)
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if !shouldProtectPath(path) {
			c.Next()
			return
		}
		if expected == "" {
			if isAdminPath(path) {
				abortUnauthorized(c, "admin api disabled")
				return
			}
			c.Next()
			return
		}

		provided := extractAPIKey(c)
		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
			abortUnauthorized(c, "")
			return
		}

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, reason string) {
	details := map[string]any{"path": c.Request.URL.Path}
	if reason != "" {
		details["reason"] = reason
	}
	status, payload := httperror.Response(httperror.NewUnauthorized(details), GetRequestID(c))
	c.AbortWithStatusJSON(status, payload)
}

func extractAPIKey(c *gin.Context) string {
	if c == nil {
		return ""
	}

	if value := strings.TrimSpace(c.GetHeader("X-API-Key")); value != "" {
		return value
	}

	authValue := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(authValue) > 7 && strings.EqualFold(authValue[:7], "bearer ") {
		return strings.TrimSpace(authValue[7:])
	}
	return ""
}

func shouldProtectPath(path string) bool {
	return strings.HasPrefix(path, "/api/")
}

func isAdminPath(path string) bool {
	return strings.HasPrefix(path, "/api/admin/")
}
