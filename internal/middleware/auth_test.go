package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/config"
)

func newAuthRouter(apiKey string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{HTTPAuth: config.HTTPAuthConfig{APIKey: apiKey}}

	router := gin.New()
	router.Use(APIKeyAuth(cfg))
	router.GET("/api/models", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.POST("/api/admin/usage/reset", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func serve(router *gin.Engine, method, path string, headers map[string]string) int {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp.Code
}

func TestAPIKeyAuth(t *testing.T) {
	router := newAuthRouter("secret")

	tests := []struct {
		name    string
		path    string
		headers map[string]string
		want    int
	}{
		{"missing key", "/api/models", nil, http.StatusUnauthorized},
		{"wrong key", "/api/models", map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized},
		{"header key", "/api/models", map[string]string{"X-API-Key": "secret"}, http.StatusOK},
		{"bearer key", "/api/models", map[string]string{"Authorization": "Bearer secret"}, http.StatusOK},
		{"health is public", "/health", nil, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := serve(router, http.MethodGet, tt.path, tt.headers); got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestAPIKeyAuthWithoutKeyBlocksAdmin(t *testing.T) {
	router := newAuthRouter("")

	if got := serve(router, http.MethodGet, "/api/models", nil); got != http.StatusOK {
		t.Fatalf("expected open api without key, got %d", got)
	}
	if got := serve(router, http.MethodPost, "/api/admin/usage/reset", nil); got != http.StatusUnauthorized {
		t.Fatalf("expected admin path to be rejected, got %d", got)
	}
}
