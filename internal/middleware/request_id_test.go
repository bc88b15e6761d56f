package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func newEchoRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID(), UserIdentity())
	router.GET("/api/test", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c)+"|"+GetUserID(c))
	})
	return router
}

func TestRequestIDGenerated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	resp := httptest.NewRecorder()
	newEchoRouter().ServeHTTP(resp, req)

	id := resp.Header().Get(RequestIDHeader)
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("expected uuid request id, got %q", id)
	}
	if !strings.HasPrefix(resp.Body.String(), id+"|") {
		t.Fatalf("expected body to match request id: %s", resp.Body.String())
	}
}

func TestRequestIDPreservedAndBounded(t *testing.T) {
	router := newEchoRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Header().Get(RequestIDHeader) != "req-123" {
		t.Fatalf("expected request id to be preserved")
	}

	long := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	long.Header.Set(RequestIDHeader, strings.Repeat("x", maxRequestIDBytes+1))
	longResp := httptest.NewRecorder()
	router.ServeHTTP(longResp, long)
	if got := longResp.Header().Get(RequestIDHeader); len(got) > maxRequestIDBytes {
		t.Fatalf("oversized request id must be replaced, got %d bytes", len(got))
	}
}

func TestUserIdentity(t *testing.T) {
	router := newEchoRouter()

	tests := []struct {
		header string
		want   string
	}{
		{"", AnonymousUserID},
		{"  ", AnonymousUserID},
		{"user-42", "user-42"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
		req.Header.Set(RequestIDHeader, "r")
		if tt.header != "" {
			req.Header.Set(UserIDHeader, tt.header)
		}
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Body.String() != "r|"+tt.want {
			t.Fatalf("header %q: got %q", tt.header, resp.Body.String())
		}
	}
}
