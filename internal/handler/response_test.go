package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/httperror"
)

func newBindContext(body string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func TestBindJSONRejections(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed", "invalid"},
		{"missing prompt", `{"context":"x"}`},
		{"negative max tokens", `{"prompt":"hi","max_tokens":-5}`},
		{"empty body", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newBindContext(tt.body)
			var req SubmitPromptRequest
			if bindJSON(c, &req) {
				t.Fatalf("expected bindJSON to fail")
			}
			if w.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected 422, got %d", w.Code)
			}
			if !strings.Contains(w.Body.String(), string(httperror.ErrorCodeValidation)) {
				t.Fatalf("expected validation error code, got %s", w.Body.String())
			}
		})
	}
}

func TestBindJSONAllowEmpty(t *testing.T) {
	c, _ := newBindContext("")
	var req BlockUserRequest
	if !bindJSONAllowEmpty(c, &req) || req.Reason != "" {
		t.Fatalf("expected empty body to bind, got %+v", req)
	}

	long, w := newBindContext(`{"reason":"` + strings.Repeat("x", 501) + `"}`)
	if bindJSONAllowEmpty(long, &req) {
		t.Fatalf("expected oversized reason to fail")
	}
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
}
