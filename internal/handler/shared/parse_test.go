package shared_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/handler/shared"
)

func newQueryContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, w
}

func TestQueryInt(t *testing.T) {
	tests := []struct {
		target string
		want   int
		ok     bool
	}{
		{"/", 24, true},
		{"/?hours=3", 3, true},
		{"/?hours=168", 168, true},
		{"/?hours=0", 0, false},
		{"/?hours=169", 0, false},
		{"/?hours=abc", 0, false},
	}
	for _, tt := range tests {
		c, w := newQueryContext(tt.target)
		got, ok := shared.QueryInt(c, "hours", 24, 1, 168)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("%s: got %d ok=%v", tt.target, got, ok)
		}
		if !ok && w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tt.target, w.Code)
		}
	}
}

func TestPathParamMissing(t *testing.T) {
	c, w := newQueryContext("/")
	c.Params = gin.Params{{Key: "user_id", Value: "  "}}

	if _, ok := shared.PathParam(c, "user_id"); ok {
		t.Fatalf("expected blank param to fail")
	}
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestToMap(t *testing.T) {
	type row struct {
		ID        string    `json:"id"`
		Tokens    int       `json:"tokens"`
		Hidden    string    `json:"-"`
		Timestamp time.Time `json:"timestamp"`
	}
	got, err := shared.ToMap(row{ID: "a", Tokens: 3, Hidden: "x", Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)})
	if err != nil {
		t.Fatalf("ToMap failed: %v", err)
	}
	if got["id"] != "a" || got["tokens"] != float64(3) || got["timestamp"] != "2024-01-02T03:04:05Z" {
		t.Fatalf("unexpected map: %+v", got)
	}
	if _, ok := got["Hidden"]; ok {
		t.Fatalf("json-ignored field must be dropped")
	}
}

func TestTrimRunes(t *testing.T) {
	if shared.TrimRunes("abcdef", 3) != "abc" || shared.TrimRunes("abc", 5) != "abc" || shared.TrimRunes("abc", 0) != "" {
		t.Fatalf("unexpected ascii trim")
	}
	if shared.TrimRunes("가나다라마바", 3) != "가나다" {
		t.Fatalf("expected rune based trim")
	}
}
