package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
)

type capturedLog struct {
	level slog.Level
	msg   string
	attrs map[string]string
}

// captureHandler 는 기록된 로그를 메모리에 모은다. WithAttrs/WithGroup 은 쓰지 않는다.
type captureHandler struct {
	mu   sync.Mutex
	logs []capturedLog
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, record slog.Record) error {
	attrs := make(map[string]string, record.NumAttrs())
	record.Attrs(func(attr slog.Attr) bool {
		attrs[attr.Key] = fmt.Sprint(attr.Value.Any())
		return true
	})
	h.mu.Lock()
	h.logs = append(h.logs, capturedLog{level: record.Level, msg: record.Message, attrs: attrs})
	h.mu.Unlock()
	return nil
}

func (h *captureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *captureHandler) WithGroup(string) slog.Handler { return h }

func (h *captureHandler) snapshot() []capturedLog {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]capturedLog(nil), h.logs...)
}

func newLoggedRouter(status int) (*gin.Engine, *captureHandler) {
	gin.SetMode(gin.TestMode)
	capture := &captureHandler{}

	router := gin.New()
	router.Use(RequestID(), UserIdentity(), RequestLogger(slog.New(capture)))
	respond := func(c *gin.Context) { c.Status(status) }
	router.GET("/api/usage/:user_id", respond)
	router.GET("/health/ready", respond)
	router.GET("/metrics", respond)
	return router, capture
}

func TestRequestLoggerLevels(t *testing.T) {
	tests := []struct {
		status int
		level  slog.Level
	}{
		{http.StatusOK, slog.LevelInfo},
		{http.StatusUnprocessableEntity, slog.LevelWarn},
		{http.StatusServiceUnavailable, slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			router, capture := newLoggedRouter(tt.status)

			req := httptest.NewRequest(http.MethodGet, "/api/usage/u1", nil)
			req.Header.Set(RequestIDHeader, "req-log")
			req.Header.Set(UserIDHeader, "u1")
			router.ServeHTTP(httptest.NewRecorder(), req)

			logs := capture.snapshot()
			if len(logs) != 1 {
				t.Fatalf("expected 1 log entry, got %d", len(logs))
			}
			entry := logs[0]
			if entry.level != tt.level || entry.msg != "http_request" {
				t.Fatalf("unexpected entry: %s %q", entry.level, entry.msg)
			}
			want := map[string]string{
				"request_id": "req-log",
				"user_id":    "u1",
				"method":     http.MethodGet,
				"path":       "/api/usage/u1",
				"route":      "/api/usage/:user_id",
				"status":     fmt.Sprint(tt.status),
			}
			for key, value := range want {
				if entry.attrs[key] != value {
					t.Fatalf("expected %s=%s, got %q", key, value, entry.attrs[key])
				}
			}
		})
	}
}

func TestRequestLoggerDefaultsAnonymousUser(t *testing.T) {
	router, capture := newLoggedRouter(http.StatusOK)
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/usage/u1", nil))

	logs := capture.snapshot()
	if len(logs) != 1 || logs[0].attrs["user_id"] != AnonymousUserID {
		t.Fatalf("expected anonymous user log, got %+v", logs)
	}
	if logs[0].attrs["request_id"] == "" {
		t.Fatalf("expected generated request id")
	}
}

func TestRequestLoggerNoisyPaths(t *testing.T) {
	router, capture := newLoggedRouter(http.StatusOK)
	for _, path := range []string{"/health/ready", "/metrics"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	if logs := capture.snapshot(); len(logs) != 0 {
		t.Fatalf("expected healthy probes to be skipped, got %d entries", len(logs))
	}

	failing, failingCapture := newLoggedRouter(http.StatusServiceUnavailable)
	failing.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if logs := failingCapture.snapshot(); len(logs) != 1 || logs[0].level != slog.LevelError {
		t.Fatalf("expected failing probe to be logged, got %+v", logs)
	}
}
