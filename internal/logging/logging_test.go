package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/config"
)

func TestNewLoggerCreatesFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.LoggingConfig{
		LogDir:     dir,
		Level:      "info",
		MaxSizeMB:  1,
		MaxBackups: 1,
		MaxAgeDays: 1,
		Compress:   true,
	}
	if _, err := NewLogger(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	path := filepath.Join(dir, logFileName)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected log file, got error: %v", err)
	}
}

func TestNewLoggerRejectsInvalidRotation(t *testing.T) {
	cfg := config.LoggingConfig{LogDir: t.TempDir(), MaxSizeMB: 0, MaxBackups: 1, MaxAgeDays: 1}
	if _, err := NewLogger(cfg); err == nil {
		t.Fatalf("expected error for zero max size")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestTraceHandlerAddsSpanIDs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newTraceHandler(slog.NewJSONHandler(&buf, nil)))

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	logger.InfoContext(ctx, "with_span")
	span.End()

	if !strings.Contains(buf.String(), `"trace_id":"`+span.SpanContext().TraceID().String()+`"`) {
		t.Fatalf("expected trace_id in output: %s", buf.String())
	}

	buf.Reset()
	logger.Info("without_span")
	if strings.Contains(buf.String(), "trace_id") {
		t.Fatalf("unexpected trace_id without span: %s", buf.String())
	}
}
