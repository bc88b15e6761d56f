package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/config"
)

const logFileName = "model-router.log"

// NewLogger: 콘솔(및 선택적으로 회전 파일)에 기록하는 로거를 생성합니다.
func NewLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	return build(cfg, false)
}

// NewLoggerWithOTel: trace_id/span_id 를 함께 기록하는 로거를 생성합니다.
func NewLoggerWithOTel(cfg config.LoggingConfig) (*slog.Logger, error) {
	return build(cfg, true)
}

func build(cfg config.LoggingConfig, traced bool) (*slog.Logger, error) {
	writer, toFile, err := openWriter(cfg)
	if err != nil {
		return nil, err
	}

	var handler slog.Handler = tint.NewHandler(writer, &tint.Options{
		Level:      parseLevel(cfg.Level),
		TimeFormat: time.RFC3339,
		AddSource:  true,
		NoColor:    toFile != "",
	})
	if traced {
		handler = newTraceHandler(handler)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	if toFile != "" {
		logger.Info("file_logging_enabled", "path", toFile)
	}
	return logger, nil
}

func openWriter(cfg config.LoggingConfig) (io.Writer, string, error) {
	logDir := strings.TrimSpace(cfg.LogDir)
	if logDir == "" {
		return os.Stdout, "", nil
	}
	if cfg.MaxSizeMB <= 0 || cfg.MaxBackups <= 0 || cfg.MaxAgeDays <= 0 {
		return nil, "", fmt.Errorf(
			"invalid log config: size=%d backups=%d age_days=%d",
			cfg.MaxSizeMB,
			cfg.MaxBackups,
			cfg.MaxAgeDays,
		)
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, "", fmt.Errorf("create log dir failed: %w", err)
	}

	rotating := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, logFileName),
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	return io.MultiWriter(os.Stdout, rotating), rotating.Filename, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
