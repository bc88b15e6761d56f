package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/joho/godotenv"
)

var (
	configOnce  sync.Once
	configValue *Config
	configErr   error
)

// Load 는 환경 변수 기반 설정을 로드한다.
func Load() (*Config, error) {
	configOnce.Do(func() {
		_ = godotenv.Load()
		configValue, configErr = buildConfig()
	})
	return configValue, configErr
}

// ProvideConfig 는 설정을 로드하고 검증한다.
func ProvideConfig() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, errors.New("config not initialized")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 는 설정 유효성을 검사한다.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if len(c.Catalog.Models) == 0 {
		return errors.New("catalog has no models")
	}
	seen := make(map[string]struct{}, len(c.Catalog.Models))
	for _, model := range c.Catalog.Models {
		if model.Provider == "" || model.Name == "" {
			return fmt.Errorf("catalog model missing provider or name: %+v", model)
		}
		if !slices.Contains(KnownProviders, model.Provider) {
			return fmt.Errorf("unsupported provider: %s", model.Provider)
		}
		if model.MaxTokens <= 0 {
			return fmt.Errorf("max_tokens must be positive: model=%s", model.ID())
		}
		if model.CostPer1K < 0 {
			return fmt.Errorf("cost_per_1k_tokens must not be negative: model=%s", model.ID())
		}
		if _, ok := seen[model.ID()]; ok {
			return fmt.Errorf("duplicate model id: %s", model.ID())
		}
		seen[model.ID()] = struct{}{}
	}
	for _, limit := range c.Catalog.FreeTierLimits {
		if limit.Tokens < 0 {
			return fmt.Errorf("free tier limit must not be negative: provider=%s", limit.Provider)
		}
	}
	fraud := c.Catalog.Fraud
	if fraud.UnusualHourStart < 0 || fraud.UnusualHourEnd > 23 || fraud.UnusualHourStart > fraud.UnusualHourEnd {
		return fmt.Errorf("invalid unusual hour range: %d-%d", fraud.UnusualHourStart, fraud.UnusualHourEnd)
	}
	return nil
}

// LogEnvStatus 는 환경 설정 상태를 로그로 남긴다.
func LogEnvStatus(cfg *Config, logger *slog.Logger) {
	if logger == nil || cfg == nil {
		return
	}

	envFilePresent := fileExists(".env")
	logger.Debug(
		"env_status",
		"env_file", envFilePresent,
		"models", len(cfg.Catalog.Models),
		"openai_key", maskSecret(cfg.Providers.Key(ProviderOpenAI)),
		"anthropic_key", maskSecret(cfg.Providers.Key(ProviderAnthropic)),
		"google_key", maskSecret(cfg.Providers.Key(ProviderGoogle)),
		"deepseek_key", maskSecret(cfg.Providers.Key(ProviderDeepSeek)),
		"timeout", cfg.Providers.TimeoutSeconds,
		"counter_store_url", cfg.CounterStore.URL,
		"db_enabled", cfg.Database.Enabled,
		"db_host", cfg.Database.Host,
		"spike_threshold", cfg.Catalog.Monitoring.SpikeThreshold,
		"fraud_threshold", cfg.Catalog.Monitoring.FraudThreshold,
	)

	configured := 0
	for _, provider := range KnownProviders {
		if cfg.Providers.Key(provider) != "" {
			configured++
		}
	}
	if configured == 0 {
		logger.Error("env_missing_provider_keys")
	}
}

func buildConfig() (*Config, error) {
	catalog, err := LoadCatalog(getEnvString("MODELS_CONFIG_PATH", ""))
	if err != nil {
		return nil, err
	}
	catalog.Monitoring = applyMonitoringOverrides(catalog.Monitoring)

	return &Config{
		Catalog: catalog,
		Providers: ProvidersConfig{
			Keys:             parseProviderKeys(),
			TimeoutSeconds:   max(1, getEnvInt("PROVIDER_TIMEOUT_SECONDS", 60)),
			OpenAIBaseURL:    getEnvString("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			AnthropicBaseURL: getEnvString("ANTHROPIC_BASE_URL", "https://api.anthropic.com/"),
			AnthropicVersion: getEnvString("ANTHROPIC_VERSION", "2023-06-01"),
			DeepSeekBaseURL:  getEnvString("DEEPSEEK_BASE_URL", "https://api.deepseek.com/v1"),
		},
		CounterStore: CounterStoreConfig{
			URL:                 getEnvString("COUNTER_STORE_URL", "redis://localhost:6379"),
			Enabled:             getEnvBool("COUNTER_STORE_ENABLED", true),
			Required:            getEnvBool("COUNTER_STORE_REQUIRED", false),
			DisableCache:        getEnvBool("COUNTER_STORE_DISABLE_CACHE", true),
			ConnectMaxAttempts:  max(1, getEnvNonNegativeInt("COUNTER_STORE_CONNECT_MAX_ATTEMPTS", 6)),
			ConnectRetrySeconds: getEnvNonNegativeInt("COUNTER_STORE_CONNECT_RETRY_SECONDS", 5),
			OpTimeout:           getEnvDuration("COUNTER_STORE_OP_TIMEOUT", DefaultCounterStoreOpTimeout),
			SnapshotPath:        getEnvString("COUNTER_SNAPSHOT_PATH", ""),
			AlertStream:         getEnvString("ALERT_STREAM_KEY", "model-router:alerts"),
			AlertStreamMaxLen:   getEnvInt64("ALERT_STREAM_MAXLEN", 10000),
		},
		Logging: LoggingConfig{
			Level:      getEnvString("LOG_LEVEL", "info"),
			LogDir:     getEnvString("LOG_DIR", ""),
			MaxSizeMB:  getEnvInt("LOG_FILE_MAX_SIZE_MB", 1),
			MaxBackups: getEnvInt("LOG_FILE_MAX_BACKUPS", 30),
			MaxAgeDays: getEnvInt("LOG_FILE_MAX_AGE_DAYS", 7),
			Compress:   getEnvBool("LOG_FILE_COMPRESS", true),
		},
		HTTP: HTTPConfig{
			Host:             getEnvString("HTTP_HOST", "127.0.0.1"),
			Port:             getEnvInt("HTTP_PORT", 8000),
			HTTP2Enabled:     getEnvBool("HTTP2_ENABLED", true),
			CORSAllowOrigins: splitList(getEnvString("HTTP_CORS_ALLOW_ORIGINS", "*")),
		},
		GRPC: GRPCConfig{
			Host:    getEnvString("GRPC_HOST", "127.0.0.1"),
			Port:    getEnvInt("GRPC_PORT", 8001),
			Enabled: getEnvBool("GRPC_ENABLED", false),
		},
		HTTPAuth: HTTPAuthConfig{
			APIKey:   getEnvString("HTTP_API_KEY", ""),
			Required: getEnvBool("HTTP_API_KEY_REQUIRED", false),
		},
		HTTPRateLimit: HTTPRateLimitConfig{
			RequestsPerMinute: getEnvNonNegativeInt("HTTP_RATE_LIMIT_RPM", 0),
			CacheSize:         max(1, getEnvNonNegativeInt("HTTP_RATE_LIMIT_CACHE_SIZE", 10000)),
			CacheTTLSeconds:   max(1, getEnvNonNegativeInt("HTTP_RATE_LIMIT_CACHE_TTL_SECONDS", 120)),
		},
		Database: DatabaseConfig{
			Enabled:                              getEnvBool("DB_ENABLED", false),
			SQLitePath:                           getEnvString("DB_SQLITE_PATH", ":memory:"),
			Host:                                 getEnvString("DB_HOST", "localhost"),
			Port:                                 getEnvInt("DB_PORT", 5432),
			Name:                                 getEnvString("DB_NAME", "model_router"),
			User:                                 getEnvString("DB_USER", "model_router"),
			Password:                             getEnvString("DB_PASSWORD", ""),
			MinPool:                              getEnvInt("DB_MIN_POOL", 1),
			MaxPool:                              getEnvInt("DB_MAX_POOL", 5),
			ConnMaxLifetimeMinutes:               getEnvNonNegativeInt("DB_CONN_MAX_LIFETIME_MINUTES", 60),
			ConnMaxIdleTimeMinutes:               getEnvNonNegativeInt("DB_CONN_MAX_IDLE_TIME_MINUTES", 10),
			UsageBatchEnabled:                    getEnvBool("DB_USAGE_BATCH_ENABLED", false),
			UsageBatchFlushIntervalSeconds:       max(1, getEnvNonNegativeInt("DB_USAGE_BATCH_FLUSH_INTERVAL_SECONDS", 1)),
			UsageBatchFlushTimeoutSeconds:        max(1, getEnvNonNegativeInt("DB_USAGE_BATCH_FLUSH_TIMEOUT_SECONDS", 5)),
			UsageBatchMaxPendingRequests:         max(1, getEnvNonNegativeInt("DB_USAGE_BATCH_MAX_PENDING_REQUESTS", 50)),
			UsageBatchMaxBackoffSeconds:          getEnvNonNegativeInt("DB_USAGE_BATCH_MAX_BACKOFF_SECONDS", 60),
			UsageBatchErrorLogMaxIntervalSeconds: getEnvNonNegativeInt("DB_USAGE_BATCH_ERROR_LOG_MAX_INTERVAL_SECONDS", 60),
		},
		Telemetry: readTelemetryConfig(),
	}, nil
}
