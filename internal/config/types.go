package config

import (
	"net"
	"net/url"
	"strconv"
	"time"
)

// DefaultCounterStoreOpTimeout: 카운터 저장소 명령 하나에 허용하는 기본 시간입니다.
const DefaultCounterStoreOpTimeout = 500 * time.Millisecond

// 지원하는 프로바이더 이름입니다.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGoogle    = "google"
	ProviderDeepSeek  = "deepseek"
)

// KnownProviders: 어댑터가 구현된 프로바이더 목록입니다. (열거 순서 고정)
var KnownProviders = []string{ProviderOpenAI, ProviderAnthropic, ProviderGoogle, ProviderDeepSeek}

// ModelSpec: 카탈로그에 등록된 단일 모델 정의입니다.
type ModelSpec struct {
	Provider     string   `yaml:"provider"`
	Name         string   `yaml:"name"`
	CostPer1K    float64  `yaml:"cost_per_1k_tokens"`
	MaxTokens    int      `yaml:"max_tokens"`
	Capabilities []string `yaml:"capabilities"`
	RateLimitRPS float64  `yaml:"rate_limit_rps"`
}

// ID: "{provider}-{model}" 형식의 모델 식별자를 반환합니다.
func (m ModelSpec) ID() string {
	return m.Provider + "-" + m.Name
}

// FreeTierLimit: 프로바이더별 월간 무료 토큰 한도입니다.
type FreeTierLimit struct {
	Provider string `yaml:"provider"`
	Tokens   int64  `yaml:"tokens"`
}

// MonitoringConfig: 사용량 이상 탐지 임계값입니다.
type MonitoringConfig struct {
	SpikeThreshold       int64 `yaml:"spike_threshold"`
	FraudThreshold       int64 `yaml:"fraud_threshold"`
	AlertCooldownSeconds int   `yaml:"alert_cooldown"`
}

// FraudConfig: 요청 단위 부정 사용 탐지 규칙 설정입니다.
type FraudConfig struct {
	RapidRequestThreshold     int64 `yaml:"rapid_request_threshold"`
	RapidRequestWindowSeconds int   `yaml:"rapid_request_window"`
	HighTokenThreshold        int   `yaml:"high_token_threshold"`
	UnusualHourStart          int   `yaml:"unusual_hour_start"`
	UnusualHourEnd            int   `yaml:"unusual_hour_end"`
	MultipleIPThreshold       int64 `yaml:"multiple_ip_threshold"`
	MultipleIPWindowSeconds   int   `yaml:"multiple_ip_window"`
	BlockTTLHours             int   `yaml:"block_ttl_hours"`
}

// CatalogConfig: YAML 로 관리되는 모델 카탈로그와 임계값 묶음입니다.
type CatalogConfig struct {
	Models         []ModelSpec      `yaml:"models"`
	FreeTierLimits []FreeTierLimit  `yaml:"free_tier_limits"`
	Monitoring     MonitoringConfig `yaml:"monitoring"`
	Fraud          FraudConfig      `yaml:"fraud"`
}

// FreeTierLimit: 프로바이더의 무료 한도를 조회합니다.
func (c CatalogConfig) FreeTierLimit(provider string) (int64, bool) {
	for _, limit := range c.FreeTierLimits {
		if limit.Provider == provider {
			return limit.Tokens, true
		}
	}
	return 0, false
}

// FreeTierProviders: 무료 한도가 정의된 프로바이더 목록을 선언 순서대로 반환합니다.
func (c CatalogConfig) FreeTierProviders() []string {
	providers := make([]string, 0, len(c.FreeTierLimits))
	for _, limit := range c.FreeTierLimits {
		providers = append(providers, limit.Provider)
	}
	return providers
}

// ModelIDs: 카탈로그 모델 ID 목록을 반환합니다.
func (c CatalogConfig) ModelIDs() []string {
	ids := make([]string, 0, len(c.Models))
	for _, model := range c.Models {
		ids = append(ids, model.ID())
	}
	return ids
}

// ProvidersConfig: 외부 프로바이더 접속 설정입니다.
type ProvidersConfig struct {
	Keys             map[string]string
	TimeoutSeconds   int
	OpenAIBaseURL    string
	AnthropicBaseURL string
	AnthropicVersion string
	DeepSeekBaseURL  string
}

// Key: 프로바이더의 API 키를 반환합니다.
func (p ProvidersConfig) Key(provider string) string {
	if p.Keys == nil {
		return ""
	}
	return p.Keys[provider]
}

// CounterStoreConfig: 카운터 저장소 연결 설정입니다.
type CounterStoreConfig struct {
	URL                 string
	Enabled             bool
	Required            bool
	DisableCache        bool
	ConnectMaxAttempts  int
	ConnectRetrySeconds int
	OpTimeout           time.Duration // 명령 한 번의 상한
	SnapshotPath        string
	AlertStream         string
	AlertStreamMaxLen   int64
}

// LoggingConfig: 로깅 설정입니다.
type LoggingConfig struct {
	Level      string
	LogDir     string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// HTTPConfig: HTTP 서버 설정입니다.
type HTTPConfig struct {
	Host             string
	Port             int
	HTTP2Enabled     bool
	CORSAllowOrigins []string
}

// GRPCConfig: gRPC 서버 설정입니다.
type GRPCConfig struct {
	Host    string
	Port    int
	Enabled bool
}

// HTTPAuthConfig: API 키 인증 설정입니다.
type HTTPAuthConfig struct {
	APIKey   string
	Required bool
}

// HTTPRateLimitConfig: 요청 제한 설정입니다.
type HTTPRateLimitConfig struct {
	RequestsPerMinute int
	CacheSize         int
	CacheTTLSeconds   int
}

// DatabaseConfig: DB 연결 및 저장 설정입니다.
type DatabaseConfig struct {
	Enabled                              bool
	SQLitePath                           string
	Host                                 string
	Port                                 int
	Name                                 string
	User                                 string
	Password                             string
	MinPool                              int
	MaxPool                              int
	ConnMaxLifetimeMinutes               int
	ConnMaxIdleTimeMinutes               int
	UsageBatchEnabled                    bool
	UsageBatchFlushIntervalSeconds       int
	UsageBatchFlushTimeoutSeconds        int
	UsageBatchMaxPendingRequests         int
	UsageBatchMaxBackoffSeconds          int
	UsageBatchErrorLogMaxIntervalSeconds int
}

// DSN: DB 접속 문자열을 반환합니다.
func (d DatabaseConfig) DSN() string {
	host := net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
	u := &url.URL{
		Scheme: "postgresql",
		Host:   host,
		Path:   "/" + d.Name,
	}
	if d.Password == "" {
		u.User = url.User(d.User)
	} else {
		u.User = url.UserPassword(d.User, d.Password)
	}
	return u.String()
}

// TelemetryConfig: OpenTelemetry 설정입니다.
type TelemetryConfig struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	Environment    string
	OTLPEndpoint   string
	OTLPInsecure   bool
	SampleRate     float64
}

// Config: 애플리케이션 전체 설정입니다.
type Config struct {
	Catalog       CatalogConfig
	Providers     ProvidersConfig
	CounterStore  CounterStoreConfig
	Logging       LoggingConfig
	HTTP          HTTPConfig
	GRPC          GRPCConfig
	HTTPAuth      HTTPAuthConfig
	HTTPRateLimit HTTPRateLimitConfig
	Database      DatabaseConfig
	Telemetry     TelemetryConfig
}
