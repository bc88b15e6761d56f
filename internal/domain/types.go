// Package domain 은 라우팅, 비용 원장, 사용량 감시가 공유하는 값 타입을 정의한다.
package domain

import "time"

// PromptRequest: 라우터로 들어오는 단일 프롬프트 요청입니다.
type PromptRequest struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Prompt          string    `json:"prompt"`
	Context         string    `json:"context,omitempty"`
	ModelPreference string    `json:"model_preference,omitempty"`
	MaxTokens       int       `json:"max_tokens,omitempty"`
	IPAddress       string    `json:"-"`
	Timestamp       time.Time `json:"timestamp"`
}

// PromptResponse: 프로바이더 호출이 성공했을 때 한 번 생성되는 응답입니다.
type PromptResponse struct {
	ID         string    `json:"id"`
	RequestID  string    `json:"request_id"`
	ModelUsed  string    `json:"model_used"`
	Response   string    `json:"response"`
	TokensUsed int       `json:"tokens_used"`
	Cost       float64   `json:"cost"`
	Timestamp  time.Time `json:"timestamp"`
}

// ProviderDescriptor: 카탈로그 모델 메타데이터입니다. Available 은 조회 시점에 계산됩니다.
type ProviderDescriptor struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Provider     string   `json:"provider"`
	CostPer1K    float64  `json:"cost_per_1k_tokens"`
	MaxTokens    int      `json:"max_tokens"`
	Capabilities []string `json:"capabilities"`
	Available    bool     `json:"is_available"`
}

// TokenUsage: 사용량 감시기로 전달되는 한 건의 사용 이벤트입니다.
type TokenUsage struct {
	RequestID  string
	UserID     string
	ModelID    string
	TokensUsed int
	Cost       float64
	Timestamp  time.Time
}

// UsageFromResponse: 성공 응답으로부터 사용 이벤트를 만든다.
func UsageFromResponse(userID string, resp PromptResponse) TokenUsage {
	return TokenUsage{
		RequestID:  resp.RequestID,
		UserID:     userID,
		ModelID:    resp.ModelUsed,
		TokensUsed: resp.TokensUsed,
		Cost:       resp.Cost,
		Timestamp:  resp.Timestamp,
	}
}

// MonthlyUsage: 프로바이더별 당월 누적 카운터입니다.
type MonthlyUsage struct {
	TokensUsed int64   `json:"tokens_used"`
	Cost       float64 `json:"cost"`
	Requests   int64   `json:"requests"`
}

// AlertType: 사용량 경보 종류입니다.
type AlertType string

const (
	AlertSpike    AlertType = "spike"
	AlertAbnormal AlertType = "abnormal"
	AlertFraud    AlertType = "fraud"
)

// Severity: 경보 심각도입니다.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// UsageAlert: 임계값 초과 시 생성되는 경보입니다.
type UsageAlert struct {
	Type      AlertType `json:"type"`
	UserID    string    `json:"user_id"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
}
