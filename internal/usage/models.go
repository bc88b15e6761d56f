package usage

import (
	"time"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/domain"
)

// RequestSummary 는 성공한 라우팅 한 건의 요약이다. 프롬프트 원문과 응답 본문은 저장하지 않는다.
type RequestSummary struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	RequestID  string    `gorm:"column:request_id;size:64;index"`
	UserID     string    `gorm:"column:user_id;size:128;index:idx_request_user_created,priority:1"`
	ModelUsed  string    `gorm:"column:model_used;size:128"`
	TokensUsed int64     `gorm:"column:tokens_used"`
	Cost       float64   `gorm:"column:cost"`
	CreatedAt  time.Time `gorm:"column:created_at;index:idx_request_user_created,priority:2"`
}

// TableName 은 GORM에서 사용할 테이블명을 반환한다.
func (RequestSummary) TableName() string {
	return "request_summaries"
}

// SummaryFromUsage 는 사용 이벤트로부터 저장용 요약을 만든다.
func SummaryFromUsage(u domain.TokenUsage) RequestSummary {
	created := u.Timestamp
	if created.IsZero() {
		created = time.Now().UTC()
	}
	return RequestSummary{
		RequestID:  u.RequestID,
		UserID:     u.UserID,
		ModelUsed:  u.ModelID,
		TokensUsed: int64(u.TokensUsed),
		Cost:       u.Cost,
		CreatedAt:  created,
	}
}

// AlertRecord 는 생성된 사용량 경보 행이다.
type AlertRecord struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    string    `gorm:"column:user_id;size:128;index:idx_alert_user_created,priority:1"`
	AlertType string    `gorm:"column:alert_type;size:32"`
	Message   string    `gorm:"column:message"`
	Severity  string    `gorm:"column:severity;size:16"`
	CreatedAt time.Time `gorm:"column:created_at;index:idx_alert_user_created,priority:2"`
}

// TableName 은 GORM에서 사용할 테이블명을 반환한다.
func (AlertRecord) TableName() string {
	return "usage_alerts"
}

// AlertRecordFrom 은 도메인 경보를 저장용 행으로 바꾼다.
func AlertRecordFrom(alert domain.UsageAlert) AlertRecord {
	return AlertRecord{
		UserID:    alert.UserID,
		AlertType: string(alert.Type),
		Message:   alert.Message,
		Severity:  string(alert.Severity),
		CreatedAt: alert.Timestamp,
	}
}

// ToDomain 은 저장된 행을 도메인 경보로 바꾼다.
func (r AlertRecord) ToDomain() domain.UsageAlert {
	return domain.UsageAlert{
		Type:      domain.AlertType(r.AlertType),
		UserID:    r.UserID,
		Message:   r.Message,
		Severity:  domain.Severity(r.Severity),
		Timestamp: r.CreatedAt,
	}
}

// UserTotals 는 사용자 요청 요약의 기간 합계다.
type UserTotals struct {
	Requests   int64   `json:"requests"`
	TokensUsed int64   `json:"tokens_used"`
	Cost       float64 `json:"cost"`
}
