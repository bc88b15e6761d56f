package handler

import (
	"context"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/domain"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/ledger"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/monitor"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/usecase/routing"
)

// RouterService: HTTP 핸들러가 의존하는 라우팅 서비스 인터페이스입니다.
type RouterService interface {
	SubmitPrompt(ctx context.Context, req domain.PromptRequest) (domain.PromptResponse, error)
	AnalyzePrompt(ctx context.Context, req routing.AnalyzeRequest) (routing.Analysis, error)
	ListProviders() []domain.ProviderDescriptor
	UsageStats(ctx context.Context, userID string, hours int) (routing.UsageReport, error)
	ActiveAlerts(ctx context.Context, userID string) []domain.UsageAlert
	CostAnalysis(ctx context.Context) (ledger.Analysis, error)
	ProviderRanking(ctx context.Context) ([]ledger.ProviderRank, error)
	RiskScore(ctx context.Context, userID string) (monitor.RiskAssessment, error)
	SuspiciousUsers(ctx context.Context) []monitor.RiskAssessment
	BlockUser(ctx context.Context, userID, reason string) (monitor.BlockRecord, error)
	ResetUsage(ctx context.Context, providerName string) error
}

var _ RouterService = (*routing.Service)(nil)
