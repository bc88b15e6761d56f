package routing

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/config"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/domain"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/httperror"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/ledger"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/monitor"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/prompt"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/router"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/scoring"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/usage"
)

// AnonymousUser 는 사용자 식별자가 없을 때 쓰는 기본값이다.
const AnonymousUser = "anonymous"

const defaultStatsHours = 24

// Service: 라우팅, 비용 원장, 사용량 감시를 묶은 비즈니스 로직(HTTP/gRPC 공용) 구현체입니다.
type Service struct {
	router    *router.Router
	ledger    *ledger.Ledger
	monitor   *monitor.Monitor
	fraud     *monitor.FraudDetector
	optimizer *prompt.Optimizer
	repo      usage.Store
	logger    *slog.Logger
	now       func() time.Time
}

// New: Service 인스턴스를 생성합니다.
func New(
	r *router.Router,
	l *ledger.Ledger,
	m *monitor.Monitor,
	fraud *monitor.FraudDetector,
	optimizer *prompt.Optimizer,
	repo usage.Store,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		router:    r,
		ledger:    l,
		monitor:   m,
		fraud:     fraud,
		optimizer: optimizer,
		repo:      repo,
		logger:    logger,
		now:       time.Now,
	}
}

// LedgerProvider 는 모델 ID 의 첫 "-" 앞 부분을 원장 프로바이더 키로 사용한다.
func LedgerProvider(modelID string) string {
	providerName, _, _ := strings.Cut(modelID, "-")
	return providerName
}

// SubmitPrompt 는 차단 확인, 부정 사용 분석, 라우팅을 거쳐 응답을 반환한다.
// 성공 후 원장과 감시기 기록은 병렬로 수행되며 실패해도 응답에 영향을 주지 않는다.
func (s *Service) SubmitPrompt(ctx context.Context, req domain.PromptRequest) (domain.PromptResponse, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return domain.PromptResponse{}, httperror.NewMissingField("prompt")
	}
	if req.MaxTokens < 0 {
		return domain.PromptResponse{}, httperror.NewInvalidInput("max_tokens must not be negative")
	}
	if req.UserID == "" {
		req.UserID = AnonymousUser
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = s.now().UTC()
	}

	if s.fraud.IsUserBlocked(ctx, req.UserID) {
		reason := ""
		if record, ok, err := s.fraud.BlockRecord(ctx, req.UserID); err == nil && ok {
			reason = record.Reason
		}
		s.logger.Warn("blocked_user_rejected", "request_id", req.ID, "user_id", req.UserID)
		return domain.PromptResponse{}, httperror.NewUserBlocked(req.UserID, reason)
	}

	if alerts := s.fraud.AnalyzeRequest(ctx, req.UserID, estimateTokens(req.Prompt), req.IPAddress); len(alerts) > 0 {
		s.logger.Info("fraud_indicators_detected", "request_id", req.ID, "user_id", req.UserID, "count", len(alerts))
	}

	resp, err := s.router.Route(ctx, req)
	if err != nil {
		return domain.PromptResponse{}, err
	}

	s.record(context.WithoutCancel(ctx), req.UserID, resp)
	return resp, nil
}

func (s *Service) record(ctx context.Context, userID string, resp domain.PromptResponse) {
	var g errgroup.Group
	g.Go(func() error {
		if err := s.ledger.RecordUsage(ctx, LedgerProvider(resp.ModelUsed), resp.TokensUsed, resp.Cost); err != nil {
			s.logger.Warn("ledger_record_failed", "request_id", resp.RequestID, "model", resp.ModelUsed, "err", err)
		}
		return nil
	})
	g.Go(func() error {
		s.monitor.RecordUsage(ctx, domain.UsageFromResponse(userID, resp))
		return nil
	})
	g.Go(func() error {
		s.fraud.RecordDaily(ctx, userID, resp.TokensUsed)
		return nil
	})
	_ = g.Wait()
}

func estimateTokens(text string) int {
	return len(text) / 4
}

// ListProviders 는 카탈로그 모델과 현재 사용 가능 여부를 반환한다.
func (s *Service) ListProviders() []domain.ProviderDescriptor {
	return s.router.ListProviders()
}

// UsageReport: 사용자 사용량 조회 결과입니다.
type UsageReport struct {
	UserID string                        `json:"user_id"`
	Hours  int                           `json:"hours"`
	Models map[string]monitor.ModelStats `json:"models"`
	Totals *usage.UserTotals             `json:"totals,omitempty"`
}

// UsageStats 는 최근 hours 시간의 모델별 사용량과 저장된 요청 합계를 반환한다.
func (s *Service) UsageStats(ctx context.Context, userID string, hours int) (UsageReport, error) {
	if userID == "" {
		return UsageReport{}, httperror.NewMissingField("user_id")
	}
	if hours <= 0 {
		hours = defaultStatsHours
	}

	report := UsageReport{
		UserID: userID,
		Hours:  hours,
		Models: s.monitor.UsageStats(ctx, userID, hours),
	}
	if s.repo != nil {
		since := s.now().Add(-time.Duration(hours) * time.Hour)
		totals, err := s.repo.UserTotals(ctx, userID, since)
		if err != nil {
			s.logger.Warn("usage_totals_failed", "user_id", userID, "err", err)
		} else {
			report.Totals = &totals
		}
	}
	return report, nil
}

// ActiveAlerts 는 최근 24시간 경보를 반환한다.
func (s *Service) ActiveAlerts(ctx context.Context, userID string) []domain.UsageAlert {
	return s.monitor.ActiveAlerts(ctx, userID)
}

// CostAnalysis 는 당월 프로바이더별 비용 집계를 반환한다.
func (s *Service) CostAnalysis(ctx context.Context) (ledger.Analysis, error) {
	return s.ledger.CostAnalysis(ctx)
}

// ProviderRanking 는 비용 효율 순위를 반환한다.
func (s *Service) ProviderRanking(ctx context.Context) ([]ledger.ProviderRank, error) {
	return s.ledger.RankProviders(ctx)
}

// RiskScore 는 사용자 위험 점수를 반환한다.
func (s *Service) RiskScore(ctx context.Context, userID string) (monitor.RiskAssessment, error) {
	if userID == "" {
		return monitor.RiskAssessment{}, httperror.NewMissingField("user_id")
	}
	return s.fraud.RiskScore(ctx, userID), nil
}

// SuspiciousUsers 는 당일 위험 사용자 목록을 반환한다.
func (s *Service) SuspiciousUsers(ctx context.Context) []monitor.RiskAssessment {
	return s.fraud.SuspiciousUsers(ctx)
}

// BlockUser 는 사용자를 차단한다.
func (s *Service) BlockUser(ctx context.Context, userID, reason string) (monitor.BlockRecord, error) {
	if strings.TrimSpace(reason) == "" {
		reason = "manual block"
	}
	return s.fraud.BlockUser(ctx, userID, reason)
}

// ResetUsage 는 당월 원장 카운터를 초기화한다. providerName 이 비어 있으면 전체 대상이다.
func (s *Service) ResetUsage(ctx context.Context, providerName string) error {
	if providerName != "" && !slices.Contains(config.KnownProviders, providerName) {
		return httperror.NewInvalidInput("unknown provider: " + providerName)
	}
	return s.ledger.ResetMonthlyUsage(ctx, providerName)
}

// AnalyzeRequest: 프롬프트 분석 요청입니다.
type AnalyzeRequest struct {
	Prompt  string
	Context string
	ModelID string
}

// RankedModel: 분석 결과의 후보 모델 점수입니다.
type RankedModel struct {
	ModelID   string            `json:"model_id"`
	Score     float64           `json:"score"`
	Breakdown scoring.Breakdown `json:"breakdown"`
}

// Analysis: 프롬프트 분석 결과입니다.
type Analysis struct {
	OriginalPrompt  string                   `json:"original_prompt"`
	OptimizedPrompt string                   `json:"optimized_prompt"`
	ModelID         string                   `json:"model_id"`
	Kind            prompt.Kind              `json:"prompt_type"`
	Profile         domain.CapabilityProfile `json:"capabilities"`
	Candidates      []RankedModel            `json:"candidates"`
	Statistics      prompt.Statistics        `json:"statistics"`
	Suggestions     []string                 `json:"suggestions"`
	EstimatedTokens int                      `json:"estimated_tokens"`
	EstimatedCost   float64                  `json:"estimated_cost"`
}

// AnalyzePrompt 는 라우팅 없이 프롬프트의 능력 프로파일, 후보 점수, 통계, 개선 제안,
// 대상 모델 형식으로 최적화한 프롬프트를 반환한다.
// 모델을 지정하지 않으면 최고 점수 후보(없으면 카탈로그 첫 모델)를 대상으로 한다.
func (s *Service) AnalyzePrompt(ctx context.Context, req AnalyzeRequest) (Analysis, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return Analysis{}, httperror.NewMissingField("prompt")
	}

	profile := s.router.Detect(req.Prompt)
	candidates := s.router.Candidates(domain.PromptRequest{Prompt: req.Prompt, Context: req.Context}, profile)

	ranked := make([]RankedModel, 0, len(candidates))
	for _, c := range candidates {
		desc := c.Adapter.Descriptor()
		ranked = append(ranked, RankedModel{ModelID: desc.ID, Score: c.Score, Breakdown: scoring.Explain(desc, profile)})
	}

	modelID := req.ModelID
	if modelID == "" {
		switch {
		case len(ranked) > 0:
			modelID = ranked[0].ModelID
		default:
			if list := s.router.ListProviders(); len(list) > 0 {
				modelID = list[0].ID
			}
		}
	}
	adapter, ok := s.router.Adapter(modelID)
	if !ok {
		return Analysis{}, httperror.NewUnknownModel(modelID)
	}
	desc := adapter.Descriptor()
	tokens := adapter.EstimateTokens(req.Prompt)

	s.logger.Debug("prompt_analyzed", "model", desc.ID, "primary_task", profile.PrimaryTask, "candidates", len(ranked))

	return Analysis{
		OriginalPrompt:  req.Prompt,
		OptimizedPrompt: s.optimizer.Optimize(req.Prompt, req.Context, desc.Provider),
		ModelID:         desc.ID,
		Kind:            prompt.DetectKind(req.Prompt),
		Profile:         profile,
		Candidates:      ranked,
		Statistics:      prompt.Analyze(req.Prompt),
		Suggestions:     prompt.Suggest(req.Prompt),
		EstimatedTokens: tokens,
		EstimatedCost:   float64(tokens) / 1000 * desc.CostPer1K,
	}, nil
}
