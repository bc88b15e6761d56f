// Package scoring 은 능력 프로파일과 프로바이더 조합의 적합도 점수를 계산한다.
// 모든 가중치는 아래 테이블에만 정의된다.
package scoring

import (
	"github.com/park285/llm-kakao-bots/model-router-go/internal/config"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/domain"
)

// TaskBonus: 주 작업별 프로바이더 가산점입니다. 테이블에 없는 조합은 0 입니다.
var TaskBonus = map[domain.Task]map[string]float64{
	domain.TaskCoding: {
		config.ProviderDeepSeek:  15,
		config.ProviderOpenAI:    12,
		config.ProviderAnthropic: 10,
		config.ProviderGoogle:    6,
	},
	domain.TaskConversation: {
		config.ProviderOpenAI:    14,
		config.ProviderAnthropic: 12,
		config.ProviderGoogle:    8,
	},
	domain.TaskDocumentAnalysis: {
		config.ProviderAnthropic: 15,
		config.ProviderGoogle:    10,
		config.ProviderOpenAI:    8,
	},
	domain.TaskVisualAnalysis: {
		config.ProviderGoogle: 15,
		config.ProviderOpenAI: 12,
	},
	domain.TaskMathematical: {
		config.ProviderOpenAI:   13,
		config.ProviderDeepSeek: 11,
		config.ProviderGoogle:   8,
	},
	domain.TaskLogicalReasoning: {
		config.ProviderAnthropic: 14,
		config.ProviderOpenAI:    12,
		config.ProviderDeepSeek:  8,
	},
	domain.TaskCreativeWriting: {
		config.ProviderAnthropic: 13,
		config.ProviderOpenAI:    12,
		config.ProviderGoogle:    7,
	},
	domain.TaskBusiness: {
		config.ProviderOpenAI:    12,
		config.ProviderAnthropic: 10,
		config.ProviderGoogle:    8,
	},
	domain.TaskEducational: {
		config.ProviderGoogle:    12,
		config.ProviderAnthropic: 10,
		config.ProviderOpenAI:    10,
		config.ProviderDeepSeek:  6,
	},
}

// LongContextBonus: context_length 가 long 일 때만 더해집니다.
var LongContextBonus = map[string]float64{
	config.ProviderAnthropic: 8,
	config.ProviderGoogle:    6,
	config.ProviderOpenAI:    4,
}

// RequirementBonus: 요구 조건별로 전문 프로바이더 하나에만 더해집니다.
var RequirementBonus = map[domain.Requirement]ProviderBonus{
	domain.RequireOpenSource:      {config.ProviderDeepSeek, 10},
	domain.RequireSafetyFocused:   {config.ProviderAnthropic, 10},
	domain.RequireGoogleEcosystem: {config.ProviderGoogle, 10},
	domain.RequireMultimodal:      {config.ProviderGoogle, 9},
	domain.RequireConversational:  {config.ProviderOpenAI, 8},
}

// DomainBonus: 전문 분야별 가산점입니다.
var DomainBonus = map[domain.Domain]ProviderBonus{
	domain.DomainLegal:      {config.ProviderAnthropic, 6},
	domain.DomainMedical:    {config.ProviderAnthropic, 5},
	domain.DomainFinancial:  {config.ProviderOpenAI, 5},
	domain.DomainScientific: {config.ProviderGoogle, 5},
	domain.DomainTechnical:  {config.ProviderDeepSeek, 5},
}

// ProviderBonus: 특정 프로바이더에 주는 고정 가산점입니다.
type ProviderBonus struct {
	Provider string
	Points   float64
}

// costPenaltyFactor 를 cost_per_1k 에 곱해 점수에서 뺀다.
const costPenaltyFactor = 1000

// Breakdown: 점수 구성 요소입니다. 진단 API 와 테스트에서 사용합니다.
type Breakdown struct {
	Task        float64 `json:"task"`
	LongContext float64 `json:"long_context"`
	Requirement float64 `json:"requirement"`
	Domain      float64 `json:"domain"`
	CostPenalty float64 `json:"cost_penalty"`
	Total       float64 `json:"total"`
}

// Explain 은 점수를 구성 요소별로 계산한다.
func Explain(desc domain.ProviderDescriptor, profile domain.CapabilityProfile) Breakdown {
	var b Breakdown
	b.Task = TaskBonus[profile.PrimaryTask][desc.Provider]
	if profile.ContextLength == domain.ContextLong {
		b.LongContext = LongContextBonus[desc.Provider]
	}
	for _, req := range profile.Requirements {
		if bonus, ok := RequirementBonus[req]; ok && bonus.Provider == desc.Provider {
			b.Requirement += bonus.Points
		}
	}
	if bonus, ok := DomainBonus[profile.Domain]; ok && bonus.Provider == desc.Provider {
		b.Domain = bonus.Points
	}
	b.CostPenalty = desc.CostPer1K * costPenaltyFactor
	b.Total = b.Task + b.LongContext + b.Requirement + b.Domain - b.CostPenalty
	return b
}

// Score 는 프로바이더의 적합도 점수를 반환한다. 높을수록 우선한다.
func Score(desc domain.ProviderDescriptor, profile domain.CapabilityProfile) float64 {
	return Explain(desc, profile).Total
}
