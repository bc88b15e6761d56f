// Package prompt 는 프로바이더별 프롬프트 형식화와 프롬프트 통계/개선 제안을 제공한다.
package prompt

import (
	"embed"
	"log/slog"
	"regexp"
	"strings"
)

//go:embed templates/*.yml
var templateFS embed.FS

// Kind: 형식화에 쓰이는 프롬프트 유형입니다.
type Kind string

const (
	KindCoding         Kind = "coding"
	KindReasoning      Kind = "reasoning"
	KindTextGeneration Kind = "text-generation"
)

var (
	codingKeywords    = []string{"code", "program", "function", "class", "debug", "algorithm", "api", "database", "sql"}
	reasoningKeywords = []string{"explain", "analyze", "compare", "why", "how", "reason", "logic", "argument"}
)

type rule struct {
	pattern     *regexp.Regexp
	enhancement string
	high        bool
}

var rules = map[Kind][]rule{
	KindCoding: {
		{regexp.MustCompile(`(?i)\b(write|create|build|develop|code|program)\b`), "Please provide the code with detailed comments and explanations.", true},
		{regexp.MustCompile(`(?i)\b(debug|fix|error|bug)\b`), "Please analyze the issue step by step and provide a solution.", true},
		{regexp.MustCompile(`(?i)\b(algorithm|data structure|optimization)\b`), "Please explain the algorithm complexity and provide an efficient solution.", false},
	},
	KindReasoning: {
		{regexp.MustCompile(`(?i)\b(explain|analyze|compare|why|how)\b`), "Please provide a detailed analysis with step-by-step reasoning.", true},
		{regexp.MustCompile(`(?i)\b(logic|reasoning|argument)\b`), "Please present your reasoning clearly and logically.", false},
	},
	KindTextGeneration: {
		{regexp.MustCompile(`(?i)\b(write|create|generate|compose)\b`), "Please create engaging and well-structured content.", false},
	},
}

// DetectKind 는 키워드 부분 문자열로 프롬프트 유형을 판단한다. 코딩이 추론보다 우선한다.
func DetectKind(prompt string) Kind {
	lower := strings.ToLower(prompt)
	for _, keyword := range codingKeywords {
		if strings.Contains(lower, keyword) {
			return KindCoding
		}
	}
	for _, keyword := range reasoningKeywords {
		if strings.Contains(lower, keyword) {
			return KindReasoning
		}
	}
	return KindTextGeneration
}

// Optimizer 는 유형별 보강 문장과 프로바이더 템플릿을 적용한다.
type Optimizer struct {
	bundle *Bundle
	logger *slog.Logger
}

// NewOptimizer 는 내장 템플릿으로 Optimizer 를 생성한다.
func NewOptimizer(logger *slog.Logger) (*Optimizer, error) {
	bundle, err := LoadBundle(templateFS, "templates")
	if err != nil {
		return nil, err
	}
	return NewOptimizerWithBundle(bundle, logger), nil
}

// NewOptimizerWithBundle 는 주어진 템플릿 모음으로 Optimizer 를 생성한다.
func NewOptimizerWithBundle(bundle *Bundle, logger *slog.Logger) *Optimizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Optimizer{bundle: bundle, logger: logger}
}

// HasProvider 는 프로바이더 템플릿이 있는지 반환한다.
func (o *Optimizer) HasProvider(provider string) bool {
	_, ok := o.bundle.Template(provider)
	return ok
}

// Optimize 는 프롬프트를 보강한 뒤 프로바이더 형식으로 감싼다.
// 템플릿이 없는 프로바이더면 보강만 적용하고, 형식화에 실패하면 원문을 반환한다.
func (o *Optimizer) Optimize(prompt, context, provider string) string {
	kind := DetectKind(prompt)
	enhanced := applyRules(prompt, kind)

	tmpl, ok := o.bundle.Template(provider)
	if !ok {
		return enhanced
	}

	var (
		body string
		err  error
	)
	if context != "" {
		body, err = FormatTemplate(tmpl.ContextFormat, map[string]string{"context": context, "prompt": enhanced})
	} else {
		body, err = FormatTemplate(tmpl.UserFormat, map[string]string{"prompt": enhanced})
	}
	if err != nil {
		o.logger.Warn("prompt_format_failed", "provider", provider, "err", err)
		return prompt
	}

	formatted := tmpl.Prefix(kind) + "\n\n" + body
	o.logger.Debug(
		"prompt_optimized",
		"provider", provider,
		"kind", kind,
		"original_length", len(prompt),
		"optimized_length", len(formatted),
	)
	return formatted
}

func applyRules(prompt string, kind Kind) string {
	optimized := prompt
	for _, r := range rules[kind] {
		if !r.pattern.MatchString(prompt) {
			continue
		}
		if r.high {
			optimized += "\n\n" + r.enhancement
		} else {
			optimized += "\n" + r.enhancement
		}
	}
	return optimized
}
