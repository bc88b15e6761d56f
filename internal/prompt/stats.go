package prompt

import (
	"regexp"
	"strings"

	"github.com/forPelevin/gomoji"
)

var (
	sentenceSplit = regexp.MustCompile(`[.!?]+`)
	codeBlock     = regexp.MustCompile("```[\\s\\S]*?```")
	urlPattern    = regexp.MustCompile(`https?://(?:[a-zA-Z]|[0-9]|[$-_@.&+]|[!*\(\),]|(?:%[0-9a-fA-F][0-9a-fA-F]))+`)
	questionEnd   = regexp.MustCompile(`\?$`)
)

const tokensPerWord = 1.3

var vagueWords = []string{"good", "better", "nice", "help", "something"}

// Statistics: 프롬프트 구조 통계입니다. 토큰 추정은 단어 수 x 1.3 입니다.
type Statistics struct {
	WordCount       int     `json:"word_count"`
	CharacterCount  int     `json:"character_count"`
	SentenceCount   int     `json:"sentence_count"`
	ParagraphCount  int     `json:"paragraph_count"`
	CodeBlocks      int     `json:"code_blocks"`
	URLs            int     `json:"urls"`
	Emojis          int     `json:"emojis"`
	EstimatedTokens float64 `json:"estimated_tokens"`
}

// Analyze 는 프롬프트 통계를 계산한다. 문자 수는 rune 기준이다.
func Analyze(prompt string) Statistics {
	words := strings.Fields(prompt)
	return Statistics{
		WordCount:       len(words),
		CharacterCount:  len([]rune(prompt)),
		SentenceCount:   countNonBlank(sentenceSplit.Split(prompt, -1)),
		ParagraphCount:  countNonBlank(strings.Split(prompt, "\n\n")),
		CodeBlocks:      len(codeBlock.FindAllStringIndex(prompt, -1)),
		URLs:            len(urlPattern.FindAllStringIndex(prompt, -1)),
		Emojis:          len(gomoji.FindAll(prompt)),
		EstimatedTokens: float64(len(words)) * tokensPerWord,
	}
}

func countNonBlank(parts []string) int {
	n := 0
	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			n++
		}
	}
	return n
}

// Suggest 는 길이, 질문 형태, 모호한 단어, 문맥 부족을 기준으로 개선 제안을 만든다.
func Suggest(prompt string) []string {
	suggestions := []string{}

	length := len([]rune(prompt))
	switch {
	case length < 10:
		suggestions = append(suggestions, "Consider providing more context or details in your prompt.")
	case length > 1000:
		suggestions = append(suggestions, "Consider breaking down your prompt into smaller, more focused requests.")
	}

	if !questionEnd.MatchString(strings.TrimSpace(prompt)) {
		suggestions = append(suggestions, "Consider ending your prompt with a question to get more specific responses.")
	}

	lower := strings.ToLower(prompt)
	for _, word := range vagueWords {
		if strings.Contains(lower, word) {
			suggestions = append(suggestions, "Consider using more specific terms to get better results.")
			break
		}
	}

	if len(strings.Fields(prompt)) < 5 {
		suggestions = append(suggestions, "Consider providing more context to help the AI understand your request better.")
	}
	return suggestions
}
