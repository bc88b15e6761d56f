package prompt

import (
	"slices"
	"strings"
	"testing"
)

func TestAnalyzeCounts(t *testing.T) {
	stats := Analyze("One. Two! Three?\n\nSecond paragraph here")
	if stats.WordCount != 6 {
		t.Fatalf("unexpected word count: %d", stats.WordCount)
	}
	if stats.SentenceCount != 4 {
		t.Fatalf("unexpected sentence count: %d", stats.SentenceCount)
	}
	if stats.ParagraphCount != 2 {
		t.Fatalf("unexpected paragraph count: %d", stats.ParagraphCount)
	}
	if stats.EstimatedTokens < 7.79 || stats.EstimatedTokens > 7.81 {
		t.Fatalf("unexpected token estimate: %v", stats.EstimatedTokens)
	}
}

func TestAnalyzeStructures(t *testing.T) {
	prompt := "see https://example.com/a and http://go.dev 😀 🎉\n```go\nx := 1\n```\n```\ny\n```"
	stats := Analyze(prompt)
	if stats.URLs != 2 {
		t.Fatalf("unexpected url count: %d", stats.URLs)
	}
	if stats.CodeBlocks != 2 {
		t.Fatalf("unexpected code block count: %d", stats.CodeBlocks)
	}
	if stats.Emojis != 2 {
		t.Fatalf("unexpected emoji count: %d", stats.Emojis)
	}
	if stats.CharacterCount != len([]rune(prompt)) {
		t.Fatalf("character count must be rune based: %d", stats.CharacterCount)
	}
}

func TestSuggest(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		want   []string
	}{
		{
			name:   "short vague",
			prompt: "help",
			want: []string{
				"Consider providing more context or details in your prompt.",
				"Consider ending your prompt with a question to get more specific responses.",
				"Consider using more specific terms to get better results.",
				"Consider providing more context to help the AI understand your request better.",
			},
		},
		{
			name:   "specific question",
			prompt: "What is the time complexity of quicksort on sorted input?",
			want:   []string{},
		},
		{
			name:   "long statement",
			prompt: strings.Repeat("word ", 250),
			want: []string{
				"Consider breaking down your prompt into smaller, more focused requests.",
				"Consider ending your prompt with a question to get more specific responses.",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Suggest(tt.prompt); !slices.Equal(got, tt.want) {
				t.Fatalf("unexpected suggestions: %v", got)
			}
		})
	}
}
