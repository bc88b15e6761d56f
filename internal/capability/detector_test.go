package capability

import (
	"slices"
	"testing"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/domain"
)

func TestDetectCodingScenario(t *testing.T) {
	d := NewDetector()
	profile := d.Detect("Write a Python function to reverse a string")

	if profile.PrimaryTask != domain.TaskCoding {
		t.Fatalf("expected coding, got %s", profile.PrimaryTask)
	}
	if !slices.Equal(profile.SecondaryTasks, []domain.Task{domain.TaskCreativeWriting}) {
		t.Fatalf("unexpected secondaries: %v", profile.SecondaryTasks)
	}
	if profile.ContextLength != domain.ContextShort || profile.Complexity != domain.ComplexitySimple {
		t.Fatalf("unexpected defaults: %+v", profile)
	}
	if profile.Domain != domain.DomainGeneral {
		t.Fatalf("expected general domain, got %s", profile.Domain)
	}
}

func TestDetectExplainScenario(t *testing.T) {
	profile := NewDetector().Detect("Explain quantum entanglement")

	if profile.PrimaryTask != domain.TaskEducational {
		t.Fatalf("expected educational_content, got %s", profile.PrimaryTask)
	}
	if len(profile.SecondaryTasks) != 0 {
		t.Fatalf("expected no secondaries, got %v", profile.SecondaryTasks)
	}
	if profile.Domain != domain.DomainScientific {
		t.Fatalf("expected scientific domain, got %s", profile.Domain)
	}
	if profile.Complexity != domain.ComplexityModerate {
		t.Fatalf("expected moderate complexity, got %s", profile.Complexity)
	}
}

func TestDetectNoKeywords(t *testing.T) {
	profile := NewDetector().Detect("zzz qqq")
	if profile.PrimaryTask != domain.TaskTextGeneration {
		t.Fatalf("expected text_generation, got %s", profile.PrimaryTask)
	}
	if len(profile.Requirements) != 0 || len(profile.SecondaryTasks) != 0 {
		t.Fatalf("expected empty profile, got %+v", profile)
	}
}

func TestDetectOnlyCodingKeywords(t *testing.T) {
	d := NewDetector()
	for _, prompt := range []string{"golang", "debug sql", "refactor typescript html css", "class"} {
		if got := d.Detect(prompt).PrimaryTask; got != domain.TaskCoding {
			t.Fatalf("Detect(%q) primary = %s, want coding", prompt, got)
		}
	}
}

func TestDetectClassAtEndOfSentence(t *testing.T) {
	profile := NewDetector().Detect("Write a class.")
	if profile.PrimaryTask != domain.TaskCoding {
		t.Fatalf("expected coding, got %s", profile.PrimaryTask)
	}
	if !slices.Equal(profile.SecondaryTasks, []domain.Task{domain.TaskCreativeWriting}) {
		t.Fatalf("unexpected secondaries: %v", profile.SecondaryTasks)
	}
}

func TestDetectTieBreakUsesCategoryOrder(t *testing.T) {
	// conversation(6) 과 business(6) 동점: 먼저 선언된 conversation 이 우선한다.
	profile := NewDetector().Detect("chat sales")
	if profile.PrimaryTask != domain.TaskConversation {
		t.Fatalf("expected conversation, got %s", profile.PrimaryTask)
	}
	if !slices.Equal(profile.SecondaryTasks, []domain.Task{domain.TaskBusiness}) {
		t.Fatalf("unexpected secondaries: %v", profile.SecondaryTasks)
	}
}

func TestDetectSecondaryFloorAndLimit(t *testing.T) {
	// educational(5) 는 floor 5 를 넘지 못한다.
	profile := NewDetector().Detect("debug this code, draw a chart, solve it and explain")
	if profile.PrimaryTask != domain.TaskCoding {
		t.Fatalf("expected coding, got %s", profile.PrimaryTask)
	}
	want := []domain.Task{domain.TaskVisualAnalysis, domain.TaskMathematical}
	if !slices.Equal(profile.SecondaryTasks, want) {
		t.Fatalf("secondaries = %v, want %v", profile.SecondaryTasks, want)
	}
}

func TestDetectDistinctKeywordsCountOnce(t *testing.T) {
	scores := NewDetector().Scores("code code code")
	if scores[0].Task != domain.TaskCoding || scores[0].Score != 10 {
		t.Fatalf("expected coding=10, got %+v", scores[0])
	}
}

func TestDetectFirstMatchWins(t *testing.T) {
	tests := []struct {
		prompt     string
		length     domain.ContextLength
		complexity domain.Complexity
		domain     domain.Domain
	}{
		{"summarize the entire document in a brief way", domain.ContextLong, domain.ComplexitySimple, domain.DomainGeneral},
		{"give several simple examples", domain.ContextMedium, domain.ComplexitySimple, domain.DomainGeneral},
		{"an advanced yet basic legal and medical question", domain.ContextShort, domain.ComplexityComplex, domain.DomainLegal},
		{"patient tax records", domain.ContextShort, domain.ComplexitySimple, domain.DomainMedical},
		{"network stock analysis", domain.ContextShort, domain.ComplexitySimple, domain.DomainFinancial},
	}
	d := NewDetector()
	for _, tt := range tests {
		p := d.Detect(tt.prompt)
		if p.ContextLength != tt.length || p.Complexity != tt.complexity || p.Domain != tt.domain {
			t.Fatalf("Detect(%q) = %s/%s/%s, want %s/%s/%s", tt.prompt,
				p.ContextLength, p.Complexity, p.Domain, tt.length, tt.complexity, tt.domain)
		}
	}
}

func TestDetectRequirementsAccumulate(t *testing.T) {
	profile := NewDetector().Detect("A safe open source chat bot that reads an image")
	want := []domain.Requirement{
		domain.RequireOpenSource,
		domain.RequireSafetyFocused,
		domain.RequireMultimodal,
		domain.RequireConversational,
	}
	if !slices.Equal(profile.Requirements, want) {
		t.Fatalf("requirements = %v, want %v", profile.Requirements, want)
	}
	if !profile.Has(domain.RequireMultimodal) || profile.Has(domain.RequireGoogleEcosystem) {
		t.Fatalf("Has reported wrong membership")
	}
}

func TestDetectNormalizesFullwidthAndCase(t *testing.T) {
	profile := NewDetector().Detect("ＰＹＴＨＯＮ script")
	if profile.PrimaryTask != domain.TaskCoding {
		t.Fatalf("expected coding, got %s", profile.PrimaryTask)
	}
	if s := NewDetector().Scores("ＰＹＴＨＯＮ script")[0]; s.Score != 20 {
		t.Fatalf("expected both keywords matched, got %+v", s)
	}
}

func TestNormalizeStripsFormatCharacters(t *testing.T) {
	if got := normalize("py\u200bthon"); got != "python" {
		t.Fatalf("normalize = %q", got)
	}
	if got := normalize("Line\nBreak"); got != "line\nbreak" {
		t.Fatalf("normalize = %q", got)
	}
	// Cyrillic 'о' (U+043E) 는 ASCII 'o' 로 접힌다.
	if got := normalize("c\u043ede"); got != "code" {
		t.Fatalf("normalize = %q", got)
	}
}
