package capability

import "github.com/park285/llm-kakao-bots/model-router-go/internal/domain"

// category 는 작업 분류 하나의 키워드 집합과 가중치다.
type category struct {
	task     domain.Task
	weight   int
	keywords []string
}

// categories 의 순서가 동점 처리 순서다.
var categories = []category{
	{domain.TaskCoding, 10, []string{
		"code", "function", "python", "javascript", "golang", "java", "program", "debug",
		"algorithm", "compile", "script", "sql", "class", "refactor", "bug", "html", "css",
		"typescript", "rust",
	}},
	{domain.TaskConversation, 6, []string{
		"chat", "talk", "conversation", "hello", "how are you", "tell me about yourself",
		"let's discuss", "opinion",
	}},
	{domain.TaskDocumentAnalysis, 8, []string{
		"document", "summarize", "summary", "pdf", "report", "article", "extract", "contract", "paper",
	}},
	{domain.TaskVisualAnalysis, 9, []string{
		"image", "picture", "photo", "diagram", "chart", "screenshot", "visual", "video",
	}},
	{domain.TaskMathematical, 9, []string{
		"calculate", "equation", "math", "integral", "derivative", "solve", "probability",
		"statistics", "algebra", "geometry", "matrix",
	}},
	{domain.TaskLogicalReasoning, 7, []string{
		"logic", "reason", "deduce", "infer", "puzzle", "prove", "why", "argument", "step by step",
	}},
	{domain.TaskCreativeWriting, 7, []string{
		"story", "poem", "write a", "creative", "fiction", "novel", "lyrics", "character", "plot",
	}},
	{domain.TaskBusiness, 6, []string{
		"business", "marketing", "strategy", "sales", "revenue", "customer", "startup", "market",
	}},
	{domain.TaskEducational, 5, []string{
		"explain", "teach", "learn", "tutorial", "lesson", "what is", "how does", "beginner", "student",
	}},
}

type indicator[T comparable] struct {
	value    T
	keywords []string
}

var contextLengthIndicators = []indicator[domain.ContextLength]{
	{domain.ContextLong, []string{
		"entire document", "full text", "long document", "lengthy", "comprehensive",
		"entire codebase", "book",
	}},
	{domain.ContextMedium, []string{"several", "multiple", "paragraph", "detailed", "page"}},
	{domain.ContextShort, []string{"brief", "short", "quick", "one sentence"}},
}

var complexityIndicators = []indicator[domain.Complexity]{
	{domain.ComplexityComplex, []string{"complex", "advanced", "in-depth", "sophisticated", "optimize", "architecture"}},
	{domain.ComplexityModerate, []string{"detailed", "moderate", "explain", "compare"}},
	{domain.ComplexitySimple, []string{"simple", "basic", "easy", "quick"}},
}

var domainIndicators = []indicator[domain.Domain]{
	{domain.DomainLegal, []string{"legal", "law", "contract", "court", "regulation", "compliance"}},
	{domain.DomainMedical, []string{"medical", "health", "disease", "symptom", "diagnosis", "patient", "clinical"}},
	{domain.DomainFinancial, []string{"financial", "finance", "investment", "stock", "tax", "accounting", "budget"}},
	{domain.DomainScientific, []string{"scientific", "physics", "chemistry", "biology", "quantum", "experiment", "research"}},
	{domain.DomainTechnical, []string{"technical", "engineering", "software", "system", "infrastructure", "network"}},
}

var requirementIndicators = []indicator[domain.Requirement]{
	{domain.RequireOpenSource, []string{"open source", "open-source", "self-host", "free"}},
	{domain.RequireSafetyFocused, []string{"safe", "safety", "ethical", "harmless", "responsible", "bias"}},
	{domain.RequireGoogleEcosystem, []string{"google", "gmail", "android", "youtube", "gemini"}},
	{domain.RequireMultimodal, []string{"image", "photo", "video", "audio", "multimodal"}},
	{domain.RequireConversational, []string{"chat", "conversation", "talk", "dialogue"}},
}
