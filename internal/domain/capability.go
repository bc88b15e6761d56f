package domain

// Task: 프롬프트 작업 분류입니다.
type Task string

const (
	TaskCoding           Task = "coding"
	TaskConversation     Task = "conversation"
	TaskDocumentAnalysis Task = "document_analysis"
	TaskVisualAnalysis   Task = "visual_analysis"
	TaskMathematical     Task = "mathematical"
	TaskLogicalReasoning Task = "logical_reasoning"
	TaskCreativeWriting  Task = "creative_writing"
	TaskBusiness         Task = "business"
	TaskEducational      Task = "educational_content"
	TaskTextGeneration   Task = "text_generation"
)

// ContextLength: 요구되는 컨텍스트 길이 구간입니다.
type ContextLength string

const (
	ContextShort  ContextLength = "short"
	ContextMedium ContextLength = "medium"
	ContextLong   ContextLength = "long"
)

// Complexity: 작업 복잡도입니다.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// Domain: 전문 분야입니다.
type Domain string

const (
	DomainGeneral    Domain = "general"
	DomainLegal      Domain = "legal"
	DomainMedical    Domain = "medical"
	DomainFinancial  Domain = "financial"
	DomainScientific Domain = "scientific"
	DomainTechnical  Domain = "technical"
)

// Requirement: 특정 프로바이더 특성을 요구하는 조건입니다.
type Requirement string

const (
	RequireOpenSource      Requirement = "open_source"
	RequireSafetyFocused   Requirement = "safety_focused"
	RequireGoogleEcosystem Requirement = "google_ecosystem"
	RequireMultimodal      Requirement = "multimodal"
	RequireConversational  Requirement = "conversational"
)

// CapabilityProfile: 프롬프트에서 추출한 요구 능력 요약입니다. 요청마다 계산되며 저장하지 않습니다.
type CapabilityProfile struct {
	PrimaryTask    Task          `json:"primary_task"`
	SecondaryTasks []Task        `json:"secondary_tasks"`
	ContextLength  ContextLength `json:"context_length"`
	Complexity     Complexity    `json:"complexity"`
	Domain         Domain        `json:"domain"`
	Requirements   []Requirement `json:"specific_requirements"`
}

// Has: 요구 조건 포함 여부를 반환합니다.
func (p CapabilityProfile) Has(req Requirement) bool {
	for _, r := range p.Requirements {
		if r == req {
			return true
		}
	}
	return false
}
