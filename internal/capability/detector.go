// Package capability 는 프롬프트 텍스트에서 요구 능력 프로파일을 추출한다.
package capability

import (
	"sort"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/domain"
)

// secondaryFloor 를 초과하는 점수만 보조 작업으로 채택한다.
const secondaryFloor = 5

const maxSecondaryTasks = 2

// TaskScore: 작업 분류 하나의 점수입니다.
type TaskScore struct {
	Task  domain.Task `json:"task"`
	Score int         `json:"score"`
}

// Detector: 키워드 가중치 기반 능력 탐지기입니다. 생성 후 불변이며 동시 사용에 안전합니다.
type Detector struct {
	tasks        *groupMatcher
	lengths      *groupMatcher
	complexities *groupMatcher
	domains      *groupMatcher
	requirements *groupMatcher
}

// NewDetector: 고정 키워드 테이블로 탐지기를 생성합니다.
func NewDetector() *Detector {
	taskGroups := make([][]string, 0, len(categories))
	for _, c := range categories {
		taskGroups = append(taskGroups, c.keywords)
	}
	return &Detector{
		tasks:        newGroupMatcher(taskGroups),
		lengths:      newGroupMatcher(keywordGroups(contextLengthIndicators)),
		complexities: newGroupMatcher(keywordGroups(complexityIndicators)),
		domains:      newGroupMatcher(keywordGroups(domainIndicators)),
		requirements: newGroupMatcher(keywordGroups(requirementIndicators)),
	}
}

// Scores: 분류 순서를 유지한 채 점수 내림차순으로 정렬된 작업 점수를 반환합니다.
func (d *Detector) Scores(prompt string) []TaskScore {
	return d.scores(normalize(prompt))
}

func (d *Detector) scores(text string) []TaskScore {
	counts := d.tasks.counts(text)
	scores := make([]TaskScore, 0, len(categories))
	for i, c := range categories {
		scores = append(scores, TaskScore{Task: c.task, Score: c.weight * counts[i]})
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})
	return scores
}

// Detect: 프롬프트의 능력 프로파일을 계산합니다. 매칭이 없으면 text_generation 입니다.
func (d *Detector) Detect(prompt string) domain.CapabilityProfile {
	text := normalize(prompt)

	profile := domain.CapabilityProfile{
		PrimaryTask:    domain.TaskTextGeneration,
		SecondaryTasks: []domain.Task{},
		Requirements:   []domain.Requirement{},
	}

	scores := d.scores(text)
	if scores[0].Score > 0 {
		profile.PrimaryTask = scores[0].Task
		for _, s := range scores[1:] {
			if len(profile.SecondaryTasks) == maxSecondaryTasks {
				break
			}
			if s.Score > secondaryFloor {
				profile.SecondaryTasks = append(profile.SecondaryTasks, s.Task)
			}
		}
	}

	profile.ContextLength = firstMatch(contextLengthIndicators, d.lengths.counts(text), domain.ContextShort)
	profile.Complexity = firstMatch(complexityIndicators, d.complexities.counts(text), domain.ComplexitySimple)
	profile.Domain = firstMatch(domainIndicators, d.domains.counts(text), domain.DomainGeneral)

	for i, c := range d.requirements.counts(text) {
		if c > 0 {
			profile.Requirements = append(profile.Requirements, requirementIndicators[i].value)
		}
	}
	return profile
}
