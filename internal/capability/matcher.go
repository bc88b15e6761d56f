package capability

import (
	"github.com/cloudflare/ahocorasick"
)

// groupMatcher 는 여러 키워드 그룹을 하나의 Aho-Corasick 오토마톤으로 검사한다.
// 결과는 그룹별로 발견된 서로 다른 키워드 수다.
type groupMatcher struct {
	matcher *ahocorasick.Matcher
	owners  []int
	groups  int
}

func newGroupMatcher(groups [][]string) *groupMatcher {
	patterns := make([][]byte, 0)
	owners := make([]int, 0)
	for gi, keywords := range groups {
		for _, kw := range keywords {
			patterns = append(patterns, []byte(kw))
			owners = append(owners, gi)
		}
	}
	return &groupMatcher{
		matcher: ahocorasick.NewMatcher(patterns),
		owners:  owners,
		groups:  len(groups),
	}
}

// counts 는 정규화된 텍스트에 대해 그룹별 매칭 키워드 수를 반환한다.
func (m *groupMatcher) counts(text string) []int {
	out := make([]int, m.groups)
	if text == "" {
		return out
	}
	seen := make(map[int]struct{})
	for _, idx := range m.matcher.MatchThreadSafe([]byte(text)) {
		if idx < 0 || idx >= len(m.owners) {
			continue
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		out[m.owners[idx]]++
	}
	return out
}

func keywordGroups[T comparable](indicators []indicator[T]) [][]string {
	groups := make([][]string, 0, len(indicators))
	for _, ind := range indicators {
		groups = append(groups, ind.keywords)
	}
	return groups
}

// firstMatch 는 우선순위 순서로 첫 번째 매칭 그룹 값을 반환한다.
func firstMatch[T comparable](indicators []indicator[T], counts []int, fallback T) T {
	for i, c := range counts {
		if c > 0 {
			return indicators[i].value
		}
	}
	return fallback
}
