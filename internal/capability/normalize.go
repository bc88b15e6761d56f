package capability

import (
	"strings"
	"unicode"

	"github.com/mtibben/confusables"
	"golang.org/x/text/unicode/norm"
)

func isASCIIOnly(text string) bool {
	for i := 0; i < len(text); i++ {
		if text[i] > unicode.MaxASCII {
			return false
		}
	}
	return true
}

// normalize 는 키워드 매칭 전 프롬프트를 소문자 기준 형태로 바꾼다.
// 비ASCII 입력은 NFKC 로 전각 문자를 접고, 남은 비ASCII 문자만 confusable skeleton 으로 치환한다.
// ASCII 문자에 skeleton 을 적용하면 'I' 가 'l' 로 바뀌므로 제외한다.
func normalize(text string) string {
	if isASCIIOnly(text) {
		return strings.ToLower(stripControlChars(text))
	}

	folded := strings.ToLower(norm.NFKC.String(text))
	var builder strings.Builder
	builder.Grow(len(folded))
	for _, r := range folded {
		if r <= unicode.MaxASCII {
			builder.WriteRune(r)
			continue
		}
		if isStrippable(r) {
			continue
		}
		builder.WriteString(strings.ToLower(confusables.Skeleton(string(r))))
	}
	return builder.String()
}

func stripControlChars(text string) string {
	hasControl := false
	for _, r := range text {
		if isStrippable(r) {
			hasControl = true
			break
		}
	}
	if !hasControl {
		return text
	}

	var builder strings.Builder
	builder.Grow(len(text))
	for _, r := range text {
		if isStrippable(r) {
			continue
		}
		builder.WriteRune(r)
	}
	return builder.String()
}

// 공백 계열 제어 문자(\n, \t)는 키워드 경계로 남긴다.
func isStrippable(r rune) bool {
	if r == '\n' || r == '\t' || r == '\r' {
		return false
	}
	return unicode.Is(unicode.Cf, r) || unicode.Is(unicode.Cc, r)
}
