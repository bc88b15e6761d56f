package prompt

import (
	"errors"
	"fmt"
	"strings"
)

var errTemplateSyntax = errors.New("invalid template syntax")

// segment 는 템플릿의 리터럴 조각 또는 자리표시자다.
type segment struct {
	text        string
	placeholder bool
}

// parseTemplate 는 {key} 자리표시자와 {{ }} 이스케이프를 해석한다.
func parseTemplate(template string) ([]segment, error) {
	var (
		segments []segment
		literal  strings.Builder
	)
	flush := func() {
		if literal.Len() > 0 {
			segments = append(segments, segment{text: literal.String()})
			literal.Reset()
		}
	}

	for i := 0; i < len(template); i++ {
		c := template[i]
		escaped := i+1 < len(template) && template[i+1] == c
		switch {
		case (c == '{' || c == '}') && escaped:
			literal.WriteByte(c)
			i++
		case c == '{':
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				return nil, fmt.Errorf("%w: missing '}'", errTemplateSyntax)
			}
			flush()
			segments = append(segments, segment{text: template[i+1 : i+1+end], placeholder: true})
			i += end + 1
		case c == '}':
			return nil, fmt.Errorf("%w: unexpected '}'", errTemplateSyntax)
		default:
			literal.WriteByte(c)
		}
	}
	flush()
	return segments, nil
}

// FormatTemplate: {key} 자리표시자를 값으로 치환합니다. {{ 와 }} 는 중괄호 문자로 출력됩니다.
// 치환된 값은 다시 해석하지 않습니다.
func FormatTemplate(template string, values map[string]string) (string, error) {
	segments, err := parseTemplate(template)
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	builder.Grow(len(template))
	for _, seg := range segments {
		if !seg.placeholder {
			builder.WriteString(seg.text)
			continue
		}
		value, ok := values[seg.text]
		if !ok {
			return "", fmt.Errorf("missing template value for %q", seg.text)
		}
		builder.WriteString(value)
	}
	return builder.String(), nil
}

// ValidateSystemStatic: 시스템 문구처럼 정적이어야 하는 텍스트에 자리표시자가 없는지 검사합니다.
func ValidateSystemStatic(name string, text string) error {
	segments, err := parseTemplate(text)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	for _, seg := range segments {
		if seg.placeholder {
			return fmt.Errorf("%s: static text must not contain template variables %q", name, seg.text)
		}
	}
	return nil
}
