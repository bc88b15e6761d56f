package prompt

import (
	"fmt"
	"io/fs"
)

// 프로바이더 템플릿 YAML 필드명입니다.
const (
	fieldSystem          = "system"
	fieldCodingPrefix    = "coding_prefix"
	fieldReasoningPrefix = "reasoning_prefix"
	fieldUserFormat      = "user_format"
	fieldContextFormat   = "context_format"
)

// ProviderTemplate: 한 프로바이더의 프롬프트 형식입니다.
type ProviderTemplate struct {
	System          string
	CodingPrefix    string
	ReasoningPrefix string
	UserFormat      string
	ContextFormat   string
}

// Prefix 는 프롬프트 유형에 맞는 앞머리 문장을 반환한다.
func (t ProviderTemplate) Prefix(kind Kind) string {
	switch kind {
	case KindCoding:
		if t.CodingPrefix != "" {
			return t.CodingPrefix
		}
	case KindReasoning:
		if t.ReasoningPrefix != "" {
			return t.ReasoningPrefix
		}
	}
	return t.System
}

// Bundle: 프로바이더 이름별 템플릿 모음입니다.
type Bundle struct {
	templates map[string]ProviderTemplate
}

// LoadBundle: fs 내 dir 디렉터리의 프로바이더별 YAML 을 로드합니다.
func LoadBundle(fsys fs.FS, dir string) (*Bundle, error) {
	loaded, err := LoadYAMLDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	templates := make(map[string]ProviderTemplate, len(loaded))
	for provider, data := range loaded {
		tmpl, err := parseProviderTemplate(provider, data)
		if err != nil {
			return nil, err
		}
		templates[provider] = tmpl
	}
	return &Bundle{templates: templates}, nil
}

func parseProviderTemplate(provider string, data map[string]string) (ProviderTemplate, error) {
	userFormat, err := field(data, fieldUserFormat, provider)
	if err != nil {
		return ProviderTemplate{}, err
	}
	contextFormat, err := field(data, fieldContextFormat, provider)
	if err != nil {
		return ProviderTemplate{}, err
	}
	return ProviderTemplate{
		System:          data[fieldSystem],
		CodingPrefix:    data[fieldCodingPrefix],
		ReasoningPrefix: data[fieldReasoningPrefix],
		UserFormat:      userFormat,
		ContextFormat:   contextFormat,
	}, nil
}

// field 는 템플릿 맵에서 필수 필드를 가져온다.
func field(data map[string]string, key string, provider string) (string, error) {
	value, ok := data[key]
	if !ok {
		return "", fmt.Errorf("template field missing: %s.%s", provider, key)
	}
	return value, nil
}

// Template: 프로바이더 템플릿을 조회합니다.
func (b *Bundle) Template(provider string) (ProviderTemplate, bool) {
	if b == nil {
		return ProviderTemplate{}, false
	}
	tmpl, ok := b.templates[provider]
	return tmpl, ok
}
