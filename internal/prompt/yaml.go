package prompt

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// isStaticKey: 치환 없이 그대로 쓰이는 필드인지 확인합니다.
func isStaticKey(key string) bool {
	return key == "system" || strings.HasSuffix(key, "_prefix")
}

// LoadYAMLMapping 는 템플릿 YAML 파일을 평평한 문자열 맵으로 로드한다.
// 정적 필드(system, *_prefix)에 치환 변수가 있으면 에러를 반환한다.
func LoadYAMLMapping(fsys fs.FS, filePath string) (map[string]string, error) {
	data, err := fs.ReadFile(fsys, filePath)
	if err != nil {
		return nil, fmt.Errorf("read template file: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse template yaml: %w", err)
	}

	mapping := make(map[string]string)
	for key, value := range raw {
		if value == nil {
			mapping[key] = ""
			continue
		}
		mapping[key] = fmt.Sprint(value)
	}

	for key, value := range mapping {
		if !isStaticKey(key) || strings.TrimSpace(value) == "" {
			continue
		}
		if err := ValidateSystemStatic(filePath+":"+key, value); err != nil {
			return nil, err
		}
	}

	return mapping, nil
}

// LoadYAMLDir 는 디렉터리의 YAML 을 파일명(확장자 제외) 기준으로 로드한다.
func LoadYAMLDir(fsys fs.FS, dir string) (map[string]map[string]string, error) {
	paths, err := fs.Glob(fsys, path.Join(dir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("glob template dir: %w", err)
	}
	yamlPaths, err := fs.Glob(fsys, path.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("glob template dir: %w", err)
	}
	paths = append(paths, yamlPaths...)

	sets := make(map[string]map[string]string)
	for _, filePath := range paths {
		name := strings.TrimSuffix(path.Base(filePath), path.Ext(filePath))
		mapping, err := LoadYAMLMapping(fsys, filePath)
		if err != nil {
			return nil, err
		}
		sets[name] = mapping
	}
	return sets, nil
}
