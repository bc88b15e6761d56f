package shared

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/httperror"
)

// QueryInt 는 정수 쿼리 파라미터를 파싱한다. 비어 있으면 def, 범위를 벗어나면 400 을 작성하고 false 를 반환한다.
func QueryInt(c *gin.Context, name string, def, minValue, maxValue int) (int, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, true
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < minValue || parsed > maxValue {
		WriteError(c, httperror.NewInvalidInput(fmt.Sprintf("%s must be an integer between %d and %d", name, minValue, maxValue)))
		return 0, false
	}
	return parsed, true
}

// PathParam 은 비어 있지 않은 경로 파라미터를 반환한다. 비어 있으면 400 을 작성한다.
func PathParam(c *gin.Context, name string) (string, bool) {
	value := strings.TrimSpace(c.Param(name))
	if value == "" {
		WriteError(c, httperror.NewMissingField(name))
		return "", false
	}
	return value, true
}

// ToMap 은 값을 JSON 태그 기준의 map 으로 변환한다. gRPC Struct 응답 변환에 사용한다.
func ToMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode map: %w", err)
	}
	return out, nil
}

// TrimRunes 는 문자열을 최대 maxRunes 개의 룬으로 자른다.
func TrimRunes(value string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(value)
	if len(runes) <= maxRunes {
		return value
	}
	return string(runes[:maxRunes])
}
