package shared

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// DecoderConfig: mapstructure 디코더의 기본 설정입니다.
// gRPC Struct 의 숫자는 float64 로 들어오므로 WeaklyTypedInput 으로 정수 필드를 허용합니다.
func DecoderConfig(result any) *mapstructure.DecoderConfig {
	return &mapstructure.DecoderConfig{
		Result:           result,
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc("2006-01-02T15:04:05Z07:00"),
			mapstructure.StringToTimeDurationHookFunc(),
		),
	}
}

// Decode: map[string]any를 Go struct로 디코딩합니다.
func Decode(input map[string]any, result any) error {
	return decode(DecoderConfig(result), input)
}

// DecodeStrict: Decode와 동일하지만 알 수 없는 필드가 있으면 에러를 반환합니다.
func DecodeStrict(input map[string]any, result any) error {
	cfg := DecoderConfig(result)
	cfg.ErrorUnused = true
	return decode(cfg, input)
}

func decode(cfg *mapstructure.DecoderConfig, input map[string]any) error {
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return fmt.Errorf("new decoder: %w", err)
	}
	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
