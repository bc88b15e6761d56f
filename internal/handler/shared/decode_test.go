package shared

import (
	"testing"
)

type promptPayload struct {
	Prompt          string `json:"prompt"`
	Context         string `json:"context"`
	ModelPreference string `json:"model_preference"`
	MaxTokens       int    `json:"max_tokens"`
	UserID          string `json:"user_id"`
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		input   map[string]any
		want    promptPayload
		wantErr bool
	}{
		{
			name: "struct value from grpc",
			input: map[string]any{
				"prompt":           "hello",
				"model_preference": "openai-gpt-4",
				"max_tokens":       512.0,
			},
			want: promptPayload{Prompt: "hello", ModelPreference: "openai-gpt-4", MaxTokens: 512},
		},
		{
			name:  "weakly typed number string",
			input: map[string]any{"prompt": "hi", "max_tokens": "64"},
			want:  promptPayload{Prompt: "hi", MaxTokens: 64},
		},
		{
			name:  "empty map",
			input: map[string]any{},
			want:  promptPayload{},
		},
		{
			name:    "non numeric tokens",
			input:   map[string]any{"max_tokens": "lots"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got promptPayload
			err := Decode(tt.input, &got)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Decode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Fatalf("Decode() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDecodeStrict(t *testing.T) {
	tests := []struct {
		name    string
		input   map[string]any
		wantErr bool
	}{
		{name: "valid", input: map[string]any{"prompt": "test"}},
		{name: "unknown field", input: map[string]any{"prompt": "test", "temperature": 0.2}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got promptPayload
			if err := DecodeStrict(tt.input, &got); (err != nil) != tt.wantErr {
				t.Fatalf("DecodeStrict() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
