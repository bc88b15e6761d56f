package prompt

import (
	"errors"
	"testing"
)

func TestFormatTemplate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		values   map[string]string
		want     string
		wantErr  bool
	}{
		{"escape", "Hello {name} {{test}}", map[string]string{"name": "Alice"}, "Hello Alice {test}", false},
		{"adjacent placeholders", "{context}{prompt}", map[string]string{"context": "c", "prompt": "p"}, "cp", false},
		{"values not reparsed", "User: {prompt}", map[string]string{"prompt": "use {context} here"}, "User: use {context} here", false},
		{"missing key", "Hello {name}", map[string]string{}, "", true},
		{"unterminated", "Hello {name", map[string]string{"name": "A"}, "", true},
		{"stray close", "Hello }", nil, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatTemplate(tt.template, tt.values)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("unexpected output: %q", got)
			}
		})
	}
}

func TestValidateSystemStatic(t *testing.T) {
	if err := ValidateSystemStatic("sys", "Hello {name}"); err == nil {
		t.Fatalf("expected placeholder error")
	}
	if err := ValidateSystemStatic("sys", "Hello {{name}}!"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateSystemStatic("sys", "Hello {name"); !errors.Is(err, errTemplateSyntax) {
		t.Fatalf("expected syntax error, got %v", err)
	}
}
