package telemetry

import (
	"context"
	"strings"
	"testing"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/config"
)

func TestNewProviderDisabled(t *testing.T) {
	p, err := NewProvider(context.Background(), config.TelemetryConfig{Enabled: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.IsEnabled() {
		t.Fatalf("expected disabled provider")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown of disabled provider: %v", err)
	}
}

func TestNewSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{0.5, "TraceIDRatioBased"},
	}
	for _, tc := range tests {
		desc := newSampler(tc.rate).Description()
		if !strings.HasPrefix(desc, "ParentBased") || !strings.Contains(desc, tc.want) {
			t.Errorf("rate %v: unexpected sampler %q", tc.rate, desc)
		}
	}
}
