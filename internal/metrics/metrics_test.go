package metrics

import (
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
)

func TestStoreRecordsMetrics(t *testing.T) {
	store := NewStore()
	store.RecordSuccess("openai", "gpt-4", 120*time.Millisecond, 500, 0.015)
	store.RecordError("anthropic", "claude-3", 50*time.Millisecond)
	store.RecordRoute(OutcomeSuccess, 2)
	store.RecordRoute(OutcomeAllFailed, 1)
	store.RecordAlert("spike", "medium")

	snapshot := store.Snapshot()
	if snapshot["total_attempts"] != 2 {
		t.Fatalf("expected total_attempts 2, got %v", snapshot["total_attempts"])
	}
	if snapshot["total_errors"] != 1 {
		t.Fatalf("expected total_errors 1, got %v", snapshot["total_errors"])
	}
	if snapshot["total_fallbacks"] != 1 || snapshot["total_exhausted"] != 1 {
		t.Fatalf("unexpected route counters: %v", snapshot)
	}
	if snapshot["total_cost_usd"] != 0.015 {
		t.Fatalf("expected cost 0.015, got %v", snapshot["total_cost_usd"])
	}
	if snapshot["avg_duration_ms"] != 85 {
		t.Fatalf("expected avg 85ms, got %v", snapshot["avg_duration_ms"])
	}
}

func counterValue(t *testing.T, c interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestPrometheusCounters(t *testing.T) {
	before := counterValue(t, AlertsTotal.WithLabelValues("fraud", "high"))
	NewStore().RecordAlert("fraud", "high")
	after := counterValue(t, AlertsTotal.WithLabelValues("fraud", "high"))
	if after-before != 1 {
		t.Fatalf("expected alert counter to increase by 1, got %v", after-before)
	}
}
