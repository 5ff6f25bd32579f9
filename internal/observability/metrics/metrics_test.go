package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if labelsMatch(metric, labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func labelsMatch(metric *dto.Metric, labels map[string]string) bool {
	matched := 0
	for _, pair := range metric.GetLabel() {
		if want, ok := labels[pair.GetName()]; ok {
			if pair.GetValue() != want {
				return false
			}
			matched++
		}
	}
	return matched == len(labels)
}

func TestAnalysisMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewAnalysisMetrics(reg)

	m.ObserveOutcome("first_analysis", "structured_analysis")
	m.ObserveOutcome("first_analysis", "structured_analysis")
	m.ObserveRepair("confidence")
	m.ObserveTokens("groq", 100, 0, 100)
	m.ObserveGeneration("groq", "success", 1.2)
	m.ObserveRateLimited("memory")

	if got := counterValue(t, reg, "realitycheck_analyzer_outcomes_total", map[string]string{"mode": "first_analysis", "outcome": "structured_analysis"}); got != 2 {
		t.Fatalf("expected 2 outcomes, got %v", got)
	}
	if got := counterValue(t, reg, "realitycheck_analyzer_repairs_total", map[string]string{"kind": "confidence"}); got != 1 {
		t.Fatalf("expected 1 repair, got %v", got)
	}
	if got := counterValue(t, reg, "realitycheck_analyzer_tokens_total", map[string]string{"provider": "groq", "type": "output"}); got != 0 {
		t.Fatalf("zero token counts should not be recorded, got %v", got)
	}
	if got := counterValue(t, reg, "realitycheck_http_rate_limited_total", map[string]string{"backend": "memory"}); got != 1 {
		t.Fatalf("expected 1 rate limited request, got %v", got)
	}
}

func TestAnalysisMetricsNilSafe(t *testing.T) {
	var m *AnalysisMetrics
	m.ObserveOutcome("follow_up", "conversation_reply")
	m.ObserveGeneration("groq", "error", 0.1)
	m.ObserveTokens("groq", 1, 1, 2)
	m.ObserveRepair("banding_mismatch")
	m.ObserveRateLimited("redis")
}
