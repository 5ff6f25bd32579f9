package analyzer

import (
	"context"
	"io"
	"testing"

	"github.com/wolfman30/realitycheck-ai/pkg/logging"
)

type stubGateway struct {
	responses []string
	errs      []error
	calls     []GenerationRequest
}

func (s *stubGateway) Generate(_ context.Context, req GenerationRequest) (string, error) {
	idx := len(s.calls)
	s.calls = append(s.calls, req)
	var (
		resp string
		err  error
	)
	if idx < len(s.responses) {
		resp = s.responses[idx]
	}
	if idx < len(s.errs) {
		err = s.errs[idx]
	}
	return resp, err
}

type fixedRand struct {
	n    int
	last int
}

func (f *fixedRand) Intn(n int) int {
	f.last = n
	return f.n % n
}

func testLogger() *logging.Logger {
	return logging.NewWithWriter(io.Discard, "error")
}

func newTestOrchestrator(t *testing.T, gw Gateway, opts ...Option) *Orchestrator {
	t.Helper()
	prompts, err := NewPromptSelector(DefaultPromptVersion)
	if err != nil {
		t.Fatalf("prompt selector: %v", err)
	}
	return NewOrchestrator(gw, prompts, append([]Option{WithLogger(testLogger())}, opts...)...)
}

func sampleAssessment() Assessment {
	return Assessment{
		Title:             "Employment Offer Review",
		Score:             8,
		Verdict:           VerdictHighRisk,
		Summary:           "The offer pays far below minimum wage for long hours.",
		RiskWhy:           RiskWhyList("Pay below legal minimum", "No written agreement"),
		PossibleOutcomes:  []string{"Unpaid wages"},
		RecommendedAction: "Ask for a written contract before starting.",
		RedFlags:          []string{"60-hour weeks"},
		ConfidenceScore:   92,
	}
}
