package analyzer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptSelector_Select(t *testing.T) {
	sel, err := NewPromptSelector("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPromptVersion, sel.Version())

	first := sel.Select(ModeFirstAnalysis)
	assert.True(t, first.Structured)
	for _, want := range []string{"TRANSPARENCY", "FAIRNESS", "CONSENT", "INDUSTRY CONTEXT", "EXPLOITATION", "1-3 = SAFE", "4-6 = CAUTION", "7-10 = HIGH RISK", `"confidenceScore"`} {
		assert.Contains(t, first.Instruction, want)
	}

	follow := sel.Select(ModeFollowUp)
	assert.False(t, follow.Structured)
	assert.Contains(t, follow.Instruction, "follow-up")
}

func TestPromptSelector_Versions(t *testing.T) {
	assert.Equal(t, []string{"framework-v2", "holistic-v1"}, PromptVersions())

	sel, err := NewPromptSelector("holistic-v1")
	require.NoError(t, err)
	assert.Contains(t, sel.Select(ModeFirstAnalysis).Instruction, "holistically")
	assert.Equal(t, "holistic-v1", sel.Version())

	_, err = NewPromptSelector("v0")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "framework-v2"))
}

func TestNewPromptSelectorFromSet(t *testing.T) {
	_, err := NewPromptSelectorFromSet(PromptSet{Version: "x", FirstAnalysis: "a"})
	require.Error(t, err)

	sel, err := NewPromptSelectorFromSet(PromptSet{Version: "x", FirstAnalysis: "a", FollowUp: "b"})
	require.NoError(t, err)
	assert.Equal(t, "b", sel.Select(ModeFollowUp).Instruction)
}

func TestPromptSets_FirstAnalysisContract(t *testing.T) {
	required := []string{
		"1-3", "4-6", "7-10",
		`"SAFE"`, `"CAUTION"`, `"HIGH RISK"`,
		"TRANSPARENCY", "FAIRNESS", "CONSENT", "INDUSTRY CONTEXT", "EXPLOITATION",
		`"title"`, `"score"`, `"verdict"`, `"summary"`, `"riskWhy"`,
		`"possibleOutcomes"`, `"recommendedAction"`, `"redFlags"`, `"confidenceScore"`,
	}

	for _, version := range PromptVersions() {
		t.Run(version, func(t *testing.T) {
			set, err := LookupPromptSet(version)
			require.NoError(t, err)
			assert.Equal(t, version, set.Version)
			for _, want := range required {
				assert.Contains(t, set.FirstAnalysis, want)
			}
			assert.NotEmpty(t, strings.TrimSpace(set.FollowUp))
		})
	}
}
