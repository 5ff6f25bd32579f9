package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ConfidenceRepair(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		randN     int
		want      int
		synthetic bool
	}{
		{"missing", `{"score":5,"verdict":"CAUTION"}`, 0, 85, true},
		{"null", `{"score":5,"verdict":"CAUTION","confidenceScore":null}`, 14, 99, true},
		{"string", `{"score":5,"verdict":"CAUTION","confidenceScore":"high"}`, 7, 92, true},
		{"present", `{"score":5,"verdict":"CAUTION","confidenceScore":61}`, 3, 61, false},
		{"present zero", `{"score":5,"verdict":"CAUTION","confidenceScore":0}`, 3, 0, false},
		{"fractional", `{"score":5,"verdict":"CAUTION","confidenceScore":77.6}`, 3, 78, false},
		{"clamped", `{"score":5,"verdict":"CAUTION","confidenceScore":140}`, 3, 100, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fixedRand{n: tt.randN}
			got, err := NewValidator(src, testLogger()).Validate(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Assessment.ConfidenceScore)
			assert.Equal(t, tt.synthetic, got.ConfidenceSynthesized)
			if tt.synthetic {
				assert.Equal(t, 15, src.last, "range must be inclusive of 85 and 99")
			}
		})
	}
}

func TestValidate_SynthesizedAlwaysInRange(t *testing.T) {
	v := NewValidator(nil, testLogger())
	for i := 0; i < 500; i++ {
		got, err := v.Validate(`{"score":2,"verdict":"SAFE"}`)
		require.NoError(t, err)
		require.GreaterOrEqual(t, got.Assessment.ConfidenceScore, ConfidenceFloor)
		require.LessOrEqual(t, got.Assessment.ConfidenceScore, ConfidenceCeil)
	}
}

func TestValidate_RepairsShape(t *testing.T) {
	raw := "Here is the analysis:\n```json\n{\"title\":\"Gig Review\",\"score\":7.0,\"verdict\":\" high_risk \",\"riskWhy\":\"Pay is unclear\",\"redFlags\":\"No contract\",\"confidenceScore\":88}\n```"
	got, err := NewValidator(&fixedRand{}, testLogger()).Validate(raw)
	require.NoError(t, err)

	a := got.Assessment
	assert.Equal(t, "Gig Review", a.Title)
	assert.Equal(t, 7, a.Score)
	assert.Equal(t, VerdictHighRisk, a.Verdict)
	assert.True(t, a.RiskWhy.Single)
	assert.Equal(t, []string{"Pay is unclear"}, a.RiskWhy.Items)
	assert.Equal(t, []string{"No contract"}, a.RedFlags)
	assert.Equal(t, []string{}, a.PossibleOutcomes)
	assert.Equal(t, "", a.Summary)
	assert.False(t, got.BandingMismatch)
}

func TestValidate_BandingMismatchIsReportedNotRejected(t *testing.T) {
	got, err := NewValidator(&fixedRand{}, testLogger()).Validate(`{"score":9,"verdict":"SAFE","confidenceScore":90}`)
	require.NoError(t, err)
	assert.True(t, got.BandingMismatch)
	assert.Equal(t, 9, got.Assessment.Score)
	assert.Equal(t, VerdictSafe, got.Assessment.Verdict)
}

func TestValidate_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "I cannot help with that."},
		{"truncated", `{"score":5,"verdict":"CAUTION"`},
		{"array", `[1,2,3]`},
		{"missing score", `{"verdict":"SAFE"}`},
		{"score out of range", `{"score":11,"verdict":"HIGH RISK"}`},
		{"score zero", `{"score":0,"verdict":"SAFE"}`},
		{"score string", `{"score":"5","verdict":"CAUTION"}`},
		{"unknown verdict", `{"score":5,"verdict":"MAYBE"}`},
		{"missing verdict", `{"score":5}`},
		{"wrong list type", `{"score":5,"verdict":"CAUTION","redFlags":[1,2]}`},
		{"wrong title type", `{"score":5,"verdict":"CAUTION","title":{"a":1}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewValidator(&fixedRand{}, testLogger()).Validate(tt.raw)
			require.Error(t, err)
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractJSONObject("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":{"b":2}}`, extractJSONObject(`prefix {"a":{"b":2}} suffix`))
	assert.Equal(t, "", extractJSONObject("no braces"))
}
