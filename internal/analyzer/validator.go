package analyzer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/wolfman30/realitycheck-ai/pkg/logging"
)

// Synthesized confidence scores fall in [ConfidenceFloor, ConfidenceCeil].
const (
	ConfidenceFloor = 85
	ConfidenceCeil  = 99
)

// RandSource supplies the synthesized confidence score.
type RandSource interface {
	Intn(n int) int
}

type globalRand struct{}

func (globalRand) Intn(n int) int { return rand.IntN(n) }

// Validated is a parsed and repaired assessment plus what was repaired.
type Validated struct {
	Assessment Assessment
	// ConfidenceSynthesized means ConfidenceScore was filled in by the
	// validator and carries no signal about result quality.
	ConfidenceSynthesized bool
	// BandingMismatch means Score and Verdict disagree under Band. Such
	// results are accepted as returned.
	BandingMismatch bool
}

// Validator parses structured replies and repairs what it safely can.
type Validator struct {
	rand   RandSource
	logger *logging.Logger
}

func NewValidator(src RandSource, logger *logging.Logger) *Validator {
	if src == nil {
		src = globalRand{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Validator{rand: src, logger: logger}
}

// Validate parses raw model output into an Assessment.
func (v *Validator) Validate(raw string) (Validated, error) {
	cleaned := extractJSONObject(raw)
	if cleaned == "" {
		return Validated{}, errors.New("reply contains no JSON object")
	}

	a, report, err := decodeAssessment([]byte(cleaned))
	if err != nil {
		return Validated{}, err
	}
	if report.missingScore {
		return Validated{}, errors.New("score is required")
	}
	if a.Score < 1 || a.Score > 10 {
		return Validated{}, fmt.Errorf("score %d outside 1..10", a.Score)
	}
	if !validVerdict(a.Verdict) {
		return Validated{}, fmt.Errorf("verdict %q is not one of SAFE, CAUTION, HIGH RISK", a.Verdict)
	}

	out := Validated{Assessment: a}
	if report.missingConfidence {
		out.Assessment.ConfidenceScore = ConfidenceFloor + v.rand.Intn(ConfidenceCeil-ConfidenceFloor+1)
		out.ConfidenceSynthesized = true
		v.logger.Debug("confidence score synthesized", "confidence", out.Assessment.ConfidenceScore)
	}
	if Band(a.Score) != a.Verdict {
		out.BandingMismatch = true
		v.logger.Warn("assessment verdict does not match score band",
			"score", a.Score,
			"verdict", string(a.Verdict),
			"expected_verdict", string(Band(a.Score)),
		)
	}
	return out, nil
}

func validVerdict(v Verdict) bool {
	switch v {
	case VerdictSafe, VerdictCaution, VerdictHighRisk:
		return true
	}
	return false
}

// extractJSONObject strips code fences and any text outside the outermost braces.
func extractJSONObject(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```JSON")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

type decodeReport struct {
	missingScore      bool
	missingConfidence bool
}

// decodeAssessment reads an assessment object field by field. Missing
// strings become "", missing lists become [], and a lone string where a list
// is expected becomes a one-item list. Wrong types are errors.
func decodeAssessment(data []byte) (Assessment, decodeReport, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Assessment{}, decodeReport{}, fmt.Errorf("decode assessment: %w", err)
	}
	if fields == nil {
		return Assessment{}, decodeReport{}, errors.New("decode assessment: not an object")
	}

	var (
		a      Assessment
		report decodeReport
		errs   []error
	)
	collect := func(field string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field, err))
		}
	}

	var err error
	a.Title, err = stringField(fields["title"])
	collect("title", err)
	a.Summary, err = stringField(fields["summary"])
	collect("summary", err)
	a.RecommendedAction, err = stringField(fields["recommendedAction"])
	collect("recommendedAction", err)

	verdict, err := stringField(fields["verdict"])
	collect("verdict", err)
	a.Verdict = normalizeVerdict(verdict)

	score, ok, err := numberField(fields["score"])
	collect("score", err)
	if err == nil && !ok {
		report.missingScore = true
	}
	a.Score = int(math.Round(score))

	a.PossibleOutcomes, err = listField(fields["possibleOutcomes"])
	collect("possibleOutcomes", err)
	a.RedFlags, err = listField(fields["redFlags"])
	collect("redFlags", err)

	if raw, present := fields["riskWhy"]; present {
		collect("riskWhy", json.Unmarshal(raw, &a.RiskWhy))
	} else {
		a.RiskWhy = RiskWhyList()
	}

	// A non-numeric confidence is treated as absent, never as an error.
	confidence, ok, err := numberField(fields["confidenceScore"])
	if err != nil || !ok {
		report.missingConfidence = true
	} else {
		a.ConfidenceScore = clamp(int(math.Round(confidence)), 0, 100)
	}

	if len(errs) > 0 {
		return Assessment{}, report, fmt.Errorf("decode assessment: %w", errors.Join(errs...))
	}
	return a, report, nil
}

// decodeHistoryAssessment reads an assessment echoed back in history. Prior
// assessments are context only, so a badly typed field keeps its best reading
// instead of failing the whole history.
func decodeHistoryAssessment(data []byte) (Assessment, error) {
	a, _, err := decodeAssessment(data)
	if err == nil {
		return a, nil
	}

	var fields map[string]json.RawMessage
	if jerr := json.Unmarshal(data, &fields); jerr != nil || fields == nil {
		return Assessment{}, err
	}

	a = Assessment{
		Title:             looseString(fields["title"]),
		Summary:           looseString(fields["summary"]),
		RecommendedAction: looseString(fields["recommendedAction"]),
		Verdict:           normalizeVerdict(looseString(fields["verdict"])),
		Score:             int(math.Round(looseNumber(fields["score"]))),
		PossibleOutcomes:  looseList(fields["possibleOutcomes"]),
		RedFlags:          looseList(fields["redFlags"]),
		ConfidenceScore:   clamp(int(math.Round(looseNumber(fields["confidenceScore"]))), 0, 100),
	}
	if raw, present := fields["riskWhy"]; !present || json.Unmarshal(raw, &a.RiskWhy) != nil {
		a.RiskWhy = RiskWhyList(looseList(raw)...)
	}
	return a, nil
}

func looseString(raw json.RawMessage) string {
	if s, err := stringField(raw); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

func looseNumber(raw json.RawMessage) float64 {
	if n, _, err := numberField(raw); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return n
		}
	}
	return 0
}

func looseList(raw json.RawMessage) []string {
	if items, err := listField(raw); err == nil {
		return items
	}
	var values []json.RawMessage
	if err := json.Unmarshal(raw, &values); err != nil {
		return []string{looseString(raw)}
	}
	items := make([]string, 0, len(values))
	for _, v := range values {
		items = append(items, looseString(v))
	}
	return items
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func stringField(raw json.RawMessage) (string, error) {
	if isNull(raw) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", errors.New("expected a string")
	}
	return strings.TrimSpace(s), nil
}

func numberField(raw json.RawMessage) (float64, bool, error) {
	if isNull(raw) {
		return 0, false, nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false, errors.New("expected a number")
	}
	return n, true, nil
}

func listField(raw json.RawMessage) ([]string, error) {
	if isNull(raw) {
		return []string{}, nil
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		return []string{one}, nil
	}
	var items []string
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, errors.New("expected a list of strings")
	}
	if items == nil {
		items = []string{}
	}
	return items, nil
}

func normalizeVerdict(s string) Verdict {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	return Verdict(strings.Join(strings.Fields(s), " "))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
