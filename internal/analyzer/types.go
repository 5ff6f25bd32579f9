// Package analyzer decides whether a request is a first analysis or a follow-up,
// drives one generation call, and turns the reply into a stable outcome.
package analyzer

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Role is the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Mode is the conversation mode derived from history.
type Mode string

const (
	ModeFirstAnalysis Mode = "first_analysis"
	ModeFollowUp      Mode = "follow_up"
)

// Verdict is the categorical risk band of an assessment.
type Verdict string

const (
	VerdictSafe     Verdict = "SAFE"
	VerdictCaution  Verdict = "CAUTION"
	VerdictHighRisk Verdict = "HIGH RISK"
)

// Band returns the verdict a score belongs to: 1-3 SAFE, 4-6 CAUTION, 7-10 HIGH RISK.
func Band(score int) Verdict {
	switch {
	case score <= 3:
		return VerdictSafe
	case score <= 6:
		return VerdictCaution
	default:
		return VerdictHighRisk
	}
}

// Assessment is the structured result of a first analysis. Field order is the
// canonical serialization order.
type Assessment struct {
	Title             string   `json:"title"`
	Score             int      `json:"score"`
	Verdict           Verdict  `json:"verdict"`
	Summary           string   `json:"summary"`
	RiskWhy           RiskWhy  `json:"riskWhy"`
	PossibleOutcomes  []string `json:"possibleOutcomes"`
	RecommendedAction string   `json:"recommendedAction"`
	RedFlags          []string `json:"redFlags"`
	// ConfidenceScore may be synthesized when the provider omits it and is
	// then cosmetic only. See Validated.ConfidenceSynthesized.
	ConfidenceScore int `json:"confidenceScore"`
}

// RiskWhy holds either a single explanation or a list of findings and keeps
// the shape it was decoded from.
type RiskWhy struct {
	Items  []string
	Single bool
}

// RiskWhyText builds a single-string RiskWhy.
func RiskWhyText(s string) RiskWhy {
	return RiskWhy{Items: []string{s}, Single: true}
}

// RiskWhyList builds a list RiskWhy.
func RiskWhyList(items ...string) RiskWhy {
	if items == nil {
		items = []string{}
	}
	return RiskWhy{Items: items}
}

func (r RiskWhy) MarshalJSON() ([]byte, error) {
	if r.Single {
		return json.Marshal(strings.Join(r.Items, " "))
	}
	if r.Items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.Items)
}

func (r *RiskWhy) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = RiskWhyList()
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = RiskWhyText(s)
		return nil
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*r = RiskWhyList(items...)
	return nil
}

// Turn is one entry of the client-held conversation history. Exactly one of
// Text or Assessment carries the content.
type Turn struct {
	Role       Role
	Text       string
	Assessment *Assessment
	Timestamp  time.Time
}

// TextTurn builds a free-text turn.
func TextTurn(role Role, text string) Turn {
	return Turn{Role: role, Text: text}
}

// AssessmentTurn builds an assistant turn carrying a prior assessment.
func AssessmentTurn(a Assessment) Turn {
	return Turn{Role: RoleAssistant, Assessment: &a}
}

type turnJSON struct {
	Role      Role            `json:"role"`
	Content   json.RawMessage `json:"content"`
	Timestamp json.RawMessage `json:"timestamp,omitempty"`
}

// UnmarshalJSON accepts string or object content and a timestamp in unix
// milliseconds or RFC 3339. Unreadable timestamps decode as zero.
func (t *Turn) UnmarshalJSON(data []byte) error {
	var raw turnJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = Turn{Role: raw.Role, Timestamp: parseTimestamp(raw.Timestamp)}

	content := bytes.TrimSpace(raw.Content)
	switch {
	case len(content) == 0 || bytes.Equal(content, []byte("null")):
		return nil
	case content[0] == '"':
		return json.Unmarshal(content, &t.Text)
	case content[0] == '{':
		a, err := decodeHistoryAssessment(content)
		if err != nil {
			return err
		}
		t.Assessment = &a
		return nil
	default:
		return ErrInvalidContent
	}
}

func (t Turn) MarshalJSON() ([]byte, error) {
	out := struct {
		Role      Role  `json:"role"`
		Content   any   `json:"content"`
		Timestamp int64 `json:"timestamp,omitempty"`
	}{Role: t.Role, Content: t.Text}
	if t.Assessment != nil {
		out.Content = t.Assessment
	}
	if !t.Timestamp.IsZero() {
		out.Timestamp = t.Timestamp.UnixMilli()
	}
	return json.Marshal(out)
}

func parseTimestamp(raw json.RawMessage) time.Time {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return time.Time{}
	}
	var s string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}
		}
		if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return ts.UTC()
		}
	} else {
		s = string(raw)
	}
	if ms, err := strconv.ParseFloat(s, 64); err == nil && ms > 0 {
		return time.UnixMilli(int64(ms)).UTC()
	}
	return time.Time{}
}

// Request is one analyze call. History is supplied in full by the caller.
type Request struct {
	Text          string
	FileSubmitted bool
	History       []Turn
}

// OutcomeKind names a successful outcome.
type OutcomeKind string

const (
	OutcomeStructuredAnalysis OutcomeKind = "structured_analysis"
	OutcomeConversationReply  OutcomeKind = "conversation_reply"
	OutcomeUploadDeferred     OutcomeKind = "upload_deferred"
)

// Outcome is the successful result of Analyze.
type Outcome struct {
	Kind       OutcomeKind
	Mode       Mode
	Assessment *Assessment
	Text       string

	ConfidenceSynthesized bool
	BandingMismatch       bool
}

// ResponseType is the wire discriminator: "analysis" for structured results, "text" otherwise.
func (o Outcome) ResponseType() string {
	if o.Kind == OutcomeStructuredAnalysis {
		return "analysis"
	}
	return "text"
}

// Content is the wire payload matching ResponseType.
func (o Outcome) Content() any {
	if o.Kind == OutcomeStructuredAnalysis && o.Assessment != nil {
		return o.Assessment
	}
	return o.Text
}
