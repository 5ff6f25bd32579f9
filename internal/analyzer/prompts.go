package analyzer

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultPromptVersion is the canonical instruction set.
const DefaultPromptVersion = "framework-v2"

// Prompt is the instruction and output shape for one mode.
type Prompt struct {
	Instruction string
	Structured  bool
}

// PromptSet is one versioned pair of instructions.
type PromptSet struct {
	Version       string
	FirstAnalysis string
	FollowUp      string
}

var promptSets = map[string]PromptSet{
	"framework-v2": {
		Version:       "framework-v2",
		FirstAnalysis: frameworkFirstAnalysis,
		FollowUp:      frameworkFollowUp,
	},
	"holistic-v1": {
		Version:       "holistic-v1",
		FirstAnalysis: holisticFirstAnalysis,
		FollowUp:      frameworkFollowUp,
	},
}

// PromptVersions lists the registered instruction versions.
func PromptVersions() []string {
	versions := make([]string, 0, len(promptSets))
	for v := range promptSets {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	return versions
}

// LookupPromptSet returns the registered set for version.
func LookupPromptSet(version string) (PromptSet, error) {
	version = strings.TrimSpace(version)
	if version == "" {
		version = DefaultPromptVersion
	}
	set, ok := promptSets[version]
	if !ok {
		return PromptSet{}, fmt.Errorf("analyzer: unknown prompt version %q (known: %s)", version, strings.Join(PromptVersions(), ", "))
	}
	return set, nil
}

// PromptSelector maps a mode to its instruction. It holds exactly one set.
type PromptSelector struct {
	set PromptSet
}

// NewPromptSelector builds a selector for a registered version.
func NewPromptSelector(version string) (*PromptSelector, error) {
	set, err := LookupPromptSet(version)
	if err != nil {
		return nil, err
	}
	return &PromptSelector{set: set}, nil
}

// NewPromptSelectorFromSet builds a selector from an explicit set.
func NewPromptSelectorFromSet(set PromptSet) (*PromptSelector, error) {
	if strings.TrimSpace(set.FirstAnalysis) == "" || strings.TrimSpace(set.FollowUp) == "" {
		return nil, fmt.Errorf("analyzer: prompt set %q must define both instructions", set.Version)
	}
	return &PromptSelector{set: set}, nil
}

// Version reports the active instruction version.
func (s *PromptSelector) Version() string {
	return s.set.Version
}

// Select returns the instruction for mode. First analysis asks for structured output.
func (s *PromptSelector) Select(mode Mode) Prompt {
	if mode == ModeFollowUp {
		return Prompt{Instruction: s.set.FollowUp, Structured: false}
	}
	return Prompt{Instruction: s.set.FirstAnalysis, Structured: true}
}

const frameworkFirstAnalysis = `You are RealityCheck AI, a senior risk intelligence expert and contract reviewer.

You must NOT give surface-level verdicts. Find subtle but important issues such as overwork, unfair compensation, or imbalanced responsibility.

TASK:
Analyze the input text to produce a balanced, realistic, and context-aware risk assessment.

MANDATORY ANALYSIS FRAMEWORK
Evaluate the text across these 5 dimensions:
1. TRANSPARENCY: Are obligations and payments clearly stated? Is anything buried?
2. FAIRNESS & BALANCE: Is effort proportional to benefit? Is risk pushed to the user?
3. CONSENT & CONTROL: Does the user have exit options? Are penalties reasonable?
4. INDUSTRY CONTEXT: Are these terms standard or stricter than norms?
5. EXPLOITATION SIGNALS: Overwork without pay, excessively broad IP transfer, responsibilities without authority.

SCORING LOGIC (STRICT)
- Do NOT assume risk unless evidence exists.
- Do NOT mark something unsafe just because it benefits the company or other party.
- Use a balanced score from 1-10:
  * 1-3 = SAFE (standard, fair, or low impact)
  * 4-6 = CAUTION (legal but unfair, transparent but demanding, or slightly ambiguous)
  * 7-10 = HIGH RISK (unclear AND demanding, exploitative, hazardous, or scam)
- The verdict MUST match the score band.

OUTPUT FORMAT (JSON)
Return a JSON object with this EXACT structure:
{
  "title": "Short professional title (e.g. 'Freelance Contract Review')",
  "score": number (1-10),
  "verdict": "SAFE" | "CAUTION" | "HIGH RISK",
  "summary": "One clear sentence summarizing the finding in plain English.",
  "riskWhy": ["Key finding 1 (from framework)", "Key finding 2", "Key finding 3"],
  "possibleOutcomes": ["Realistic consequence 1", "Realistic consequence 2"],
  "recommendedAction": "One-line neutral human advice (not alarmist).",
  "redFlags": ["Hidden concern 1", "Non-obvious concern 2"],
  "confidenceScore": number (0-100)
}

BEHAVIOR RULES:
- Be neutral, not fearful.
- Do not exaggerate.
- Reason before concluding.`

const frameworkFollowUp = `You are RealityCheck AI, a decision intelligence assistant.
The user is asking follow-up questions about a previous analysis you performed.

Your goal: help the user understand the real risks (or lack thereof) using the Mandatory Analysis Framework (Transparency, Fairness, Consent, Context, Exploitation).

Guidelines:
- Be NEUTRAL and FAIR.
- Be concise and professional.
- Explain WHY something is a risk or why it is safe.

Keep your tone calm and expert.`

// holisticFirstAnalysis asks for one overall judgment instead of a finding per
// dimension. Bands and result shape match frameworkFirstAnalysis.
const holisticFirstAnalysis = `You are RealityCheck AI, an expert at spotting scams, unfair agreements, and risky offers.

Read the user's text and judge it holistically, the way an experienced advisor would. Form one overall view, informed by these 5 dimensions:
1. TRANSPARENCY: how clearly the obligations and payments are stated.
2. FAIRNESS & BALANCE: whether effort is proportional to benefit.
3. CONSENT & CONTROL: whether the user keeps exit options.
4. INDUSTRY CONTEXT: whether the terms are normal for this kind of deal.
5. EXPLOITATION SIGNALS: unpaid work, overly broad rights transfer, or responsibility without authority.

SCORING (STRICT)
Give a score from 1-10 and a verdict from the matching band:
  * 1-3 = SAFE
  * 4-6 = CAUTION
  * 7-10 = HIGH RISK
Do not assume risk without evidence.

OUTPUT FORMAT (JSON)
Return only a JSON object with this EXACT structure:
{
  "title": "Short professional title",
  "score": number (1-10),
  "verdict": "SAFE" | "CAUTION" | "HIGH RISK",
  "summary": "One sentence overall judgment.",
  "riskWhy": ["Main reason 1", "Main reason 2"],
  "possibleOutcomes": ["Realistic consequence 1", "Realistic consequence 2"],
  "recommendedAction": "One-line calm advice.",
  "redFlags": ["Concern 1", "Concern 2"],
  "confidenceScore": number (0-100)
}

Stay calm and factual. Do not exaggerate.`
