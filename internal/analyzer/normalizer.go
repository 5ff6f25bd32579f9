package analyzer

import (
	"encoding/json"
	"fmt"
)

// Message is one normalized {role, text} entry sent to the generation capability.
type Message struct {
	Role Role
	Text string
}

// Normalize converts history into role/text messages. Assessments are
// serialized to canonical JSON so the capability can reference them.
func Normalize(history []Turn) ([]Message, error) {
	out := make([]Message, 0, len(history)+1)
	for i, turn := range history {
		if turn.Role != RoleUser && turn.Role != RoleAssistant {
			return nil, fmt.Errorf("turn %d: %w", i, ErrInvalidRole)
		}
		text := turn.Text
		if turn.Assessment != nil {
			encoded, err := CanonicalJSON(*turn.Assessment)
			if err != nil {
				return nil, fmt.Errorf("turn %d: %w", i, err)
			}
			text = encoded
		}
		out = append(out, Message{Role: turn.Role, Text: text})
	}
	return out, nil
}

// CanonicalJSON encodes an assessment with a fixed field order and no
// insignificant whitespace.
func CanonicalJSON(a Assessment) (string, error) {
	if a.PossibleOutcomes == nil {
		a.PossibleOutcomes = []string{}
	}
	if a.RedFlags == nil {
		a.RedFlags = []string{}
	}
	b, err := json.Marshal(a)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
