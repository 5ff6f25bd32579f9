package analyzer

// Classify returns ModeFollowUp when any turn was written by the assistant.
func Classify(history []Turn) Mode {
	for _, turn := range history {
		if turn.Role == RoleAssistant {
			return ModeFollowUp
		}
	}
	return ModeFirstAnalysis
}
