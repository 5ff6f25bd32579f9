// Package llm adapts hosted text-generation providers to one completion interface.
package llm

import (
	"context"
	"errors"
)

const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ErrNotConfigured is returned when a provider has no usable credential.
var ErrNotConfigured = errors.New("llm: provider not configured")

// ChatMessage is one conversational message sent to a provider.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

type LLMRequest struct {
	Model       string
	System      []string
	Messages    []ChatMessage
	MaxTokens   int32
	Temperature float32
	TopP        float32
	// JSONMode asks the provider for a single JSON object. Providers without a
	// native switch receive an extra system instruction instead.
	JSONMode bool
}

type LLMResponse struct {
	Text       string
	Usage      TokenUsage
	StopReason string
}

type LLMClient interface {
	Complete(ctx context.Context, req LLMRequest) (LLMResponse, error)
}

const jsonModeInstruction = "Respond with a single valid JSON object and nothing else."
