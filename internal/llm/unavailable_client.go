package llm

import (
	"context"
	"fmt"
)

// UnavailableClient stands in for a provider whose credential is missing so the
// service can start and report the capability as unavailable per request.
type UnavailableClient struct {
	Provider string
	Reason   string
}

func (c UnavailableClient) Complete(context.Context, LLMRequest) (LLMResponse, error) {
	reason := c.Reason
	if reason == "" {
		reason = "credential missing"
	}
	return LLMResponse{}, fmt.Errorf("%w: %s: %s", ErrNotConfigured, c.Provider, reason)
}
