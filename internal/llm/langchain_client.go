package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// contentGenerator is the slice of llms.Model the client needs.
type contentGenerator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// LangChainClient implements LLMClient through langchaingo. It is used for
// self-hosted OpenAI-compatible servers such as Ollama.
type LangChainClient struct {
	model contentGenerator
}

// NewOllamaClient connects to an OpenAI-compatible endpoint (for Ollama, ".../v1/").
func NewOllamaClient(baseURL, model string) (*LangChainClient, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("%w: ollama base url is required", ErrNotConfigured)
	}
	if strings.TrimSpace(model) == "" {
		model = "llama3.1:8b"
	}
	// Ollama ignores the token but the client requires one.
	llm, err := openai.New(
		openai.WithToken("ollama"),
		openai.WithBaseURL(baseURL),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("llm: failed to create langchain client: %w", err)
	}
	return NewLangChainClient(llm), nil
}

func NewLangChainClient(model contentGenerator) *LangChainClient {
	if model == nil {
		panic("llm: langchain model cannot be nil")
	}
	return &LangChainClient{model: model}
}

func (c *LangChainClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	content := make([]llms.MessageContent, 0, len(req.System)+len(req.Messages))
	for _, block := range req.System {
		if strings.TrimSpace(block) != "" {
			content = append(content, llms.TextParts(llms.ChatMessageTypeSystem, block))
		}
	}
	for _, msg := range req.Messages {
		if strings.TrimSpace(msg.Content) == "" {
			continue
		}
		var role llms.ChatMessageType
		switch msg.Role {
		case ChatRoleSystem:
			role = llms.ChatMessageTypeSystem
		case ChatRoleUser:
			role = llms.ChatMessageTypeHuman
		case ChatRoleAssistant:
			role = llms.ChatMessageTypeAI
		default:
			return LLMResponse{}, fmt.Errorf("llm: unsupported role %q", msg.Role)
		}
		content = append(content, llms.TextParts(role, msg.Content))
	}
	if len(content) == 0 {
		return LLMResponse{}, errors.New("llm: request has no messages")
	}

	var opts []llms.CallOption
	if req.Model != "" {
		opts = append(opts, llms.WithModel(req.Model))
	}
	if req.Temperature >= 0 {
		opts = append(opts, llms.WithTemperature(float64(req.Temperature)))
	}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(int(req.MaxTokens)))
	}
	if req.TopP > 0 {
		opts = append(opts, llms.WithTopP(float64(req.TopP)))
	}
	if req.JSONMode {
		opts = append(opts, llms.WithJSONMode())
	}

	resp, err := c.model.GenerateContent(ctx, content, opts...)
	if err != nil {
		return LLMResponse{}, fmt.Errorf("llm: langchain completion failed: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return LLMResponse{}, errors.New("llm: langchain returned no choices")
	}

	choice := resp.Choices[0]
	return LLMResponse{
		Text:       strings.TrimSpace(choice.Content),
		StopReason: choice.StopReason,
		Usage: TokenUsage{
			InputTokens:  generationInfoInt(choice.GenerationInfo, "PromptTokens"),
			OutputTokens: generationInfoInt(choice.GenerationInfo, "CompletionTokens"),
			TotalTokens:  generationInfoInt(choice.GenerationInfo, "TotalTokens"),
		},
	}, nil
}

func generationInfoInt(info map[string]any, key string) int32 {
	switch v := info[key].(type) {
	case int:
		return int32(v)
	case int32:
		return v
	case int64:
		return int32(v)
	case float64:
		return int32(v)
	}
	return 0
}
