package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	appconfig "github.com/wolfman30/realitycheck-ai/internal/config"
	"github.com/wolfman30/realitycheck-ai/internal/llm"
	"github.com/wolfman30/realitycheck-ai/pkg/logging"
)

// AWSConfigLoader builds the AWS SDK config used by the Bedrock provider.
type AWSConfigLoader func(ctx context.Context, cfg *appconfig.Config) (aws.Config, error)

// ProviderClient is a built provider plus the cleanup it needs.
type ProviderClient struct {
	Client llm.LLMClient
	Name   string
	Model  string
	close  []func()
}

// Close releases provider connections.
func (p *ProviderClient) Close() {
	for _, fn := range p.close {
		fn()
	}
}

// BuildLLMClient wires the primary provider and, when configured, a fallback.
// A provider missing its credential becomes an llm.UnavailableClient so the
// server still starts and reports the analysis service as unavailable.
func BuildLLMClient(ctx context.Context, cfg *appconfig.Config, loadAWS AWSConfigLoader, logger *logging.Logger) (*ProviderClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	out := &ProviderClient{Name: cfg.LLMProvider, Model: providerModel(cfg, cfg.LLMProvider)}
	primary, closeFn, err := buildProvider(ctx, cfg, cfg.LLMProvider, loadAWS, logger)
	if err != nil {
		return nil, err
	}
	out.addCloser(closeFn)
	out.Client = primary

	fallbackName := strings.TrimSpace(cfg.LLMFallbackProvider)
	if fallbackName == "" {
		logger.Info("llm provider configured", "provider", out.Name, "model", out.Model)
		return out, nil
	}

	fallback, closeFn, err := buildProvider(ctx, cfg, fallbackName, loadAWS, logger)
	if err != nil {
		out.Close()
		return nil, err
	}
	out.addCloser(closeFn)
	out.Client = llm.NewFallbackClient(primary, fallback, logger)
	logger.Info("llm provider configured",
		"provider", out.Name,
		"model", out.Model,
		"fallback_provider", fallbackName,
		"fallback_model", providerModel(cfg, fallbackName),
	)
	return out, nil
}

func (p *ProviderClient) addCloser(fn func()) {
	if fn != nil {
		p.close = append(p.close, fn)
	}
}

func buildProvider(ctx context.Context, cfg *appconfig.Config, name string, loadAWS AWSConfigLoader, logger *logging.Logger) (llm.LLMClient, func(), error) {
	var (
		client  llm.LLMClient
		closeFn func()
		err     error
	)
	switch name {
	case appconfig.ProviderGroq:
		client, err = llm.NewGroqClient(cfg.GroqAPIKey, cfg.GroqBaseURL, cfg.GroqModel)
	case appconfig.ProviderGemini:
		var gemini *llm.GeminiClient
		gemini, err = llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err == nil {
			client = gemini
			closeFn = func() {
				if cerr := gemini.Close(); cerr != nil {
					logger.Warn("failed to close gemini client", "error", cerr)
				}
			}
		}
	case appconfig.ProviderBedrock:
		client, err = buildBedrock(ctx, cfg, loadAWS)
	case appconfig.ProviderOllama:
		client, err = llm.NewOllamaClient(cfg.OllamaBaseURL, cfg.OllamaModel)
	default:
		return nil, nil, fmt.Errorf("bootstrap: unknown llm provider %q", name)
	}

	if errors.Is(err, llm.ErrNotConfigured) {
		logger.Warn("llm provider not configured; analysis will report unavailable", "provider", name, "error", err)
		return llm.UnavailableClient{Provider: name, Reason: err.Error()}, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap: build %s client: %w", name, err)
	}
	return client, closeFn, nil
}

func buildBedrock(ctx context.Context, cfg *appconfig.Config, loadAWS AWSConfigLoader) (llm.LLMClient, error) {
	if strings.TrimSpace(cfg.BedrockModelID) == "" {
		return nil, fmt.Errorf("%w: bedrock model id is required", llm.ErrNotConfigured)
	}
	if loadAWS == nil {
		return nil, fmt.Errorf("%w: aws config loader is required", llm.ErrNotConfigured)
	}
	awsCfg, err := loadAWS(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return llm.NewBedrockClient(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID), nil
}

func providerModel(cfg *appconfig.Config, name string) string {
	switch name {
	case appconfig.ProviderGroq:
		return cfg.GroqModel
	case appconfig.ProviderGemini:
		return cfg.GeminiModel
	case appconfig.ProviderBedrock:
		return cfg.BedrockModelID
	case appconfig.ProviderOllama:
		return cfg.OllamaModel
	default:
		return ""
	}
}
