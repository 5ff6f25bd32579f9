package analyzer

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/wolfman30/realitycheck-ai/internal/llm"
	"github.com/wolfman30/realitycheck-ai/internal/observability/metrics"
	"github.com/wolfman30/realitycheck-ai/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// GenerationRequest is the single outbound call derived from a Request.
type GenerationRequest struct {
	SystemInstruction string
	Messages          []Message
	StructuredOutput  bool
}

// Gateway performs the outbound generation call. Implementations return
// *Error with KindServiceUnavailable or KindGenerationFailed on failure.
type Gateway interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}

// GatewayConfig names the provider and sampling settings for LLMGateway.
type GatewayConfig struct {
	Provider    string
	Model       string
	MaxTokens   int32
	Temperature float32
}

// LLMGateway adapts an llm.LLMClient to Gateway.
type LLMGateway struct {
	client  llm.LLMClient
	cfg     GatewayConfig
	metrics *metrics.AnalysisMetrics
	tracer  trace.Tracer
	logger  *logging.Logger
}

type GatewayOption func(*LLMGateway)

func WithGatewayMetrics(m *metrics.AnalysisMetrics) GatewayOption {
	return func(g *LLMGateway) { g.metrics = m }
}

func WithGatewayTracer(t trace.Tracer) GatewayOption {
	return func(g *LLMGateway) {
		if t != nil {
			g.tracer = t
		}
	}
}

func WithGatewayLogger(l *logging.Logger) GatewayOption {
	return func(g *LLMGateway) {
		if l != nil {
			g.logger = l
		}
	}
}

func NewLLMGateway(client llm.LLMClient, cfg GatewayConfig, opts ...GatewayOption) *LLMGateway {
	if client == nil {
		panic("analyzer: llm client cannot be nil")
	}
	if cfg.Provider == "" {
		cfg.Provider = "unknown"
	}
	g := &LLMGateway{
		client: client,
		cfg:    cfg,
		tracer: otel.Tracer("realitycheck.internal.analyzer"),
		logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *LLMGateway) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	ctx, span := g.tracer.Start(ctx, "analyzer.generate")
	defer span.End()

	llmReq := llm.LLMRequest{
		Model:       g.cfg.Model,
		System:      []string{req.SystemInstruction},
		Messages:    make([]llm.ChatMessage, 0, len(req.Messages)),
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
		JSONMode:    req.StructuredOutput,
	}
	for _, msg := range req.Messages {
		llmReq.Messages = append(llmReq.Messages, llm.ChatMessage{Role: string(msg.Role), Content: msg.Text})
	}

	start := time.Now()
	resp, err := g.client.Complete(ctx, llmReq)
	latency := time.Since(start)

	status := "success"
	if err != nil {
		status = "error"
	}
	g.metrics.ObserveGeneration(g.cfg.Provider, status, latency.Seconds())
	g.metrics.ObserveTokens(g.cfg.Provider, resp.Usage.InputTokens, resp.Usage.OutputTokens, resp.Usage.TotalTokens)

	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("realitycheck.llm.provider", g.cfg.Provider),
			attribute.Bool("realitycheck.llm.structured", req.StructuredOutput),
			attribute.Int("realitycheck.llm.messages", len(req.Messages)),
			attribute.Float64("realitycheck.llm.latency_ms", float64(latency.Milliseconds())),
			attribute.Int("realitycheck.llm.total_tokens", int(resp.Usage.TotalTokens)),
			attribute.String("realitycheck.llm.stop_reason", resp.StopReason),
		)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		if errors.Is(err, llm.ErrNotConfigured) {
			g.logger.Error("generation provider not configured", "provider", g.cfg.Provider, "error", err)
			return "", newError(KindServiceUnavailable, err)
		}
		g.logger.Error("generation failed",
			"provider", g.cfg.Provider,
			"latency_ms", latency.Milliseconds(),
			"error", err,
		)
		return "", newError(KindGenerationFailed, err)
	}

	text := strings.TrimSpace(resp.Text)
	g.logger.Info("generation finished",
		"provider", g.cfg.Provider,
		"structured", req.StructuredOutput,
		"latency_ms", latency.Milliseconds(),
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
		"stop_reason", resp.StopReason,
	)
	if text == "" {
		span.SetStatus(codes.Error, "empty response")
		return "", newError(KindGenerationFailed, ErrEmptyGeneration)
	}
	return text, nil
}
