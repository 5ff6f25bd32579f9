package analyzer

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/wolfman30/realitycheck-ai/internal/observability/metrics"
	"github.com/wolfman30/realitycheck-ai/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// UploadDeferralMessage is returned for every file upload. Document analysis
// is not performed and the gateway is never called.
const UploadDeferralMessage = "Document upload analysis is part of our next iteration. For accurate results, please paste the text."

// Orchestrator runs one analyze call end to end. It keeps no state between calls.
type Orchestrator struct {
	gateway   Gateway
	prompts   *PromptSelector
	validator *Validator
	metrics   *metrics.AnalysisMetrics
	tracer    trace.Tracer
	logger    *logging.Logger
	randSrc   RandSource
}

type Option func(*Orchestrator)

// WithRandSource replaces the source used for synthesized confidence scores.
func WithRandSource(src RandSource) Option {
	return func(o *Orchestrator) { o.randSrc = src }
}

func WithMetrics(m *metrics.AnalysisMetrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.tracer = t
		}
	}
}

func WithLogger(l *logging.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

func NewOrchestrator(gateway Gateway, prompts *PromptSelector, opts ...Option) *Orchestrator {
	if gateway == nil {
		panic("analyzer: gateway cannot be nil")
	}
	if prompts == nil {
		panic("analyzer: prompt selector cannot be nil")
	}
	o := &Orchestrator{
		gateway: gateway,
		prompts: prompts,
		tracer:  otel.Tracer("realitycheck.internal.analyzer"),
		logger:  logging.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.validator = NewValidator(o.randSrc, o.logger)
	return o
}

// Analyze classifies the request, performs at most one generation call, and
// returns an Outcome or an *Error.
func (o *Orchestrator) Analyze(ctx context.Context, req Request) (Outcome, error) {
	ctx, span := o.tracer.Start(ctx, "analyzer.analyze")
	defer span.End()
	start := time.Now()

	outcome, err := o.analyze(ctx, req)

	mode := string(outcome.Mode)
	if mode == "" {
		mode = "none"
	}
	result := string(outcome.Kind)
	if err != nil {
		result = string(KindOf(err))
		span.RecordError(err)
	}
	o.metrics.ObserveOutcome(mode, result)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("realitycheck.analyzer.mode", mode),
			attribute.String("realitycheck.analyzer.outcome", result),
			attribute.Int("realitycheck.analyzer.history_len", len(req.History)),
			attribute.String("realitycheck.analyzer.prompt_version", o.prompts.Version()),
		)
	}

	logArgs := []any{
		"mode", mode,
		"outcome", result,
		"history_len", len(req.History),
		"text_len", len(req.Text),
		"latency_ms", time.Since(start).Milliseconds(),
	}
	if err != nil {
		o.logger.Warn("analysis failed", append(logArgs, "error", err)...)
	} else {
		o.logger.Info("analysis finished", logArgs...)
	}
	return outcome, err
}

func (o *Orchestrator) analyze(ctx context.Context, req Request) (Outcome, error) {
	if req.FileSubmitted {
		return Outcome{Kind: OutcomeUploadDeferred, Text: UploadDeferralMessage}, nil
	}

	text := strings.TrimSpace(req.Text)
	if text == "" && len(req.History) == 0 {
		return Outcome{}, newError(KindNoContent, ErrNoContent)
	}

	messages, err := Normalize(req.History)
	if err != nil {
		return Outcome{}, newError(KindInvalidInput, err)
	}
	mode := Classify(req.History)
	prompt := o.prompts.Select(mode)

	if text != "" {
		messages = append(messages, Message{Role: RoleUser, Text: req.Text})
	}

	raw, err := o.gateway.Generate(ctx, GenerationRequest{
		SystemInstruction: prompt.Instruction,
		Messages:          messages,
		StructuredOutput:  prompt.Structured,
	})
	if err != nil {
		var aerr *Error
		if !errors.As(err, &aerr) {
			aerr = newError(KindGenerationFailed, err)
		}
		return Outcome{Mode: mode}, aerr
	}

	if !prompt.Structured {
		return Outcome{Kind: OutcomeConversationReply, Mode: mode, Text: raw}, nil
	}

	validated, err := o.validator.Validate(raw)
	if err != nil {
		return Outcome{Mode: mode}, newError(KindMalformedResult, err)
	}
	if validated.ConfidenceSynthesized {
		o.metrics.ObserveRepair("confidence")
	}
	if validated.BandingMismatch {
		o.metrics.ObserveRepair("banding_mismatch")
	}
	assessment := validated.Assessment
	return Outcome{
		Kind:                  OutcomeStructuredAnalysis,
		Mode:                  mode,
		Assessment:            &assessment,
		ConfidenceSynthesized: validated.ConfidenceSynthesized,
		BandingMismatch:       validated.BandingMismatch,
	}, nil
}
