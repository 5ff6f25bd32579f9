// Package bootstrap wires configuration into the running analyze service.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/realitycheck-ai/internal/analyzer"
	"github.com/wolfman30/realitycheck-ai/internal/api/router"
	appconfig "github.com/wolfman30/realitycheck-ai/internal/config"
	"github.com/wolfman30/realitycheck-ai/internal/http/handlers"
	"github.com/wolfman30/realitycheck-ai/internal/llm"
	"github.com/wolfman30/realitycheck-ai/internal/observability/metrics"
	"github.com/wolfman30/realitycheck-ai/pkg/logging"
)

// Options overrides parts of the wiring, mostly for tests and the smoke check.
type Options struct {
	LoadAWSConfig AWSConfigLoader
	// LLMClient skips provider construction when set.
	LLMClient llm.LLMClient
	// Registry defaults to a fresh registry with Go and process collectors.
	Registry *prometheus.Registry
	// SkipExternal disables Redis and Postgres even when configured.
	SkipExternal bool
}

// App is the assembled service.
type App struct {
	Handler      http.Handler
	Orchestrator *analyzer.Orchestrator
	Metrics      *metrics.AnalysisMetrics
	Provider     string

	closers []func()
}

// Close releases every connection opened by Build, in reverse order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) addCloser(fn func()) {
	if fn != nil {
		a.closers = append(a.closers, fn)
	}
}

// Build assembles the analyze pipeline and HTTP router from cfg.
func Build(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, opts Options) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	app := &App{Provider: cfg.LLMProvider}

	registry := opts.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	app.Metrics = metrics.NewAnalysisMetrics(registry)

	client := opts.LLMClient
	if client == nil {
		provider, err := BuildLLMClient(ctx, cfg, opts.LoadAWSConfig, logger)
		if err != nil {
			return nil, err
		}
		app.addCloser(provider.Close)
		client = provider.Client
	}

	prompts, err := analyzer.NewPromptSelector(cfg.PromptVersion)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	gateway := analyzer.NewLLMGateway(client, analyzer.GatewayConfig{
		Provider:    cfg.LLMProvider,
		MaxTokens:   int32(cfg.LLMMaxTokens),
		Temperature: float32(cfg.LLMTemperature),
	},
		analyzer.WithGatewayMetrics(app.Metrics),
		analyzer.WithGatewayLogger(logger),
	)
	app.Orchestrator = analyzer.NewOrchestrator(gateway, prompts,
		analyzer.WithMetrics(app.Metrics),
		analyzer.WithLogger(logger),
	)

	routerCfg := &router.Config{
		Logger:             logger,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Metrics:            app.Metrics,
		RequestTimeout:     cfg.RequestTimeout,
	}
	if cfg.MetricsEnabled {
		routerCfg.MetricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	}

	var recorder handlers.EventRecorder
	if !opts.SkipExternal {
		redisClient := BuildRedisClient(ctx, cfg, logger, true)
		if redisClient != nil {
			app.addCloser(func() { _ = redisClient.Close() })
		}
		limiter, closeLimiter := BuildLimiter(cfg, redisClient, logger)
		app.addCloser(closeLimiter)
		routerCfg.Limiter = limiter

		store, closeStore := BuildAuditStore(ctx, cfg, logger)
		app.addCloser(closeStore)
		if store != nil {
			recorder = store
			routerCfg.StatsHandler = handlers.NewStatsHandler(store, logger)
		}
	} else {
		limiter, closeLimiter := BuildLimiter(cfg, nil, logger)
		app.addCloser(closeLimiter)
		routerCfg.Limiter = limiter
	}

	routerCfg.AnalyzeHandler = handlers.NewAnalyzeHandler(app.Orchestrator, recorder, handlers.AnalyzeConfig{
		MaxUploadBytes:     cfg.MaxUploadBytes,
		ExposeErrorDetails: cfg.ExposeErrorDetails,
		PromptVersion:      prompts.Version(),
		Provider:           cfg.LLMProvider,
	}, logger)

	app.Handler = router.New(routerCfg)
	logger.Info("analyze service assembled",
		"provider", cfg.LLMProvider,
		"prompt_version", prompts.Version(),
		"audit_trail", recorder != nil,
		"rate_limited", routerCfg.Limiter != nil,
	)
	return app, nil
}
