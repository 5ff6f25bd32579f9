package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/wolfman30/realitycheck-ai/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/realitycheck-ai/internal/http/middleware"
	"github.com/wolfman30/realitycheck-ai/internal/observability/metrics"
	"github.com/wolfman30/realitycheck-ai/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	AnalyzeHandler     http.Handler
	StatsHandler       http.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// Limiter guards the /api routes. Nil disables rate limiting.
	Limiter httpmiddleware.Limiter
	Metrics *metrics.AnalysisMetrics

	RequestTimeout time.Duration
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	if cfg.AnalyzeHandler == nil {
		panic("router: analyze handler cannot be nil")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(httpmiddleware.SecurityHeaders)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(httpmiddleware.RequestLogger(logger))

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", handlers.Health)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	r.Route("/api", func(api chi.Router) {
		if cfg.Limiter != nil {
			api.Use(httpmiddleware.RateLimit(cfg.Limiter, cfg.Metrics, logger))
		}
		if cfg.RequestTimeout > 0 {
			api.Use(middleware.Timeout(cfg.RequestTimeout))
		}
		api.Method(http.MethodPost, "/analyze", cfg.AnalyzeHandler)
		if cfg.StatsHandler != nil {
			api.Method(http.MethodGet, "/stats", cfg.StatsHandler)
		}
	})

	return r
}
