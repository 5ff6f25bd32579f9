package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/wolfman30/realitycheck-ai/internal/config"
	"github.com/wolfman30/realitycheck-ai/internal/llm"
)

type replyClient struct {
	text string
	last llm.LLMRequest
}

func (c *replyClient) Complete(_ context.Context, req llm.LLMRequest) (llm.LLMResponse, error) {
	c.last = req
	return llm.LLMResponse{Text: c.text}, nil
}

func testAppConfig() *appconfig.Config {
	return &appconfig.Config{
		LLMProvider:        appconfig.ProviderGroq,
		LLMTemperature:     0.2,
		LLMMaxTokens:       512,
		PromptVersion:      "framework-v2",
		RequestTimeout:     10 * time.Second,
		MaxUploadBytes:     1 << 20,
		CORSAllowedOrigins: []string{"*"},
		RateLimitMax:       15,
		RateLimitWindow:    15 * time.Minute,
		MetricsEnabled:     true,
	}
}

func TestBuildRequiresConfig(t *testing.T) {
	if _, err := Build(context.Background(), nil, quietLogger(), Options{}); err == nil {
		t.Fatalf("expected error for nil config")
	}
}

func TestBuildRejectsUnknownPromptVersion(t *testing.T) {
	cfg := testAppConfig()
	cfg.PromptVersion = "does-not-exist"

	_, err := Build(context.Background(), cfg, quietLogger(), Options{LLMClient: &replyClient{}, SkipExternal: true})
	require.Error(t, err)
}

func TestBuildServesAnalyze(t *testing.T) {
	client := &replyClient{text: `{"title":"t","score":2,"verdict":"SAFE","summary":"s","riskWhy":"fine","possibleOutcomes":[],"recommendedAction":"a","redFlags":[]}`}
	app, err := Build(context.Background(), testAppConfig(), quietLogger(), Options{
		LLMClient:    client,
		Registry:     prometheus.NewRegistry(),
		SkipExternal: true,
	})
	require.NoError(t, err)
	t.Cleanup(app.Close)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(`{"text":"Is this lease fair?"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	app.Handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"responseType":"analysis"`)
	assert.True(t, client.last.JSONMode)
	assert.EqualValues(t, 512, client.last.MaxTokens)
	assert.Empty(t, client.last.Model, "each provider client applies its own model")
	assert.NotEmpty(t, rr.Header().Get("RateLimit-Limit"))

	metricsRec := httptest.NewRecorder()
	app.Handler.ServeHTTP(metricsRec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, metricsRec.Code)
	assert.Contains(t, metricsRec.Body.String(), "realitycheck_analyzer_outcomes_total")
}

func TestBuildWithoutCredentialReportsUnavailable(t *testing.T) {
	app, err := Build(context.Background(), testAppConfig(), quietLogger(), Options{SkipExternal: true})
	require.NoError(t, err)
	t.Cleanup(app.Close)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(`{"text":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	app.Handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "temporarily unavailable")
}

func TestBuildMetricsDisabled(t *testing.T) {
	cfg := testAppConfig()
	cfg.MetricsEnabled = false
	app, err := Build(context.Background(), cfg, quietLogger(), Options{LLMClient: &replyClient{text: "x"}, SkipExternal: true})
	require.NoError(t, err)
	t.Cleanup(app.Close)

	rr := httptest.NewRecorder()
	app.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
