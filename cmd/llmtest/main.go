package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/wolfman30/realitycheck-ai/cmd/mainconfig"
	"github.com/wolfman30/realitycheck-ai/internal/analyzer"
	"github.com/wolfman30/realitycheck-ai/internal/app/bootstrap"
	appconfig "github.com/wolfman30/realitycheck-ai/internal/config"
	"github.com/wolfman30/realitycheck-ai/pkg/logging"
)

const sampleText = "This is a test contract. Client pays $5/hr."

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	serverURL := flag.String("url", "", "POST to a running server (e.g. http://localhost:3000) instead of calling the provider directly")
	text := flag.String("text", sampleText, "text to analyze")
	followUp := flag.String("follow-up", "", "optional follow-up question asked after the first analysis")
	timeout := flag.Duration("timeout", 60*time.Second, "overall timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var ok bool
	if strings.TrimSpace(*serverURL) != "" {
		ok = checkServer(ctx, strings.TrimRight(*serverURL, "/"), *text)
	} else {
		ok = checkProvider(ctx, *text, *followUp)
	}
	if !ok {
		os.Exit(1)
	}
}

// checkServer mirrors what the web client sends and verifies the wire shape.
func checkServer(ctx context.Context, baseURL, text string) bool {
	payload, _ := json.Marshal(map[string]string{"text": text})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/analyze", bytes.NewReader(payload))
	if err != nil {
		fmt.Printf("FAILURE: build request: %v\n", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("FAILURE: request failed: %v\n", err)
		return false
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Println("Status Code:", resp.StatusCode)

	var data struct {
		ResponseType string          `json:"responseType"`
		Content      json.RawMessage `json:"content"`
		Error        string          `json:"error"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		fmt.Printf("FAILURE: response is not JSON: %s\n", body)
		return false
	}
	if data.Error != "" {
		fmt.Printf("FAILURE: %s\n", data.Error)
		return false
	}

	var content map[string]any
	if err := json.Unmarshal(data.Content, &content); err != nil {
		fmt.Printf("FAILURE: content is not an analysis object (responseType=%s): %s\n", data.ResponseType, data.Content)
		return false
	}
	score, found := content["confidenceScore"]
	if !found {
		fmt.Printf("FAILURE: confidenceScore MISSING. Content: %s\n", data.Content)
		return false
	}
	fmt.Println("SUCCESS: confidenceScore found:", score)
	return true
}

// checkProvider runs the analyze pipeline in-process against the configured provider.
func checkProvider(ctx context.Context, text, followUp string) bool {
	cfg := appconfig.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Printf("FAILURE: invalid configuration: %v\n", err)
		return false
	}
	logger := logging.NewWithOptions(logging.Options{Level: "warn", Format: "text", Writer: os.Stderr})

	app, err := bootstrap.Build(ctx, cfg, logger, bootstrap.Options{
		LoadAWSConfig: mainconfig.LoadAWSConfig,
		SkipExternal:  true,
	})
	if err != nil {
		fmt.Printf("FAILURE: assemble service: %v\n", err)
		return false
	}
	defer app.Close()

	fmt.Printf("Provider: %s (fallback: %q), prompts: %s\n", cfg.LLMProvider, cfg.LLMFallbackProvider, cfg.PromptVersion)

	fmt.Println("\n[1] First analysis")
	start := time.Now()
	first, err := app.Orchestrator.Analyze(ctx, analyzer.Request{Text: text})
	if err != nil {
		fmt.Printf("    FAILURE (%v): %v\n", time.Since(start).Round(time.Millisecond), err)
		return false
	}
	if first.Assessment == nil {
		fmt.Printf("    FAILURE: expected a structured analysis, got %s\n", first.Kind)
		return false
	}
	pretty, _ := json.MarshalIndent(first.Assessment, "    ", "  ")
	fmt.Printf("    OK (%v)\n    %s\n", time.Since(start).Round(time.Millisecond), pretty)
	if first.ConfidenceSynthesized {
		fmt.Println("    note: provider omitted confidenceScore; value was synthesized")
	}
	if first.BandingMismatch {
		fmt.Println("    note: verdict does not match the score band")
	}

	if strings.TrimSpace(followUp) == "" {
		return true
	}

	fmt.Println("\n[2] Follow-up")
	history := []analyzer.Turn{
		analyzer.TextTurn(analyzer.RoleUser, text),
		analyzer.AssessmentTurn(*first.Assessment),
	}
	start = time.Now()
	reply, err := app.Orchestrator.Analyze(ctx, analyzer.Request{Text: followUp, History: history})
	if err != nil {
		fmt.Printf("    FAILURE (%v): %v\n", time.Since(start).Round(time.Millisecond), err)
		return false
	}
	fmt.Printf("    OK (%v)\n    %s\n", time.Since(start).Round(time.Millisecond), reply.Text)
	return true
}
