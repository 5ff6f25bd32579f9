package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Supported LLM providers.
const (
	ProviderGroq    = "groq"
	ProviderGemini  = "gemini"
	ProviderBedrock = "bedrock"
	ProviderOllama  = "ollama"
)

// Config holds application configuration
type Config struct {
	Port      string
	Env       string
	LogLevel  string
	LogFormat string

	LLMProvider         string
	LLMFallbackProvider string
	LLMTemperature      float64
	LLMMaxTokens        int
	PromptVersion       string

	GroqAPIKey  string
	GroqModel   string
	GroqBaseURL string

	GeminiAPIKey string
	GeminiModel  string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	BedrockModelID      string

	OllamaBaseURL string
	OllamaModel   string

	RequestTimeout     time.Duration
	MaxUploadBytes     int64
	CORSAllowedOrigins []string
	RateLimitMax       int
	RateLimitWindow    time.Duration
	ExposeErrorDetails bool
	MetricsEnabled     bool

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// DatabaseURL enables the analysis audit trail when set.
	DatabaseURL string
}

// Load reads configuration from environment variables
func Load() *Config {
	env := getEnv("ENV", "development")
	return &Config{
		Port:      getEnv("PORT", "3000"),
		Env:       env,
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		LLMProvider:         strings.ToLower(strings.TrimSpace(getEnv("LLM_PROVIDER", ProviderGroq))),
		LLMFallbackProvider: strings.ToLower(strings.TrimSpace(getEnv("LLM_FALLBACK_PROVIDER", ""))),
		LLMTemperature:      getEnvAsFloat("LLM_TEMPERATURE", 0.2),
		LLMMaxTokens:        getEnvAsInt("LLM_MAX_TOKENS", 1024),
		PromptVersion:       getEnv("PROMPT_VERSION", "framework-v2"),

		GroqAPIKey:  getEnv("GROQ_API_KEY", ""),
		GroqModel:   getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
		GroqBaseURL: getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		BedrockModelID:      getEnv("BEDROCK_MODEL_ID", ""),

		OllamaBaseURL: getEnv("OLLAMA_BASE_URL", ""),
		OllamaModel:   getEnv("OLLAMA_MODEL", "llama3.1:8b"),

		RequestTimeout:     getEnvAsDuration("REQUEST_TIMEOUT", 90*time.Second),
		MaxUploadBytes:     int64(getEnvAsInt("MAX_UPLOAD_BYTES", 5*1024*1024)),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		RateLimitMax:       getEnvAsInt("RATE_LIMIT_MAX", 15),
		RateLimitWindow:    getEnvAsDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		ExposeErrorDetails: getEnvAsBool("EXPOSE_ERROR_DETAILS", env == "development"),
		MetricsEnabled:     getEnvAsBool("METRICS_ENABLED", true),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		DatabaseURL: getEnv("DATABASE_URL", ""),
	}
}

// Validate reports settings that would leave the service unable to start.
// Missing provider credentials are not an error: the service starts and
// reports the analysis capability as unavailable per request.
func (c *Config) Validate() error {
	var errs []error
	if !knownProvider(c.LLMProvider) {
		errs = append(errs, fmt.Errorf("config: unknown LLM_PROVIDER %q", c.LLMProvider))
	}
	if c.LLMFallbackProvider != "" {
		if !knownProvider(c.LLMFallbackProvider) {
			errs = append(errs, fmt.Errorf("config: unknown LLM_FALLBACK_PROVIDER %q", c.LLMFallbackProvider))
		} else if c.LLMFallbackProvider == c.LLMProvider {
			errs = append(errs, errors.New("config: LLM_FALLBACK_PROVIDER must differ from LLM_PROVIDER"))
		}
	}
	if strings.TrimSpace(c.PromptVersion) == "" {
		errs = append(errs, errors.New("config: PROMPT_VERSION is required"))
	}
	if c.LLMTemperature < 0 || c.LLMTemperature > 2 {
		errs = append(errs, fmt.Errorf("config: LLM_TEMPERATURE %v out of range [0,2]", c.LLMTemperature))
	}
	if c.RateLimitMax <= 0 {
		errs = append(errs, errors.New("config: RATE_LIMIT_MAX must be positive"))
	}
	if c.RateLimitWindow <= 0 {
		errs = append(errs, errors.New("config: RATE_LIMIT_WINDOW must be positive"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("config: MAX_UPLOAD_BYTES must be positive"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("config: REQUEST_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

func knownProvider(p string) bool {
	switch p {
	case ProviderGroq, ProviderGemini, ProviderBedrock, ProviderOllama:
		return true
	}
	return false
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blank entries.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
