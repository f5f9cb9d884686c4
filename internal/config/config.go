package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"post-call-insights-go/internal/extractor"
	"post-call-insights-go/internal/llm"
	"post-call-insights-go/internal/rounded"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string

	RoundedAPIKey string
	RoundedAPIURL string

	OpenAIAPIKey    string
	AnthropicAPIKey string
	GeminiAPIKey    string
	GatewayURL      string
	GatewayAPIKey   string
	UseMockLLM      bool
	LLMTimeout      time.Duration

	DefaultModel          string
	ExtractionMode        extractor.Mode
	ExtractionConcurrency int
	BatchWorkers          int
}

// AvailableModels lists the models offered to callers, with their provider.
var AvailableModels = map[string]llm.Provider{
	"gpt-4.1":           llm.ProviderOpenAI,
	"gpt-4.1-mini":      llm.ProviderOpenAI,
	"gpt-4o":            llm.ProviderOpenAI,
	"claude-3-5-sonnet": llm.ProviderAnthropic,
	"gemini-2.0-flash":  llm.ProviderGoogle,
	"mock":              llm.ProviderMock,
}

// ModelNames returns AvailableModels keys, sorted.
func ModelNames() []string {
	names := make([]string, 0, len(AvailableModels))
	for name := range AvailableModels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load reads .env (if present) and the process environment.
func Load() (Config, error) {
	_ = godotenv.Load() // loads .env
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (Config, error) {
	mode, err := extractor.ParseMode(envOr("EXTRACTION_MODE", string(extractor.ModeSequential)))
	if err != nil {
		return Config{}, err
	}
	timeoutSec, err := envInt("LLM_TIMEOUT_SEC", 60)
	if err != nil {
		return Config{}, err
	}
	concurrency, err := envInt("EXTRACTION_CONCURRENCY", 3)
	if err != nil {
		return Config{}, err
	}
	workers, err := envInt("BATCH_WORKERS", 20)
	if err != nil {
		return Config{}, err
	}

	c := Config{
		Port:                  envOr("PORT", "8080"),
		Environment:           os.Getenv("ENVIRONMENT"),
		LogLevel:              os.Getenv("LOG_LEVEL"),
		RoundedAPIKey:         os.Getenv("ROUNDED_API_KEY"),
		RoundedAPIURL:         envOr("ROUNDED_API_URL", rounded.DefaultBaseURL),
		OpenAIAPIKey:          os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey:       os.Getenv("ANTHROPIC_API_KEY"),
		GeminiAPIKey:          envOr("GEMINI_API_KEY", os.Getenv("GOOGLE_API_KEY")),
		GatewayURL:            os.Getenv("LLM_GATEWAY_URL"),
		GatewayAPIKey:         os.Getenv("LLM_API_KEY"),
		UseMockLLM:            os.Getenv("USE_MOCK_LLM") == "true",
		LLMTimeout:            time.Duration(timeoutSec) * time.Second,
		DefaultModel:          envOr("DEFAULT_MODEL", "gpt-4.1"),
		ExtractionMode:        mode,
		ExtractionConcurrency: concurrency,
		BatchWorkers:          workers,
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	if c.Port == "" {
		return errors.New("missing PORT")
	}
	if c.DefaultModel == "" {
		return errors.New("missing DEFAULT_MODEL")
	}
	if c.LLMTimeout <= 0 {
		return errors.New("LLM_TIMEOUT_SEC must be > 0")
	}
	if c.ExtractionConcurrency < 1 {
		return errors.New("EXTRACTION_CONCURRENCY must be >= 1")
	}
	if c.BatchWorkers < 1 {
		return errors.New("BATCH_WORKERS must be >= 1")
	}
	return nil
}

// LLMSettings returns the provider settings for llm.New.
func (c Config) LLMSettings() llm.Settings {
	return llm.Settings{
		OpenAIAPIKey:    c.OpenAIAPIKey,
		AnthropicAPIKey: c.AnthropicAPIKey,
		GeminiAPIKey:    c.GeminiAPIKey,
		GatewayURL:      c.GatewayURL,
		GatewayAPIKey:   c.GatewayAPIKey,
		Timeout:         c.LLMTimeout,
		UseMock:         c.UseMockLLM,
	}
}

// ExtractorOptions returns the per-request extraction settings.
func (c Config) ExtractorOptions() extractor.Options {
	return extractor.Options{
		Mode:        c.ExtractionMode,
		Concurrency: c.ExtractionConcurrency,
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}
