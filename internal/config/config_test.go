package config

import (
	"testing"
	"time"

	"post-call-insights-go/internal/extractor"
	"post-call-insights-go/internal/llm"
)

var envKeys = []string{
	"PORT", "ENVIRONMENT", "LOG_LEVEL", "ROUNDED_API_KEY", "ROUNDED_API_URL",
	"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY",
	"LLM_GATEWAY_URL", "LLM_API_KEY", "USE_MOCK_LLM", "LLM_TIMEOUT_SEC",
	"DEFAULT_MODEL", "EXTRACTION_MODE", "EXTRACTION_CONCURRENCY", "BATCH_WORKERS",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	c, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if c.Port != "8080" || c.DefaultModel != "gpt-4.1" || c.RoundedAPIURL != "https://api.callrounded.com/v1/calls" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.LLMTimeout != 60*time.Second || c.ExtractionMode != extractor.ModeSequential {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.ExtractionConcurrency != 3 || c.BatchWorkers != 20 || c.UseMockLLM {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("GOOGLE_API_KEY", "g-key")
	t.Setenv("USE_MOCK_LLM", "true")
	t.Setenv("LLM_TIMEOUT_SEC", "15")
	t.Setenv("EXTRACTION_MODE", "Parallel")
	t.Setenv("BATCH_WORKERS", "4")

	c, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if c.Port != "9090" || c.GeminiAPIKey != "g-key" || !c.UseMockLLM {
		t.Fatalf("unexpected config: %+v", c)
	}
	if c.ExtractionMode != extractor.ModeParallel || c.BatchWorkers != 4 {
		t.Fatalf("unexpected config: %+v", c)
	}
	s := c.LLMSettings()
	if !s.UseMock || s.Timeout != 15*time.Second || s.GeminiAPIKey != "g-key" {
		t.Fatalf("unexpected settings: %+v", s)
	}
	if o := c.ExtractorOptions(); o.Mode != extractor.ModeParallel || o.Concurrency != 3 {
		t.Fatalf("unexpected options: %+v", o)
	}
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"LLM_TIMEOUT_SEC":        "soon",
		"EXTRACTION_MODE":        "turbo",
		"BATCH_WORKERS":          "0",
		"EXTRACTION_CONCURRENCY": "-1",
	}
	for k, v := range cases {
		t.Run(k, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(k, v)
			if _, err := FromEnv(); err == nil {
				t.Fatalf("%s=%s accepted", k, v)
			}
		})
	}
}

func TestAvailableModelsResolve(t *testing.T) {
	for _, name := range ModelNames() {
		p, err := llm.ProviderFor(name)
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if p != AvailableModels[name] {
			t.Errorf("%s: provider %s, table says %s", name, p, AvailableModels[name])
		}
	}
}
