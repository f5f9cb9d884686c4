package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"post-call-insights-go/internal/logger"
)

var (
	// ErrNoClient means no usable provider client could be built.
	ErrNoClient = errors.New("llm client not initialized")
	// ErrUnknownModel is returned for model names no provider serves.
	ErrUnknownModel = errors.New("unsupported model")
	// ErrEmptyOutput is returned when the provider answered without text.
	ErrEmptyOutput = errors.New("empty model output")
)

// Request is one chat/generation call.
type Request struct {
	UserPrompt      string
	SystemPrompt    string
	Temperature     float64
	MaxOutputTokens int
}

// Generator executes a prompt against a model and returns its raw text.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

type Provider string

const (
	ProviderOpenAI    Provider = "OpenAI"
	ProviderAnthropic Provider = "Anthropic"
	ProviderGoogle    Provider = "Google"
	ProviderGateway   Provider = "Gateway"
	ProviderMock      Provider = "Mock"
)

// GatewayPrefix routes a model through the OpenAI-compatible gateway,
// e.g. "gateway/llama-3.1-70b".
const GatewayPrefix = "gateway/"

// ProviderFor resolves the provider serving model.
func ProviderFor(model string) (Provider, error) {
	m := strings.ToLower(strings.TrimSpace(model))
	switch {
	case m == "mock":
		return ProviderMock, nil
	case strings.HasPrefix(m, GatewayPrefix) && strings.TrimSpace(m[len(GatewayPrefix):]) != "":
		return ProviderGateway, nil
	case strings.HasPrefix(m, "gpt-"), strings.HasPrefix(m, "o1"), strings.HasPrefix(m, "o3"), strings.HasPrefix(m, "o4"):
		return ProviderOpenAI, nil
	case strings.HasPrefix(m, "claude-"):
		return ProviderAnthropic, nil
	case strings.HasPrefix(m, "gemini"):
		return ProviderGoogle, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownModel, model)
}

// Settings holds credentials and endpoints for every provider.
type Settings struct {
	OpenAIAPIKey    string
	AnthropicAPIKey string
	GeminiAPIKey    string
	GatewayURL      string
	GatewayAPIKey   string
	Timeout         time.Duration
	// UseMock forces the offline generator regardless of model.
	UseMock bool

	// Endpoint overrides, mostly for tests.
	OpenAIBaseURL    string
	AnthropicBaseURL string
	GeminiBaseURL    string
}

// New builds the generator for model. A missing key or unknown model is a
// construction error: the caller cannot produce any statistics without it.
func New(model string, s Settings, log *logger.Logger) (Generator, error) {
	if log == nil {
		log = logger.Discard()
	}
	log = log.Component("llm").With("model", model)
	if s.UseMock {
		log.Info("mock LLM mode ON")
		return NewMock(), nil
	}
	p, err := ProviderFor(model)
	if err != nil {
		return nil, err
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	switch p {
	case ProviderMock:
		return NewMock(), nil
	case ProviderOpenAI:
		if strings.TrimSpace(s.OpenAIAPIKey) == "" {
			return nil, fmt.Errorf("%w: OPENAI_API_KEY not set", ErrNoClient)
		}
		return NewOpenAI(strings.TrimSpace(s.OpenAIAPIKey), model, s.OpenAIBaseURL, timeout), nil
	case ProviderAnthropic:
		if strings.TrimSpace(s.AnthropicAPIKey) == "" {
			return nil, fmt.Errorf("%w: ANTHROPIC_API_KEY not set", ErrNoClient)
		}
		return NewAnthropic(strings.TrimSpace(s.AnthropicAPIKey), model, s.AnthropicBaseURL, timeout), nil
	case ProviderGoogle:
		if strings.TrimSpace(s.GeminiAPIKey) == "" {
			return nil, fmt.Errorf("%w: GEMINI_API_KEY not set", ErrNoClient)
		}
		return NewGemini(strings.TrimSpace(s.GeminiAPIKey), model, s.GeminiBaseURL, timeout), nil
	case ProviderGateway:
		if s.GatewayURL == "" || s.GatewayAPIKey == "" {
			return nil, fmt.Errorf("%w: llm gateway not configured", ErrNoClient)
		}
		name := strings.TrimSpace(strings.TrimSpace(model)[len(GatewayPrefix):])
		return NewGateway(s.GatewayURL, s.GatewayAPIKey, name, timeout, log), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownModel, model)
}
