package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"post-call-insights-go/internal/logger"
)

// Gateway posts OpenAI-style chat requests to a self-hosted LLM gateway and
// retries transient failures with exponential backoff.
type Gateway struct {
	url          string
	apiKey       string
	model        string
	http         *http.Client
	maxRetryTime time.Duration
	log          *logger.Logger
}

func NewGateway(url, apiKey, model string, timeout time.Duration, log *logger.Logger) *Gateway {
	if log == nil {
		log = logger.Discard()
	}
	return &Gateway{
		url:          url,
		apiKey:       apiKey,
		model:        model,
		http:         &http.Client{Timeout: timeout},
		maxRetryTime: 2 * timeout,
		log:          log.Component("llm-gateway"),
	}
}

type gatewayMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type gatewayRequest struct {
	Model       string           `json:"model"`
	Messages    []gatewayMessage `json:"messages"`
	Temperature float64          `json:"temperature"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
}

type gatewayResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (g *Gateway) Generate(ctx context.Context, req Request) (string, error) {
	messages := make([]gatewayMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, gatewayMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, gatewayMessage{Role: "user", Content: req.UserPrompt})
	data, err := json.Marshal(gatewayRequest{
		Model:       g.model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxOutputTokens,
	})
	if err != nil {
		return "", fmt.Errorf("gateway: marshal: %w", err)
	}

	var content string
	op := func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(data))
		if err != nil {
			return backoff.Permanent(err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

		resp, err := g.http.Do(httpReq)
		if err != nil {
			g.log.WithError(err).Warn("llm request failed")
			return err
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)

		switch {
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			g.log.WithField("http_status", resp.StatusCode).Warn("llm gateway unavailable, retrying")
			return fmt.Errorf("gateway status %d", resp.StatusCode)
		case resp.StatusCode >= 400:
			// Permanent: don't retry on client errors
			return backoff.Permanent(fmt.Errorf("gateway status %d: %s", resp.StatusCode, truncate(body, 200)))
		}

		var parsed gatewayResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return backoff.Permanent(fmt.Errorf("gateway: decode response: %w", err))
		}
		if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
			return backoff.Permanent(ErrEmptyOutput)
		}
		content = parsed.Choices[0].Message.Content
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = g.maxRetryTime
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return "", fmt.Errorf("gateway %s: %w", g.model, err)
	}
	return content, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
