package rounded

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"post-call-insights-go/internal/logger"
	"post-call-insights-go/internal/types"
)

// ErrCallUnavailable is returned when a call cannot be fetched from the
// provider (unknown id, auth failure, or exhausted retries).
var ErrCallUnavailable = errors.New("call unavailable from provider")

const DefaultBaseURL = "https://api.callrounded.com/v1/calls"

// Client reads call records from the Call Rounded REST API.
type Client struct {
	apiKey       string
	baseURL      string
	http         *http.Client
	maxRetryTime time.Duration
	log          *logger.Logger
}

func NewClient(apiKey, baseURL string, timeout time.Duration, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Client{
		apiKey:       apiKey,
		baseURL:      strings.TrimRight(baseURL, "/"),
		http:         &http.Client{Timeout: timeout},
		maxRetryTime: timeout,
		log:          log.Component("rounded"),
	}
}

// GetCall returns the raw JSON record of one call.
func (c *Client) GetCall(ctx context.Context, callID string) (json.RawMessage, error) {
	callID = strings.TrimSpace(callID)
	if callID == "" {
		return nil, fmt.Errorf("%w: empty call id", ErrCallUnavailable)
	}
	raw, err := c.doJSON(ctx, c.baseURL+"/"+url.PathEscape(callID))
	if err != nil {
		c.log.WithError(err).WithField("call_id", callID).Error("call fetch failed")
		return nil, fmt.Errorf("%w: %s: %v", ErrCallUnavailable, callID, err)
	}
	return raw, nil
}

// ListCalls returns the raw JSON listing of recent calls.
func (c *Client) ListCalls(ctx context.Context, limit int) (json.RawMessage, error) {
	if limit <= 0 {
		limit = 10
	}
	u := c.baseURL + "?limit=" + strconv.Itoa(limit)
	raw, err := c.doJSON(ctx, u)
	if err != nil {
		c.log.WithError(err).Error("call listing failed")
		return nil, fmt.Errorf("%w: list: %v", ErrCallUnavailable, err)
	}
	return raw, nil
}

// FetchRequest fetches a call and converts it into an analysis request.
func (c *Client) FetchRequest(ctx context.Context, callID string) (types.CallAnalysisRequest, error) {
	raw, err := c.GetCall(ctx, callID)
	if err != nil {
		return types.CallAnalysisRequest{}, err
	}
	call, err := Decode(raw)
	if err != nil {
		return types.CallAnalysisRequest{}, fmt.Errorf("%w: %s: %v", ErrCallUnavailable, callID, err)
	}
	req := BuildRequest(call)
	c.log.WithFields(logrus.Fields{
		"call_id": req.CallID,
		"turns":   len(req.Conversation),
		"tools":   len(req.ToolResults),
		"failed":  req.FailedTools(),
	}).Info("call fetched")
	return req, nil
}

// doJSON GETs u with retry on transport and 5xx errors. 4xx responses are
// not retried.
func (c *Client) doJSON(ctx context.Context, u string) (json.RawMessage, error) {
	var out json.RawMessage
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("X-Api-Key", c.apiKey)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)

		if resp.StatusCode >= 500 {
			return fmt.Errorf("server error %d: %s", resp.StatusCode, body)
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("status %d: %s", resp.StatusCode, body))
		}
		if !json.Valid(body) {
			return backoff.Permanent(fmt.Errorf("invalid JSON body"))
		}
		out = body
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = c.maxRetryTime
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	return out, nil
}
