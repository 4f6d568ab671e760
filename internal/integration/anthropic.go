package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	anthropicVersion      = "2023-06-01"
	defaultAnthropicURL   = "https://api.anthropic.com"
	defaultAnthropicModel = "claude-sonnet-4-20250514"
	defaultMaxTokens      = 1024
)

// AnthropicConfig configures the Messages API client.
type AnthropicConfig struct {
	APIURL            string
	APIKey            string
	Model             string
	MaxTokens         int
	RequestsPerMinute int
	HTTP              HTTPConfig
}

// Completer sends a single-turn prompt to a language model and returns the
// text of its answer.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// AnthropicClient calls the Anthropic Messages API. Requests are rate
// limited and retried on transient failures.
type AnthropicClient struct {
	http      *httpDoer
	limiter   *rate.Limiter
	apiURL    string
	apiKey    string
	model     string
	maxTokens int
}

// NewAnthropicClient creates an AnthropicClient. A RequestsPerMinute of
// zero disables rate limiting.
func NewAnthropicClient(cfg AnthropicConfig) *AnthropicClient {
	apiURL := strings.TrimRight(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = defaultAnthropicURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultAnthropicModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	}
	return &AnthropicClient{
		http:      newHTTPDoer(cfg.HTTP),
		limiter:   rate.NewLimiter(limit, 1),
		apiURL:    apiURL,
		apiKey:    cfg.APIKey,
		model:     model,
		maxTokens: maxTokens,
	}
}

// IsConfigured reports whether an API key is present.
func (c *AnthropicClient) IsConfigured() bool {
	return c.apiKey != ""
}

type messagesRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []promptMessage `json:"messages"`
}

type promptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Complete sends prompt as a user message and returns the concatenated text
// blocks of the reply. maxTokens of zero uses the configured default.
func (c *AnthropicClient) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("anthropic: api key is not configured")
	}
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}
	payload, err := json.Marshal(messagesRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages:  []promptMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic: marshal request: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("anthropic: rate limiter: %w", err)
	}

	resp, err := c.http.do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/v1/messages", bytes.NewReader(payload))
		if reqErr != nil {
			return nil, fmt.Errorf("anthropic: create request: %w", reqErr)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-API-Key", c.apiKey)
		req.Header.Set("Anthropic-Version", anthropicVersion)
		return req, nil
	})
	if err != nil {
		return "", fmt.Errorf("anthropic: request failed: %w", err)
	}
	defer resp.Body.Close()

	var out messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("anthropic: decode response: %w", err)
	}
	var b strings.Builder
	for _, block := range out.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", errors.New("anthropic: response contained no text")
	}
	return b.String(), nil
}

// extractJSON returns the outermost span of text between the first open and
// the last close delimiter, tolerating prose or code fences around a model's
// JSON answer.
func extractJSON(text string, open, close byte) (string, error) {
	start := strings.IndexByte(text, open)
	end := strings.LastIndexByte(text, close)
	if start < 0 || end <= start {
		return "", fmt.Errorf("no JSON %c...%c found in model response", open, close)
	}
	return text[start : end+1], nil
}
