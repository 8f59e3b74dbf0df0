package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"time"
)

const (
	defaultMaxAttempts = 5
	defaultBaseDelay   = 1 * time.Second
	defaultMaxDelay    = 60 * time.Second
	defaultMaxJitter   = 1 * time.Second
	apiVersion         = "2023-06-01"
)

// Provider is the orchestration core's sole view of the external LLM.
// Implementations must never block indefinitely; a bounded retry budget
// caps worst-case latency.
type Provider interface {
	Send(ctx context.Context, prompt, systemInstructions string, maxTokens int) (string, error)
}

// AIProviderClient talks to an Anthropic-style messages endpoint. It retries
// throttling (429) and transient server/network failures with exponential
// backoff plus jitter, and returns ErrProviderUnavailable once the attempt
// ceiling is reached. Stateless beyond the shared http.Client.
type AIProviderClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client

	// Retry knobs, overridable in tests
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	maxJitter   time.Duration
}

func NewAIProviderClient(cfg AIConfig) *AIProviderClient {
	return &AIProviderClient{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
		maxDelay:    defaultMaxDelay,
		maxJitter:   defaultMaxJitter,
	}
}

type messageRequest struct {
	Model     string           `json:"model"`
	MaxTokens int              `json:"max_tokens"`
	System    string           `json:"system,omitempty"`
	Messages  []requestMessage `json:"messages"`
}

type requestMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Send submits a prompt and returns the model's raw text
func (c *AIProviderClient) Send(ctx context.Context, prompt, systemInstructions string, maxTokens int) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		text, retryable, err := c.doRequest(ctx, prompt, systemInstructions, maxTokens)
		if err == nil {
			return text, nil
		}
		if !retryable {
			slog.Error("AI provider request rejected", "error", err, "attempt", attempt)
			return "", err
		}
		lastErr = err

		if attempt == c.maxAttempts {
			break
		}

		delay := c.backoffDelay(attempt)
		slog.Warn("AI provider request failed, retrying", "error", err, "attempt", attempt, "delay", delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", fmt.Errorf("request cancelled during backoff: %w", ctx.Err())
		}
	}

	slog.Error("AI provider retries exhausted", "error", lastErr, "attempts", c.maxAttempts)
	return "", fmt.Errorf("%w: %v", ErrProviderUnavailable, lastErr)
}

// doRequest performs one HTTP round trip. The second return value reports
// whether the failure is worth retrying.
func (c *AIProviderClient) doRequest(ctx context.Context, prompt, system string, maxTokens int) (string, bool, error) {
	reqBody := messageRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		System:    system,
		Messages: []requestMessage{
			{Role: "user", Content: prompt},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", false, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(jsonData))
	if err != nil {
		return "", false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", false, fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return "", true, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", true, fmt.Errorf("provider throttled request (status %d)", resp.StatusCode)
	case resp.StatusCode >= http.StatusInternalServerError:
		return "", true, fmt.Errorf("provider server error (status %d): %s", resp.StatusCode, string(body))
	case resp.StatusCode != http.StatusOK:
		return "", false, fmt.Errorf("provider rejected request (status %d): %s", resp.StatusCode, string(body))
	}

	var msgResp messageResponse
	if err := json.Unmarshal(body, &msgResp); err != nil {
		return "", false, fmt.Errorf("failed to parse provider response: %w", err)
	}
	if msgResp.Error != nil {
		return "", false, fmt.Errorf("provider error: %s", msgResp.Error.Message)
	}
	if len(msgResp.Content) == 0 {
		return "", false, fmt.Errorf("provider returned no content")
	}

	var text bytes.Buffer
	for _, block := range msgResp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return text.String(), false, nil
}

// backoffDelay computes min(base * 2^(attempt-1), cap) plus random jitter
func (c *AIProviderClient) backoffDelay(attempt int) time.Duration {
	delay := c.baseDelay << (attempt - 1)
	if delay > c.maxDelay || delay <= 0 {
		delay = c.maxDelay
	}
	if c.maxJitter > 0 {
		delay += time.Duration(rand.Int63n(int64(c.maxJitter)))
	}
	return delay
}
