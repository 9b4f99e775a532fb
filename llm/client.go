// Package llm is the client for an OpenAI-compatible chat completion
// endpoint. The provider is chosen by base URL and model name in the
// config; the wire format is the same for all of them.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// maxHistory bounds the conversation messages carried between calls.
const maxHistory = 10

// maxAttempts is how many times one completion is tried.
const maxAttempts = 3

// Config selects the endpoint and sampling parameters.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Client calls the chat completion endpoint. Safe for concurrent use,
// though callers normally serialize on the decision loop.
type Client struct {
	cfg  Config
	http *http.Client
	log  *zap.Logger

	mu      sync.Mutex
	history []message
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	Stream      bool      `json:"stream"`
}

type completionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

// New returns a client for the configured endpoint.
func New(cfg Config, log *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log,
	}
}

// SamplingParams exposes the parameters that identify a request for
// response caching.
func (c *Client) SamplingParams() (temperature float64, maxTokens int) {
	return c.cfg.Temperature, c.cfg.MaxTokens
}

// Chat sends the system prompt, the carried history, and the user
// prompt, and returns the model's text. Transport failures, HTTP 429,
// and 5xx responses are retried with a growing pause; other failures
// are final. The exchange joins the history only on success.
func (c *Client) Chat(ctx context.Context, system, user string) (string, error) {
	c.mu.Lock()
	messages := make([]message, 0, len(c.history)+2)
	messages = append(messages, message{Role: "system", Content: system})
	messages = append(messages, c.history...)
	messages = append(messages, message{Role: "user", Content: user})
	c.mu.Unlock()

	body, err := json.Marshal(completionRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return "", err
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			pause := time.Duration(attempt-1) * time.Second
			c.log.Debug("retrying completion",
				zap.Int("attempt", attempt),
				zap.Duration("pause", pause),
				zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(pause):
			}
		}

		content, retryable, err := c.complete(ctx, body)
		if err == nil {
			c.remember(user, content)
			return content, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return "", lastErr
}

// complete performs one HTTP round trip. retryable marks failures worth
// another attempt.
func (c *Client) complete(ctx context.Context, body []byte) (content string, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", false, err
		}
		return "", true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		err := fmt.Errorf("completion endpoint: HTTP %d", resp.StatusCode)
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return "", retryable, err
	}

	var cr completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", false, fmt.Errorf("completion endpoint: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", false, errors.New("completion endpoint: no choices in response")
	}
	content = cr.Choices[0].Message.Content
	if content == "" {
		return "", false, errors.New("completion endpoint: empty content")
	}
	return content, false, nil
}

// remember appends the exchange to the carried history, oldest dropped.
func (c *Client) remember(user, assistant string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.history = append(c.history,
		message{Role: "user", Content: user},
		message{Role: "assistant", Content: assistant})
	if len(c.history) > maxHistory {
		c.history = c.history[len(c.history)-maxHistory:]
	}
}

// ClearHistory drops the carried conversation.
func (c *Client) ClearHistory() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = nil
}
