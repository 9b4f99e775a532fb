// Package bot is the HTTP client for the bot runtime: the process that
// sits in the game and exposes the bot's state and an action endpoint.
package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nathoo/craftmind/agent/schema"
	"github.com/nathoo/craftmind/types"
)

// Status is the bot runtime's answer to a status poll.
type Status struct {
	Connected bool             `json:"connected"`
	Message   string           `json:"message,omitempty"`
	State     types.WorldState `json:"state"`
}

// Client talks to one bot runtime.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// New returns a client for the runtime at baseURL.
func New(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// Status polls the runtime. A reachable runtime with no bot in the
// world answers connected=false; that is a valid status, not an error.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/bot/status", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bot runtime: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bot runtime: HTTP %d", resp.StatusCode)
	}
	var s Status
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("bot runtime: %w", err)
	}
	return &s, nil
}

// Execute sends one action and returns the runtime's result string
// ("success", "error: ...") from the state it answers with. The error
// return covers transport and protocol failures only; an in-game
// failure comes back as the result text.
func (c *Client) Execute(ctx context.Context, action types.Action) (string, error) {
	body, err := json.Marshal(schema.Encode(action))
	if err != nil {
		return "", err
	}

	c.log.Debug("executing action", zap.String("kind", string(action.Kind())))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/bot/action", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("bot runtime: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bot runtime: HTTP %d", resp.StatusCode)
	}
	var state types.WorldState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return "", fmt.Errorf("bot runtime: %w", err)
	}
	return state.ActionResult, nil
}

// OutcomeFromResult classifies a runtime result string. The runtime
// reports "success" or "error: ..." normally, and free text for deaths
// and interruptions.
func OutcomeFromResult(result string) types.Outcome {
	lower := strings.ToLower(result)
	switch {
	case strings.Contains(lower, "error"),
		strings.Contains(lower, "failed"),
		strings.Contains(lower, "died"):
		return types.OutcomeFailure
	case strings.Contains(lower, "success"):
		return types.OutcomeSuccess
	default:
		return types.OutcomeUnknown
	}
}
