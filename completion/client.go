// Package completion is a minimal chat-completions client. One request
// per user turn, no streaming, no retry: a failed call is surfaced to
// the driver and the user re-triggers it by editing the file again.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sonnes/samvad/core"
)

// Defaults point at DeepSeek's OpenAI-compatible endpoint.
const (
	DefaultBaseURL = "https://api.deepseek.com/v1"
	DefaultModel   = "deepseek-chat"
)

// requestTimeout bounds the only long-running call in the system.
const requestTimeout = 30 * time.Second

// ErrNoChoices reports a well-formed response with an empty candidate
// list.
var ErrNoChoices = errors.New("completion response has no choices")

// StatusError is a non-2xx response from the completion endpoint.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("completion request failed (status %d): %s", e.Code, e.Body)
}

// Doer executes HTTP requests. *http.Client satisfies it; tests
// substitute their own.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

var defaultHTTP = &http.Client{Timeout: requestTimeout}

// Client calls a chat-completions endpoint. Zero-value fields fall
// back to the DeepSeek defaults.
type Client struct {
	// APIKey is the bearer credential. Required.
	APIKey string
	// BaseURL overrides the default endpoint.
	BaseURL string
	// Model overrides the default model identifier.
	Model string
	// HTTP overrides the default 30-second-timeout client.
	HTTP Doer
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []core.Message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message core.Message `json:"message"`
	} `json:"choices"`
}

// Complete sends the message window and returns the first candidate's
// text content.
func (c *Client) Complete(ctx context.Context, messages []core.Message) (string, error) {
	body, err := json.Marshal(chatRequest{Model: c.model(), Messages: messages})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL()+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.doer().Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(excerpt))}
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", ErrNoChoices
	}
	return decoded.Choices[0].Message.Content, nil
}

func (c *Client) model() string {
	if c.Model != "" {
		return c.Model
	}
	return DefaultModel
}

func (c *Client) baseURL() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	return DefaultBaseURL
}

func (c *Client) doer() Doer {
	if c.HTTP != nil {
		return c.HTTP
	}
	return defaultHTTP
}
