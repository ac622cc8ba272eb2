// Package genai is a thin client for the remote text-generation endpoint.
//
// The endpoint is an opaque chat-completions HTTP JSON API: the client owns
// only request construction, content extraction, and failure classification
// (transport error vs. empty content vs. HTTP status). Callers decide what a
// failure means; this package never falls back on its own.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"bizmatch/internal/common/logger"
)

var (
	// ErrNotConfigured is returned when no API credential is set.
	ErrNotConfigured = errors.New("GENAI_NOT_CONFIGURED")
	// ErrEmptyContent is returned when the endpoint answered 200 but the
	// first choice carried no content.
	ErrEmptyContent = errors.New("GENAI_EMPTY_CONTENT")
)

// StatusError is a non-200 response from the endpoint. Rate limiting (429) is
// classified through this type so callers can word their fallback differently.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("genai endpoint returned status %d", e.Code)
}

// IsRateLimited reports whether err is an HTTP 429 from the endpoint.
func IsRateLimited(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusTooManyRequests
}

// Config holds the client settings. An empty APIKey disables the client.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Message is one chat message in a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model          string         `json:"model"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat responseFormat `json:"response_format"`
	Messages       []Message      `json:"messages"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type Client struct {
	config Config
	client *http.Client
	logger logger.Logger
}

func NewClient(config Config, log logger.Logger) *Client {
	return &Client{
		config: config,
		client: &http.Client{
			// No client-level timeout; the per-call context bounds the request.
		},
		logger: log.WithFields(map[string]interface{}{"component": "genai"}),
	}
}

// Enabled reports whether a remote-service credential is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.config.APIKey != ""
}

// CompleteJSON performs one chat completion in json_object mode and returns
// the raw content of the first choice. No retries: a single failed attempt is
// the caller's signal to fall back.
func (c *Client) CompleteJSON(ctx context.Context, temperature float64, messages []Message) (string, error) {
	if !c.Enabled() {
		return "", ErrNotConfigured
	}

	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(completionRequest{
		Model:          c.config.Model,
		Temperature:    temperature,
		ResponseFormat: responseFormat{Type: "json_object"},
		Messages:       messages,
	})
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("genai transport error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		c.logger.Warn("genai non-200 response", map[string]interface{}{
			"status": resp.StatusCode,
		})
		return "", &StatusError{Code: resp.StatusCode, Body: buf.String()}
	}

	var parsed completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}

	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", ErrEmptyContent
	}

	return parsed.Choices[0].Message.Content, nil
}
