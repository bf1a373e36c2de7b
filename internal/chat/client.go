package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/moodtunes/moodtunes-api/internal/models"
)

const maxErrorBodyBytes = 4096

// SetupError indicates the streaming request failed before any content was
// delivered (transport error or non-200 status). No partial turn exists yet
// when one of these is raised.
type SetupError struct {
	StatusCode int
	Message    string
}

func (e *SetupError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("failed to stream response (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("failed to stream response (status %d)", e.StatusCode)
}

// Client issues streaming chat requests against the relay endpoint
type Client struct {
	baseURL string
	httpc   *http.Client
}

// NewClient creates a client for the relay at baseURL (no trailing slash)
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{},
	}
}

// OpenStream POSTs the trimmed conversation to the streaming endpoint and
// returns the live response body. The caller owns the body and must close it
// exactly once. A non-200 status is returned as a *SetupError.
func (c *Client) OpenStream(ctx context.Context, messages []models.Message) (io.ReadCloser, error) {
	payload, err := json.Marshal(models.ChatRequest{Messages: messages})
	if err != nil {
		return nil, fmt.Errorf("failed to encode messages: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/chat-bot/chat-stream", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build stream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stream request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer func() { _ = resp.Body.Close() }()
		return nil, &SetupError{
			StatusCode: resp.StatusCode,
			Message:    readErrorMessage(resp.Body),
		}
	}

	return resp.Body, nil
}

// readErrorMessage extracts the message from a {success:false, message} body
func readErrorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBodyBytes))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var parsed struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return ""
	}
	return parsed.Message
}
