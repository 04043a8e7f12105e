package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to the task submission API over HTTP.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// New returns a client for the API server at baseURL, e.g.
// "http://localhost:8080".
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 10 * time.Second},
	}
}

// SubmitRequest mirrors the POST /submit body. A nil Priority lets the
// server pick the default.
type SubmitRequest struct {
	TaskType string         `json:"task_type"`
	Payload  map[string]any `json:"payload"`
	Priority *int           `json:"priority,omitempty"`
}

// SubmitResponse is the server's acknowledgement of an accepted task.
type SubmitResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
	SSEURL string `json:"sse_url"`
}

// Submit posts one task. Non-200 responses come back as errors carrying
// the server's own message, so callers can print them verbatim.
func (c *Client) Submit(ctx context.Context, req *SubmitRequest) (*SubmitResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode submission: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/submit", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to reach server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var out SubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}

// apiError extracts the server's {"error": ...} message from a rejected
// request. Bodies that are not the standard error document degrade to a
// bare status code.
func apiError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		return fmt.Errorf("server rejected submission: %s", body.Error)
	}
	return fmt.Errorf("server returned status %d", resp.StatusCode)
}
