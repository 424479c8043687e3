package tracegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xiaot623/algostream/internal/domain"
)

// Client is an HTTP client for the trace generator.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new trace generator client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ExecuteRequest represents the request body for POST /execute.
type ExecuteRequest struct {
	AlgorithmID string `json:"algorithmId"`
	Array       []int  `json:"array"`
}

// ExecuteResponse represents the response of POST /execute.
type ExecuteResponse struct {
	Trace []json.RawMessage `json:"trace"`
	Error string            `json:"error,omitempty"`
}

// ErrorResponse represents an error body from the generator.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// Generate calls POST /execute and decodes the returned frames.
func (c *Client) Generate(ctx context.Context, algorithmID string, array []int) ([]domain.Frame, error) {
	body, err := json.Marshal(&ExecuteRequest{AlgorithmID: algorithmID, Array: array})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal execute request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/execute", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call trace generator: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		var errResp ErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil {
			if errResp.Error != "" {
				return nil, fmt.Errorf("trace generator error: %s", errResp.Error)
			}
			if errResp.Detail != "" {
				return nil, fmt.Errorf("trace generator error: %s", errResp.Detail)
			}
		}
		return nil, fmt.Errorf("trace generator returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var execResp ExecuteResponse
	if err := json.NewDecoder(resp.Body).Decode(&execResp); err != nil {
		return nil, fmt.Errorf("failed to decode execute response: %w", err)
	}
	if execResp.Error != "" {
		return nil, fmt.Errorf("trace generator error: %s", execResp.Error)
	}

	frames := make([]domain.Frame, 0, len(execResp.Trace))
	for i, raw := range execResp.Trace {
		frame, err := domain.NewFrame(raw)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		frames = append(frames, frame)
	}
	return frames, nil
}
