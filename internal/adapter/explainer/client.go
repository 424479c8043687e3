package explainer

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

// Client is an HTTP client for the explanation service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new explanation service client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ExplainRequest represents the request body for POST /explain-step.
type ExplainRequest struct {
	Frame        domain.Frame          `json:"frame"`
	UserBehavior domain.BehaviorSignal `json:"userBehavior"`
}

// ErrorResponse represents an error body from the explanation service.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Explain calls POST /explain-step.
func (c *Client) Explain(ctx context.Context, frame domain.Frame, behavior domain.BehaviorSignal) (*domain.Explanation, error) {
	body, err := json.Marshal(&ExplainRequest{Frame: frame, UserBehavior: behavior})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal explain request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/explain-step", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call explanation service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		var errResp ErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return nil, fmt.Errorf("explanation service error: %s", errResp.Error)
		}
		return nil, fmt.Errorf("explanation service returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var explanation domain.Explanation
	if err := json.NewDecoder(resp.Body).Decode(&explanation); err != nil {
		return nil, fmt.Errorf("failed to decode explanation: %w", err)
	}
	return &explanation, nil
}
