// Package client provides HTTP clients for communicating with latencyscaler services.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/HatiCode/latencyscaler/pkg/api"
	"github.com/HatiCode/latencyscaler/pkg/httpx"
	"github.com/HatiCode/latencyscaler/pkg/metric"
)

// EvaluatorClient is an HTTP client for the evaluate endpoint of serve mode.
// It is safe for concurrent use by multiple goroutines.
type EvaluatorClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewEvaluatorClient creates a new client for a latencyscaler server.
// The baseURL should include the scheme and host (e.g., "http://localhost:8080").
// A default timeout of 5 seconds is used for HTTP requests.
func NewEvaluatorClient(baseURL string) *EvaluatorClient {
	return NewEvaluatorClientWithTimeout(baseURL, 5*time.Second)
}

// NewEvaluatorClientWithTimeout creates a new client with a custom timeout.
func NewEvaluatorClientWithTimeout(baseURL string, timeout time.Duration) *EvaluatorClient {
	return &EvaluatorClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Evaluate submits snapshot for resource and returns the target replica count.
// Server-side failures are returned with the server's error message.
func (c *EvaluatorClient) Evaluate(ctx context.Context, resource string, snapshot metric.Snapshot, runType string) (int, error) {
	if resource == "" {
		return 0, fmt.Errorf("resource cannot be empty")
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return 0, fmt.Errorf("invalid base URL: %w", err)
	}
	u.Path = "/evaluate"
	query := u.Query()
	query.Set("resource", resource)
	u.RawQuery = query.Encode()

	payload, err := api.NewEvaluateRequest(snapshot, runType)
	if err != nil {
		return 0, err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp httpx.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
			return 0, fmt.Errorf("evaluation failed with status %d: %s", resp.StatusCode, errResp.Error)
		}
		return 0, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var evalResp api.EvaluateResponse
	if err := json.NewDecoder(resp.Body).Decode(&evalResp); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}
	return evalResp.TargetReplicas, nil
}
