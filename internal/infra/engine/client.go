// Package engine is the HTTP client for the external n8n workflow engine.
// Its whole contract with this service: accept the forwarded JSON, run the
// scraping workflow out of band, and eventually POST results back to the
// callback URL.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tiktok-scraping-service/internal/config"
	"tiktok-scraping-service/internal/domain/ports/adapter"
	"tiktok-scraping-service/internal/infra/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var _ adapter.WorkflowEngine = (*Client)(nil)

type Client struct {
	accountWebhookURL string
	hashtagWebhookURL string
	statusURL         string
	http              *http.Client
	log               *zerolog.Logger
}

func NewClient(cfg config.EngineConfig, logger *zerolog.Logger) *Client {
	l := logger.With().Str("component", "EngineClient").Logger()
	return &Client{
		accountWebhookURL: cfg.AccountWebhookURL,
		hashtagWebhookURL: cfg.HashtagWebhookURL,
		statusURL:         strings.TrimSuffix(cfg.StatusURL, "/"),
		http:              &http.Client{Timeout: cfg.Timeout},
		log:               &l,
	}
}

// Trigger forwards one normalized scrape request to the webhook matching the
// request kind and returns the engine's execution id. Exactly one outbound
// call; no internal retries.
func (c *Client) Trigger(ctx context.Context, req adapter.TriggerRequest) (string, error) {
	url := c.accountWebhookURL
	if len(req.Hashtags) > 0 {
		url = c.hashtagWebhookURL
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	start := time.Now()
	status, respBody, err := c.post(ctx, url, body)
	metrics.ObserveTriggerLatency(time.Since(start).Milliseconds(), err == nil && status < 300)
	if err != nil {
		metrics.IncEngineError("trigger")
		return "", fmt.Errorf("trigger webhook: %w", err)
	}
	if status < 200 || status >= 300 {
		metrics.IncEngineError("trigger")
		return "", fmt.Errorf("trigger webhook: status %d, body: %s", status, truncate(respBody, 256))
	}

	var out struct {
		ExecutionID string `json:"executionId"`
		ID          string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("trigger webhook: decode response: %w", err)
	}
	execID := out.ExecutionID
	if execID == "" {
		execID = out.ID
	}
	if execID == "" {
		return "", fmt.Errorf("trigger webhook: response missing executionId")
	}
	c.log.Debug().Str("execution_id", execID).Str("session", req.SessionName).Msg("workflow triggered")
	return execID, nil
}

// ExecutionStatus asks the engine for the state of a running workflow.
func (c *Client) ExecutionStatus(ctx context.Context, executionID string) (adapter.RunState, error) {
	url := c.statusURL + "/" + executionID
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.IncEngineError("status")
		return "", fmt.Errorf("execution status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.IncEngineError("status")
		return "", fmt.Errorf("execution status: status %d", resp.StatusCode)
	}

	var out struct {
		Status   string `json:"status"`
		Finished bool   `json:"finished"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("execution status: decode response: %w", err)
	}
	return mapRunState(out.Status, out.Finished), nil
}

// Forward relays a raw proxy payload verbatim to the webhook chosen by the
// caller and returns the engine's raw reply.
func (c *Client) Forward(ctx context.Context, body []byte, hashtag bool) (int, []byte, error) {
	url := c.accountWebhookURL
	if hashtag {
		url = c.hashtagWebhookURL
	}
	status, respBody, err := c.post(ctx, url, body)
	if err != nil {
		metrics.IncEngineError("proxy")
	}
	return status, respBody, err
}

func (c *Client) post(ctx context.Context, url string, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	// lets engine-side logs be correlated with ours
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, respBody, nil
}

// mapRunState folds the engine's status vocabulary into the three states the
// poll loop cares about.
func mapRunState(status string, finished bool) adapter.RunState {
	switch strings.ToLower(status) {
	case "success", "succeeded", "completed":
		return adapter.RunStateCompleted
	case "failed", "error", "crashed", "canceled", "cancelled":
		return adapter.RunStateFailed
	}
	if finished {
		return adapter.RunStateCompleted
	}
	return adapter.RunStateRunning
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
