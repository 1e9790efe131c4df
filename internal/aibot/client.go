// Package aibot talks to the AI backend that runs agent research and QAi turns.
package aibot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Harshitk-cp/outreach/internal/buildconfig"
	"github.com/Harshitk-cp/outreach/internal/domain"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	researchPath = "/research"
	conversePath = "/qai/converse"

	// maxErrorBody bounds how much of a failed response ends up in the error.
	maxErrorBody = 512
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// SubmitResearch hands an agent run to the backend. It only waits for the
// acknowledgement; results arrive through the callback URL in req.
func (c *Client) SubmitResearch(ctx context.Context, req domain.ResearchRequest) (*domain.ResearchAck, error) {
	var ack domain.ResearchAck
	raw, err := c.post(ctx, researchPath, req)
	if err != nil {
		return nil, fmt.Errorf("research: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return &domain.ResearchAck{Success: true}, nil
	}
	if err := json.Unmarshal(raw, &ack); err != nil {
		return nil, fmt.Errorf("research: unmarshal ack: %w", err)
	}
	return &ack, nil
}

func (c *Client) Converse(ctx context.Context, req domain.ConverseRequest) (*domain.ConverseResponse, error) {
	raw, err := c.post(ctx, conversePath, req)
	if err != nil {
		return nil, fmt.Errorf("converse: %w", err)
	}
	var resp domain.ConverseResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("converse: unmarshal response: %w", err)
	}
	return &resp, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", buildconfig.UserAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(respBody) > maxErrorBody {
			respBody = respBody[:maxErrorBody]
		}
		return nil, fmt.Errorf("AI server returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}
