package measurement

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// ThousandEyes v6 API paths.
const (
	pathEndpointInstantHTTPServer    = "/endpoint-instant/http-server.json"
	pathEndpointInstantAgentToServer = "/endpoint-instant/agent-to-server.json"
	pathInstantHTTPServer            = "/instant/http-server.json"
	pathInstantAgentToServer         = "/instant/agent-to-server.json"
	pathEndpointAgents               = "/endpoint-agents.json"
	pathAgents                       = "/agents.json"
)

type ClientConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client is the authenticated ThousandEyes API client shared by the resolver,
// the dispatcher, and the correlator. Calls are stateless; the underlying
// transport pools connections.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     *slog.Logger
}

func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		logger:  logger,
	}
}

// Get fetches a path relative to the API base.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	return c.FetchLink(ctx, c.baseURL+path)
}

// FetchLink fetches an absolute URL, typically an apiLinks href from a
// creation response.
func (c *Client) FetchLink(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	return c.do(req)
}

// PostJSON posts a JSON payload to a path relative to the API base and
// returns the raw response body.
func (c *Client) PostJSON(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Debug("measurement API call",
		"method", req.Method,
		"url", req.URL.String(),
		"status", resp.StatusCode,
		"latency", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, fmt.Errorf("measurement API returned status %d", resp.StatusCode)
	}

	return body, nil
}
