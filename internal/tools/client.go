// Package tools exposes the anyclick MCP tool surface. The tools talk
// to a running `anyclick serve` instance over its local HTTP API, so an
// agent can file feedback and surface toasts without touching the
// browser.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the local anyclick server.
type Client struct {
	// BaseURL of the server, e.g. "http://localhost:3284".
	BaseURL string

	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

// NewClient builds a client for the given port.
func NewClient(port int) *Client {
	return &Client{BaseURL: fmt.Sprintf("http://localhost:%d", port)}
}

func (c *Client) httpc() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}

// postJSON posts a body and decodes the response into out.
func (c *Client) postJSON(ctx context.Context, path string, body, out any) (int, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc().Do(req)
	if err != nil {
		return 0, fmt.Errorf("anyclick server unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, err
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, fmt.Errorf("malformed server response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// getJSON fetches a path and decodes the response into out.
func (c *Client) getJSON(ctx context.Context, path string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.httpc().Do(req)
	if err != nil {
		return 0, fmt.Errorf("anyclick server unreachable: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("malformed server response: %w", err)
	}
	return resp.StatusCode, nil
}
