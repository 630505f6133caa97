package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/anyclick/anyclick/internal/payload"
)

// CursorLocal forwards feedback to a locally running anyclick agent
// server (the `anyclick serve` process fronting cursor-agent).
type CursorLocal struct {
	// Endpoint is the local server base URL.
	// Default: "http://localhost:3284".
	Endpoint string

	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

func (c *CursorLocal) Name() string { return "cursor-local" }

func (c *CursorLocal) endpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return "http://localhost:3284"
}

func (c *CursorLocal) httpc() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return defaultHTTPClient
}

// Submit posts the payload to the local server's /feedback route.
func (c *CursorLocal) Submit(ctx context.Context, fb *payload.Feedback) Result {
	body, err := json.Marshal(fb)
	if err != nil {
		return fail(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint()+"/feedback", bytes.NewReader(body))
	if err != nil {
		return fail(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc().Do(req)
	if err != nil {
		return failf("local agent unreachable: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return failf("local agent returned %d: %s", resp.StatusCode, msg)
	}

	var out struct {
		ID string `json:"id"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return ok(out.ID, "")
}

// CursorCloud launches a Cursor background agent with the feedback as
// its task prompt.
type CursorCloud struct {
	// APIKey authenticates against the Cursor API.
	APIKey string

	// Repository is the GitHub repository URL the agent works in.
	Repository string

	// Model selects the agent model; empty uses the account default.
	Model string

	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string

	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

func (c *CursorCloud) Name() string { return "cursor-cloud" }

func (c *CursorCloud) baseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return "https://api.cursor.com"
}

func (c *CursorCloud) httpc() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return defaultHTTPClient
}

// Submit creates one background agent run for the payload.
func (c *CursorCloud) Submit(ctx context.Context, fb *payload.Feedback) Result {
	if c.APIKey == "" || c.Repository == "" {
		return failf("cursor-cloud adapter requires apiKey and repository")
	}

	prompt := fmt.Sprintf("Address this UI feedback:\n\n%s", RenderBody(fb))
	reqBody := map[string]any{
		"prompt": map[string]string{"text": prompt},
		"source": map[string]string{"repository": c.Repository},
	}
	if c.Model != "" {
		reqBody["model"] = c.Model
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fail(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL()+"/v0/agents", bytes.NewReader(body))
	if err != nil {
		return fail(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc().Do(req)
	if err != nil {
		return failf("cursor api request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return failf("cursor api returned %d: %s", resp.StatusCode, msg)
	}

	var agent struct {
		ID     string `json:"id"`
		Target struct {
			URL string `json:"url"`
		} `json:"target"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&agent); err != nil {
		return failf("cursor api response malformed: %v", err)
	}

	return ok(agent.ID, agent.Target.URL)
}
