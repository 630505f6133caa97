package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/anyclick/anyclick/internal/payload"
	"github.com/anyclick/anyclick/internal/triage"
)

// GitHub files feedback as issues via the GitHub REST API.
type GitHub struct {
	// Owner/Repo identify the target repository.
	Owner string
	Repo  string

	// Token is a personal access token or installation token with the
	// issues scope.
	Token string

	// Labels are applied to every created issue.
	Labels []string

	// Summarizer, when set, generates issue titles; nil falls back to
	// the deterministic title.
	Summarizer *triage.Summarizer

	// BaseURL overrides the API endpoint, mainly for tests and GHE.
	BaseURL string

	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

func (g *GitHub) Name() string { return "github" }

func (g *GitHub) baseURL() string {
	if g.BaseURL != "" {
		return g.BaseURL
	}
	return "https://api.github.com"
}

func (g *GitHub) httpc() *http.Client {
	if g.HTTPClient != nil {
		return g.HTTPClient
	}
	return defaultHTTPClient
}

// Submit creates one issue for the payload.
func (g *GitHub) Submit(ctx context.Context, fb *payload.Feedback) Result {
	if g.Owner == "" || g.Repo == "" || g.Token == "" {
		return failf("github adapter requires owner, repo, and token")
	}

	body, err := json.Marshal(map[string]any{
		"title":  g.Summarizer.TitleOrFallback(ctx, fb),
		"body":   RenderBody(fb),
		"labels": g.Labels,
	})
	if err != nil {
		return fail(err)
	}

	url := fmt.Sprintf("%s/repos/%s/%s/issues", g.baseURL(), g.Owner, g.Repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fail(err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+g.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpc().Do(req)
	if err != nil {
		return failf("github request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return failf("github returned %d: %s", resp.StatusCode, msg)
	}

	var issue struct {
		Number  int    `json:"number"`
		HTMLURL string `json:"html_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&issue); err != nil {
		return failf("github response malformed: %v", err)
	}

	return ok(strconv.Itoa(issue.Number), issue.HTMLURL)
}
