package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/anyclick/anyclick/internal/payload"
	"github.com/anyclick/anyclick/internal/triage"
)

// Jira files feedback as issues via the Jira Cloud REST API (v3).
type Jira struct {
	// BaseURL is the site URL, e.g. "https://acme.atlassian.net".
	BaseURL string

	// Email and APIToken authenticate via basic auth.
	Email    string
	APIToken string

	// ProjectKey is the target project, e.g. "ENG".
	ProjectKey string

	// IssueType names the created issue type. Default: "Bug".
	IssueType string

	// Summarizer, when set, generates issue summaries.
	Summarizer *triage.Summarizer

	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

func (j *Jira) Name() string { return "jira" }

func (j *Jira) httpc() *http.Client {
	if j.HTTPClient != nil {
		return j.HTTPClient
	}
	return defaultHTTPClient
}

// Submit creates one Jira issue for the payload.
func (j *Jira) Submit(ctx context.Context, fb *payload.Feedback) Result {
	if j.BaseURL == "" || j.Email == "" || j.APIToken == "" || j.ProjectKey == "" {
		return failf("jira adapter requires baseUrl, email, apiToken, and projectKey")
	}

	issueType := j.IssueType
	if issueType == "" {
		issueType = "Bug"
	}

	body, err := json.Marshal(map[string]any{
		"fields": map[string]any{
			"project":     map[string]string{"key": j.ProjectKey},
			"issuetype":   map[string]string{"name": issueType},
			"summary":     j.Summarizer.TitleOrFallback(ctx, fb),
			"description": adfDocument(RenderBody(fb)),
		},
	})
	if err != nil {
		return fail(err)
	}

	url := strings.TrimSuffix(j.BaseURL, "/") + "/rest/api/3/issue"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fail(err)
	}
	req.SetBasicAuth(j.Email, j.APIToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := j.httpc().Do(req)
	if err != nil {
		return failf("jira request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return failf("jira returned %d: %s", resp.StatusCode, msg)
	}

	var issue struct {
		ID  string `json:"id"`
		Key string `json:"key"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&issue); err != nil {
		return failf("jira response malformed: %v", err)
	}

	browse := fmt.Sprintf("%s/browse/%s", strings.TrimSuffix(j.BaseURL, "/"), issue.Key)
	return ok(issue.Key, browse)
}

// adfDocument wraps plain text paragraphs in the Atlassian Document
// Format shape the v3 API requires.
func adfDocument(text string) map[string]any {
	var content []map[string]any
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		content = append(content, map[string]any{
			"type": "paragraph",
			"content": []map[string]any{
				{"type": "text", "text": para},
			},
		})
	}
	return map[string]any{
		"type":    "doc",
		"version": 1,
		"content": content,
	}
}
