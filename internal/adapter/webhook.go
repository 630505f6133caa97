package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/anyclick/anyclick/internal/payload"
)

// Webhook posts the payload as JSON to an arbitrary HTTP endpoint — the
// generic escape hatch for destinations without a dedicated adapter.
type Webhook struct {
	// URL is the destination endpoint.
	URL string

	// Headers are added to every request (auth, routing).
	Headers map[string]string

	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

func (w *Webhook) Name() string { return "webhook" }

func (w *Webhook) httpc() *http.Client {
	if w.HTTPClient != nil {
		return w.HTTPClient
	}
	return defaultHTTPClient
}

// Submit posts the payload. Any 2xx status is a success; when the
// response body is JSON with id/url fields they are carried through.
func (w *Webhook) Submit(ctx context.Context, fb *payload.Feedback) Result {
	if w.URL == "" {
		return failf("webhook adapter requires a url")
	}

	body, err := json.Marshal(fb)
	if err != nil {
		return fail(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return fail(err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.Headers {
		req.Header.Set(k, v)
	}

	resp, err := w.httpc().Do(req)
	if err != nil {
		return failf("webhook request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return failf("webhook returned %d: %s", resp.StatusCode, msg)
	}

	var out struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return ok(out.ID, out.URL)
}
