// Package adapter routes assembled feedback payloads to external
// destinations. Every backend implements the same one-method contract;
// composition (fan-out) is itself just another Adapter. No adapter ever
// retries internally: retry policy belongs to the host application.
package adapter

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/anyclick/anyclick/internal/capture"
	"github.com/anyclick/anyclick/internal/payload"
)

// Result is the uniform submission outcome.
type Result struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	URL     string `json:"url,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Adapter is one feedback destination.
type Adapter interface {
	// Name identifies the adapter in logs and aggregate errors.
	Name() string

	// Submit delivers the payload. It never retries.
	Submit(ctx context.Context, fb *payload.Feedback) Result
}

// ok builds a success result.
func ok(id, url string) Result {
	return Result{Success: true, ID: id, URL: url}
}

// fail builds a failure result from an error.
func fail(err error) Result {
	return Result{Success: false, Error: err.Error()}
}

// failf builds a failure result from a format string.
func failf(format string, args ...any) Result {
	return Result{Success: false, Error: fmt.Sprintf(format, args...)}
}

// Redacted returns a copy safe for production responses: the upstream
// error text is replaced with a generic message. Development mode shows
// errors verbatim and skips this.
func (r Result) Redacted() Result {
	if r.Success || r.Error == "" {
		return r
	}
	r.Error = "feedback submission failed"
	return r
}

// defaultHTTPClient is shared by the HTTP-backed adapters.
var defaultHTTPClient = &http.Client{Timeout: 30 * time.Second}

// RenderBody renders a payload as the markdown body used by the issue
// tracker adapters.
func RenderBody(fb *payload.Feedback) string {
	var b strings.Builder

	if fb.Comment != "" {
		b.WriteString(fb.Comment)
		b.WriteString("\n\n")
	}

	b.WriteString("## Element\n\n")
	fmt.Fprintf(&b, "- **Selector**: `%s`\n", fb.Element.Selector)
	fmt.Fprintf(&b, "- **Tag**: `%s`\n", fb.Element.Tag)
	if fb.Element.ID != "" {
		fmt.Fprintf(&b, "- **ID**: `%s`\n", fb.Element.ID)
	}
	if len(fb.Element.Classes) > 0 {
		fmt.Fprintf(&b, "- **Classes**: `%s`\n", strings.Join(fb.Element.Classes, " "))
	}
	if fb.Element.InnerText != "" {
		fmt.Fprintf(&b, "\n> %s\n", fb.Element.InnerText)
	}

	b.WriteString("\n## Page\n\n")
	fmt.Fprintf(&b, "- **URL**: %s\n", fb.Page.URL)
	if fb.Page.Title != "" {
		fmt.Fprintf(&b, "- **Title**: %s\n", fb.Page.Title)
	}
	if fb.Page.ViewportWidth > 0 {
		fmt.Fprintf(&b, "- **Viewport**: %dx%d\n", fb.Page.ViewportWidth, fb.Page.ViewportHeight)
	}
	if fb.Page.UserAgent != "" {
		fmt.Fprintf(&b, "- **User agent**: %s\n", fb.Page.UserAgent)
	}
	fmt.Fprintf(&b, "- **Captured**: %s\n", fb.Page.Timestamp.UTC().Format(time.RFC3339))

	if fb.Screenshots != nil && len(fb.Screenshots.Shots) > 0 {
		b.WriteString("\n## Screenshots\n\n")
		targets := make([]string, 0, len(fb.Screenshots.Shots))
		for t := range fb.Screenshots.Shots {
			targets = append(targets, string(t))
		}
		sort.Strings(targets)
		for _, t := range targets {
			shot := fb.Screenshots.Shots[capture.Target(t)]
			fmt.Fprintf(&b, "- %s: %dx%d (%d bytes)\n", t, shot.Width, shot.Height, shot.ByteSize)
		}
	}

	return b.String()
}
