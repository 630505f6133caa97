package adapter

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/anyclick/anyclick/internal/payload"
)

// T3Chat hands feedback to the t3.chat assistant by building a
// pre-filled conversation URL. There is no server API: the "submission"
// is the link the host application opens for the user.
type T3Chat struct {
	// BaseURL overrides the chat endpoint. Default: "https://t3.chat".
	BaseURL string

	// Model pre-selects the chat model via query parameter.
	Model string
}

func (t *T3Chat) Name() string { return "t3chat" }

func (t *T3Chat) baseURL() string {
	if t.BaseURL != "" {
		return strings.TrimSuffix(t.BaseURL, "/")
	}
	return "https://t3.chat"
}

// Submit builds the pre-filled chat URL. It always succeeds for a valid
// payload; the URL is returned in the result.
func (t *T3Chat) Submit(ctx context.Context, fb *payload.Feedback) Result {
	prompt := fmt.Sprintf("Help me with this UI feedback (%s):\n\n%s", fb.Type, RenderBody(fb))

	q := url.Values{}
	q.Set("q", prompt)
	if t.Model != "" {
		q.Set("model", t.Model)
	}

	return ok(fb.ID, t.baseURL()+"/new?"+q.Encode())
}
