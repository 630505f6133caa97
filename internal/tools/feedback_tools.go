package tools

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anyclick/anyclick/internal/payload"
)

// FeedbackInput represents input for the feedback_submit tool.
type FeedbackInput struct {
	Type     string `json:"type" jsonschema:"Feedback type: issue, feature, like, bug"`
	Comment  string `json:"comment,omitempty" jsonschema:"Free-form feedback text"`
	Selector string `json:"selector" jsonschema:"CSS selector of the targeted element"`
	Tag      string `json:"tag,omitempty" jsonschema:"Tag name of the targeted element"`
	URL      string `json:"url" jsonschema:"Page URL the feedback applies to"`
	Title    string `json:"title,omitempty" jsonschema:"Page title"`
}

// FeedbackOutput represents output from the feedback_submit tool.
type FeedbackOutput struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	URL     string `json:"url,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RegisterFeedbackTool registers the feedback_submit MCP tool.
func RegisterFeedbackTool(server *mcp.Server, client *Client) {
	mcp.AddTool(server, &mcp.Tool{
		Name: "feedback_submit",
		Description: `Submit UI feedback through the local anyclick server.

The feedback is routed to the project's configured destinations
(GitHub issues, Jira, webhooks, Cursor agents) exactly as a
right-click submission from the browser would be.

Examples:
  feedback_submit {type: "bug", selector: "#checkout-btn", url: "http://localhost:3000/cart", comment: "button does nothing"}
  feedback_submit {type: "feature", selector: "nav", url: "http://localhost:3000", comment: "add a dark mode toggle"}`,
	}, makeFeedbackHandler(client))
}

func makeFeedbackHandler(client *Client) func(context.Context, *mcp.CallToolRequest, FeedbackInput) (*mcp.CallToolResult, FeedbackOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input FeedbackInput) (*mcp.CallToolResult, FeedbackOutput, error) {
		emptyOutput := FeedbackOutput{}

		if input.Type == "" {
			return errorResult("type required (issue, feature, like, bug)"), emptyOutput, nil
		}
		if input.Selector == "" {
			return errorResult("selector required"), emptyOutput, nil
		}
		if input.URL == "" {
			return errorResult("url required"), emptyOutput, nil
		}

		fb := payload.Feedback{
			Type:    input.Type,
			Comment: input.Comment,
			Element: payload.ElementInfo{Selector: input.Selector, Tag: input.Tag},
			Page:    payload.PageInfo{URL: input.URL, Title: input.Title, Timestamp: time.Now()},
		}

		var out FeedbackOutput
		status, err := client.postJSON(ctx, "/feedback", fb, &out)
		if err != nil {
			return errorResult(err.Error()), emptyOutput, nil
		}
		if status != http.StatusOK && out.Error == "" {
			return errorResult(fmt.Sprintf("server returned %d", status)), emptyOutput, nil
		}
		return nil, out, nil
	}
}
