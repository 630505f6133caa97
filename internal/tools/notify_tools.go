package tools

import (
	"context"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToastInput represents input for the toast tool.
type ToastInput struct {
	Type    string `json:"type,omitempty" jsonschema:"Toast type: success, error, warning, info (default info)"`
	Title   string `json:"title,omitempty" jsonschema:"Toast title"`
	Message string `json:"message" jsonschema:"Toast message (required)"`
}

// ToastOutput represents output from the toast tool.
type ToastOutput struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RegisterToastTool registers the toast MCP tool.
func RegisterToastTool(server *mcp.Server, client *Client) {
	mcp.AddTool(server, &mcp.Tool{
		Name: "toast",
		Description: `Show a toast notification on every page connected to the local
anyclick server. Useful for signaling build results or agent progress
to the developer's browser.

Example:
  toast {type: "success", title: "Build", message: "deploy finished"}`,
	}, makeToastHandler(client))
}

func makeToastHandler(client *Client) func(context.Context, *mcp.CallToolRequest, ToastInput) (*mcp.CallToolResult, ToastOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ToastInput) (*mcp.CallToolResult, ToastOutput, error) {
		emptyOutput := ToastOutput{}

		if input.Message == "" {
			return errorResult("message required"), emptyOutput, nil
		}

		var out ToastOutput
		status, err := client.postJSON(ctx, "/api/anyclick/notify", input, &out)
		if err != nil {
			return errorResult(err.Error()), emptyOutput, nil
		}
		if status != http.StatusOK {
			return errorResult(fmt.Sprintf("server returned %d: %s", status, out.Error)), emptyOutput, nil
		}
		return nil, out, nil
	}
}

// StatusInput represents input for the capture_status tool.
type StatusInput struct{}

// StatusOutput represents output from the capture_status tool.
type StatusOutput struct {
	Status               string `json:"status"`
	CursorAgentInstalled bool   `json:"cursorAgentInstalled"`
	Error                string `json:"error,omitempty"`
}

// RegisterStatusTool registers the capture_status MCP tool.
func RegisterStatusTool(server *mcp.Server, client *Client) {
	mcp.AddTool(server, &mcp.Tool{
		Name: "capture_status",
		Description: `Check the local anyclick server: whether it is reachable and
whether cursor-agent is installed for interactive feedback routing.`,
	}, makeStatusHandler(client))
}

func makeStatusHandler(client *Client) func(context.Context, *mcp.CallToolRequest, StatusInput) (*mcp.CallToolResult, StatusOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input StatusInput) (*mcp.CallToolResult, StatusOutput, error) {
		var out StatusOutput
		if _, err := client.getJSON(ctx, "/health", &out); err != nil {
			return errorResult(err.Error()), StatusOutput{}, nil
		}
		return nil, out, nil
	}
}

// errorResult wraps an error message as a failed tool call.
func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
	}
}
