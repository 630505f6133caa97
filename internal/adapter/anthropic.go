package adapter

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/anyclick/anyclick/internal/payload"
)

// Assistant sends feedback to a Claude chat assistant and reports the
// resulting conversation message. Used for the "discuss this feedback"
// backend rather than issue filing.
type Assistant struct {
	// APIKey authenticates against the Anthropic API. Empty falls back
	// to the SDK's environment lookup.
	APIKey string

	// Model selects the assistant model.
	// Default: claude-sonnet-4-20250514.
	Model string

	// MaxTokens bounds the assistant reply. Default: 1024.
	MaxTokens int64

	// client, when set, overrides construction (tests).
	client *anthropic.Client
}

func (a *Assistant) Name() string { return "assistant" }

func (a *Assistant) messages() *anthropic.Client {
	if a.client != nil {
		return a.client
	}
	var opts []option.RequestOption
	if a.APIKey != "" {
		opts = append(opts, option.WithAPIKey(a.APIKey))
	}
	c := anthropic.NewClient(opts...)
	a.client = &c
	return a.client
}

// Submit opens an assistant exchange about the feedback.
func (a *Assistant) Submit(ctx context.Context, fb *payload.Feedback) Result {
	model := a.Model
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	maxTokens := a.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	prompt := fmt.Sprintf(
		"A user submitted %s feedback on a web page. Acknowledge it and suggest a next step.\n\n%s",
		fb.Type, RenderBody(fb))

	msg, err := a.messages().Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return failf("assistant request failed: %v", err)
	}

	return ok(msg.ID, "")
}
