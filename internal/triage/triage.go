// Package triage turns raw feedback payloads into issue-tracker titles
// and summaries using an LLM, with a deterministic fallback when no
// model is available.
package triage

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/anyclick/anyclick/internal/debug"
	"github.com/anyclick/anyclick/internal/payload"
)

// maxTitleLength bounds generated titles to issue-tracker norms.
const maxTitleLength = 80

// Summarizer generates titles/summaries for feedback payloads.
type Summarizer struct {
	llm llms.Model
}

// New creates a summarizer backed by the default OpenAI-compatible
// provider (OPENAI_API_KEY and friends from the environment).
func New() (*Summarizer, error) {
	llm, err := openai.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize triage model: %w", err)
	}
	return &Summarizer{llm: llm}, nil
}

// NewWithModel creates a summarizer with an explicit model, used by
// tests and embedders that already hold one.
func NewWithModel(m llms.Model) *Summarizer {
	return &Summarizer{llm: m}
}

// Title produces a one-line issue title for the payload.
func (s *Summarizer) Title(ctx context.Context, fb *payload.Feedback) (string, error) {
	prompt := fmt.Sprintf(
		"Write a one-line issue title (max %d characters, no quotes) for this UI feedback.\n"+
			"Type: %s\nComment: %s\nElement: <%s> %s\nPage: %s\n",
		maxTitleLength, fb.Type, fb.Comment, fb.Element.Tag, fb.Element.Selector, fb.Page.URL)

	out, err := llms.GenerateFromSinglePrompt(ctx, s.llm, prompt,
		llms.WithTemperature(0.2), llms.WithMaxTokens(60))
	if err != nil {
		return "", fmt.Errorf("triage title generation failed: %w", err)
	}

	title := strings.TrimSpace(strings.Trim(strings.TrimSpace(out), `"`))
	if title == "" {
		return "", fmt.Errorf("triage model returned an empty title")
	}
	return payload.Truncate(title, maxTitleLength), nil
}

// TitleOrFallback tries the model and silently falls back to the
// deterministic title. Triage failures are never fatal to a submission.
func (s *Summarizer) TitleOrFallback(ctx context.Context, fb *payload.Feedback) string {
	if s == nil || s.llm == nil {
		return FallbackTitle(fb)
	}
	title, err := s.Title(ctx, fb)
	if err != nil {
		debug.Warn("triage", "falling back to deterministic title: %v", err)
		return FallbackTitle(fb)
	}
	return title
}

// FallbackTitle builds a deterministic title from the payload alone.
func FallbackTitle(fb *payload.Feedback) string {
	subject := fb.Comment
	if subject == "" {
		subject = fmt.Sprintf("<%s> on %s", fb.Element.Tag, fb.Page.URL)
	}
	return payload.Truncate(fmt.Sprintf("[%s] %s", fb.Type, subject), maxTitleLength)
}
