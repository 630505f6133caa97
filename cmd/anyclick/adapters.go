package main

import (
	"os"

	"github.com/anyclick/anyclick/internal/adapter"
	"github.com/anyclick/anyclick/internal/config"
	"github.com/anyclick/anyclick/internal/triage"
	"github.com/anyclick/anyclick/internal/uploader"
)

// buildAdapter assembles the adapter chain from configuration. More
// than one configured destination becomes a fan-out. Nil means no
// destination is configured and feedback stays local.
func buildAdapter(cfg *config.Config) adapter.Adapter {
	ac := cfg.Adapters
	if ac == nil {
		return nil
	}

	summarizer := buildSummarizer()

	var adapters []adapter.Adapter
	if gh := ac.GitHub; gh != nil {
		token := gh.Token
		if token == "" {
			token = os.Getenv("GITHUB_TOKEN")
		}
		adapters = append(adapters, &adapter.GitHub{
			Owner:      gh.Owner,
			Repo:       gh.Repo,
			Token:      token,
			Labels:     gh.Labels,
			Summarizer: summarizer,
		})
	}
	if j := ac.Jira; j != nil {
		token := j.APIToken
		if token == "" {
			token = os.Getenv("JIRA_API_TOKEN")
		}
		adapters = append(adapters, &adapter.Jira{
			BaseURL:    j.BaseURL,
			Email:      j.Email,
			APIToken:   token,
			ProjectKey: j.ProjectKey,
			IssueType:  j.IssueType,
			Summarizer: summarizer,
		})
	}
	if w := ac.Webhook; w != nil {
		adapters = append(adapters, &adapter.Webhook{URL: w.URL, Headers: w.Headers})
	}
	if cc := ac.CursorCloud; cc != nil {
		apiKey := cc.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("CURSOR_API_KEY")
		}
		adapters = append(adapters, &adapter.CursorCloud{
			APIKey:     apiKey,
			Repository: cc.Repository,
			Model:      cc.Model,
		})
	}
	if t3 := ac.T3Chat; t3 != nil {
		adapters = append(adapters, &adapter.T3Chat{Model: t3.Model})
	}
	if ut := ac.UploadThing; ut != nil {
		token := ut.Token
		if token == "" {
			token = os.Getenv("UPLOADTHING_TOKEN")
		}
		adapters = append(adapters, &adapter.UploadThing{
			Client: &uploader.Client{Token: token},
		})
	}
	if as := ac.Assistant; as != nil {
		adapters = append(adapters, &adapter.Assistant{
			APIKey:    as.APIKey,
			Model:     as.Model,
			MaxTokens: int64(as.MaxTokens),
		})
	}

	switch len(adapters) {
	case 0:
		return nil
	case 1:
		return adapters[0]
	default:
		return adapter.NewMulti(adapters...)
	}
}

// buildSummarizer returns an LLM title generator when an API key is
// available, nil otherwise. Adapters fall back to deterministic titles.
func buildSummarizer() *triage.Summarizer {
	if os.Getenv("OPENAI_API_KEY") == "" {
		return nil
	}
	s, err := triage.New()
	if err != nil {
		return nil
	}
	return s
}
