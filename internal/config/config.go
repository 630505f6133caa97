// Package config provides configuration for the anyclick CLI and server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	kdl "github.com/sblinch/kdl-go"

	"github.com/anyclick/anyclick/internal/debug"
)

// ConfigFileName is the name of the anyclick configuration file.
const ConfigFileName = ".anyclick.kdl"

// Config represents the anyclick configuration.
type Config struct {
	// Server settings for anyclick serve
	Server *ServerConfig `kdl:"server"`

	// Capture settings for screenshot rendering
	Capture *CaptureConfig `kdl:"capture"`

	// Payload assembly limits
	Payload *PayloadConfig `kdl:"payload"`

	// Pointer fun-mode physics tuning
	Pointer *PointerConfig `kdl:"pointer"`

	// Toast notification settings
	Toast *ToastConfig `kdl:"toast"`

	// Highlight styling
	Highlight *HighlightConfig `kdl:"highlight"`

	// Adapters to dispatch feedback to
	Adapters *AdaptersConfig `kdl:"adapters"`
}

// ServerConfig tunes the local HTTP server.
type ServerConfig struct {
	Host    string   `kdl:"host"`
	Port    int      `kdl:"port"`
	Origins []string `kdl:"origins"`
	Dev     bool     `kdl:"dev"`
}

// CaptureConfig bounds screenshot assets.
type CaptureConfig struct {
	// MaxTotalBytes caps the summed screenshot size; 0 is unlimited.
	MaxTotalBytes int `kdl:"max-total-bytes"`
}

// PayloadConfig bounds the assembled element block.
type PayloadConfig struct {
	MaxInnerTextLength int `kdl:"max-inner-text-length"`
	MaxOuterHTMLLength int `kdl:"max-outer-html-length"`
	MaxAncestors       int `kdl:"max-ancestors"`
	MaxClasses         int `kdl:"max-classes"`
	// CooldownMs suppresses repeat assembly from the same target.
	CooldownMs int `kdl:"cooldown-ms"`
}

// Cooldown returns the cooldown as a duration.
func (p *PayloadConfig) Cooldown() time.Duration {
	return time.Duration(p.CooldownMs) * time.Millisecond
}

// PointerConfig tunes fun mode.
type PointerConfig struct {
	// Mode: "normal", "fun", or "calm"
	Mode          string  `kdl:"mode"`
	Acceleration  float64 `kdl:"acceleration"`
	Friction      float64 `kdl:"friction"`
	MaxSpeed      float64 `kdl:"max-speed"`
	BounceDamping float64 `kdl:"bounce-damping"`
}

// ToastConfig configures toast notifications.
type ToastConfig struct {
	// Duration in milliseconds (default 4000)
	Duration int `kdl:"duration"`
	// Position: "top-right", "top-left", "bottom-right", "bottom-left"
	Position string `kdl:"position"`
	// MaxVisible is the max number of visible toasts (default 3)
	MaxVisible int `kdl:"max-visible"`
}

// HighlightConfig styles the target/container highlight.
type HighlightConfig struct {
	Color          string  `kdl:"color"`
	ContainerColor string  `kdl:"container-color"`
	Opacity        float64 `kdl:"opacity"`
	BorderWidth    int     `kdl:"border-width"`
	// ContainerSelectors extend the container-detection selector list.
	ContainerSelectors []string `kdl:"container-selectors"`
}

// AdaptersConfig selects and configures feedback destinations. A nil
// section means feedback goes to the local cursor-agent session.
type AdaptersConfig struct {
	GitHub      *GitHubConfig      `kdl:"github"`
	Jira        *JiraConfig        `kdl:"jira"`
	Webhook     *WebhookConfig     `kdl:"webhook"`
	CursorCloud *CursorCloudConfig `kdl:"cursor-cloud"`
	T3Chat      *T3ChatConfig      `kdl:"t3chat"`
	UploadThing *UploadThingConfig `kdl:"uploadthing"`
	Assistant   *AssistantConfig   `kdl:"assistant"`
}

// GitHubConfig targets a repository's issue tracker.
type GitHubConfig struct {
	Owner  string   `kdl:"owner"`
	Repo   string   `kdl:"repo"`
	Token  string   `kdl:"token"`
	Labels []string `kdl:"labels"`
}

// JiraConfig targets a Jira Cloud project.
type JiraConfig struct {
	BaseURL    string `kdl:"base-url"`
	Email      string `kdl:"email"`
	APIToken   string `kdl:"api-token"`
	ProjectKey string `kdl:"project-key"`
	IssueType  string `kdl:"issue-type"`
}

// WebhookConfig posts payloads to an arbitrary endpoint.
type WebhookConfig struct {
	URL     string            `kdl:"url"`
	Headers map[string]string `kdl:"headers"`
}

// CursorCloudConfig launches Cursor background agents.
type CursorCloudConfig struct {
	APIKey     string `kdl:"api-key"`
	Repository string `kdl:"repository"`
	Model      string `kdl:"model"`
}

// T3ChatConfig builds pre-filled t3.chat links.
type T3ChatConfig struct {
	Model string `kdl:"model"`
}

// UploadThingConfig hosts screenshot assets.
type UploadThingConfig struct {
	Token string `kdl:"token"`
}

// AssistantConfig routes feedback to a Claude assistant.
type AssistantConfig struct {
	APIKey    string `kdl:"api-key"`
	Model     string `kdl:"model"`
	MaxTokens int    `kdl:"max-tokens"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: &ServerConfig{
			Host: "localhost",
			Port: 3284,
		},
		Capture: &CaptureConfig{
			MaxTotalBytes: 8 << 20,
		},
		Payload: &PayloadConfig{
			MaxInnerTextLength: 500,
			MaxOuterHTMLLength: 2000,
			MaxAncestors:       5,
			MaxClasses:         10,
			CooldownMs:         1000,
		},
		Pointer: &PointerConfig{
			Mode:          "normal",
			Acceleration:  1200,
			Friction:      4,
			MaxSpeed:      900,
			BounceDamping: 0.35,
		},
		Toast: &ToastConfig{
			Duration:   4000,
			Position:   "bottom-right",
			MaxVisible: 3,
		},
		Highlight: &HighlightConfig{
			Color:          "#3b82f6",
			ContainerColor: "#8b5cf6",
			Opacity:        0.15,
			BorderWidth:    2,
		},
		Adapters: &AdaptersConfig{},
	}
}

// LoadConfig loads configuration from the specified directory.
// It looks for .anyclick.kdl in the directory and its parents, and
// merges any .env file beside it. A missing or invalid config file
// falls back to defaults.
func LoadConfig(dir string) *Config {
	configPath := FindConfigFile(dir)
	if configPath == "" {
		return DefaultConfig()
	}

	LoadEnv(filepath.Dir(configPath))

	cfg, err := LoadConfigFile(configPath)
	if err != nil {
		debug.Warn("config", "using defaults: %v", err)
		return DefaultConfig()
	}
	return cfg
}

// FindConfigFile searches for .anyclick.kdl starting from dir and
// walking up.
func FindConfigFile(dir string) string {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(absDir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(absDir)
		if parent == absDir {
			// Reached root
			break
		}
		absDir = parent
	}

	return ""
}

// LoadEnv loads a .env file from dir into the process environment.
// Existing variables are not overwritten.
func LoadEnv(dir string) {
	envPath := filepath.Join(dir, ".env")
	if _, err := os.Stat(envPath); err != nil {
		return
	}
	if err := godotenv.Load(envPath); err != nil {
		debug.Warn("config", "failed to load %s: %v", envPath, err)
	}
}

// LoadConfigFile loads configuration from a specific file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseConfig(string(data))
}

// ParseConfig parses KDL configuration data over the defaults.
func ParseConfig(data string) (*Config, error) {
	cfg := DefaultConfig()

	if err := kdl.Unmarshal([]byte(data), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// WriteDefaultConfig writes a default configuration file with
// documentation.
func WriteDefaultConfig(path string) error {
	defaultKDL := `// Anyclick Configuration

// Local server settings
server {
    host "localhost"
    port 3284
    // origins "https://staging.example.com"
    // dev true  // show adapter errors verbatim
}

// Screenshot capture limits
capture {
    max-total-bytes 8388608
}

// Payload assembly limits
payload {
    max-inner-text-length 500
    max-outer-html-length 2000
    max-ancestors 5
    max-classes 10
    cooldown-ms 1000
}

// Fun-mode pointer physics
pointer {
    mode "normal" // normal, fun, calm
    acceleration 1200
    friction 4
    max-speed 900
    bounce-damping 0.35
}

// Toast notification settings
toast {
    duration 4000           // Duration in ms
    position "bottom-right" // top-right, top-left, bottom-right, bottom-left
    max-visible 3           // Max simultaneous toasts
}

// Highlight styling
highlight {
    color "#3b82f6"
    container-color "#8b5cf6"
    opacity 0.15
    border-width 2
    // container-selectors "[data-section]" ".card"
}

// Feedback destinations. Omit to route feedback to the local
// cursor-agent session.
adapters {
    // github {
    //     owner "acme"
    //     repo "app"
    //     token "ghp_..."
    //     labels "feedback"
    // }

    // jira {
    //     base-url "https://acme.atlassian.net"
    //     email "dev@acme.io"
    //     api-token "..."
    //     project-key "ENG"
    // }

    // webhook {
    //     url "https://hooks.example.com/feedback"
    // }
}
`
	return os.WriteFile(path, []byte(defaultKDL), 0644)
}
