package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Server.Port != 3284 || cfg.Server.Host != "localhost" {
		t.Errorf("server defaults = %+v", cfg.Server)
	}
	if cfg.Payload.MaxInnerTextLength != 500 || cfg.Payload.CooldownMs != 1000 {
		t.Errorf("payload defaults = %+v", cfg.Payload)
	}
	if cfg.Pointer.BounceDamping != 0.35 {
		t.Errorf("pointer defaults = %+v", cfg.Pointer)
	}
	if cfg.Toast.Duration != 4000 || cfg.Toast.MaxVisible != 3 {
		t.Errorf("toast defaults = %+v", cfg.Toast)
	}
}

func TestParseConfig(t *testing.T) {
	data := `
server {
    port 4000
    dev true
}

pointer {
    mode "fun"
    bounce-damping 0.5
}

adapters {
    github {
        owner "acme"
        repo "app"
        token "tok"
        labels "feedback" "ui"
    }
}
`
	cfg, err := ParseConfig(data)
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}

	if cfg.Server.Port != 4000 {
		t.Errorf("port = %d, want 4000", cfg.Server.Port)
	}
	if !cfg.Server.Dev {
		t.Error("dev flag not parsed")
	}
	if cfg.Pointer.Mode != "fun" || cfg.Pointer.BounceDamping != 0.5 {
		t.Errorf("pointer = %+v", cfg.Pointer)
	}

	gh := cfg.Adapters.GitHub
	if gh == nil {
		t.Fatal("github adapter not parsed")
	}
	if gh.Owner != "acme" || gh.Repo != "app" || gh.Token != "tok" {
		t.Errorf("github = %+v", gh)
	}
	if len(gh.Labels) != 2 {
		t.Errorf("labels = %v", gh.Labels)
	}

	// Untouched sections keep their defaults.
	if cfg.Payload.MaxAncestors != 5 {
		t.Errorf("payload defaults lost: %+v", cfg.Payload)
	}
}

func TestParseConfigInvalid(t *testing.T) {
	if _, err := ParseConfig("server { port"); err == nil {
		t.Error("expected parse error")
	}
}

func TestFindConfigFileWalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(root, ConfigFileName)
	if err := os.WriteFile(cfgPath, []byte("server { port 4000 }"), 0644); err != nil {
		t.Fatal(err)
	}

	found := FindConfigFile(nested)
	if found != cfgPath {
		t.Errorf("FindConfigFile() = %q, want %q", found, cfgPath)
	}
}

func TestLoadConfigMissingUsesDefaults(t *testing.T) {
	cfg := LoadConfig(t.TempDir())
	if cfg.Server.Port != 3284 {
		t.Errorf("port = %d, want default", cfg.Server.Port)
	}
}

func TestWriteDefaultConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := WriteDefaultConfig(path); err != nil {
		t.Fatalf("WriteDefaultConfig() error = %v", err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile() error = %v", err)
	}
	if cfg.Server.Port != 3284 || cfg.Toast.Duration != 4000 {
		t.Errorf("round-tripped config = %+v", cfg)
	}
}

func TestPayloadCooldown(t *testing.T) {
	p := &PayloadConfig{CooldownMs: 1500}
	if p.Cooldown() != 1500*time.Millisecond {
		t.Errorf("cooldown = %v", p.Cooldown())
	}
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("ANYCLICK_TEST_VAR=abc\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ANYCLICK_TEST_VAR", "")
	os.Unsetenv("ANYCLICK_TEST_VAR")

	LoadEnv(dir)
	if got := os.Getenv("ANYCLICK_TEST_VAR"); got != "abc" {
		t.Errorf("env var = %q, want abc", got)
	}
}
