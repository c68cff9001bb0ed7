package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"animeta/internal/config"
)

func TestLoadDefaultConfigUsesEnvSecretsAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("OPENAI_API_KEY", "env-openai")
	t.Setenv("NOTION_TOKEN", "env-notion")
	t.Setenv("NOTION_DATABASE_ID", "env-db")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantRuns := filepath.Join(tempHome, ".local", "share", "animeta", "runs")
	if cfg.Paths.OutputRoot != wantRuns {
		t.Fatalf("unexpected output root: got %q want %q", cfg.Paths.OutputRoot, wantRuns)
	}
	if cfg.Paths.LogDir != filepath.Join(tempHome, ".local", "share", "animeta", "logs") {
		t.Fatalf("unexpected log dir: %q", cfg.Paths.LogDir)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7611" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Catalog.BaseURL != "https://laftel.net" {
		t.Fatalf("unexpected catalog base url: %q", cfg.Catalog.BaseURL)
	}
	if cfg.Catalog.Transport != "direct" {
		t.Fatalf("unexpected transport: %q", cfg.Catalog.Transport)
	}
	if cfg.Catalog.MaxCandidates != 20 {
		t.Fatalf("unexpected max candidates: %d", cfg.Catalog.MaxCandidates)
	}
	if cfg.LLM.APIKey != "env-openai" {
		t.Fatalf("expected LLM key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected model: %q", cfg.LLM.Model)
	}
	if cfg.Notion.Token != "env-notion" || cfg.Notion.DatabaseID != "env-db" {
		t.Fatalf("expected Notion credentials from env, got %q %q", cfg.Notion.Token, cfg.Notion.DatabaseID)
	}
	if cfg.Notifications.NtfyTopic != "" {
		t.Fatalf("expected empty ntfy topic by default, got %q", cfg.Notifications.NtfyTopic)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %q %q", cfg.Logging.Format, cfg.Logging.Level)
	}
	if err := cfg.ValidateServices(); err != nil {
		t.Fatalf("ValidateServices failed: %v", err)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.OutputRoot, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "animeta.toml")

	type payload struct {
		Catalog struct {
			BaseURL       string `toml:"base_url"`
			Transport     string `toml:"transport"`
			ProxyURL      string `toml:"proxy_url"`
			MaxCandidates int    `toml:"max_candidates"`
		} `toml:"catalog"`
		LLM struct {
			Model string `toml:"model"`
		} `toml:"llm"`
	}
	custom := payload{}
	custom.Catalog.BaseURL = "https://example.com/laftel/"
	custom.Catalog.Transport = "proxied"
	custom.Catalog.ProxyURL = "https://proxy.example.com"
	custom.Catalog.MaxCandidates = 5
	custom.LLM.Model = "gpt-4o"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Catalog.BaseURL != "https://example.com/laftel" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Catalog.BaseURL)
	}
	if cfg.Catalog.Transport != "proxied" {
		t.Fatalf("unexpected transport: %q", cfg.Catalog.Transport)
	}
	if cfg.Catalog.MaxCandidates != 5 {
		t.Fatalf("unexpected max candidates: %d", cfg.Catalog.MaxCandidates)
	}
	if cfg.LLM.Model != "gpt-4o" {
		t.Fatalf("unexpected model: %q", cfg.LLM.Model)
	}
}

func TestEnvVarOverridesConfigFileForSecrets(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "animeta.toml")

	type payload struct {
		LLM struct {
			APIKey string `toml:"api_key"`
		} `toml:"llm"`
		Notion struct {
			Token      string `toml:"token"`
			DatabaseID string `toml:"database_id"`
		} `toml:"notion"`
		Notifications struct {
			NtfyTopic string `toml:"ntfy_topic"`
		} `toml:"notifications"`
	}
	custom := payload{}
	custom.LLM.APIKey = "file-openai"
	custom.Notion.Token = "file-notion"
	custom.Notion.DatabaseID = "file-db"
	custom.Notifications.NtfyTopic = "file-topic"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	t.Setenv("OPENAI_API_KEY", "env-openai")
	t.Setenv("NOTION_TOKEN", "env-notion")
	t.Setenv("NOTION_DATABASE_ID", "env-db")
	t.Setenv("NTFY_TOPIC", "env-topic")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.LLM.APIKey != "env-openai" {
		t.Errorf("expected LLM key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.Notion.Token != "env-notion" {
		t.Errorf("expected Notion token from env, got %q", cfg.Notion.Token)
	}
	if cfg.Notion.DatabaseID != "env-db" {
		t.Errorf("expected Notion database id from env, got %q", cfg.Notion.DatabaseID)
	}
	if cfg.Notifications.NtfyTopic != "env-topic" {
		t.Errorf("expected ntfy topic from env, got %q", cfg.Notifications.NtfyTopic)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "your_openai_api_key_here") {
		t.Fatalf("sample config missing placeholder LLM key: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Catalog.BaseURL != "https://laftel.net" {
		t.Fatalf("unexpected catalog base url in sample: %q", cfg.Catalog.BaseURL)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cfg := config.Default()
	cfg.Catalog.Transport = "tunnel"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown transport")
	}

	cfg = config.Default()
	cfg.Catalog.Transport = "proxied"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for proxied transport without proxy url")
	}

	cfg = config.Default()
	cfg.Catalog.MaxCandidates = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero max candidates")
	}

	cfg = config.Default()
	cfg.Notifications.RequestTimeout = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive request timeout")
	}

	cfg = config.Default()
	cfg.Logging.Level = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown log level")
	}
}

func TestValidateServicesRequiresCredentials(t *testing.T) {
	cfg := config.Default()
	if err := cfg.ValidateServices(); err == nil {
		t.Fatal("expected error for missing LLM key")
	}

	cfg.LLM.APIKey = "key"
	if err := cfg.ValidateServices(); err == nil {
		t.Fatal("expected error for missing Notion token")
	}

	cfg.Notion.Token = "token"
	if err := cfg.ValidateServices(); err == nil {
		t.Fatal("expected error for missing Notion database id")
	}

	cfg.Notion.DatabaseID = "db"
	if err := cfg.ValidateServices(); err != nil {
		t.Fatalf("ValidateServices failed: %v", err)
	}
}
