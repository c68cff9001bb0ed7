package testsupport

import (
	"path/filepath"
	"testing"

	"animeta/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories and
// placeholder credentials per test. It applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.OutputRoot = filepath.Join(base, "runs")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.LLM.APIKey = "test-llm-key"
	cfg.Notion.Token = "test-notion-token"
	cfg.Notion.DatabaseID = "test-db"

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithCatalogBaseURL points the catalog client at a test server.
func WithCatalogBaseURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Catalog.BaseURL = url
	}
}

// WithLLMBaseURL points the selector at a test completion endpoint.
func WithLLMBaseURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.LLM.BaseURL = url
	}
}

// WithNotionBaseURL points the upserter at a test Notion endpoint.
func WithNotionBaseURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Notion.BaseURL = url
	}
}

// WithoutCredentials clears every secret so readiness failures can be
// exercised.
func WithoutCredentials() ConfigOption {
	return func(cfg *config.Config) {
		cfg.LLM.APIKey = ""
		cfg.Notion.Token = ""
		cfg.Notion.DatabaseID = ""
	}
}
