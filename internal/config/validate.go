package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is structurally usable. Credential
// requirements are checked separately by ValidateServices so read-only
// commands can run without secrets.
func (c *Config) Validate() error {
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateTimeouts(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateCatalog() error {
	switch c.Catalog.Transport {
	case "direct", "proxied":
	default:
		return fmt.Errorf("catalog.transport must be %q or %q, got %q", "direct", "proxied", c.Catalog.Transport)
	}
	if c.Catalog.Transport == "proxied" && strings.TrimSpace(c.Catalog.ProxyURL) == "" {
		return errors.New("catalog.proxy_url must be set when catalog.transport is proxied")
	}
	if c.Catalog.MaxCandidates < 1 {
		return errors.New("catalog.max_candidates must be >= 1")
	}
	return nil
}

func (c *Config) validateTimeouts() error {
	return ensurePositiveMap(map[string]int{
		"catalog.timeout_seconds":       c.Catalog.TimeoutSeconds,
		"llm.timeout_seconds":           c.LLM.TimeoutSeconds,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	})
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
}

// ValidateServices ensures credentials for the external services are present.
// Pipeline commands require all of them; missing values are fatal at startup.
func (c *Config) ValidateServices() error {
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/animeta/config.toml"
		}
		return fmt.Errorf("llm.api_key is required. Set OPENAI_API_KEY env var or edit %s (create with 'animeta config init')", defaultPath)
	}
	if strings.TrimSpace(c.Notion.Token) == "" {
		return errors.New("notion.token is required. Set NOTION_TOKEN env var or add it to the config file")
	}
	if strings.TrimSpace(c.Notion.DatabaseID) == "" {
		return errors.New("notion.database_id is required. Set NOTION_DATABASE_ID env var or add it to the config file")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
