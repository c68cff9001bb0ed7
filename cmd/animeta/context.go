package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"

	"animeta/internal/batch"
	"animeta/internal/catalog"
	"animeta/internal/config"
	"animeta/internal/enricher"
	"animeta/internal/logging"
	"animeta/internal/notifications"
	"animeta/internal/notion"
	"animeta/internal/pipeline"
	"animeta/internal/resolver"
	"animeta/internal/selector"
	"animeta/internal/services/llm"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// buildLogger constructs the CLI logger. Console format falls back to
// JSON when stderr is not a terminal so piped output stays parseable.
func buildLogger(cfg *config.Config) (*slog.Logger, error) {
	format := cfg.Logging.Format
	if format == "console" && !isTerminal(os.Stderr) {
		format = "json"
	}
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: format,
	})
}

func isTerminal(file *os.File) bool {
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// buildPipeline wires the four stage services from the configuration.
// It requires service credentials and fails fast when any is missing.
func buildPipeline(cfg *config.Config, logger *slog.Logger) (*pipeline.Pipeline, error) {
	if err := cfg.ValidateServices(); err != nil {
		return nil, err
	}

	catalogClient, err := catalog.New(cfg.Catalog.BaseURL, cfg.Catalog.ProxyURL, cfg.Catalog.Transport,
		catalog.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Catalog.TimeoutSeconds) * time.Second}))
	if err != nil {
		return nil, fmt.Errorf("catalog client: %w", err)
	}

	resolverSvc := resolver.New(catalogClient, logger, resolver.WithMaxCandidates(cfg.Catalog.MaxCandidates))

	completer := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})
	selectorSvc := selector.New(completer, logger)

	enricherSvc := enricher.New(catalogClient, logger)

	notionClient, err := notion.NewClient(notion.Config{
		Token:      cfg.Notion.Token,
		DatabaseID: cfg.Notion.DatabaseID,
		BaseURL:    cfg.Notion.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("notion client: %w", err)
	}
	upserter := notion.NewUpserter(notionClient, logger)

	return pipeline.New(resolverSvc, selectorSvc, enricherSvc, upserter, logger), nil
}

func buildNotifier(cfg *config.Config) notifications.Service {
	return notifications.NewService(cfg.Notifications.NtfyTopic, cfg.Notifications.RequestTimeout)
}

func buildRunner(cfg *config.Config, logger *slog.Logger) (*batch.Runner, error) {
	proc, err := buildPipeline(cfg, logger)
	if err != nil {
		return nil, err
	}
	return batch.NewRunner(cfg.Paths.OutputRoot, proc, buildNotifier(cfg), logger), nil
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
