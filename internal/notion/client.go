package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"animeta/internal/services"
)

const (
	apiVersion           = "2022-06-28"
	defaultBaseURL       = "https://api.notion.com/v1"
	defaultHTTPTimeout   = 15 * time.Second
	defaultRetryAttempts = 3
	defaultRetryDelay    = 2 * time.Second
)

// Config captures the runtime settings for the document store.
type Config struct {
	Token      string
	DatabaseID string
	BaseURL    string
}

// Page identifies one document-store page.
type Page struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Client talks to the Notion REST API.
type Client struct {
	cfg        Config
	httpClient *http.Client

	retryAttempts int
	retryDelay    time.Duration
	sleeper       func(time.Duration)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryDelay overrides the fixed delay between retry attempts.
func WithRetryDelay(delay time.Duration) Option {
	return func(c *Client) {
		c.retryDelay = delay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs a document-store client.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	cfg.Token = strings.TrimSpace(cfg.Token)
	cfg.DatabaseID = strings.TrimSpace(cfg.DatabaseID)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Token == "" {
		return nil, errors.New("notion token required")
	}
	if cfg.DatabaseID == "" {
		return nil, errors.New("notion database id required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	client := &Client{
		cfg:           cfg,
		httpClient:    &http.Client{Timeout: defaultHTTPTimeout},
		retryAttempts: defaultRetryAttempts,
		retryDelay:    defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// QueryPageByTitle looks up a page by exact title equality on the
// title property. A missing page returns an empty id, not an error.
func (c *Client) QueryPageByTitle(ctx context.Context, title string) (string, error) {
	body := map[string]any{
		"filter": map[string]any{
			"property": propertyName,
			"title":    map[string]any{"equals": title},
		},
		"page_size": 1,
	}
	var payload struct {
		Results []Page `json:"results"`
	}
	path := fmt.Sprintf("/databases/%s/query", c.cfg.DatabaseID)
	if err := c.doJSON(ctx, http.MethodPost, path, body, &payload); err != nil {
		return "", fmt.Errorf("query page by title: %w", err)
	}
	if len(payload.Results) == 0 {
		return "", nil
	}
	return payload.Results[0].ID, nil
}

// CreatePage creates a new page under the configured database.
func (c *Client) CreatePage(ctx context.Context, properties map[string]any) (Page, error) {
	body := map[string]any{
		"parent":     map[string]any{"database_id": c.cfg.DatabaseID},
		"properties": properties,
	}
	var page Page
	if err := c.doJSON(ctx, http.MethodPost, "/pages", body, &page); err != nil {
		return Page{}, fmt.Errorf("create page: %w", err)
	}
	return page, nil
}

// UpdatePage patches the properties of an existing page.
func (c *Client) UpdatePage(ctx context.Context, pageID string, properties map[string]any) (Page, error) {
	if strings.TrimSpace(pageID) == "" {
		return Page{}, errors.New("update page: page id required")
	}
	body := map[string]any{"properties": properties}
	var page Page
	if err := c.doJSON(ctx, http.MethodPatch, "/pages/"+pageID, body, &page); err != nil {
		return Page{}, fmt.Errorf("update page: %w", err)
	}
	return page, nil
}

// doJSON issues one API call with in-place retries. Rate limiting and
// transient transport failures retry with a fixed delay; any other
// non-success status is a hard failure.
func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var lastErr error
	for attempt := 1; attempt <= c.retryAttempts; attempt++ {
		if attempt > 1 {
			if err := c.sleep(ctx); err != nil {
				return err
			}
		}
		err := c.sendOnce(ctx, method, path, body, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if !errors.Is(err, services.ErrRateLimited) && !errors.Is(err, services.ErrTransient) {
			return err
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", c.retryAttempts, lastErr)
}

func (c *Client) sendOnce(ctx context.Context, method, path string, body any, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Notion-Version", apiVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return services.Wrap(services.ErrTransient, "persist", "api request", "document store unreachable", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return services.Wrap(services.ErrTransient, "persist", "api request", "read response", err)
	}
	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
	case resp.StatusCode == http.StatusTooManyRequests:
		return services.Wrap(services.ErrRateLimited, "persist", "api request", "rate limited", nil)
	default:
		return fmt.Errorf("http %d: %s", resp.StatusCode, apiErrorMessage(raw))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func apiErrorMessage(raw []byte) string {
	var payload struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Message != "" {
		return strings.TrimSpace(payload.Message)
	}
	return strings.TrimSpace(string(raw))
}

func (c *Client) sleep(ctx context.Context) error {
	if c.retryDelay <= 0 {
		return ctx.Err()
	}
	if c.sleeper != nil {
		c.sleeper(c.retryDelay)
		return ctx.Err()
	}
	timer := time.NewTimer(c.retryDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
