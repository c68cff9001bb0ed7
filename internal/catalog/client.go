package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Transport selects how catalog requests are routed.
const (
	TransportDirect  = "direct"
	TransportProxied = "proxied"
)

// Result represents a single catalog search match.
type Result struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Img    string `json:"img"`
	Medium string `json:"medium"`
}

// SearchResponse models the paginated catalog keyword search response.
type SearchResponse struct {
	Count   int      `json:"count"`
	Results []Result `json:"results"`
}

// ImageEntry is one entry of a detail record's images list.
type ImageEntry struct {
	OptionName string `json:"option_name"`
	ImgURL     string `json:"img_url"`
}

// Detail captures the catalog item detail payload. Field names on the
// upstream API are inconsistent across item generations, so several
// fields carry alternates and pointers distinguish absent from zero.
type Detail struct {
	ID                   int64        `json:"id"`
	Name                 string       `json:"name"`
	AirYearQuarter       string       `json:"air_year_quarter"`
	AvgRating            *float64     `json:"avg_rating"`
	Ended                *bool        `json:"ended"`
	IsUpcoming           *bool        `json:"is_upcoming"`
	IsNewRelease         *bool        `json:"is_newest"`
	LatestEpisodeCreated string       `json:"latest_episode_created"`
	Image                string       `json:"image"`
	Img                  string       `json:"img"`
	Images               []ImageEntry `json:"images"`
	Production           string       `json:"production"`
	TotalEpisodes        *int         `json:"total_episodes"`
	EpisodeCount         *int         `json:"episode_count"`
	Tags                 []string     `json:"tags"`
	Medium               string       `json:"medium"`
}

// EpisodePage models the catalog episode listing response.
type EpisodePage struct {
	Count   int       `json:"count"`
	Results []Episode `json:"results"`
}

// Episode describes a single episode entry. Only identity fields are
// consumed; the page count carries the signal the pipeline needs.
type Episode struct {
	ID      int64  `json:"id"`
	Episode string `json:"episode"`
	Title   string `json:"title"`
}

// API defines the catalog operations used by the pipeline stages.
type API interface {
	Search(ctx context.Context, query string, limit int) (*SearchResponse, error)
	Detail(ctx context.Context, id int64) (*Detail, error)
	Episodes(ctx context.Context, id int64) (*EpisodePage, error)
}

// Client provides access to the catalog API.
type Client struct {
	baseURL    string
	proxyURL   string
	transport  string
	httpClient *http.Client
}

var _ API = (*Client)(nil)

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

// New creates a catalog client. Transport must be "direct" or
// "proxied"; proxied mode requires a proxy base URL and routes every
// request through it with the API path appended.
func New(baseURL, proxyURL, transport string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("catalog base url required")
	}
	transport = strings.TrimSpace(strings.ToLower(transport))
	if transport == "" {
		transport = TransportDirect
	}
	if transport != TransportDirect && transport != TransportProxied {
		return nil, fmt.Errorf("catalog transport %q not supported", transport)
	}
	proxyURL = strings.TrimSpace(proxyURL)
	if transport == TransportProxied && proxyURL == "" {
		return nil, errors.New("catalog proxy url required for proxied transport")
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		proxyURL:   strings.TrimRight(proxyURL, "/"),
		transport:  transport,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

func (c *Client) endpoint(path string) string {
	if c.transport == TransportProxied {
		return c.proxyURL + path
	}
	return c.baseURL + path
}

// Search performs a keyword search and returns up to limit results.
func (c *Client) Search(ctx context.Context, query string, limit int) (*SearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	if limit <= 0 {
		limit = 20
	}
	endpoint, err := url.Parse(c.endpoint("/api/search/v1/keyword/"))
	if err != nil {
		return nil, fmt.Errorf("parse catalog url: %w", err)
	}
	params := url.Values{}
	params.Set("keyword", query)
	params.Set("size", strconv.Itoa(limit))
	endpoint.RawQuery = params.Encode()

	var payload SearchResponse
	if err := c.getJSON(ctx, endpoint.String(), "catalog search", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Detail fetches the item detail record by catalog ID.
func (c *Client) Detail(ctx context.Context, id int64) (*Detail, error) {
	if id <= 0 {
		return nil, errors.New("item id must be positive")
	}
	target := c.endpoint(fmt.Sprintf("/api/items/v2/%d/", id))
	var payload Detail
	if err := c.getJSON(ctx, target, "catalog detail", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Episodes fetches the episode listing for a catalog item.
func (c *Client) Episodes(ctx context.Context, id int64) (*EpisodePage, error) {
	if id <= 0 {
		return nil, errors.New("item id must be positive")
	}
	endpoint, err := url.Parse(c.endpoint("/api/episodes/v2/list/"))
	if err != nil {
		return nil, fmt.Errorf("parse catalog url: %w", err)
	}
	params := url.Values{}
	params.Set("item_id", strconv.FormatInt(id, 10))
	params.Set("sort", "oldest")
	endpoint.RawQuery = params.Encode()

	var payload EpisodePage
	if err := c.getJSON(ctx, endpoint.String(), "catalog episodes", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) getJSON(ctx context.Context, target, op string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	// Unofficial API requires the vendor header on direct requests.
	req.Header.Set("laftel", "TeJava")
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s returned 404 (latency=%v): %w", op, latency, ErrItemNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned %d (latency=%v)", op, resp.StatusCode, latency)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}

// ErrItemNotFound marks a 404 from the catalog for a requested item.
var ErrItemNotFound = errors.New("catalog item not found")

// ItemURL returns the public site URL for a catalog item.
func ItemURL(id int64) string {
	return fmt.Sprintf("https://laftel.net/item/%d", id)
}
