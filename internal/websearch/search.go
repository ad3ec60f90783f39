// Package websearch queries DuckDuckGo's HTML endpoint and enriches the
// results with concurrently fetched article text.
package websearch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultEndpoint = "https://html.duckduckgo.com/html/"

	browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	searchTimeout = 10 * time.Second
	fetchTimeout  = 8 * time.Second
	joinTimeout   = 15 * time.Second
	fetchWorkers  = 3

	// maxContentLength bounds per-result article text in the context.
	maxContentLength = 2000

	maxBodyBytes = 10 * 1024 * 1024
)

// Result is one web search hit. Content is filled by the fetch stage and
// falls back to Snippet when the page cannot be fetched in time.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Content string `json:"content"`
}

type Client struct {
	httpClient *http.Client
	endpoint   string

	fetchTimeout time.Duration
	joinTimeout  time.Duration
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

func WithEndpoint(endpoint string) Option {
	return func(cl *Client) { cl.endpoint = endpoint }
}

// WithTimeouts overrides the per-fetch and fan-in timeouts.
func WithTimeouts(fetch, join time.Duration) Option {
	return func(cl *Client) {
		cl.fetchTimeout = fetch
		cl.joinTimeout = join
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:   &http.Client{},
		endpoint:     defaultEndpoint,
		fetchTimeout: fetchTimeout,
		joinTimeout:  joinTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search returns up to n results for the query. It never returns an
// error: search is a best-effort augmentation, and any failure shows up
// as an empty or degraded result set, logged for diagnosis.
func (c *Client) Search(ctx context.Context, query string, n int) []Result {
	page, err := c.searchPage(ctx, query)
	if err != nil {
		slog.WarnContext(ctx, "web search failed", "query", query, "error", err)
		return nil
	}

	results := parseResults(page, n)
	if len(results) == 0 {
		return nil
	}
	return c.fetchContents(ctx, results)
}

func (c *Client) searchPage(ctx context.Context, query string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	form := url.Values{"q": {query}, "b": {""}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", browserUA)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", err
	}
	return string(body), nil
}
