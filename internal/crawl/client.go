package crawl

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Options configures a crawl client.
type Options struct {
	// Endpoint is the HTML search endpoint queried via POST.
	Endpoint string
	// UserAgent is sent on every request.
	UserAgent string
	// MaxResults caps the number of collected search results.
	MaxResults int
	// MaxPages caps how many result pages are fetched for previews.
	MaxPages int
	// Delay is the pause between consecutive network requests.
	Delay time.Duration
	// Timeout is the per-request timeout.
	Timeout time.Duration
}

// Client performs keyword searches and page preview fetches.
type Client struct {
	logger     *slog.Logger
	opts       Options
	httpClient *http.Client
}

// NewClient constructs a crawl client from the given options.
func NewClient(logger *slog.Logger, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Endpoint) == "" {
		return nil, fmt.Errorf("search endpoint is empty")
	}
	if opts.MaxResults <= 0 {
		return nil, fmt.Errorf("max results must be positive")
	}
	if opts.MaxPages < 0 {
		return nil, fmt.Errorf("max pages must not be negative")
	}
	return &Client{
		logger: logger,
		opts:   opts,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
	}, nil
}

// Search collects up to MaxResults results for the keyword, paging through
// the endpoint by result offset until a page yields nothing new.
func (c *Client) Search(ctx context.Context, keyword string) ([]SearchResult, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, fmt.Errorf("keyword is empty")
	}

	var results []SearchResult
	offset := 0

	for len(results) < c.opts.MaxResults {
		page, err := c.searchPage(ctx, keyword, offset)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}

		for _, result := range page {
			results = append(results, result)
			if len(results) >= c.opts.MaxResults {
				break
			}
		}

		c.logger.Debug("search page parsed", "keyword", keyword, "offset", offset, "results", len(page), "collected", len(results))

		offset += len(page)
		if len(results) < c.opts.MaxResults {
			if err := c.sleep(ctx); err != nil {
				return nil, err
			}
		}
	}

	return results, nil
}

// searchPage fetches and parses a single page of search results.
func (c *Client) searchPage(ctx context.Context, keyword string, offset int) ([]SearchResult, error) {
	form := url.Values{
		"q": {keyword},
		"s": {strconv.Itoa(offset)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.opts.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("search endpoint returned %s", resp.Status)
	}

	return parseResults(resp.Body)
}

// FetchPages visits the first MaxPages results and attaches page previews.
// Transport failures are recorded on the result (status 0) instead of
// aborting the crawl.
func (c *Client) FetchPages(ctx context.Context, results []SearchResult) error {
	n := c.opts.MaxPages
	if n > len(results) {
		n = len(results)
	}

	for i := 0; i < n; i++ {
		result := &results[i]

		status, preview, err := c.fetchPage(ctx, result.URL)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("page fetch failed", "url", result.URL, "error", err)
			status = 0
			preview = fmt.Sprintf("Request failed: %v", err)
		}

		result.Page = &PageContent{
			URL:         result.URL,
			Status:      status,
			TextPreview: preview,
		}

		if i < n-1 {
			if err := c.sleep(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Client) fetchPage(ctx context.Context, pageURL string) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode, extractPreview(resp.Body, previewLimit), nil
}

// sleep pauses for the configured delay unless the context is cancelled first.
func (c *Client) sleep(ctx context.Context) error {
	if c.opts.Delay <= 0 {
		return nil
	}
	timer := time.NewTimer(c.opts.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SaveResults writes results as indented JSON to path, creating parent directories.
func SaveResults(path string, results []SearchResult) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	if results == nil {
		results = []SearchResult{}
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}
