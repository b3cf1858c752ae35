package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Common errors.
var (
	ErrNotFound     = errors.New("hub: resource not found")
	ErrForbidden    = errors.New("hub: access forbidden")
	ErrUnauthorized = errors.New("hub: unauthorized")
	ErrServerError  = errors.New("hub: server error")
)

// PageCap is the maximum number of entries the tree endpoint returns
// per page.
const PageCap = 1000

// Options configures the hub client.
type Options struct {
	// BaseURL is the hub endpoint.
	// Default: https://huggingface.co
	BaseURL string

	// Repo is the dataset repository id (owner/name).
	Repo string

	// Revision is the git revision to read from.
	// Default: main
	Revision string

	// Attempts is the total number of tries per request.
	// Default: 3
	Attempts int

	// Backoff is the base delay between tries. The delay before try
	// n+1 is Backoff * n (linear, no jitter).
	// Default: 1s
	Backoff time.Duration

	// MaxIdleConnsPerHost sets the maximum idle connections per host.
	// Default: 32
	MaxIdleConnsPerHost int
}

// DefaultOptions returns options with sensible defaults. Repo must
// still be set by the caller.
func DefaultOptions() Options {
	return Options{
		BaseURL:             "https://huggingface.co",
		Revision:            "main",
		Attempts:            3,
		Backoff:             time.Second,
		MaxIdleConnsPerHost: 32,
	}
}

// TreeEntry is one record from the dataset tree listing endpoint.
type TreeEntry struct {
	Type string `json:"type"`
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// Client talks to the dataset hub API with bounded retry.
type Client struct {
	client *http.Client
	opts   Options
}

// NewClient creates a hub client with the given options. Zero-valued
// fields fall back to DefaultOptions.
func NewClient(opts Options) *Client {
	def := DefaultOptions()
	if opts.BaseURL == "" {
		opts.BaseURL = def.BaseURL
	}
	if opts.Revision == "" {
		opts.Revision = def.Revision
	}
	if opts.Attempts <= 0 {
		opts.Attempts = def.Attempts
	}
	if opts.Backoff <= 0 {
		opts.Backoff = def.Backoff
	}
	if opts.MaxIdleConnsPerHost <= 0 {
		opts.MaxIdleConnsPerHost = def.MaxIdleConnsPerHost
	}

	transport := &http.Transport{
		MaxIdleConnsPerHost: opts.MaxIdleConnsPerHost,
		MaxIdleConns:        opts.MaxIdleConnsPerHost * 2,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		client: &http.Client{Transport: transport},
		opts:   opts,
	}
}

// ResolveURL returns the raw-content URL for a repo-relative path.
func (c *Client) ResolveURL(path string) string {
	return fmt.Sprintf("%s/datasets/%s/resolve/%s/%s",
		c.opts.BaseURL, c.opts.Repo, c.opts.Revision, path)
}

func (c *Client) treeURL(path, cursor string) string {
	u := fmt.Sprintf("%s/api/datasets/%s/tree/%s/%s",
		c.opts.BaseURL, c.opts.Repo, c.opts.Revision, path)
	if cursor != "" {
		u += "?cursor=" + url.QueryEscape(cursor)
	}
	return u
}

// Get performs a GET with bounded retry. Every transport error and
// every non-2xx status is retried identically up to Attempts total
// tries; the last error is returned after exhaustion. The caller must
// close the returned body.
func (c *Client) Get(ctx context.Context, url string) (io.ReadCloser, error) {
	resp, err := c.do(ctx, url)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// GetBytes performs a retrying GET and reads the whole body.
func (c *Client) GetBytes(ctx context.Context, url string) ([]byte, error) {
	body, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}

// ListTree lists all file entries under a repo-relative directory,
// following pagination cursors from the Link response header. It
// stops when a page yields fewer than PageCap entries or no next
// cursor. The truncated flag is set when the last page was full but
// carried no cursor, meaning the listing may be incomplete.
func (c *Client) ListTree(ctx context.Context, path string) (entries []TreeEntry, truncated bool, err error) {
	cursor := ""
	for {
		resp, err := c.do(ctx, c.treeURL(path, cursor))
		if err != nil {
			return nil, false, err
		}

		var page []TreeEntry
		decodeErr := json.NewDecoder(resp.Body).Decode(&page)
		resp.Body.Close()
		if decodeErr != nil {
			return nil, false, fmt.Errorf("decode tree listing: %w", decodeErr)
		}

		for _, e := range page {
			if e.Type == "file" {
				entries = append(entries, e)
			}
		}

		if len(page) < PageCap {
			return entries, false, nil
		}
		next := nextCursor(resp.Header.Get("Link"))
		if next == "" {
			return entries, true, nil
		}
		cursor = next
	}
}

// do runs the retry loop for a single URL.
func (c *Client) do(ctx context.Context, url string) (*http.Response, error) {
	var lastErr error

	for attempt := 1; attempt <= c.opts.Attempts; attempt++ {
		if attempt > 1 {
			if err := c.wait(ctx, attempt-1); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = statusError(resp.StatusCode, resp.Status)
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("get %s failed after %d attempts: %w", url, c.opts.Attempts, lastErr)
}

// wait sleeps for Backoff * n, honoring context cancellation.
func (c *Client) wait(ctx context.Context, n int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.opts.Backoff * time.Duration(n)):
		return nil
	}
}

// statusError maps a non-2xx status to a sentinel-wrapped error.
func statusError(code int, status string) error {
	switch {
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, status)
	case code == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrForbidden, status)
	case code == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, status)
	case code >= 500:
		return fmt.Errorf("%w: %s", ErrServerError, status)
	default:
		return fmt.Errorf("unexpected status: %s", status)
	}
}

// nextCursor extracts the pagination cursor from a Link header value.
// The header carries one or more `<url>; rel="..."` segments; the
// cursor is the `cursor` query parameter of the rel="next" target.
func nextCursor(link string) string {
	for _, part := range strings.Split(link, ",") {
		segs := strings.Split(part, ";")
		if len(segs) < 2 {
			continue
		}
		rel := false
		for _, s := range segs[1:] {
			if strings.TrimSpace(s) == `rel="next"` {
				rel = true
			}
		}
		if !rel {
			continue
		}
		target := strings.TrimSpace(segs[0])
		target = strings.TrimPrefix(target, "<")
		target = strings.TrimSuffix(target, ">")
		u, err := url.Parse(target)
		if err != nil {
			return ""
		}
		return u.Query().Get("cursor")
	}
	return ""
}
