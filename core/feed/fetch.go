package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// DefaultURL is the public LOLRMM tool feed.
const DefaultURL = "https://lolrmm.io/api/rmm_tools.json"

// Fetcher returns a full snapshot of the feed.
type Fetcher interface {
	Fetch(ctx context.Context) ([]Tool, error)
}

// HTTPFetcher downloads the feed over HTTP.
type HTTPFetcher struct {
	URL       string
	UserAgent string
	client    *http.Client
}

// NewHTTPFetcher creates a fetcher for url with the given request timeout.
// An empty url selects DefaultURL; a non-positive timeout defaults to 60 seconds.
func NewHTTPFetcher(url string, timeout time.Duration) *HTTPFetcher {
	if url == "" {
		url = DefaultURL
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPFetcher{
		URL:       url,
		UserAgent: "Mozilla/5.0",
		client:    &http.Client{Timeout: timeout},
	}
}

// Fetch downloads and decodes the feed.
func (f *HTTPFetcher) Fetch(ctx context.Context) ([]Tool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create feed request: %w", err)
	}
	req.Header.Set("User-Agent", f.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch feed: unexpected status %d", resp.StatusCode)
	}

	return Decode(resp.Body)
}

// FileFetcher reads a previously saved feed snapshot from disk.
type FileFetcher struct {
	Path string
}

// Fetch reads and decodes the snapshot file.
func (f *FileFetcher) Fetch(ctx context.Context) ([]Tool, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open feed file: %w", err)
	}
	defer file.Close()

	return Decode(file)
}

// Decode parses a JSON feed document.
func Decode(r io.Reader) ([]Tool, error) {
	var tools []Tool
	if err := json.NewDecoder(r).Decode(&tools); err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return tools, nil
}
