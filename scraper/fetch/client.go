// Package fetch provides the shared document/JSON acquisition layer used by
// the marketplace adapters. Every client paces its outbound requests so a
// marketplace sees at most one request per configured interval, regardless
// of how many search terms run concurrently.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DocumentFetcher retrieves a parsed HTML document for a URL. The plain
// HTTP Client and the chromedp Renderer both satisfy it; adapters depend
// only on this capability.
type DocumentFetcher interface {
	GetDocument(ctx context.Context, pageURL string) (*goquery.Document, error)
}

// browserHeaders make requests look like a regular browser session. They are
// read-only after construction and safe for concurrent reuse.
var browserHeaders = map[string]string{
	"User-Agent":                "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.5",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
}

// pacer enforces a minimum interval between requests to one marketplace.
type pacer struct {
	mu          sync.Mutex
	minInterval time.Duration
	lastRequest time.Time
}

func (p *pacer) wait(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.minInterval <= 0 {
		return ctx.Err()
	}
	if remaining := p.minInterval - time.Since(p.lastRequest); remaining > 0 {
		select {
		case <-time.After(remaining):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p.lastRequest = time.Now()
	return nil
}

// Client is a paced HTTP client for one marketplace.
type Client struct {
	http  *http.Client
	pacer pacer
}

// NewClient creates a Client that leaves at least minInterval between
// consecutive requests.
func NewClient(minInterval time.Duration) *Client {
	return &Client{
		http:  &http.Client{Timeout: 30 * time.Second},
		pacer: pacer{minInterval: minInterval, lastRequest: time.Now().Add(-minInterval)},
	}
}

func (c *Client) get(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	if err := c.pacer.wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("http status %d for %s", resp.StatusCode, rawURL)
	}
	return io.ReadAll(resp.Body)
}

// GetDocument fetches a page and parses it with goquery.
func (c *Client) GetDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	body, err := c.get(ctx, pageURL, nil)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse document %s: %w", pageURL, err)
	}
	return doc, nil
}

// GetJSON issues a GET with the given query parameters and extra headers and
// decodes the JSON response into v.
func (c *Client) GetJSON(ctx context.Context, baseURL string, params url.Values, headers map[string]string, v any) error {
	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("parse url %s: %w", baseURL, err)
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}

	if headers == nil {
		headers = map[string]string{}
	}
	if _, ok := headers["Accept"]; !ok {
		headers["Accept"] = "application/json"
	}

	body, err := c.get(ctx, u.String(), headers)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode json from %s: %w", baseURL, err)
	}
	return nil
}
