package fetch

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

// userAgents are rotated per session so rendered fetches don't present a
// constant fingerprint.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// Renderer fetches pages through a headless browser and hands the rendered
// DOM to goquery. It exists for marketplaces whose search pages are built
// client-side, where a plain GET returns an empty shell.
type Renderer struct {
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	timeout     time.Duration
	pacer       pacer
}

// NewRenderer launches the browser allocator. chromeBin may be empty, in
// which case common install locations are probed.
func NewRenderer(chromeBin string, minInterval time.Duration) *Renderer {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(userAgents[rand.Intn(len(userAgents))]),
	)
	if bin := findChromeBinary(chromeBin); bin != "" {
		opts = append(opts, chromedp.ExecPath(bin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	// Suppress chromedp log noise
	silentCtx, cancelSilent := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	return &Renderer{
		allocCtx: silentCtx,
		cancelAlloc: func() {
			cancelSilent()
			cancelAlloc()
		},
		timeout: 60 * time.Second,
		pacer:   pacer{minInterval: minInterval, lastRequest: time.Now().Add(-minInterval)},
	}
}

// GetDocument navigates to the page, waits for it to settle, and returns the
// rendered DOM as a goquery document.
func (r *Renderer) GetDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	if err := r.pacer.wait(ctx); err != nil {
		return nil, err
	}

	tabCtx, cancelTab := chromedp.NewContext(r.allocCtx)
	defer cancelTab()

	runCtx, cancelTimeout := context.WithTimeout(tabCtx, r.timeout)
	defer cancelTimeout()

	// Honour caller cancellation alongside the tab timeout.
	go func() {
		select {
		case <-ctx.Done():
			cancelTimeout()
		case <-runCtx.Done():
		}
	}()

	var html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(pageURL),
		hideWebDriver(),
		chromedp.Sleep(4*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("render %s: %w", pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse rendered document %s: %w", pageURL, err)
	}
	return doc, nil
}

// Close shuts the browser down.
func (r *Renderer) Close() {
	r.cancelAlloc()
}

// hideWebDriver patches the JS properties bot checks look for.
func hideWebDriver() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		return chromedp.Evaluate(`
			Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
			Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });
			Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });
		`, nil).Do(ctx)
	})
}

// findChromeBinary locates a Chrome/Chromium binary, preferring the
// configured path.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
