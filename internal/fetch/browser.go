package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// MinContentLength is the shortest extracted text accepted from a plain HTTP fetch.
// Shorter text usually means the posting is rendered client-side.
const MinContentLength = 500

// ShouldUseBrowser reports whether extracted text is too short to be a real posting.
func ShouldUseBrowser(extractedText string) bool {
	return len(strings.TrimSpace(extractedText)) < MinContentLength
}

// BrowserOptions configures headless rendering.
type BrowserOptions struct {
	Timeout time.Duration
	// Settle is how long to wait after the body is ready for scripts to render content.
	Settle time.Duration
	Logger *slog.Logger
}

// WithBrowser renders a page in headless Chrome and returns the resulting HTML.
// Chrome or Chromium must be installed.
func WithBrowser(ctx context.Context, rawURL string, opts BrowserOptions) (string, error) {
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Settle == 0 {
		opts.Settle = 3 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(DefaultUserAgent),
		)...,
	)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, opts.Timeout)
	defer cancelTimeout()

	logger.Debug("fetch.browser.start", "url", rawURL)
	start := time.Now()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body"),
		chromedp.Sleep(opts.Settle),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", &Error{URL: rawURL, Message: "browser rendering failed", Cause: err}
	}

	logger.Debug("fetch.browser.done",
		"url", rawURL,
		"bytes", len(html),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return html, nil
}

// JobPageText fetches a job posting and extracts its text with platform-aware selectors.
// With useBrowser set, thin pages are re-rendered in a headless browser; if rendering
// fails the HTTP text is kept.
func JobPageText(ctx context.Context, rawURL string, useBrowser bool, opts *Options) (string, Platform, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	platform := DetectPlatform(rawURL)
	content, noise := Selectors(platform)

	page, err := URL(ctx, rawURL, opts)
	if err != nil {
		return "", platform, err
	}

	text, err := ExtractMainText(page.HTML, content, noise...)
	if err != nil {
		return "", platform, fmt.Errorf("failed to extract text from %s: %w", rawURL, err)
	}

	if useBrowser && ShouldUseBrowser(text) {
		logger.Info("fetch.browser.fallback", "url", rawURL, "chars", len(text))
		html, berr := WithBrowser(ctx, rawURL, BrowserOptions{Timeout: opts.Timeout, Logger: logger})
		if berr != nil {
			logger.Warn("fetch.browser.failed", "url", rawURL, "error", berr)
			return text, platform, nil
		}
		if rendered, xerr := ExtractMainText(html, content, noise...); xerr == nil && len(rendered) > len(text) {
			text = rendered
		}
	}

	return text, platform, nil
}
