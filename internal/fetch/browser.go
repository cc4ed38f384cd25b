package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/jonathan/permitindex/internal/logging"
)

// Screenshot defaults match a common desktop viewport.
const (
	DefaultScreenshotWidth   = 1920
	DefaultScreenshotHeight  = 1080
	DefaultScreenshotQuality = 90
)

// newBrowser starts a headless Chrome and returns a context bound to it.
// Requires Chrome/Chromium to be installed on the system.
func newBrowser(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	timeoutCtx, cancelTimeout := context.WithTimeout(browserCtx, timeout)

	return timeoutCtx, func() {
		cancelTimeout()
		cancelBrowser()
		cancelAlloc()
	}
}

// WithBrowser renders a page in a headless browser and returns the rendered HTML.
// The SEO audit uses it to see the DOM after scripts have run.
func WithBrowser(ctx context.Context, url string, timeout time.Duration, log *logging.Logger) (string, error) {
	if log == nil {
		log = logging.Nop()
	}
	log.Debug("starting headless browser", "url", url)

	browserCtx, cancel := newBrowser(ctx, timeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("browser rendering failed: %w", err)
	}

	log.Debug("rendered page", "url", url, "bytes", len(html))
	return html, nil
}

// ScreenshotOptions configures Screenshot.
type ScreenshotOptions struct {
	Width   int64
	Height  int64
	Quality int           // 100 yields PNG, lower values JPEG
	Timeout time.Duration // whole capture, including browser start
	Log     *logging.Logger
}

// Screenshot captures the full scrollable page at url.
func Screenshot(ctx context.Context, url string, opts ScreenshotOptions) ([]byte, error) {
	if opts.Width <= 0 {
		opts.Width = DefaultScreenshotWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultScreenshotHeight
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = DefaultScreenshotQuality
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Log == nil {
		opts.Log = logging.Nop()
	}

	opts.Log.Info("capturing screenshot", "url", url, "width", opts.Width, "height", opts.Height)

	browserCtx, cancel := newBrowser(ctx, opts.Timeout)
	defer cancel()

	var buf []byte
	err := chromedp.Run(browserCtx,
		chromedp.EmulateViewport(opts.Width, opts.Height),
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.FullScreenshot(&buf, opts.Quality),
	)
	if err != nil {
		return nil, &Error{URL: url, Message: "screenshot failed", Cause: err}
	}
	return buf, nil
}
