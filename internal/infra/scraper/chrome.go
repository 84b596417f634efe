package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// ChromeConfig configures the headless browser renderer.
type ChromeConfig struct {
	// ExecPath is the Chrome/Chromium binary. Empty uses chromedp's lookup.
	ExecPath string
	// Timeout bounds one render, browser start-up included.
	Timeout time.Duration
	// SettleDelay is the extra wait after the body is ready, for client-side rendering.
	SettleDelay time.Duration
	// WaitSelector is the element that must be ready before the HTML is read.
	WaitSelector string
	UserAgent    string
}

// DefaultChromeConfig returns settings suited to the essay site.
func DefaultChromeConfig() ChromeConfig {
	return ChromeConfig{
		Timeout:      45 * time.Second,
		SettleDelay:  3 * time.Second,
		WaitSelector: "body",
		UserAgent:    defaultUserAgent,
	}
}

// ChromeRenderer renders JavaScript-heavy pages in a headless browser.
// Requires Chrome/Chromium to be installed on the system.
type ChromeRenderer struct {
	cfg ChromeConfig
}

// NewChromeRenderer creates a ChromeRenderer.
func NewChromeRenderer(cfg ChromeConfig) *ChromeRenderer {
	if cfg.WaitSelector == "" {
		cfg.WaitSelector = "body"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultChromeConfig().Timeout
	}
	return &ChromeRenderer{cfg: cfg}
}

// Name implements PageRenderer.
func (r *ChromeRenderer) Name() string { return "chrome" }

// Render navigates to url and returns the rendered document HTML.
func (r *ChromeRenderer) Render(ctx context.Context, url string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("lang", "ja-JP"),
	)
	if r.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(r.cfg.ExecPath))
	}
	if r.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(r.cfg.UserAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, r.cfg.Timeout)
	defer cancelTimeout()

	var html string
	actions := []chromedp.Action{
		chromedp.Navigate(url),
		chromedp.WaitReady(r.cfg.WaitSelector),
	}
	if r.cfg.SettleDelay > 0 {
		actions = append(actions, chromedp.Sleep(r.cfg.SettleDelay))
	}
	actions = append(actions, chromedp.OuterHTML("html", &html))

	if err := chromedp.Run(browserCtx, actions...); err != nil {
		return "", fmt.Errorf("browser rendering failed: %w", err)
	}
	return html, nil
}
