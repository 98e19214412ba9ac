// Package snapshot renders exported chart pages to PNG with a headless browser.
package snapshot

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
)

// ReadySelector matches the chart container once plotly has drawn it
const ReadySelector = `#chart.rendered`

// Options controls the browser used for a capture
type Options struct {
	Timeout time.Duration
	Width   int
	Height  int
	Visible bool // Show the browser window, for debugging
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.Width <= 0 {
		o.Width = 1280
	}
	if o.Height <= 0 {
		o.Height = 800
	}
	return o
}

// FileURL returns the file:// URL of a local page
func FileURL(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}

func allocatorOptions(o Options) []chromedp.ExecAllocatorOption {
	return append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", !o.Visible),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.WindowSize(o.Width, o.Height),
	)
}

// Capture loads an exported chart page and writes a PNG of the chart element
func Capture(ctx context.Context, htmlPath, pngPath string, opts Options) error {
	opts = opts.withDefaults()

	pageURL, err := FileURL(htmlPath)
	if err != nil {
		return err
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, allocatorOptions(opts)...)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, opts.Timeout)
	defer cancel()

	var buf []byte
	if err := chromedp.Run(browserCtx,
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		emulation.SetDefaultBackgroundColorOverride().WithColor(&cdp.RGBA{R: 255, G: 255, B: 255, A: 1}),
		chromedp.Navigate(pageURL),
		chromedp.WaitVisible(ReadySelector, chromedp.ByQuery),
		chromedp.Screenshot(ReadySelector, &buf, chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("capturing %s: %w", htmlPath, err)
	}

	if err := os.WriteFile(pngPath, buf, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", pngPath, err)
	}
	return nil
}
