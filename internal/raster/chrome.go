package raster

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"

	"countdown/internal/core"
)

const (
	viewportWidth  = 1600
	viewportHeight = 1000
)

// ChromeConfig holds chromedp settings.
type ChromeConfig struct {
	// RemoteURL is a DevTools websocket URL (e.g. ws://headless-shell:9222).
	// When set no local browser is started.
	RemoteURL string

	// ExecPath overrides the Chrome binary used for a local browser
	ExecPath string

	// NoSandbox disables the Chrome sandbox, needed when running as root in containers
	NoSandbox bool
}

// ChromeRasterizer renders SVG in one long-lived headless browser, opening a
// fresh tab per call.
type ChromeRasterizer struct {
	browserCtx    context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
	scale         float64
	timeout       time.Duration
	closeOnce     sync.Once
}

// NewChromeRasterizer starts (or connects to) the browser.
func NewChromeRasterizer(ctx context.Context, cfg ChromeConfig, density float64, timeout time.Duration) (*ChromeRasterizer, error) {
	var (
		allocCtx    context.Context
		cancelAlloc context.CancelFunc
	)

	// The browser outlives the startup context.
	base := context.WithoutCancel(ctx)

	if cfg.RemoteURL != "" {
		allocCtx, cancelAlloc = chromedp.NewRemoteAllocator(base, cfg.RemoteURL)
	} else {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Headless,
			chromedp.DisableGPU,
		)
		if cfg.ExecPath != "" {
			opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
		}
		if cfg.NoSandbox {
			opts = append(opts, chromedp.NoSandbox)
		}
		allocCtx, cancelAlloc = chromedp.NewExecAllocator(base, opts...)
	}

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	startCtx, cancelStart := context.WithTimeout(ctx, 30*time.Second)
	defer cancelStart()
	stop := context.AfterFunc(startCtx, func() {
		if startCtx.Err() == context.DeadlineExceeded {
			cancelBrowser()
		}
	})
	defer stop()

	// Running with no actions launches the browser.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	slog.Info("chromedp rasterizer ready",
		"remote", cfg.RemoteURL != "",
		"density", density,
		"timeout", timeout,
	)

	return &ChromeRasterizer{
		browserCtx:    browserCtx,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
		scale:         scaleFor(density),
		timeout:       timeout,
	}, nil
}

// Rasterize screenshots the SVG root element at the configured density with
// a transparent background.
func (r *ChromeRasterizer) Rasterize(ctx context.Context, svg []byte) ([]byte, error) {
	if err := checkSVG(svg); err != nil {
		return nil, core.NewImageGenerationError(BackendChrome, "malformed svg", err)
	}

	tabCtx, cancelTab := chromedp.NewContext(r.browserCtx)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, r.timeout)
	defer cancelTimeout()
	stop := context.AfterFunc(ctx, cancelTimeout)
	defer stop()

	dataURI := "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString(svg)

	var png []byte
	err := chromedp.Run(tabCtx,
		emulation.SetDeviceMetricsOverride(viewportWidth, viewportHeight, 1, false),
		emulation.SetDefaultBackgroundColorOverride().WithColor(&cdp.RGBA{R: 0, G: 0, B: 0, A: 0}),
		chromedp.Navigate(dataURI),
		chromedp.WaitVisible(`svg`, chromedp.ByQuery),
		chromedp.ScreenshotScale(`svg`, r.scale, &png, chromedp.ByQuery),
	)
	if err != nil {
		return nil, core.NewImageGenerationError(BackendChrome, "chromedp execution failed", err)
	}
	if len(png) == 0 {
		return nil, core.NewImageGenerationError(BackendChrome, "screenshot buffer is empty", nil)
	}
	return png, nil
}

// Close shuts the browser down.
func (r *ChromeRasterizer) Close() error {
	r.closeOnce.Do(func() {
		r.cancelBrowser()
		r.cancelAlloc()
	})
	return nil
}
