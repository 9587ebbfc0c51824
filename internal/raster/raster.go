// Package raster converts countdown SVG markup into PNG bytes.
//
// Two backends exist: a headless Chrome driven through chromedp (default) and
// ImageMagick through imagick, compiled in only with the "imagick" build tag.
// Every failure is reported as a *core.ImageError.
package raster

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"time"
)

// Backend names accepted in configuration.
const (
	BackendChrome = "chromedp"
	BackendMagick = "imagick"
)

const (
	// DefaultDensity is the rendering density in DPI. SVG user units are
	// treated as 72 DPI, so 150 scales the output by about 2.08.
	DefaultDensity = 150.0

	// DefaultTimeout bounds a single rasterization.
	DefaultTimeout = 10 * time.Second

	baseDensity = 72.0
)

// Rasterizer turns well-formed SVG markup into PNG bytes.
// Implementations must be safe for concurrent use.
type Rasterizer interface {
	Rasterize(ctx context.Context, svg []byte) ([]byte, error)
	Close() error
}

// Func adapts a plain function to the Rasterizer interface.
type Func func(ctx context.Context, svg []byte) ([]byte, error)

// Rasterize calls f(ctx, svg).
func (f Func) Rasterize(ctx context.Context, svg []byte) ([]byte, error) {
	return f(ctx, svg)
}

// Close is a no-op.
func (f Func) Close() error { return nil }

// Config selects and tunes a backend.
type Config struct {
	// Backend is "chromedp" (default) or "imagick"
	Backend string

	// Density is the output DPI (defaults to 150)
	Density float64

	// Timeout bounds one rasterization (defaults to 10s)
	Timeout time.Duration

	// Chrome holds chromedp-specific settings
	Chrome ChromeConfig
}

// New creates the configured backend.
func New(ctx context.Context, cfg Config) (Rasterizer, error) {
	if cfg.Density <= 0 {
		cfg.Density = DefaultDensity
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	switch cfg.Backend {
	case "", BackendChrome:
		r, err := NewChromeRasterizer(ctx, cfg.Chrome, cfg.Density, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		return r, nil
	case BackendMagick:
		r, err := NewMagickRasterizer(cfg.Density)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown rasterizer backend %q", cfg.Backend)
	}
}

// scaleFor converts a DPI density to a device scale factor.
func scaleFor(density float64) float64 {
	if density <= 0 {
		density = DefaultDensity
	}
	return density / baseDensity
}

var errNotSVG = errors.New("document root is not <svg>")

// checkSVG rejects malformed markup before it reaches a backend, so broken
// input fails fast instead of rendering an error page.
func checkSVG(svg []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(svg))
	sawRoot := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			if !sawRoot {
				return errNotSVG
			}
			return nil
		}
		if err != nil {
			return err
		}
		if start, ok := tok.(xml.StartElement); ok && !sawRoot {
			if start.Name.Local != "svg" {
				return errNotSVG
			}
			sawRoot = true
		}
	}
}
