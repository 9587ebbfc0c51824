//go:build imagick

package raster

import (
	"bytes"
	"context"
	"log/slog"
	"sync"

	"gopkg.in/gographics/imagick.v3/imagick"

	"countdown/internal/core"
)

// MagickRasterizer renders SVG through ImageMagick's MagickWand API.
type MagickRasterizer struct {
	density   float64
	closeOnce sync.Once
}

// NewMagickRasterizer initializes the ImageMagick environment.
func NewMagickRasterizer(density float64) (*MagickRasterizer, error) {
	imagick.Initialize()
	slog.Info("imagick rasterizer ready", "density", density)
	return &MagickRasterizer{density: density}, nil
}

// Rasterize reads the SVG at the configured density and encodes it as PNG
// with a transparent background. The call does not observe ctx.
func (r *MagickRasterizer) Rasterize(_ context.Context, svg []byte) ([]byte, error) {
	if err := checkSVG(svg); err != nil {
		return nil, core.NewImageGenerationError(BackendMagick, "malformed svg", err)
	}

	mw := imagick.NewMagickWand()
	defer mw.Destroy()

	bg := imagick.NewPixelWand()
	defer bg.Destroy()
	bg.SetColor("none")

	if err := mw.SetBackgroundColor(bg); err != nil {
		return nil, core.NewImageGenerationError(BackendMagick, "set background", err)
	}
	if err := mw.SetResolution(r.density, r.density); err != nil {
		return nil, core.NewImageGenerationError(BackendMagick, "set resolution", err)
	}
	if err := mw.ReadImageBlob(svg); err != nil {
		return nil, core.NewImageGenerationError(BackendMagick, "read svg", err)
	}
	if err := mw.SetImageFormat("png"); err != nil {
		return nil, core.NewImageGenerationError(BackendMagick, "set format", err)
	}

	blob := mw.GetImageBlob()
	if len(blob) == 0 {
		return nil, core.NewImageGenerationError(BackendMagick, "empty image blob", nil)
	}
	return bytes.Clone(blob), nil
}

// Close terminates the ImageMagick environment.
func (r *MagickRasterizer) Close() error {
	r.closeOnce.Do(imagick.Terminate)
	return nil
}
