//go:build !imagick

package raster

import (
	"context"
	"errors"

	"countdown/internal/core"
)

// ErrMagickUnavailable is returned when the binary was built without the
// "imagick" tag.
var ErrMagickUnavailable = errors.New("imagick backend not compiled in (build with -tags imagick)")

// MagickRasterizer is unavailable in this build.
type MagickRasterizer struct{}

// NewMagickRasterizer always fails in builds without the imagick tag.
func NewMagickRasterizer(_ float64) (*MagickRasterizer, error) {
	return nil, ErrMagickUnavailable
}

// Rasterize always fails in builds without the imagick tag.
func (r *MagickRasterizer) Rasterize(_ context.Context, _ []byte) ([]byte, error) {
	return nil, core.NewImageGenerationError(BackendMagick, "backend unavailable", ErrMagickUnavailable)
}

// Close is a no-op.
func (r *MagickRasterizer) Close() error { return nil }
