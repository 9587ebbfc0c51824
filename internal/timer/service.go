package timer

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"countdown/internal/cache"
	"countdown/internal/core"
	"countdown/internal/countdown"
	"countdown/internal/observability"
	"countdown/internal/raster"
	"countdown/internal/render"
)

// Config holds the collaborators of a Service.
type Config struct {
	// Store caches PNG output; nil disables caching
	Store cache.Store

	// Rasterizer converts SVG to PNG; required for RenderPNG
	Rasterizer raster.Rasterizer

	// Backend names the rasterizer in logs and metrics
	Backend string

	// RasterTimeout bounds one rasterization (0 means no extra bound)
	RasterTimeout time.Duration

	// Recorder receives metrics events (defaults to a no-op)
	Recorder observability.Recorder

	// Now overrides the clock used for time remaining, for tests
	Now func() time.Time
}

// Service renders countdown images.
type Service struct {
	store         cache.Store
	rasterizer    raster.Rasterizer
	backend       string
	rasterTimeout time.Duration
	recorder      observability.Recorder
	now           func() time.Time
}

// NewService creates a pipeline service.
func NewService(cfg Config) *Service {
	recorder := cfg.Recorder
	if recorder == nil {
		recorder = observability.Nop{}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:         cfg.Store,
		rasterizer:    cfg.Rasterizer,
		backend:       cfg.Backend,
		rasterTimeout: cfg.RasterTimeout,
		recorder:      recorder,
		now:           now,
	}
}

// Segments computes the four countdown segments for p at the current time.
func (s *Service) Segments(p Params) []core.Segment {
	var remaining int64
	if p.HasTarget {
		remaining = countdown.SecondsRemaining(p.Target, s.now())
	}
	return countdown.BuildSegments(remaining, p.Style.LabelStyle)
}

// RenderSVG renders the countdown for q as SVG markup. It cannot fail.
func (s *Service) RenderSVG(q url.Values) string {
	p := ParseParams(q)
	s.recorder.Rendered("svg", string(p.Style.Template))
	return render.RenderStyle(p.Style, s.Segments(p))
}

// PNGResult is a rasterized countdown.
type PNGResult struct {
	Body []byte
	// Hit reports whether Body came from the cache
	Hit bool
}

// RenderPNG returns the PNG for q, from cache when a fresh entry exists.
// Cache failures are logged and treated as misses. Rasterization is not
// cancelled when ctx is; the finished image is still cached. Errors wrap
// core.ErrImageGeneration and nothing is cached on failure.
func (s *Service) RenderPNG(ctx context.Context, q url.Values) (PNGResult, error) {
	key := cache.Key(q)

	if s.store == nil {
		s.recorder.CacheLookup(observability.CacheMiss)
	} else {
		buf, ok, err := s.store.Get(ctx, key)
		switch {
		case err != nil:
			s.recorder.CacheLookup(observability.CacheError)
			slog.WarnContext(ctx, "png cache lookup failed", "error", err, core.RequestAttr(ctx))
		case ok:
			s.recorder.CacheLookup(observability.CacheHit)
			return PNGResult{Body: buf, Hit: true}, nil
		default:
			s.recorder.CacheLookup(observability.CacheMiss)
		}
	}

	if s.rasterizer == nil {
		return PNGResult{}, core.NewImageGenerationError(s.backend, "no rasterizer configured", nil)
	}

	p := ParseParams(q)
	svg := render.RenderStyle(p.Style, s.Segments(p))

	workCtx := context.WithoutCancel(ctx)
	if s.rasterTimeout > 0 {
		var cancel context.CancelFunc
		workCtx, cancel = context.WithTimeout(workCtx, s.rasterTimeout)
		defer cancel()
	}

	start := time.Now()
	png, err := s.rasterizer.Rasterize(workCtx, []byte(svg))
	s.recorder.Rasterized(s.backend, time.Since(start), err)
	if err != nil {
		if !errors.Is(err, core.ErrImageGeneration) {
			err = core.NewImageGenerationError(s.backend, "rasterize", err)
		}
		return PNGResult{}, err
	}
	s.recorder.Rendered("png", string(p.Style.Template))

	if s.store != nil {
		if err := s.store.Set(context.WithoutCancel(ctx), key, png); err != nil {
			slog.WarnContext(ctx, "png cache store failed", "error", err, core.RequestAttr(ctx))
		}
	}

	return PNGResult{Body: png}, nil
}
