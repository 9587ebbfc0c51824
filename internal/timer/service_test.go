package timer

import (
	"context"
	"encoding/xml"
	"errors"
	"io"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"countdown/internal/cache"
	"countdown/internal/core"
	"countdown/internal/raster"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// countingRasterizer returns a deterministic fake PNG derived from the SVG.
type countingRasterizer struct {
	calls atomic.Int32
	err   error
}

func (r *countingRasterizer) Rasterize(_ context.Context, svg []byte) ([]byte, error) {
	r.calls.Add(1)
	if r.err != nil {
		return nil, r.err
	}
	return append([]byte("PNG:"), svg[:32]...), nil
}

func (r *countingRasterizer) Close() error { return nil }

// failingStore errors on every call.
type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("store down")
}
func (failingStore) Set(context.Context, string, []byte) error { return errors.New("store down") }
func (failingStore) Stats(context.Context) cache.Stats        { return cache.Stats{} }
func (failingStore) Close() error                              { return nil }

func TestRenderSVG(t *testing.T) {
	svc := NewService(Config{Now: fixedClock})

	t.Run("future target with short labels", func(t *testing.T) {
		svg := svc.RenderSVG(mustQuery(t, "target=2099-01-01T00:00:00.000Z&label=Sale&template=minimal&labelStyle=short"))

		for _, l := range []string{">D</text>", ">H</text>", ">M</text>", ">S</text>"} {
			assert.Contains(t, svg, l)
		}
		assert.Contains(t, svg, ">Sale</text>")
		assert.Equal(t, 3, strings.Count(svg, ">:</text>"))
	})

	t.Run("past target renders zeros", func(t *testing.T) {
		svg := svc.RenderSVG(mustQuery(t, "target=2000-01-01T00:00:00.000Z"))
		assert.Equal(t, 4, strings.Count(svg, ">00</text>"))
	})

	t.Run("missing target renders zeros", func(t *testing.T) {
		svg := svc.RenderSVG(url.Values{})
		assert.Equal(t, 4, strings.Count(svg, ">00</text>"))
	})

	t.Run("xml-illegal query bytes still yield well-formed svg", func(t *testing.T) {
		for _, raw := range []string{"label=%FF", "label=Sale%01", "font=Arial%0CBold", "label=%00%1F&font=%FF"} {
			svg := svc.RenderSVG(mustQuery(t, raw))

			dec := xml.NewDecoder(strings.NewReader(svg))
			for {
				_, err := dec.Token()
				if err == io.EOF {
					break
				}
				require.NoError(t, err, "query %q", raw)
			}
		}
	})

	t.Run("computes remaining time", func(t *testing.T) {
		target := fixedNow.Add(3*24*time.Hour + 4*time.Hour + 5*time.Minute + 6*time.Second)
		svg := svc.RenderSVG(url.Values{"target": {target.Format(time.RFC3339)}})
		for _, v := range []string{">03</text>", ">04</text>", ">05</text>", ">06</text>"} {
			assert.Contains(t, svg, v)
		}
	})
}

func TestRenderPNG(t *testing.T) {
	ctx := context.Background()
	q := mustQuery(t, "target=2099-01-01T00:00:00.000Z&label=Sale")

	t.Run("miss then hit with identical bytes", func(t *testing.T) {
		r := &countingRasterizer{}
		svc := NewService(Config{
			Store:      cache.NewLocalStore(cache.LocalConfig{TTL: 5 * time.Second}),
			Rasterizer: r,
			Now:        fixedClock,
		})

		first, err := svc.RenderPNG(ctx, q)
		require.NoError(t, err)
		assert.False(t, first.Hit)

		second, err := svc.RenderPNG(ctx, q)
		require.NoError(t, err)
		assert.True(t, second.Hit)
		assert.Equal(t, first.Body, second.Body)
		assert.Equal(t, int32(1), r.calls.Load())
	})

	t.Run("parameter order shares an entry", func(t *testing.T) {
		r := &countingRasterizer{}
		svc := NewService(Config{Store: cache.NewLocalStore(cache.LocalConfig{}), Rasterizer: r, Now: fixedClock})

		_, err := svc.RenderPNG(ctx, mustQuery(t, "label=A&bg=000"))
		require.NoError(t, err)
		res, err := svc.RenderPNG(ctx, mustQuery(t, "bg=000&label=A"))
		require.NoError(t, err)
		assert.True(t, res.Hit)
	})

	t.Run("expired entry regenerates", func(t *testing.T) {
		r := &countingRasterizer{}
		storeNow := fixedNow
		store := cache.NewLocalStore(cache.LocalConfig{TTL: 5 * time.Second, Now: func() time.Time { return storeNow }})
		svc := NewService(Config{Store: store, Rasterizer: r, Now: fixedClock})

		_, err := svc.RenderPNG(ctx, q)
		require.NoError(t, err)
		storeNow = storeNow.Add(6 * time.Second)
		res, err := svc.RenderPNG(ctx, q)
		require.NoError(t, err)
		assert.False(t, res.Hit)
		assert.Equal(t, int32(2), r.calls.Load())
	})

	t.Run("rasterization failure is not cached", func(t *testing.T) {
		r := &countingRasterizer{err: errors.New("libvips exploded")}
		store := cache.NewLocalStore(cache.LocalConfig{})
		svc := NewService(Config{Store: store, Rasterizer: r, Backend: "fake", Now: fixedClock})

		_, err := svc.RenderPNG(ctx, q)
		require.Error(t, err)
		assert.True(t, errors.Is(err, core.ErrImageGeneration))

		var imgErr *core.ImageError
		require.True(t, errors.As(err, &imgErr))
		assert.Equal(t, "fake", imgErr.Backend)
		assert.Equal(t, 0, store.Len())
	})

	t.Run("image errors pass through unchanged", func(t *testing.T) {
		orig := core.NewImageGenerationError("chromedp", "timeout", context.DeadlineExceeded)
		svc := NewService(Config{Rasterizer: &countingRasterizer{err: orig}, Backend: "other"})

		_, err := svc.RenderPNG(ctx, q)
		assert.Same(t, orig, err)
	})

	t.Run("store failures fail open", func(t *testing.T) {
		r := &countingRasterizer{}
		svc := NewService(Config{Store: failingStore{}, Rasterizer: r, Now: fixedClock})

		res, err := svc.RenderPNG(ctx, q)
		require.NoError(t, err)
		assert.False(t, res.Hit)
		assert.NotEmpty(t, res.Body)
	})

	t.Run("no store always rasterizes", func(t *testing.T) {
		r := &countingRasterizer{}
		svc := NewService(Config{Rasterizer: r, Now: fixedClock})

		for i := 0; i < 3; i++ {
			_, err := svc.RenderPNG(ctx, q)
			require.NoError(t, err)
		}
		assert.Equal(t, int32(3), r.calls.Load())
	})

	t.Run("cancelled request still completes rasterization", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		var sawErr error
		r := raster.Func(func(ctx context.Context, svg []byte) ([]byte, error) {
			sawErr = ctx.Err()
			return []byte("png"), nil
		})
		store := cache.NewLocalStore(cache.LocalConfig{})
		svc := NewService(Config{Store: store, Rasterizer: r, RasterTimeout: time.Second, Now: fixedClock})

		res, err := svc.RenderPNG(cancelled, q)
		require.NoError(t, err)
		assert.NoError(t, sawErr)
		assert.Equal(t, []byte("png"), res.Body)
		assert.Equal(t, 1, store.Len())
	})

	t.Run("missing rasterizer", func(t *testing.T) {
		_, err := NewService(Config{}).RenderPNG(ctx, q)
		assert.True(t, errors.Is(err, core.ErrImageGeneration))
	})
}
