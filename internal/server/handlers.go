package server

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"runtime"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/labstack/echo/v4"

	"countdown/internal/cache"
	"countdown/internal/core"
	"countdown/internal/timer"
	"countdown/internal/version"
)

// Cache-Control values for the image endpoints.
const (
	svgCacheControl = "public, max-age=0, must-revalidate"
	pngCacheControl = "public, max-age=5, must-revalidate"
)

// Renderer produces countdown images from query parameters.
type Renderer interface {
	RenderSVG(q url.Values) string
	RenderPNG(ctx context.Context, q url.Values) (timer.PNGResult, error)
}

// StatsSource reports cache occupancy for /health.
type StatsSource interface {
	Stats(ctx context.Context) cache.Stats
}

// Handler holds the HTTP handlers
type Handler struct {
	renderer Renderer
	cache    StatsSource
	started  time.Time
}

// NewHandler creates a new handler with the given renderer. stats may be nil.
func NewHandler(renderer Renderer, stats StatsSource) *Handler {
	return &Handler{
		renderer: renderer,
		cache:    stats,
		started:  time.Now(),
	}
}

// TimerSVG handles GET /timer.svg
func (h *Handler) TimerSVG(c echo.Context) error {
	svg := h.renderer.RenderSVG(c.QueryParams())

	res := c.Response()
	res.Header().Set(echo.HeaderCacheControl, svgCacheControl)
	res.Header().Add(echo.HeaderVary, echo.HeaderAcceptEncoding)

	if acceptsBrotli(c.Request()) {
		var buf bytes.Buffer
		bw := brotli.NewWriterLevel(&buf, brotli.DefaultCompression)
		if _, err := bw.Write([]byte(svg)); err == nil && bw.Close() == nil {
			res.Header().Set(echo.HeaderContentEncoding, "br")
			return c.Blob(http.StatusOK, "image/svg+xml", buf.Bytes())
		}
	}
	return c.Blob(http.StatusOK, "image/svg+xml", []byte(svg))
}

// TimerPNG handles GET /timer.png
func (h *Handler) TimerPNG(c echo.Context) error {
	result, err := h.renderer.RenderPNG(c.Request().Context(), c.QueryParams())
	if err != nil {
		return handleError(c, err)
	}

	xcache := "MISS"
	if result.Hit {
		xcache = "HIT"
	}
	c.Response().Header().Set(echo.HeaderCacheControl, pngCacheControl)
	c.Response().Header().Set("X-Cache", xcache)
	return c.Blob(http.StatusOK, "image/png", result.Body)
}

// Preflight handles OPTIONS on the image endpoints
func (h *Handler) Preflight(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

type healthCache struct {
	Size    int    `json:"size"`
	MaxSize int    `json:"maxSize"`
	TTLMs   int64  `json:"ttlMs"`
	Backend string `json:"backend"`
}

type healthMemory struct {
	HeapUsedMB  int64 `json:"heapUsedMB"`
	HeapTotalMB int64 `json:"heapTotalMB"`
	RSSMB       int64 `json:"rssMB"`
}

type healthResponse struct {
	Status    string       `json:"status"`
	Timestamp string       `json:"timestamp"`
	Uptime    int64        `json:"uptime"`
	Version   string       `json:"version"`
	Cache     *healthCache `json:"cache,omitempty"`
	Memory    healthMemory `json:"memory"`
}

// Health handles GET /health
func (h *Handler) Health(c echo.Context) error {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	resp := healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
		Uptime:    int64(math.Round(time.Since(h.started).Seconds())),
		Version:   version.Version,
		Memory: healthMemory{
			HeapUsedMB:  toMB(mem.HeapAlloc),
			HeapTotalMB: toMB(mem.HeapSys),
			RSSMB:       toMB(mem.Sys),
		},
	}
	if h.cache != nil {
		s := h.cache.Stats(c.Request().Context())
		resp.Cache = &healthCache{
			Size:    s.Size,
			MaxSize: s.MaxSize,
			TTLMs:   s.TTL.Milliseconds(),
			Backend: s.Backend,
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func toMB(b uint64) int64 {
	return int64(math.Round(float64(b) / 1024 / 1024))
}

func acceptsBrotli(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get(echo.HeaderAcceptEncoding), ",") {
		enc, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if strings.TrimSpace(enc) != "br" {
			continue
		}
		// br;q=0 explicitly refuses the encoding
		return strings.ReplaceAll(strings.TrimSpace(params), " ", "") != "q=0"
	}
	return false
}

// handleError logs the cause and writes the public message as plain text.
func handleError(c echo.Context, err error) error {
	var imgErr *core.ImageError
	if !errors.As(err, &imgErr) {
		imgErr = core.NewInternalError("unexpected error", err)
	}

	ctx := c.Request().Context()
	slog.LogAttrs(ctx, slog.LevelError, "request failed",
		slog.Any("error", err),
		core.RequestAttr(ctx),
		slog.String("path", c.Path()),
	)
	return c.String(imgErr.HTTPStatusCode(), imgErr.PublicMessage())
}

// errorHandler renders errors escaping the handlers, including echo's own
// 404 and 405, as plain text.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && m != "" {
			msg = m
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(he.Code)
			return
		}
		_ = c.String(he.Code, msg)
		return
	}

	_ = handleError(c, err)
}
