// Package server provides the HTTP boundary of the countdown service.
package server

import (
	"context"
	"net/http"
	"path"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"countdown/internal/builder"
	"countdown/internal/core"
)

// Server wraps the Echo server
type Server struct {
	echo    *echo.Echo
	handler *Handler
}

// Config holds server configuration options
type Config struct {
	Renderer Renderer    // Required: produces timer images
	Cache    StatsSource // Optional: reported by /health
	Page     *builder.Handler

	MetricsEnabled  bool   // Whether to expose Prometheus metrics endpoint
	MetricsEndpoint string // HTTP path for metrics endpoint (default: /metrics)
}

// New creates a new HTTP server
func New(cfg *Config) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	handler := NewHandler(cfg.Renderer, cfg.Cache)

	// Global middleware stack (order matters)
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c echo.Context, id string) {
			c.SetRequest(c.Request().WithContext(core.WithRequestID(c.Request().Context(), id)))
		},
	}))
	e.Use(requestLogger())
	e.Use(middleware.Recover())

	e.GET("/health", handler.Health)
	if cfg.MetricsEnabled {
		metricsPath := "/metrics"
		if cfg.MetricsEndpoint != "" {
			// Normalize path to prevent traversal attacks
			metricsPath = path.Clean(cfg.MetricsEndpoint)
		}
		e.GET(metricsPath, echo.WrapHandler(promhttp.Handler()))
	}

	e.GET("/timer.svg", handler.TimerSVG, imageCORS)
	e.OPTIONS("/timer.svg", handler.Preflight, imageCORS)
	e.GET("/timer.png", handler.TimerPNG, imageCORS)
	e.OPTIONS("/timer.png", handler.Preflight, imageCORS)

	if cfg.Page != nil {
		e.GET("/", cfg.Page.Index)
		e.GET("/favicon.svg", cfg.Page.Favicon)
	}

	return &Server{
		echo:    e,
		handler: handler,
	}
}

// Start starts the HTTP server on the given address
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// ServeHTTP implements the http.Handler interface, allowing Server to be used with httptest
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
