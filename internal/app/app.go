// Package app provides the main application struct for centralized dependency management
// and lifecycle control of the countdown server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"countdown/config"
	"countdown/internal/builder"
	"countdown/internal/cache"
	"countdown/internal/observability"
	"countdown/internal/raster"
	"countdown/internal/server"
	"countdown/internal/timer"
)

// App represents the main application with all its dependencies.
// It provides centralized lifecycle management for all components.
type App struct {
	config     *config.Config
	store      cache.Store
	sweeper    *cache.Sweeper
	rasterizer raster.Rasterizer
	service    *timer.Service
	server     *server.Server

	shutdownMu sync.Mutex
	shutdown   bool
}

// Config holds the configuration options for creating an App.
type Config struct {
	// AppConfig is the loaded application configuration.
	AppConfig *config.Config

	// Rasterizer overrides the configured backend when set. The App takes
	// ownership and closes it on Shutdown.
	Rasterizer raster.Rasterizer
}

// New creates a new App with all dependencies initialized.
// The caller must call Shutdown to release resources.
func New(ctx context.Context, cfg Config) (*App, error) {
	if cfg.AppConfig == nil {
		return nil, fmt.Errorf("app config is required")
	}
	appCfg := cfg.AppConfig

	app := &App{
		config: appCfg,
	}

	store, err := newStore(ctx, appCfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}
	app.store = store

	if local, ok := store.(*cache.LocalStore); ok {
		app.sweeper = cache.StartSweeper(local, appCfg.Cache.SweepInterval)
	}

	rz := cfg.Rasterizer
	if rz == nil {
		rz, err = raster.New(ctx, raster.Config{
			Backend: appCfg.Raster.Backend,
			Density: appCfg.Raster.Density,
			Timeout: appCfg.Raster.Timeout,
			Chrome: raster.ChromeConfig{
				RemoteURL: appCfg.Raster.Chrome.RemoteURL,
				ExecPath:  appCfg.Raster.Chrome.ExecPath,
				NoSandbox: appCfg.Raster.Chrome.NoSandbox,
			},
		})
		if err != nil {
			closeErr := app.closeCache()
			if closeErr != nil {
				return nil, fmt.Errorf("failed to initialize rasterizer: %w (also: cache close error: %v)", err, closeErr)
			}
			return nil, fmt.Errorf("failed to initialize rasterizer: %w", err)
		}
	}
	app.rasterizer = rz

	var recorder observability.Recorder = observability.Nop{}
	if appCfg.Metrics.Enabled {
		recorder = observability.Prometheus{}
	}

	app.service = timer.NewService(timer.Config{
		Store:         store,
		Rasterizer:    rz,
		Backend:       appCfg.Raster.Backend,
		RasterTimeout: appCfg.Raster.Timeout,
		Recorder:      recorder,
	})

	page, err := builder.New(appCfg.Server.BasePath, nil)
	if err != nil {
		closeErr := errors.Join(rz.Close(), app.closeCache())
		if closeErr != nil {
			return nil, fmt.Errorf("failed to initialize form page: %w (also: close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize form page: %w", err)
	}

	app.server = server.New(&server.Config{
		Renderer:        app.service,
		Cache:           store,
		Page:            page,
		MetricsEnabled:  appCfg.Metrics.Enabled,
		MetricsEndpoint: appCfg.Metrics.Endpoint,
	})

	app.logStartupInfo()

	return app, nil
}

func newStore(ctx context.Context, cfg config.CacheConfig) (cache.Store, error) {
	switch cfg.Backend {
	case cache.BackendRedis:
		store, err := cache.NewRedisStore(ctx, cache.RedisConfig{
			URL:    cfg.Redis.URL,
			Prefix: cfg.Redis.Prefix,
			TTL:    cfg.TTL,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case "", cache.BackendLocal:
		return cache.NewLocalStore(cache.LocalConfig{
			TTL:        cfg.TTL,
			MaxEntries: cfg.MaxEntries,
		}), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// Service returns the rendering pipeline.
func (a *App) Service() *timer.Service {
	return a.service
}

// Handler returns the HTTP handler, for use with httptest.
func (a *App) Handler() http.Handler {
	return a.server
}

// Start starts the HTTP server on the given address.
// This is a blocking call that returns when the server stops.
func (a *App) Start(addr string) error {
	if a.server == nil {
		return fmt.Errorf("server is not initialized")
	}
	slog.Info("starting server", "address", addr)
	if err := a.server.Start(addr); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			slog.Info("server stopped gracefully")
			return nil
		}
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}

// Shutdown gracefully tears down app components in dependency order.
// Order:
// 1. HTTP server shutdown, honoring the passed context timeout/cancellation.
// 2. Cache sweeper stop.
// 3. Rasterizer close (terminates the browser).
// 4. Cache store close.
//
// Shutdown is idempotent and safe for repeated calls; after the first call, subsequent calls are no-ops.
// It attempts every close step, aggregates failures, and returns a joined error if any step fails.
func (a *App) Shutdown(ctx context.Context) error {
	a.shutdownMu.Lock()
	if a.shutdown {
		a.shutdownMu.Unlock()
		return nil
	}
	a.shutdown = true
	a.shutdownMu.Unlock()

	slog.Info("shutting down application...")

	var errs []error

	// 1. Shutdown HTTP server first (stop accepting new requests)
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			slog.Error("server shutdown error", "error", err)
			errs = append(errs, fmt.Errorf("server shutdown: %w", err))
		}
	}

	// 2. Stop sweeping before the store goes away
	if a.sweeper != nil {
		a.sweeper.Stop()
	}

	// 3. Close the rasterizer
	if a.rasterizer != nil {
		if err := a.rasterizer.Close(); err != nil {
			slog.Error("rasterizer close error", "error", err)
			errs = append(errs, fmt.Errorf("rasterizer close: %w", err))
		}
	}

	// 4. Close the cache
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			slog.Error("cache close error", "error", err)
			errs = append(errs, fmt.Errorf("cache close: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}

	slog.Info("application shutdown complete")
	return nil
}

func (a *App) closeCache() error {
	if a.sweeper != nil {
		a.sweeper.Stop()
	}
	return a.store.Close()
}

// logStartupInfo logs the application configuration on startup.
func (a *App) logStartupInfo() {
	cfg := a.config

	if cfg.Cache.Backend == cache.BackendRedis {
		slog.Info("png cache configured", "backend", cfg.Cache.Backend, "ttl", cfg.Cache.TTL)
	} else {
		slog.Info("png cache configured",
			"backend", cache.BackendLocal,
			"ttl", cfg.Cache.TTL,
			"max_entries", cfg.Cache.MaxEntries,
		)
	}

	slog.Info("rasterizer configured",
		"backend", cfg.Raster.Backend,
		"density", cfg.Raster.Density,
		"timeout", cfg.Raster.Timeout,
	)

	if cfg.Metrics.Enabled {
		slog.Info("prometheus metrics enabled", "endpoint", cfg.Metrics.Endpoint)
	} else {
		slog.Info("prometheus metrics disabled")
	}
}
