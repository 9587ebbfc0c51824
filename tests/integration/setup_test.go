//go:build integration

package integration

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"countdown/config"
	"countdown/internal/app"
)

// TestServerConfig configures how the test server is set up.
type TestServerConfig struct {
	// CacheBackend is either "local" or "redis"
	CacheBackend string

	// RedisPrefix namespaces keys so tests sharing the container do not collide
	RedisPrefix string

	// CacheTTL overrides the default 5s TTL
	CacheTTL time.Duration
}

// TestServerFixture holds test server resources.
type TestServerFixture struct {
	// ServerURL is the base URL of the test server
	ServerURL string

	// App is the running application
	App *app.App

	cancelFunc context.CancelFunc
}

// SetupTestServer starts the full application on a free port, rasterizing
// with the shared headless Chrome container.
func SetupTestServer(t *testing.T, cfg TestServerConfig) *TestServerFixture {
	t.Helper()

	ctx, cancel := context.WithCancel(testCtx)

	port, err := findAvailablePort()
	require.NoError(t, err, "failed to find available port")

	application, err := app.New(ctx, app.Config{AppConfig: buildAppConfig(cfg, port)})
	require.NoError(t, err, "failed to create app")

	serverURL := fmt.Sprintf("http://127.0.0.1:%d", port)
	go func() {
		_ = application.Start(fmt.Sprintf("127.0.0.1:%d", port))
	}()

	require.NoError(t, waitForServer(serverURL+"/health"), "server failed to become healthy")

	fixture := &TestServerFixture{
		ServerURL:  serverURL,
		App:        application,
		cancelFunc: cancel,
	}
	t.Cleanup(func() { fixture.Shutdown(t) })
	return fixture
}

// Shutdown gracefully shuts down the test server.
func (f *TestServerFixture) Shutdown(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if f.App != nil {
		_ = f.App.Shutdown(ctx)
	}
	if f.cancelFunc != nil {
		f.cancelFunc()
	}
}

func buildAppConfig(cfg TestServerConfig, port int) *config.Config {
	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = 5 * time.Second
	}

	appCfg := &config.Config{
		Server: config.ServerConfig{
			Port:            fmt.Sprintf("%d", port),
			ShutdownTimeout: 10 * time.Second,
		},
		Log: config.LogConfig{Format: "json", Level: "info"},
		Cache: config.CacheConfig{
			Backend:    "local",
			TTL:        ttl,
			MaxEntries: 100,
		},
		Raster: config.RasterConfig{
			Backend: "chromedp",
			Density: 150,
			Timeout: 20 * time.Second,
			Chrome: config.ChromeConfig{
				RemoteURL: chromeURL,
			},
		},
		Metrics: config.MetricsConfig{Enabled: false},
	}

	if cfg.CacheBackend == "redis" {
		appCfg.Cache.Backend = "redis"
		appCfg.Cache.Redis = config.RedisConfig{URL: redisURL, Prefix: cfg.RedisPrefix}
	}
	return appCfg
}

// waitForServer waits for the server to become healthy.
func waitForServer(healthURL string) error {
	client := &http.Client{Timeout: 2 * time.Second}
	for i := 0; i < 50; i++ {
		resp, err := client.Get(healthURL)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("server did not become healthy within timeout")
}

// findAvailablePort finds an available TCP port on loopback.
func findAvailablePort() (int, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer func() { _ = listener.Close() }()
	return listener.Addr().(*net.TCPAddr).Port, nil
}
