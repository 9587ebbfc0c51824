// Package config provides configuration management for the application.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"countdown/internal/cache"
	"countdown/internal/logging"
	"countdown/internal/raster"
)

// ConfigPathEnv names the environment variable holding the YAML config path.
const ConfigPathEnv = "COUNTDOWN_CONFIG"

// Config holds the application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Cache   CacheConfig   `yaml:"cache"`
	Raster  RasterConfig  `yaml:"raster"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string `yaml:"port"`

	// BasePath prefixes URLs generated by the form page when no
	// X-Base-Path header is sent
	BasePath string `yaml:"base_path"`

	// ShutdownTimeout bounds graceful shutdown before the process exits anyway
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LogConfig holds process logging configuration
type LogConfig struct {
	// Format is auto, pretty or json
	Format string `yaml:"format"`
	Level  string `yaml:"level"`
}

// CacheConfig holds PNG cache configuration
type CacheConfig struct {
	// Backend is "local" or "redis"
	Backend    string        `yaml:"backend"`
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`

	// SweepInterval is how often the local store drops stale entries
	// (0 uses the TTL)
	SweepInterval time.Duration `yaml:"sweep_interval"`

	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig holds Redis connection settings for the cache
type RedisConfig struct {
	URL    string `yaml:"url"`
	Prefix string `yaml:"prefix"`
}

// RasterConfig holds SVG to PNG conversion settings
type RasterConfig struct {
	// Backend is "chromedp" or "imagick"
	Backend string        `yaml:"backend"`
	Density float64       `yaml:"density"`
	Timeout time.Duration `yaml:"timeout"`
	Chrome  ChromeConfig  `yaml:"chrome"`
}

// ChromeConfig selects the browser used by the chromedp backend
type ChromeConfig struct {
	// RemoteURL attaches to a running browser's DevTools endpoint
	RemoteURL string `yaml:"remote_url"`
	ExecPath  string `yaml:"exec_path"`
	NoSandbox bool   `yaml:"no_sandbox"`
}

// MetricsConfig holds Prometheus exposition settings
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// buildDefaultConfig returns the configuration used when nothing is set.
func buildDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "3000",
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Format: logging.FormatAuto,
			Level:  "info",
		},
		Cache: CacheConfig{
			Backend:    cache.BackendLocal,
			TTL:        cache.DefaultTTL,
			MaxEntries: cache.DefaultMaxEntries,
			Redis: RedisConfig{
				Prefix: cache.DefaultRedisPrefix,
			},
		},
		Raster: RasterConfig{
			Backend: raster.BackendChrome,
			Density: raster.DefaultDensity,
			Timeout: raster.DefaultTimeout,
		},
		Metrics: MetricsConfig{
			Enabled:  true,
			Endpoint: "/metrics",
		},
	}
}

// Load reads configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence. A .env file in the working
// directory seeds variables that are not already set.
//
// path may be empty, in which case COUNTDOWN_CONFIG is consulted and then
// ./config.yaml is tried. An explicitly named file must exist.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg := buildDefaultConfig()

	explicit := true
	if path == "" {
		path = os.Getenv(ConfigPathEnv)
	}
	if path == "" {
		path, explicit = "config.yaml", false
	}
	if err := loadYAML(cfg, path, explicit); err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

func loadYAML(cfg *Config, path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal([]byte(expandString(string(data))), cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

var placeholderPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// expandString replaces ${VAR} and ${VAR:-default} placeholders. A variable
// that is unset or empty takes the default; without a default the placeholder
// is left as written.
func expandString(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return placeholderPattern.ReplaceAllStringFunc(s, func(m string) string {
		parts := placeholderPattern.FindStringSubmatch(m)
		if v := os.Getenv(parts[1]); v != "" {
			return v
		}
		if parts[2] != "" {
			return parts[3]
		}
		return m
	})
}

// applyEnvOverrides copies recognized environment variables over cfg.
func applyEnvOverrides(cfg *Config) error {
	setString(&cfg.Server.Port, "PORT")
	setString(&cfg.Server.BasePath, "BASE_PATH")
	setString(&cfg.Log.Format, "LOG_FORMAT")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Cache.Backend, "CACHE_BACKEND")
	setString(&cfg.Cache.Redis.URL, "REDIS_URL")
	setString(&cfg.Cache.Redis.Prefix, "REDIS_PREFIX")
	setString(&cfg.Raster.Backend, "RASTER_BACKEND")
	setString(&cfg.Raster.Chrome.RemoteURL, "CHROME_REMOTE_URL")
	setString(&cfg.Raster.Chrome.ExecPath, "CHROME_PATH")
	setString(&cfg.Metrics.Endpoint, "METRICS_ENDPOINT")

	return errors.Join(
		setDuration(&cfg.Server.ShutdownTimeout, "SHUTDOWN_TIMEOUT"),
		setDuration(&cfg.Cache.TTL, "CACHE_TTL"),
		setDuration(&cfg.Cache.SweepInterval, "CACHE_SWEEP_INTERVAL"),
		setDuration(&cfg.Raster.Timeout, "RASTER_TIMEOUT"),
		setInt(&cfg.Cache.MaxEntries, "CACHE_MAX_ENTRIES"),
		setFloat(&cfg.Raster.Density, "RASTER_DENSITY"),
		setBool(&cfg.Raster.Chrome.NoSandbox, "CHROME_NO_SANDBOX"),
		setBool(&cfg.Metrics.Enabled, "METRICS_ENABLED"),
	)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = f
	return nil
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = b
	return nil
}

// setDuration accepts Go duration strings ("5s", "1m30s") or a bare number of
// seconds.
func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := parseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = d
	return nil
}

func parseDuration(v string) (time.Duration, error) {
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(n * float64(time.Second)), nil
	}
	return time.ParseDuration(v)
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port == "" {
		errs = append(errs, errors.New("server port must not be empty"))
	}

	switch c.Log.Format {
	case logging.FormatAuto, logging.FormatPretty, logging.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Log.Level))
	}

	switch c.Cache.Backend {
	case cache.BackendLocal:
	case cache.BackendRedis:
		if c.Cache.Redis.URL == "" {
			errs = append(errs, errors.New("redis cache requires REDIS_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cache backend %q", c.Cache.Backend))
	}
	if c.Cache.TTL <= 0 {
		errs = append(errs, fmt.Errorf("cache ttl must be positive, got %s", c.Cache.TTL))
	}
	if c.Cache.MaxEntries <= 0 {
		errs = append(errs, fmt.Errorf("cache max entries must be positive, got %d", c.Cache.MaxEntries))
	}
	if c.Cache.SweepInterval < 0 {
		errs = append(errs, fmt.Errorf("cache sweep interval must not be negative, got %s", c.Cache.SweepInterval))
	}

	switch c.Raster.Backend {
	case raster.BackendChrome, raster.BackendMagick:
	default:
		errs = append(errs, fmt.Errorf("unknown raster backend %q", c.Raster.Backend))
	}
	if c.Raster.Density <= 0 {
		errs = append(errs, fmt.Errorf("raster density must be positive, got %g", c.Raster.Density))
	}
	if c.Raster.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("raster timeout must be positive, got %s", c.Raster.Timeout))
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Endpoint, "/") {
		errs = append(errs, fmt.Errorf("metrics endpoint must start with /, got %q", c.Metrics.Endpoint))
	}

	return errors.Join(errs...)
}

// LogLevel returns the configured slog level, defaulting to info.
func (c LogConfig) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}
