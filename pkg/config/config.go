// Package config reads the exporter configuration from the environment and
// an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Sternrassler/launch-export/pkg/cache"
	"github.com/Sternrassler/launch-export/pkg/client"
	"github.com/Sternrassler/launch-export/pkg/logging"
	"github.com/Sternrassler/launch-export/pkg/pagination"
)

// EnvFile is read from the working directory when present.
const EnvFile = ".env"

// Validation errors.
var (
	ErrMissingAPIKey    = errors.New("API_KEY is required")
	ErrMissingOutputDir = errors.New("OUTPUT_DIR (or ONEDRIVE_PATH) is required")
	ErrInvalidValue     = errors.New("invalid configuration value")
)

// Config is the run configuration.
type Config struct {
	APIKey    string
	OutputDir string
	BaseURL   string

	Workers        int
	MaxAttempts    int
	RequestTimeout time.Duration

	LogLevel  logging.LogLevel
	LogPretty bool

	// RedisURL enables the page cache when set.
	RedisURL string
	CacheTTL time.Duration

	// MetricsAddr enables the /metrics listener when set.
	MetricsAddr string
}

// Load reads the configuration from the environment, falling back to
// EnvFile for unset variables.
func Load() (Config, error) {
	return LoadFile(EnvFile)
}

// LoadFile is Load with an explicit env file. A missing file is not an error.
// Variables set in the process environment take precedence over the file.
func LoadFile(path string) (Config, error) {
	file, err := godotenv.Read(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	env := lookup{file: file}
	cfg := Config{
		APIKey:      env.get("API_KEY", ""),
		OutputDir:   env.get("OUTPUT_DIR", env.get("ONEDRIVE_PATH", "")),
		BaseURL:     env.get("BASE_URL", client.DefaultBaseURL),
		LogLevel:    logging.LogLevel(env.get("LOG_LEVEL", string(logging.LevelInfo))),
		RedisURL:    env.get("REDIS_URL", ""),
		MetricsAddr: env.get("METRICS_ADDR", ""),
	}

	if cfg.Workers, err = env.getInt("WORKERS", pagination.DefaultConfig().Workers); err != nil {
		return Config{}, err
	}
	if cfg.MaxAttempts, err = env.getInt("MAX_ATTEMPTS", client.DefaultRetryConfig().MaxAttempts); err != nil {
		return Config{}, err
	}
	if cfg.RequestTimeout, err = env.getDuration("REQUEST_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.CacheTTL, err = env.getDuration("CACHE_TTL", cache.DefaultTTL); err != nil {
		return Config{}, err
	}
	if cfg.LogPretty, err = env.getBool("LOG_PRETTY", false); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks required values and ranges.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.OutputDir == "" {
		return ErrMissingOutputDir
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: WORKERS must be >= 1 (got %d)", ErrInvalidValue, c.Workers)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("%w: MAX_ATTEMPTS must be >= 1 (got %d)", ErrInvalidValue, c.MaxAttempts)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%w: REQUEST_TIMEOUT must be positive (got %s)", ErrInvalidValue, c.RequestTimeout)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("%w: CACHE_TTL must be positive (got %s)", ErrInvalidValue, c.CacheTTL)
	}
	return nil
}

// ClientConfig returns the API client configuration. The cache is attached
// by the caller.
func (c Config) ClientConfig() client.Config {
	cfg := client.DefaultConfig(c.APIKey)
	cfg.BaseURL = c.BaseURL
	cfg.Timeout = c.RequestTimeout
	cfg.Retry.MaxAttempts = c.MaxAttempts
	return cfg
}

// PaginationConfig returns the worker pool configuration.
func (c Config) PaginationConfig() pagination.Config {
	cfg := pagination.DefaultConfig()
	cfg.Workers = c.Workers
	return cfg
}

// LoggingConfig returns the logger configuration.
func (c Config) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = c.LogLevel
	cfg.Pretty = c.LogPretty
	return cfg
}

// lookup resolves variables from the process environment first, then the
// env file.
type lookup struct {
	file map[string]string
}

func (l lookup) get(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	if value := strings.TrimSpace(l.file[key]); value != "" {
		return value
	}
	return defaultValue
}

func (l lookup) getInt(key string, defaultValue int) (int, error) {
	raw := l.get(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q: %v", ErrInvalidValue, key, raw, err)
	}
	return n, nil
}

func (l lookup) getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := l.get(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q: %v", ErrInvalidValue, key, raw, err)
	}
	return d, nil
}

func (l lookup) getBool(key string, defaultValue bool) (bool, error) {
	raw := l.get(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s=%q: %v", ErrInvalidValue, key, raw, err)
	}
	return b, nil
}
