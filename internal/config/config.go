// ABOUTME: Configuration loader for the korrekturleser client
// ABOUTME: Loads settings from .env and environment variables with defaults

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultTextPath       = "/api/text/"
	defaultHTTPTimeout    = 120 // seconds
	defaultConfigCacheTTL = 300 // seconds
)

type Config struct {
	// Backend
	APIURL      string        // required, base URL of the Korrekturleser API
	TextPath    string        // path of the text improvement endpoint
	HTTPTimeout time.Duration // 0 keeps the transport default

	// Local state
	ConfigDir      string        // token, presentation.yaml, debug.log
	ConfigCacheTTL time.Duration // model list cache per provider

	// Login
	Secret string // optional, used by `login` when no flag is given

	// Logging
	LogLevel  string
	LogFormat string
}

// Option overrides a value after the environment has been read.
type Option func(*Config)

// WithAPIURL overrides KORREKTURLESER_API_URL (used for the --api-url flag).
func WithAPIURL(url string) Option {
	return func(c *Config) {
		if url != "" {
			c.APIURL = url
		}
	}
}

// WithConfigDir overrides KORREKTURLESER_CONFIG_DIR (used for the --config-dir flag).
func WithConfigDir(dir string) Option {
	return func(c *Config) {
		if dir != "" {
			c.ConfigDir = dir
		}
	}
}

// Load reads .env (if present) and the environment. A missing API URL is
// fatal: the client must not start with silently broken API calls.
func Load(opts ...Option) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg := &Config{
		APIURL:         os.Getenv("KORREKTURLESER_API_URL"),
		TextPath:       getEnv("KORREKTURLESER_TEXT_PATH", defaultTextPath),
		HTTPTimeout:    time.Duration(getEnvInt("KORREKTURLESER_HTTP_TIMEOUT", defaultHTTPTimeout)) * time.Second,
		ConfigDir:      getEnv("KORREKTURLESER_CONFIG_DIR", DefaultConfigDir()),
		ConfigCacheTTL: time.Duration(getEnvInt("KORREKTURLESER_CONFIG_CACHE_TTL", defaultConfigCacheTTL)) * time.Second,
		Secret:         os.Getenv("KORREKTURLESER_SECRET"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "text"),
	}

	for _, opt := range opts {
		opt(cfg)
	}
	cfg.APIURL = strings.TrimRight(ensureScheme(cfg.APIURL), "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("KORREKTURLESER_API_URL is required")
	}
	if !strings.HasPrefix(c.TextPath, "/") {
		return fmt.Errorf("KORREKTURLESER_TEXT_PATH must start with /, got %q", c.TextPath)
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("KORREKTURLESER_HTTP_TIMEOUT must not be negative, got %s", c.HTTPTimeout)
	}
	if c.ConfigDir == "" {
		return fmt.Errorf("cannot determine config directory, set KORREKTURLESER_CONFIG_DIR")
	}
	return nil
}

// DefaultConfigDir returns the default config directory under XDG_CONFIG_HOME
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "korrekturleser")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "korrekturleser")
}

// loadDotEnv loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// ensureScheme adds https:// prefix if the URL has no scheme
func ensureScheme(url string) string {
	if url == "" {
		return url
	}
	if !strings.Contains(url, "://") {
		return "https://" + url
	}
	return url
}
