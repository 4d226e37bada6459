// Package config loads server settings from the environment. Site content
// and navigation live in the site document instead; SITE_CONFIG points at
// an override for it.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ai-on-hyperpod/site/pkg/carousel"
	"github.com/ai-on-hyperpod/site/pkg/logging"
)

// ErrInvalid is wrapped by every configuration error.
var ErrInvalid = errors.New("invalid configuration")

// Config holds the server settings.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// SiteConfig is an optional path to a site YAML document.
	SiteConfig string
	// StaticDir holds images served under <baseUrl>img/.
	StaticDir string

	LogLevel  slog.Level
	LogFormat string // "text" or "json"

	CarouselInterval     time.Duration
	CarouselResetOnClick bool

	AllowedOrigins      []string
	MaxSessions         int
	MaxConnectionsPerIP int
	ShutdownTimeout     time.Duration
}

// Load reads configuration from environment variables, applying
// development defaults. Production requires an explicit origin policy.
func Load() (*Config, error) {
	var errs []error

	cfg := &Config{
		Host:       envOrDefault("SITE_HOST", "0.0.0.0"),
		Port:       envOrDefault("SITE_PORT", "8080"),
		Env:        envOrDefault("SITE_ENV", "development"),
		SiteConfig: os.Getenv("SITE_CONFIG"),
		StaticDir:  envOrDefault("SITE_STATIC_DIR", "static"),
		LogFormat:  envOrDefault("SITE_LOG_FORMAT", "text"),
	}

	level, err := logging.ParseLevel(envOrDefault("SITE_LOG_LEVEL", "info"))
	if err != nil {
		errs = append(errs, fmt.Errorf("%w: SITE_LOG_LEVEL: %v", ErrInvalid, err))
	}
	cfg.LogLevel = level

	cfg.CarouselInterval, err = durationEnv("SITE_CAROUSEL_INTERVAL", carousel.DefaultInterval)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.ShutdownTimeout, err = durationEnv("SITE_SHUTDOWN_TIMEOUT", 15*time.Second)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.CarouselResetOnClick, err = boolEnv("SITE_CAROUSEL_RESET_ON_SELECT", false)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.MaxSessions, err = intEnv("SITE_MAX_SESSIONS", 10000)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.MaxConnectionsPerIP, err = intEnv("SITE_MAX_CONNECTIONS_PER_IP", 20)
	if err != nil {
		errs = append(errs, err)
	}

	if v := os.Getenv("SITE_ALLOWED_ORIGINS"); v != "" {
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that parsed but make no sense together.
func (c *Config) Validate() error {
	if c.CarouselInterval <= 0 {
		return fmt.Errorf("%w: SITE_CAROUSEL_INTERVAL must be positive", ErrInvalid)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: SITE_SHUTDOWN_TIMEOUT must be positive", ErrInvalid)
	}
	if c.MaxSessions < 0 {
		return fmt.Errorf("%w: SITE_MAX_SESSIONS must not be negative", ErrInvalid)
	}
	if c.MaxConnectionsPerIP < 0 {
		return fmt.Errorf("%w: SITE_MAX_CONNECTIONS_PER_IP must not be negative", ErrInvalid)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: SITE_LOG_FORMAT must be text or json, got %q", ErrInvalid, c.LogFormat)
	}
	switch c.Env {
	case "development", "production", "testing":
	default:
		return fmt.Errorf("%w: SITE_ENV %q", ErrInvalid, c.Env)
	}
	for _, o := range c.AllowedOrigins {
		if o == "*" && !c.IsDev() {
			return fmt.Errorf("%w: wildcard origin only allowed in development", ErrInvalid)
		}
	}
	return nil
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// InsecureOrigins reports whether live connections skip origin checks.
func (c *Config) InsecureOrigins() bool {
	return c.IsDev() && len(c.AllowedOrigins) == 1 && c.AllowedOrigins[0] == "*"
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalid, key, err)
	}
	return d, nil
}

func boolEnv(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrInvalid, key, err)
	}
	return b, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalid, key, err)
	}
	return n, nil
}
