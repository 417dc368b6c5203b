// Package api provides the HTTP server for the EduLearn backend. The JSON
// endpoints live in the v1 subpackage.
package api

import (
	"fmt"
	"time"

	"github.com/labstack/gommon/bytes"

	"github.com/edulearn/edulearn-api/internal/conf"
	"github.com/edulearn/edulearn-api/internal/logger"
)

// GetLogger returns the api package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("api.server")
}

// Default constants for the HTTP server.
const (
	DefaultPort            = "8000"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultBodyLimit       = "1M"
	DefaultMetricsPath     = "/metrics"
)

// Config holds the HTTP server configuration derived from conf.Settings.
type Config struct {
	// Server binding
	Host string // empty binds all interfaces
	Port string

	AllowedOrigins []string // CORS allowed origins

	// Timeouts
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration // must cover the slowest AI call
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	BodyLimit string // e.g. "1M"

	// Metrics exposition
	MetricsEnabled bool
	MetricsPath    string

	ResponseCacheTTL time.Duration // subject response cache, 0 disables

	Debug bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Port:             DefaultPort,
		AllowedOrigins:   []string{"*"},
		ReadTimeout:      DefaultReadTimeout,
		WriteTimeout:     DefaultWriteTimeout,
		IdleTimeout:      DefaultIdleTimeout,
		ShutdownTimeout:  DefaultShutdownTimeout,
		BodyLimit:        DefaultBodyLimit,
		MetricsPath:      DefaultMetricsPath,
		ResponseCacheTTL: conf.DefaultSubjectTTL,
	}
}

// ConfigFromSettings creates a Config from the application settings.
// Zero values in settings keep the defaults.
func ConfigFromSettings(settings *conf.Settings) *Config {
	cfg := DefaultConfig()
	if settings == nil {
		return cfg
	}

	ws := settings.WebServer
	if ws.Port != "" {
		cfg.Port = ws.Port
	}
	if len(ws.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = ws.AllowedOrigins
	}
	if ws.BodyLimit != "" {
		cfg.BodyLimit = ws.BodyLimit
	}
	if ws.ShutdownTimeout > 0 {
		cfg.ShutdownTimeout = ws.ShutdownTimeout
	}

	// The AI call is the slowest handler, keep writes open past its deadline
	if settings.AI.Timeout > 0 && settings.AI.Timeout+5*time.Second > cfg.WriteTimeout {
		cfg.WriteTimeout = settings.AI.Timeout + 5*time.Second
	}

	cfg.ResponseCacheTTL = settings.Cache.SubjectTTL
	cfg.MetricsEnabled = settings.Telemetry.Metrics.Enabled
	if settings.Telemetry.Metrics.Path != "" {
		cfg.MetricsPath = settings.Telemetry.Metrics.Path
	}

	cfg.Debug = ws.Debug || settings.Debug
	return cfg
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive")
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("write timeout must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}
	if _, err := bytes.Parse(c.BodyLimit); err != nil {
		return fmt.Errorf("invalid body limit %q: %w", c.BodyLimit, err)
	}
	if c.MetricsEnabled && (c.MetricsPath == "" || c.MetricsPath[0] != '/') {
		return fmt.Errorf("metrics path must start with '/', got %q", c.MetricsPath)
	}
	return nil
}

// Address returns the full address string for the server to listen on.
func (c *Config) Address() string {
	if c.Host == "" {
		return ":" + c.Port
	}
	return c.Host + ":" + c.Port
}

// String returns a human-readable representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf("Server Config: address=%s, metrics=%v, debug=%v",
		c.Address(), c.MetricsEnabled, c.Debug)
}
