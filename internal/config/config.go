// Package config provides centralized configuration management for the
// application. It loads configuration from environment variables with
// sensible defaults and validates all settings on startup to fail fast on
// misconfiguration.
package config

import "time"

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Upload   UploadConfig
	Matcher  MatcherConfig
	Photo    PhotoConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing response (default: 0 for SSE)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// UploadConfig holds file upload limits.
type UploadConfig struct {
	// MaxRosterSize is the maximum roster file size in bytes (default: 20MB)
	MaxRosterSize int64 `env:"UPLOAD_MAX_ROSTER_SIZE" default:"20971520"`

	// MaxArchiveSize is the maximum photo archive size in bytes (default: 200MB)
	MaxArchiveSize int64 `env:"UPLOAD_MAX_ARCHIVE_SIZE" default:"209715200"`
}

// MatcherConfig holds photo quality thresholds for reconciliation warnings.
type MatcherConfig struct {
	// MinWidth is the recommended minimum photo width in pixels (default: 240)
	MinWidth int `env:"MATCHER_MIN_WIDTH" default:"240"`

	// MinHeight is the recommended minimum photo height in pixels (default: 320)
	MinHeight int `env:"MATCHER_MIN_HEIGHT" default:"320"`

	// MinAspect is the minimum acceptable width/height ratio (default: 0.5)
	MinAspect float64 `env:"MATCHER_MIN_ASPECT" default:"0.5"`

	// MaxAspect is the maximum acceptable width/height ratio (default: 1.0)
	MaxAspect float64 `env:"MATCHER_MAX_ASPECT" default:"1.0"`

	// PassTimeout is the maximum duration of one reconciliation pass (default: 5m)
	PassTimeout time.Duration `env:"MATCHER_PASS_TIMEOUT" default:"5m"`
}

// PhotoConfig holds settings for the external photo post-processing service.
// When Endpoint is empty, photos are stored as-is.
type PhotoConfig struct {
	// Endpoint is the URL of the post-processing service (optional)
	Endpoint string `env:"PHOTO_PROCESSOR_URL"`

	// Timeout is the per-photo request timeout (default: 20s)
	Timeout time.Duration `env:"PHOTO_PROCESSOR_TIMEOUT" default:"20s"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// UploadLimit is requests per minute for upload endpoints (default: 10)
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// AllowedOrigins is a comma-separated list of CORS origins (default: *)
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" default:"*"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	if c.Host == "" {
		return ":" + itoa(c.Port)
	}
	return c.Host + ":" + itoa(c.Port)
}

// itoa converts an int to string without importing strconv in this file.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	n := len(b)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		n--
		b[n] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		n--
		b[n] = '-'
	}
	return string(b[n:])
}
