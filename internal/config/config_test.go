package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.Upload.MaxRosterSize != 20971520 {
		t.Errorf("Upload.MaxRosterSize = %d, want %d", cfg.Upload.MaxRosterSize, 20971520)
	}
	if cfg.Matcher.MinWidth != 240 || cfg.Matcher.MinHeight != 320 {
		t.Errorf("Matcher min size = %dx%d, want 240x320", cfg.Matcher.MinWidth, cfg.Matcher.MinHeight)
	}
	if cfg.Matcher.MinAspect != 0.5 || cfg.Matcher.MaxAspect != 1.0 {
		t.Errorf("Matcher aspect = %g-%g, want 0.5-1", cfg.Matcher.MinAspect, cfg.Matcher.MaxAspect)
	}
	if cfg.Rate.RequestsPerMinute != 100 {
		t.Errorf("Rate.RequestsPerMinute = %d, want %d", cfg.Rate.RequestsPerMinute, 100)
	}
}

func TestLoad_OverrideDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("MATCHER_MIN_ASPECT", "0.6")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Matcher.MinAspect != 0.6 {
		t.Errorf("Matcher.MinAspect = %g, want %g", cfg.Matcher.MinAspect, 0.6)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoad_Duration(t *testing.T) {
	t.Setenv("SERVER_READ_TIMEOUT", "45s")
	t.Setenv("MATCHER_PASS_TIMEOUT", "1m30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.ReadTimeout != 45*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want %v", cfg.Server.ReadTimeout, 45*time.Second)
	}
	if cfg.Matcher.PassTimeout != 90*time.Second {
		t.Errorf("Matcher.PassTimeout = %v, want %v", cfg.Matcher.PassTimeout, 90*time.Second)
	}
}

func TestLoad_CommaSeparatedSlice(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com , https://c.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	expected := []string{"https://a.example.com", "https://b.example.com", "https://c.example.com"}
	if len(cfg.Security.AllowedOrigins) != len(expected) {
		t.Fatalf("AllowedOrigins length = %d, want %d", len(cfg.Security.AllowedOrigins), len(expected))
	}
	for i, v := range expected {
		if cfg.Security.AllowedOrigins[i] != v {
			t.Errorf("AllowedOrigins[%d] = %q, want %q", i, cfg.Security.AllowedOrigins[i], v)
		}
	}
}

func TestLoad_InvalidFloat(t *testing.T) {
	t.Setenv("MATCHER_MIN_ASPECT", "portrait")

	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error for non-numeric aspect ratio")
	}
}

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080, ShutdownTimeout: time.Second},
		Upload: UploadConfig{MaxRosterSize: 1, MaxArchiveSize: 1},
		Matcher: MatcherConfig{
			MinWidth: 240, MinHeight: 320,
			MinAspect: 0.5, MaxAspect: 1.0,
			PassTimeout: time.Minute,
		},
		Photo:   PhotoConfig{Timeout: time.Second},
		Rate:    RateLimitConfig{Enabled: true, RequestsPerMinute: 100, UploadLimit: 10},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 99999

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for invalid port")
	}
	if !strings.Contains(err.Error(), "SERVER_PORT") {
		t.Errorf("error should mention SERVER_PORT: %v", err)
	}
}

func TestValidate_AspectRangeInverted(t *testing.T) {
	cfg := validConfig()
	cfg.Matcher.MinAspect = 1.2
	cfg.Matcher.MaxAspect = 0.8

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for inverted aspect range")
	}
	if !strings.Contains(err.Error(), "MATCHER_MAX_ASPECT") {
		t.Errorf("error should mention MATCHER_MAX_ASPECT: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "verbose"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for invalid log level")
	}
	if !strings.Contains(err.Error(), "LOG_LEVEL") {
		t.Errorf("error should mention LOG_LEVEL: %v", err)
	}
}

func TestValidate_ProcessorTimeout(t *testing.T) {
	cfg := validConfig()
	cfg.Photo.Endpoint = "http://processor.internal/clean"
	cfg.Photo.Timeout = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() expected error for zero processor timeout with endpoint set")
	}
}

func TestServerAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"", 8080, ":8080"},
		{"0.0.0.0", 8080, "0.0.0.0:8080"},
		{"127.0.0.1", 3000, "127.0.0.1:3000"},
		{"localhost", 443, "localhost:443"},
	}

	for _, tt := range tests {
		cfg := &ServerConfig{Host: tt.host, Port: tt.port}
		if got := cfg.Addr(); got != tt.want {
			t.Errorf("Addr() with host=%q, port=%d = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}

func init() {
	// Tests must not inherit matcher/server overrides from the invoking shell.
	for _, v := range []string{
		"SERVER_HOST", "SERVER_PORT", "SERVER_READ_TIMEOUT",
		"MATCHER_MIN_ASPECT", "MATCHER_PASS_TIMEOUT",
		"CORS_ALLOWED_ORIGINS", "LOG_LEVEL", "LOG_FORMAT",
	} {
		os.Unsetenv(v)
	}
}
