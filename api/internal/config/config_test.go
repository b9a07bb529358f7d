package config

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// TestLoadDefaults verifies defaults apply and a missing key is not a load error.
func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("PORT", "")
	t.Setenv("INFERENCE_PROVIDER", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.GeminiAPIKey != "" {
		t.Fatalf("expected empty key")
	}
	if cfg.Port != "8000" || cfg.GeminiModel != "gemini-2.5-flash" || cfg.Provider != "genai" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.RequestTimeout != 180*time.Second || cfg.MaxUploadBytes != 20<<20 {
		t.Fatalf("unexpected limits %+v", cfg)
	}
	if cfg.LogLevel != zerolog.InfoLevel {
		t.Fatalf("unexpected level %v", cfg.LogLevel)
	}
}

// TestLoadOverrides verifies env values are trimmed and parsed.
func TestLoadOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "  abc  ")
	t.Setenv("INFERENCE_PROVIDER", "REST")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "15")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("STRICT_SCHEMA", "true")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.GeminiAPIKey != "abc" || cfg.Provider != "rest" {
		t.Fatalf("unexpected %+v", cfg)
	}
	if cfg.RequestTimeout != 15*time.Second || cfg.RateLimitRPS != 2.5 || !cfg.StrictSchema {
		t.Fatalf("unexpected %+v", cfg)
	}
	if cfg.LogLevel != zerolog.DebugLevel {
		t.Fatalf("unexpected level %v", cfg.LogLevel)
	}
}

// TestLoadSplitsGeminiEndpoints verifies the REST URL and SDK endpoint are read separately.
func TestLoadSplitsGeminiEndpoints(t *testing.T) {
	t.Setenv("INFERENCE_PROVIDER", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("GEMINI_BASE_URL", "https://gw.example.com")
	t.Setenv("GEMINI_ENDPOINT", "gw.example.com:443")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.GeminiBaseURL != "https://gw.example.com" || cfg.GeminiEndpoint != "gw.example.com:443" {
		t.Fatalf("unexpected endpoints %q %q", cfg.GeminiBaseURL, cfg.GeminiEndpoint)
	}
}

// TestLoadBadNumbersFallBack verifies unparsable numbers keep defaults.
func TestLoadBadNumbersFallBack(t *testing.T) {
	t.Setenv("INFERENCE_PROVIDER", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "soon")
	t.Setenv("MAX_UPLOAD_MB", "-3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RequestTimeout != 180*time.Second || cfg.MaxUploadBytes != 20<<20 {
		t.Fatalf("unexpected %+v", cfg)
	}
}

// TestLoadRejectsUnknownProvider verifies provider names are checked.
func TestLoadRejectsUnknownProvider(t *testing.T) {
	t.Setenv("INFERENCE_PROVIDER", "openai")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "INFERENCE_PROVIDER") {
		t.Fatalf("expected provider error, got %v", err)
	}
}

// TestLoadRejectsBadLogSettings verifies log level and format are checked.
func TestLoadRejectsBadLogSettings(t *testing.T) {
	t.Setenv("INFERENCE_PROVIDER", "")
	t.Setenv("LOG_LEVEL", "loud")
	if _, err := Load(); err == nil {
		t.Fatalf("expected LOG_LEVEL error")
	}
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "xml")
	if _, err := Load(); err == nil {
		t.Fatalf("expected LOG_FORMAT error")
	}
}
