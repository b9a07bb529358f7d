package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

type Config struct {
	Port string

	// GeminiAPIKey may be empty at load time; conversions then fail with
	// inference.ErrMissingCredential before any network call.
	GeminiAPIKey     string
	GeminiModel      string
	Provider         string // "genai" | "rest"
	GeminiBaseURL    string // REST engine, https://host
	GeminiEndpoint   string // genai SDK, host:port
	GeminiAPIVersion string

	RequestTimeout time.Duration
	HTTPTimeout    time.Duration
	PreferIPv4     bool
	MaxUploadBytes int64
	RateLimitRPS   float64
	RateLimitBurst int
	SessionTTL     time.Duration

	PromptFile   string
	StrictSchema bool

	LogLevel  zerolog.Level
	LogFormat string // "json" | "console"

	TelegramBotToken string
	WebhookURL       string
}

// Load reads the environment, after merging an optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:             getEnv("PORT", "8000"),
		GeminiAPIKey:     strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		Provider:         strings.ToLower(getEnv("INFERENCE_PROVIDER", "genai")),
		GeminiBaseURL:    getEnv("GEMINI_BASE_URL", ""),
		GeminiEndpoint:   getEnv("GEMINI_ENDPOINT", ""),
		GeminiAPIVersion: getEnv("GEMINI_API_VERSION", "v1beta"),
		RequestTimeout:   time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 180)) * time.Second,
		HTTPTimeout:      time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 180)) * time.Second,
		PreferIPv4:       getEnvBool("PREFER_IPV4", false),
		MaxUploadBytes:   int64(getEnvInt("MAX_UPLOAD_MB", 20)) << 20,
		RateLimitRPS:     getEnvFloat("RATE_LIMIT_RPS", 0),
		RateLimitBurst:   getEnvInt("RATE_LIMIT_BURST", 5),
		SessionTTL:       time.Duration(getEnvInt("SESSION_TTL_MINUTES", 120)) * time.Minute,
		PromptFile:       getEnv("PROMPT_FILE", ""),
		StrictSchema:     getEnvBool("STRICT_SCHEMA", false),
		LogFormat:        strings.ToLower(getEnv("LOG_FORMAT", "json")),
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(getEnv("LOG_LEVEL", "info")))
	if err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = lvl

	switch cfg.Provider {
	case "genai", "gemini", "rest":
	default:
		return Config{}, fmt.Errorf("INFERENCE_PROVIDER must be genai or rest, got %q", cfg.Provider)
	}
	switch cfg.LogFormat {
	case "json", "console":
	default:
		return Config{}, fmt.Errorf("LOG_FORMAT must be json or console, got %q", cfg.LogFormat)
	}

	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 180 * time.Second
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 180 * time.Second
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20 << 20
	}
	if cfg.RateLimitBurst < 1 {
		cfg.RateLimitBurst = 1
	}
	return cfg, nil
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvFloat(k string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getEnvBool(k string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
