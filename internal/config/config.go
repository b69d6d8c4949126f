package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// Vision providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	// ProviderMock answers with a canned profile; for local development.
	ProviderMock = "mock"
)

// Failure modes of the analysis handler.
const (
	FailureModeError = "error"
	FailureModeDemo  = "demo"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	AnalysisTimeout    time.Duration
	ImageFetchTimeout  time.Duration
	MaxRequestBodySize int64

	// Vision provider.
	APIKey         string
	VisionProvider string
	VisionBaseURL  string
	VisionModel    string
	FailureMode    string

	// Image preprocessing.
	ImageMaxDimension int
	ImageJPEGQuality  int

	// Telegram.
	BotToken       string
	ChannelID      string
	ChannelLink    string
	TelegramAPIURL string
	InitDataMaxAge time.Duration

	// Upstream quota protection; zero RPS disables the limiter.
	RateLimitRPS   float64
	RateLimitBurst int

	// Remote image sources.
	AllowedImageHosts   []string
	AzureStorageAccount string
	AzureStorageKey     string
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// AzureEnabled reports whether Azure blob credentials are configured.
func (c *Config) AzureEnabled() bool {
	return c.AzureStorageAccount != "" && c.AzureStorageKey != ""
}

func LoadFromEnv() (*Config, error) {
	// Set defaults
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 90*time.Second),
		AnalysisTimeout:    parseDurationOrDefault("ANALYSIS_TIMEOUT", 60*time.Second),
		ImageFetchTimeout:  parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 10*1024*1024), // 10MB

		APIKey:         strings.TrimSpace(os.Getenv("API_KEY")),
		VisionProvider: strings.ToLower(getEnvOrDefault("VISION_PROVIDER", ProviderOpenAI)),
		VisionBaseURL:  strings.TrimRight(getEnvOrDefault("VISION_BASE_URL", "https://api.vsegpt.ru/v1"), "/"),
		VisionModel:    os.Getenv("VISION_MODEL"),
		FailureMode:    strings.ToLower(getEnvOrDefault("ANALYZE_FAILURE_MODE", FailureModeError)),

		ImageMaxDimension: int(parseIntOrDefault("IMAGE_MAX_DIMENSION", 512)),
		ImageJPEGQuality:  int(parseIntOrDefault("IMAGE_JPEG_QUALITY", 50)),

		BotToken:       strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
		ChannelID:      strings.TrimSpace(os.Getenv("TELEGRAM_CHANNEL_ID")),
		ChannelLink:    getEnvOrDefault("TELEGRAM_CHANNEL_LINK", "https://t.me/groupaifaily"),
		TelegramAPIURL: strings.TrimRight(getEnvOrDefault("TELEGRAM_API_URL", "https://api.telegram.org"), "/"),
		InitDataMaxAge: parseDurationOrDefault("INIT_DATA_MAX_AGE", 24*time.Hour),

		RateLimitRPS:   parseFloatOrDefault("RATE_LIMIT_RPS", 0),
		RateLimitBurst: int(parseIntOrDefault("RATE_LIMIT_BURST", 5)),

		AllowedImageHosts:   parseListOrDefault("ALLOWED_IMAGE_HOSTS", nil),
		AzureStorageAccount: strings.TrimSpace(os.Getenv("AZURE_STORAGE_ACCOUNT")),
		AzureStorageKey:     strings.TrimSpace(os.Getenv("AZURE_STORAGE_KEY")),
	}

	if cfg.VisionModel == "" {
		cfg.VisionModel = defaultModel(cfg.VisionProvider)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations. Missing credentials are not an
// error: the handlers report them per request.
func (c *Config) Validate() error {
	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.RequestTimeout <= 0 || c.AnalysisTimeout <= 0 || c.ImageFetchTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, analysis=%s, fetch=%s)",
			c.RequestTimeout, c.AnalysisTimeout, c.ImageFetchTimeout)
	}
	switch c.VisionProvider {
	case ProviderOpenAI, ProviderGemini, ProviderMock:
	default:
		return fmt.Errorf("unsupported VISION_PROVIDER: %q", c.VisionProvider)
	}
	switch c.FailureMode {
	case FailureModeError, FailureModeDemo:
	default:
		return fmt.Errorf("unsupported ANALYZE_FAILURE_MODE: %q", c.FailureMode)
	}
	if c.ImageMaxDimension < 64 || c.ImageMaxDimension > 4096 {
		return fmt.Errorf("IMAGE_MAX_DIMENSION must be in [64, 4096] (got %d)", c.ImageMaxDimension)
	}
	if c.ImageJPEGQuality < 1 || c.ImageJPEGQuality > 100 {
		return fmt.Errorf("IMAGE_JPEG_QUALITY must be in [1, 100] (got %d)", c.ImageJPEGQuality)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0 (got %g)", c.RateLimitRPS)
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 1 when rate limiting is enabled (got %d)", c.RateLimitBurst)
	}
	return nil
}

func defaultModel(provider string) string {
	switch provider {
	case ProviderGemini:
		return "gemini-1.5-flash"
	case ProviderMock:
		return "mock"
	}
	return "openai/gpt-4o-mini"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func parseListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
