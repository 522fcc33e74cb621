// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// OperatorPasswordHash is the bcrypt hash guarding the operator API.
	// Empty disables authentication, which is refused in production.
	OperatorUser         string
	OperatorPasswordHash string

	// PostgreSQL connection. An empty host runs without persistence.
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Valkey (Redis-compatible cache). An empty host uses the in-memory cache.
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// AI provider settings
	AIProvider           string // "openai", "gemini", "claude", "mistral"
	OpenAIKey            string
	OpenAIModel          string
	OpenAIModelImage     string
	OpenAIBaseURL        string
	GeminiKey            string
	GeminiModel          string
	GeminiModelImage     string
	GeminiBaseURL        string
	GeminiFallbackModels []string
	ClaudeKey            string
	ClaudeModel          string
	ClaudeBaseURL        string
	MistralKey           string
	MistralModel         string
	MistralBaseURL       string
	ImageProviders       []string // priority order for image generation

	// Search data provider
	SerperKey     string
	SerperBaseURL string

	// WordPress target
	WPURL         string
	WPUsername    string
	WPAppPassword string

	// S3-compatible image archive
	S3Endpoint     string
	S3Region       string
	S3AccessKey    string
	S3SecretKey    string
	S3BucketPublic string
	S3PublicURL    string

	// Generation
	MinWordsStandard int
	MinWordsPillar   int
	MaxWords         int
	MinInternalLinks int
	CacheTTL         time.Duration
	Concurrency      int
	RelayEndpoints   []string
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if a numeric value
// does not parse or critical values are missing in production mode.
func Load() (*Config, error) {
	cfg := &Config{
		Host: envOrDefault("APP_HOST", "0.0.0.0"),
		Port: envOrDefault("APP_PORT", "8080"),
		Env:  envOrDefault("APP_ENV", "development"),

		OperatorUser:         envOrDefault("OPERATOR_USER", "operator"),
		OperatorPasswordHash: os.Getenv("OPERATOR_PASSWORD_HASH"),

		DBHost:     os.Getenv("POSTGRES_HOST"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "contentforge"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "contentforge"),
		DBSSLMode:  envOrDefault("POSTGRES_SSLMODE", "disable"),

		ValkeyHost:     os.Getenv("VALKEY_HOST"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		AIProvider:           envOrDefault("AI_PROVIDER", "gemini"),
		OpenAIKey:            os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:          envOrDefault("OPENAI_MODEL", "gpt-4o"),
		OpenAIModelImage:     envOrDefault("OPENAI_MODEL_IMAGE", "gpt-image-1"),
		OpenAIBaseURL:        envOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		GeminiKey:            os.Getenv("GEMINI_API_KEY"),
		GeminiModel:          envOrDefault("GEMINI_MODEL", "gemini-3.1-pro-preview"),
		GeminiModelImage:     envOrDefault("GEMINI_MODEL_IMAGE", "gemini-2.5-flash-image"),
		GeminiBaseURL:        envOrDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		GeminiFallbackModels: splitList(os.Getenv("GEMINI_FALLBACK_MODELS")),
		ClaudeKey:            os.Getenv("CLAUDE_API_KEY"),
		ClaudeModel:          envOrDefault("CLAUDE_MODEL", "claude-sonnet-4-6"),
		ClaudeBaseURL:        envOrDefault("CLAUDE_BASE_URL", "https://api.anthropic.com"),
		MistralKey:           os.Getenv("MISTRAL_API_KEY"),
		MistralModel:         envOrDefault("MISTRAL_MODEL", "mistral-large-latest"),
		MistralBaseURL:       envOrDefault("MISTRAL_BASE_URL", "https://api.mistral.ai"),
		ImageProviders:       splitList(envOrDefault("IMAGE_PROVIDERS", "gemini,openai")),

		SerperKey:     os.Getenv("SERPER_API_KEY"),
		SerperBaseURL: envOrDefault("SERPER_BASE_URL", "https://google.serper.dev"),

		WPURL:         os.Getenv("WP_URL"),
		WPUsername:    os.Getenv("WP_USERNAME"),
		WPAppPassword: os.Getenv("WP_APP_PASSWORD"),

		S3Endpoint:     os.Getenv("S3_ENDPOINT"),
		S3Region:       envOrDefault("S3_REGION", "fsn1"),
		S3AccessKey:    os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:    os.Getenv("S3_SECRET_KEY"),
		S3BucketPublic: envOrDefault("S3_BUCKET_PUBLIC", "contentforge-public"),
		S3PublicURL:    os.Getenv("S3_PUBLIC_URL"),

		RelayEndpoints: splitList(os.Getenv("RELAY_ENDPOINTS")),
	}

	var err error
	ints := []struct {
		key  string
		def  int
		dest *int
	}{
		{"MIN_WORDS_STANDARD", 1800, &cfg.MinWordsStandard},
		{"MIN_WORDS_PILLAR", 3500, &cfg.MinWordsPillar},
		{"MAX_WORDS", 4500, &cfg.MaxWords},
		{"MIN_INTERNAL_LINKS", 8, &cfg.MinInternalLinks},
		{"CONCURRENCY", 3, &cfg.Concurrency},
	}
	for _, v := range ints {
		if *v.dest, err = envInt(v.key, v.def); err != nil {
			return nil, err
		}
	}
	if cfg.CacheTTL, err = envDuration("CACHE_TTL", 24*time.Hour); err != nil {
		return nil, err
	}

	if cfg.MinWordsStandard > cfg.MaxWords || cfg.MinWordsPillar > cfg.MaxWords {
		return nil, fmt.Errorf("MAX_WORDS (%d) must not be below the minimum word counts", cfg.MaxWords)
	}
	if cfg.Concurrency < 1 {
		return nil, fmt.Errorf("CONCURRENCY must be at least 1, got %d", cfg.Concurrency)
	}

	if cfg.Env == "production" {
		if cfg.DBHost != "" && cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
		if cfg.OperatorPasswordHash == "" {
			return nil, fmt.Errorf("OPERATOR_PASSWORD_HASH must be set in production")
		}
	}

	return cfg, nil
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// HasDatabase reports whether PostgreSQL persistence is configured.
func (c *Config) HasDatabase() bool {
	return c.DBHost != ""
}

// HasValkey reports whether the shared Valkey cache is configured.
func (c *Config) HasValkey() bool {
	return c.ValkeyHost != ""
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// splitList parses a comma-separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
