// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package config

import (
	"slices"
	"strings"
	"testing"
	"time"
)

var allKeys = []string{
	"APP_HOST", "APP_PORT", "APP_ENV", "OPERATOR_USER", "OPERATOR_PASSWORD_HASH",
	"POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB",
	"VALKEY_HOST", "VALKEY_PORT", "VALKEY_PASSWORD",
	"AI_PROVIDER", "IMAGE_PROVIDERS", "GEMINI_FALLBACK_MODELS",
	"OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_MODEL_IMAGE", "OPENAI_BASE_URL",
	"GEMINI_API_KEY", "GEMINI_MODEL", "GEMINI_MODEL_IMAGE", "GEMINI_BASE_URL",
	"CLAUDE_API_KEY", "CLAUDE_MODEL", "CLAUDE_BASE_URL",
	"MISTRAL_API_KEY", "MISTRAL_MODEL", "MISTRAL_BASE_URL",
	"SERPER_API_KEY", "SERPER_BASE_URL",
	"WP_URL", "WP_USERNAME", "WP_APP_PASSWORD",
	"S3_ENDPOINT", "S3_REGION", "S3_ACCESS_KEY", "S3_SECRET_KEY", "S3_BUCKET_PUBLIC", "S3_PUBLIC_URL",
	"MIN_WORDS_STANDARD", "MIN_WORDS_PILLAR", "MAX_WORDS", "MIN_INTERNAL_LINKS",
	"CACHE_TTL", "CONCURRENCY", "RELAY_ENDPOINTS",
}

// clearEnv sets every key Load reads to "", which envOrDefault treats as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		t.Setenv(key, "")
	}
}

// TestLoad_Defaults verifies that Load returns sensible development defaults
// when no environment variables are set.
func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	check := func(field, got, want string) {
		t.Helper()
		if got != want {
			t.Errorf("%s = %q, want %q", field, got, want)
		}
	}
	check("Host", cfg.Host, "0.0.0.0")
	check("Port", cfg.Port, "8080")
	check("Env", cfg.Env, "development")
	check("OperatorUser", cfg.OperatorUser, "operator")
	check("AIProvider", cfg.AIProvider, "gemini")
	check("OpenAIModel", cfg.OpenAIModel, "gpt-4o")
	check("ClaudeModel", cfg.ClaudeModel, "claude-sonnet-4-6")
	check("SerperBaseURL", cfg.SerperBaseURL, "https://google.serper.dev")
	check("S3BucketPublic", cfg.S3BucketPublic, "contentforge-public")

	if cfg.HasDatabase() || cfg.HasValkey() {
		t.Error("database and valkey should be off by default")
	}
	if cfg.MinWordsStandard != 1800 || cfg.MinWordsPillar != 3500 || cfg.MaxWords != 4500 {
		t.Errorf("word limits = %d/%d/%d", cfg.MinWordsStandard, cfg.MinWordsPillar, cfg.MaxWords)
	}
	if cfg.MinInternalLinks != 8 || cfg.Concurrency != 3 || cfg.CacheTTL != 24*time.Hour {
		t.Errorf("links=%d concurrency=%d ttl=%v", cfg.MinInternalLinks, cfg.Concurrency, cfg.CacheTTL)
	}
	if !slices.Equal(cfg.ImageProviders, []string{"gemini", "openai"}) {
		t.Errorf("ImageProviders = %v", cfg.ImageProviders)
	}
	if cfg.RelayEndpoints != nil || cfg.GeminiFallbackModels != nil {
		t.Errorf("lists should default to nil: %v %v", cfg.RelayEndpoints, cfg.GeminiFallbackModels)
	}
}

// TestLoad_EnvOverrides verifies that environment variables override defaults.
func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	overrides := map[string]string{
		"APP_PORT":               "9090",
		"POSTGRES_HOST":          "db.example.com",
		"VALKEY_HOST":            "cache.example.com",
		"AI_PROVIDER":            "claude",
		"GEMINI_FALLBACK_MODELS": "gemini-2.5-pro, ,gemini-2.5-flash",
		"IMAGE_PROVIDERS":        "openai",
		"WP_URL":                 "https://blog.example.com",
		"MIN_WORDS_STANDARD":     "1200",
		"MAX_WORDS":              "5000",
		"CACHE_TTL":              "90m",
		"CONCURRENCY":            "5",
		"RELAY_ENDPOINTS":        "https://relay.example.com/?u=%s",
	}
	for key, val := range overrides {
		t.Setenv(key, val)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.Addr() != "0.0.0.0:9090" {
		t.Errorf("Addr = %q", cfg.Addr())
	}
	if !cfg.HasDatabase() || !cfg.HasValkey() {
		t.Error("database and valkey should be enabled")
	}
	if !slices.Equal(cfg.GeminiFallbackModels, []string{"gemini-2.5-pro", "gemini-2.5-flash"}) {
		t.Errorf("GeminiFallbackModels = %v", cfg.GeminiFallbackModels)
	}
	if !slices.Equal(cfg.ImageProviders, []string{"openai"}) {
		t.Errorf("ImageProviders = %v", cfg.ImageProviders)
	}
	if cfg.MinWordsStandard != 1200 || cfg.MaxWords != 5000 || cfg.CacheTTL != 90*time.Minute || cfg.Concurrency != 5 {
		t.Errorf("generation settings = %+v", cfg)
	}
	if len(cfg.RelayEndpoints) != 1 || cfg.WPURL != "https://blog.example.com" || cfg.AIProvider != "claude" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"bad int", map[string]string{"MAX_WORDS": "lots"}, "MAX_WORDS"},
		{"bad duration", map[string]string{"CACHE_TTL": "1 day"}, "CACHE_TTL"},
		{"max below min", map[string]string{"MAX_WORDS": "1000"}, "MAX_WORDS"},
		{"zero concurrency", map[string]string{"CONCURRENCY": "0"}, "CONCURRENCY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

// TestLoad_Production verifies that production mode rejects unsafe defaults.
func TestLoad_Production(t *testing.T) {
	t.Run("requires operator password", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("APP_ENV", "production")
		if _, err := Load(); err == nil || !strings.Contains(err.Error(), "OPERATOR_PASSWORD_HASH") {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("rejects default database password", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("APP_ENV", "production")
		t.Setenv("OPERATOR_PASSWORD_HASH", "$2a$10$abc")
		t.Setenv("POSTGRES_HOST", "db")
		if _, err := Load(); err == nil || !strings.Contains(err.Error(), "POSTGRES_PASSWORD") {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("accepts real settings", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("APP_ENV", "production")
		t.Setenv("OPERATOR_PASSWORD_HASH", "$2a$10$abc")
		t.Setenv("POSTGRES_HOST", "db")
		t.Setenv("POSTGRES_PASSWORD", "s3cret")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.IsDev() {
			t.Error("IsDev in production")
		}
	})
}
