// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package ai provides a unified text-generation capability over multiple
// LLM providers (OpenAI, Gemini, Claude, Mistral). Each provider implements
// the Provider interface; the Registry selects the active one by name and
// orders image-capable providers for fallback. Invoke wraps any provider
// call with failure classification and backoff.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// defaultTimeout bounds a single provider HTTP call.
const defaultTimeout = 60 * time.Second

// GenerateOptions tunes a single generation call.
type GenerateOptions struct {
	// JSON asks the provider for a bare JSON response where it supports a
	// native JSON mode. Callers still run the result through jsonrepair.
	JSON bool
}

// TextGenerator is the capability the content pipeline consumes.
type TextGenerator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, opts GenerateOptions) (string, error)
}

// Provider defines the interface that all AI providers must implement.
// Each provider handles its own HTTP communication and response parsing.
type Provider interface {
	TextGenerator

	// Name returns the provider identifier (e.g., "openai", "gemini").
	Name() string
}

// ModelGenerator is implemented by providers that can target a specific
// model per call. ModelFallback builds on it.
type ModelGenerator interface {
	GenerateWithModel(ctx context.Context, model, systemPrompt, userPrompt string, opts GenerateOptions) (string, error)
}

// ProviderConfig holds the credentials and settings for a single provider.
type ProviderConfig struct {
	APIKey     string
	Model      string
	ModelImage string
	BaseURL    string
	// FallbackModels are tried in order after Model fails.
	FallbackModels []string
}

// Registry manages available AI providers and selects the active one.
// It supports runtime switching by changing the active provider name.
// All methods are safe for concurrent use.
type Registry struct {
	mu            sync.RWMutex
	providers     map[string]Provider
	active        string
	imagePriority []string
	moderator     Moderator // may be nil if no moderation API is available
}

// NewRegistry creates a registry and initialises providers for every config
// that has a non-empty API key. Providers without keys are silently skipped.
// imagePriority lists provider names in the order image generation is tried.
func NewRegistry(active string, configs map[string]ProviderConfig, imagePriority []string) *Registry {
	r := &Registry{
		providers:     make(map[string]Provider),
		active:        active,
		imagePriority: imagePriority,
	}

	for name, cfg := range configs {
		if cfg.APIKey == "" {
			continue
		}
		var p Provider
		switch name {
		case "openai":
			p = newOpenAI(cfg)
		case "gemini":
			p = newGemini(cfg)
		case "claude":
			p = newClaude(cfg)
		case "mistral":
			p = newMistral(cfg)
		default:
			continue
		}
		if len(cfg.FallbackModels) > 0 {
			if mg, ok := p.(ModelGenerator); ok {
				p = NewModelFallback(p, mg, append([]string{cfg.Model}, cfg.FallbackModels...))
			}
		}
		r.providers[name] = p
	}

	// The free OpenAI moderation endpoint screens topics when a key exists.
	if cfg, ok := configs["openai"]; ok && cfg.APIKey != "" {
		r.moderator = newOpenAIModerator(cfg.APIKey, cfg.BaseURL)
	}

	return r
}

// Generate calls the active provider's Generate method.
func (r *Registry) Generate(ctx context.Context, systemPrompt, userPrompt string, opts GenerateOptions) (string, error) {
	p, err := r.Active()
	if err != nil {
		return "", err
	}
	return p.Generate(ctx, systemPrompt, userPrompt, opts)
}

// Active returns the currently active provider.
func (r *Registry) Active() (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[r.active]
	if !ok {
		return nil, fmt.Errorf("ai: no provider configured for %q", r.active)
	}
	return p, nil
}

// SetActive switches the active provider at runtime. Returns an error if
// the named provider has no API key configured.
func (r *Registry) SetActive(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.providers[name]; !ok {
		return fmt.Errorf("ai: provider %q is not available (no API key?)", name)
	}
	r.active = name
	return nil
}

// ActiveName returns the name of the currently active provider.
func (r *Registry) ActiveName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.active
}

// Available returns the names of all providers that have valid API keys.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}

// Register adds or replaces a provider in the registry.
func (r *Registry) Register(name string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = p
}

// HasProvider checks whether a named provider is configured and available.
func (r *Registry) HasProvider(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.providers[name]
	return ok
}

// --- shared HTTP plumbing ---

// postJSON marshals body, POSTs it to url with the given headers, and
// decodes a 200 response into out. Any other status becomes an *APIError.
func postJSON(ctx context.Context, client *http.Client, provider, url string, headers map[string]string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s marshal: %w", provider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s request: %w", provider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s http: %w", provider, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s read body: %w", provider, err)
	}

	if resp.StatusCode != http.StatusOK {
		return &APIError{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			RetryAfter: strings.TrimSpace(resp.Header.Get("Retry-After")),
			Body:       string(respBody),
		}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%s unmarshal: %w", provider, err)
	}
	return nil
}
