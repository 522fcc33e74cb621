// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import "net/http"

// newMistral creates a Mistral provider. Mistral serves an OpenAI-compatible
// chat API at a different base URL, so only the name and defaults differ.
// It has no image model, so GenerateImage always fails on missing config.
func newMistral(cfg ProviderConfig) *openAIProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.mistral.ai/v1"
	}
	cfg.ModelImage = ""
	return &openAIProvider{
		name:   "mistral",
		config: cfg,
		client: &http.Client{Timeout: defaultTimeout},
	}
}
