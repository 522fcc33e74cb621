// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
)

// ImageGenerator is an optional interface that AI providers can implement
// to support image generation. Not all providers have this capability
// (e.g., Claude and Mistral are text-only).
type ImageGenerator interface {
	// GenerateImage creates an image from a text prompt. Returns the raw
	// image bytes and the MIME content type (e.g., "image/png").
	GenerateImage(ctx context.Context, prompt string) ([]byte, string, error)
}

// ErrNoImageProvider is returned when no configured provider can draw.
var ErrNoImageProvider = errors.New("ai: no image-capable provider configured")

// imageProviders returns the image-capable providers in priority order.
// Providers missing from the priority list follow in name order.
func (r *Registry) imageProviders() []ImageGenerator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var out []ImageGenerator
	add := func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		p := r.providers[name]
		if mf, ok := p.(*ModelFallback); ok {
			p = mf.Unwrap()
		}
		if ig, ok := p.(ImageGenerator); ok {
			out = append(out, ig)
		}
	}
	for _, name := range r.imagePriority {
		add(name)
	}
	rest := make([]string, 0, len(r.providers))
	for name := range r.providers {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		add(name)
	}
	return out
}

// GenerateImage tries each image-capable provider in priority order and
// returns the first image produced.
func (r *Registry) GenerateImage(ctx context.Context, prompt string) ([]byte, string, error) {
	providers := r.imageProviders()
	if len(providers) == 0 {
		return nil, "", ErrNoImageProvider
	}

	var errs []error
	for _, ig := range providers {
		img, contentType, err := ig.GenerateImage(ctx, prompt)
		if err == nil {
			return img, contentType, nil
		}
		slog.Warn("image provider failed, trying next", "error", err)
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	return nil, "", fmt.Errorf("ai: all image providers failed: %w", errors.Join(errs...))
}

// SupportsImageGeneration returns true if any provider can generate images.
func (r *Registry) SupportsImageGeneration() bool {
	return len(r.imageProviders()) > 0
}
