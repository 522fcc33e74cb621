// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ModelFallback tries each configured model in order, moving to the next
// only when a model fails. Preview models get pulled or overloaded often;
// the list usually ends in a stable model.
type ModelFallback struct {
	Provider
	gen    ModelGenerator
	models []string
}

// NewModelFallback wraps p. Empty model names are skipped.
func NewModelFallback(p Provider, gen ModelGenerator, models []string) *ModelFallback {
	var list []string
	for _, m := range models {
		if m != "" {
			list = append(list, m)
		}
	}
	return &ModelFallback{Provider: p, gen: gen, models: list}
}

// Generate runs the prompt against each model until one succeeds.
func (f *ModelFallback) Generate(ctx context.Context, systemPrompt, userPrompt string, opts GenerateOptions) (string, error) {
	if len(f.models) == 0 {
		return f.Provider.Generate(ctx, systemPrompt, userPrompt, opts)
	}

	var errs []error
	for _, model := range f.models {
		out, err := f.gen.GenerateWithModel(ctx, model, systemPrompt, userPrompt, opts)
		if err == nil {
			return out, nil
		}
		errs = append(errs, fmt.Errorf("model %s: %w", model, err))
		if ctx.Err() != nil {
			break
		}
		slog.Warn("model failed, falling back", "provider", f.Name(), "model", model, "error", err)
	}
	return "", errors.Join(errs...)
}

// Unwrap returns the wrapped provider.
func (f *ModelFallback) Unwrap() Provider { return f.Provider }
