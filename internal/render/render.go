// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render turns a generated article into a standalone HTML preview
// page: the article body, its head metadata and JSON-LD schema, and a
// summary box of the SEO fields the operator reviews before publishing.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"contentforge/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// previewCSP lets the preview show inline and archived images and its own
// stylesheet while still refusing scripts.
const previewCSP = "default-src 'none'; img-src data: https:; style-src 'unsafe-inline'"

// Renderer executes the preview template.
type Renderer struct {
	preview *template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	funcMap := template.FuncMap{
		"join": strings.Join,
		// trusted marks pipeline output as HTML. previewCSP blocks any
		// script it might carry.
		"trusted": func(s string) template.HTML {
			return template.HTML(s)
		},
	}
	tmpl, err := template.New("preview.html").Funcs(funcMap).ParseFS(templateFS, "templates/preview.html")
	if err != nil {
		return nil, fmt.Errorf("parse preview template: %w", err)
	}
	return &Renderer{preview: tmpl}, nil
}

// Preview writes the preview page for gc to w.
func (rn *Renderer) Preview(w http.ResponseWriter, gc *models.GeneratedContent) {
	// Render into a buffer so a template failure never leaves a
	// half-written page.
	var buf bytes.Buffer
	if err := rn.preview.Execute(&buf, gc); err != nil {
		slog.Error("preview render failed", "slug", gc.Slug, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Security-Policy", previewCSP)
	_, _ = buf.WriteTo(w)
}
