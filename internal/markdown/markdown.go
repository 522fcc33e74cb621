// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package markdown converts Markdown into HTML using goldmark. Models are
// asked for HTML fragments but regularly answer in Markdown, so section
// and FAQ bodies pass through Normalize before assembly.
package markdown

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// md is the configured goldmark instance, reused across calls. The
// typographer extension stays off: it would rewrite the straight quotes
// inside link placeholders.
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		highlighting.NewHighlighting(
			highlighting.WithStyle("monokai"),
			highlighting.WithFormatOptions(),
		),
	),
	goldmark.WithRendererOptions(
		html.WithUnsafe(), // models mix raw HTML into Markdown answers
	),
)

// ToHTML converts Markdown source into HTML. Raw HTML embedded in the
// Markdown is passed through unchanged.
func ToHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var (
	fencePattern    = regexp.MustCompile("(?s)^\\s*```[a-zA-Z]*\\s*\\n(.*?)\\n?\\s*```\\s*$")
	blockTagPattern = regexp.MustCompile(`(?i)<(p|ul|ol|li|h[1-6]|div|table|blockquote|figure|section)[\s>]`)
	markdownPattern = regexp.MustCompile(`(?m)^(#{1,6} |[-*+] |\d+\. |> )|\*\*[^*\n]+\*\*`)
	tokenPattern    = regexp.MustCompile(`\[[A-Z][A-Z0-9_]*(?: [^\]]*)?\]`)
)

// LooksLikeMarkdown reports whether s reads as Markdown rather than an
// HTML fragment: it carries Markdown block or emphasis syntax and no HTML
// block elements.
func LooksLikeMarkdown(s string) bool {
	if blockTagPattern.MatchString(s) {
		return false
	}
	return markdownPattern.MatchString(s) || !strings.Contains(s, "<")
}

// Normalize turns a model answer into an HTML fragment: a wrapping code
// fence is removed and Markdown is rendered. Text that is already HTML is
// returned trimmed.
func Normalize(s string) (string, error) {
	s = strings.TrimSpace(s)
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}
	if s == "" || !LooksLikeMarkdown(s) {
		return s, nil
	}

	// Bracketed tokens are swapped out while rendering; goldmark would
	// escape the quotes inside them.
	var tokens []string
	s = tokenPattern.ReplaceAllStringFunc(s, func(tok string) string {
		tokens = append(tokens, tok)
		return fmt.Sprintf("MDTOKEN%dX", len(tokens)-1)
	})
	out, err := ToHTML(s)
	if err != nil {
		return "", err
	}
	for i, tok := range tokens {
		out = strings.Replace(out, fmt.Sprintf("MDTOKEN%dX", i), tok, 1)
	}
	return strings.TrimSpace(out), nil
}
