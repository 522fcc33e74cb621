// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package links keeps internal links in generated HTML pointing at pages
// that exist. Models emit links as placeholders:
//
//	[INTERNAL_LINK slug="<slug>" text="<anchor text>"]
//
// and three passes run over them in order: Repair rewrites invented slugs
// to the closest known page, EnforceQuota injects links until a minimum is
// met, and Resolve turns every placeholder into an anchor tag.
package links

import (
	"fmt"
	"regexp"
	"strings"

	"contentforge/internal/models"
)

// Page is a link target.
type Page struct {
	Slug  string
	Title string
	URL   string
}

// FromSitemap converts discovered pages into link targets. Pages without a
// slug cannot be addressed by a placeholder and are skipped.
func FromSitemap(pages []models.SitemapPage) []Page {
	out := make([]Page, 0, len(pages))
	for _, p := range pages {
		if p.Slug == "" {
			continue
		}
		out = append(out, Page{Slug: p.Slug, Title: p.Title, URL: p.URL})
	}
	return out
}

// Models swap attribute order and quote styles, so a token is matched as
// a run of attributes and parsed separately.
var (
	placeholderPattern = regexp.MustCompile(`\[INTERNAL_LINK((?:\s+\w+\s*=\s*(?:"[^"]*"|'[^']*'))*)\s*\]`)
	attrPattern        = regexp.MustCompile(`(\w+)\s*=\s*(?:"([^"]*)"|'([^']*)')`)
	leftoverPattern    = regexp.MustCompile(`\[INTERNAL_LINK[^\]]*\]?`)
)

// parseToken reads the slug and text attributes of a matched token.
func parseToken(tok string) Link {
	var l Link
	for _, m := range attrPattern.FindAllStringSubmatch(tok, -1) {
		v := m[2]
		if v == "" {
			v = m[3]
		}
		switch strings.ToLower(m[1]) {
		case "slug":
			l.Slug = strings.TrimSpace(v)
		case "text":
			l.Text = v
		}
	}
	return l
}

// Placeholder renders the placeholder token for slug and anchor text.
func Placeholder(slug, text string) string {
	return fmt.Sprintf(`[INTERNAL_LINK slug="%s" text="%s"]`, slug, escapeQuotes(text))
}

// Link is a placeholder found in HTML.
type Link struct {
	Slug string
	Text string
}

// Find returns every placeholder in s, in document order.
func Find(s string) []Link {
	var out []Link
	for _, tok := range placeholderPattern.FindAllString(s, -1) {
		out = append(out, parseToken(tok))
	}
	return out
}

// HasPlaceholders reports whether any placeholder remains in s.
func HasPlaceholders(s string) bool {
	return strings.Contains(s, "[INTERNAL_LINK")
}

type index map[string]Page

func newIndex(pages []Page) index {
	idx := make(index, len(pages))
	for _, p := range pages {
		idx[p.Slug] = p
	}
	return idx
}

// CountValid counts placeholders whose slug names a known page.
func CountValid(s string, pages []Page) int {
	idx := newIndex(pages)
	n := 0
	for _, l := range Find(s) {
		if _, ok := idx[l.Slug]; ok {
			n++
		}
	}
	return n
}

func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, "&quot;")
}

// StripPlaceholders replaces every placeholder with its anchor text. A
// malformed token keeps its text attribute when one can be read and is
// removed otherwise.
func StripPlaceholders(s string) string {
	s = placeholderPattern.ReplaceAllStringFunc(s, func(tok string) string {
		return parseToken(tok).Text
	})
	return leftoverPattern.ReplaceAllStringFunc(s, func(tok string) string {
		return parseToken(tok).Text
	})
}
