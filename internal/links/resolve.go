// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package links

import (
	"fmt"
	"html"
	"log/slog"
)

// Resolve replaces every placeholder with an anchor to its page's URL.
// A placeholder whose slug is still unknown becomes plain anchor text.
func Resolve(s string, pages []Page) string {
	idx := newIndex(pages)
	return placeholderPattern.ReplaceAllStringFunc(s, func(tok string) string {
		l := parseToken(tok)
		slug, text := l.Slug, l.Text
		p, ok := idx[slug]
		if !ok || p.URL == "" {
			slog.Warn("unresolvable internal link", "slug", slug)
			return text
		}
		return fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(p.URL), escapeQuotes(text))
	})
}

// Process runs Repair, EnforceQuota and Resolve in that order and reports
// how many links the quota pass injected.
func Process(s string, pages []Page, minLinks int) (string, int) {
	s = Repair(s, pages)
	s, added := EnforceQuota(s, pages, minLinks)
	return Resolve(s, pages), added
}
