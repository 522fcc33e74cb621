// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation from arbitrary strings.
package slug

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

// nonWord matches runs of anything that isn't a letter, digit, or underscore.
var nonWord = regexp.MustCompile(`[^a-z0-9_]+`)

// Generate creates a URL-friendly slug from the given string.
// Example: "Hello, World! 2026" → "hello-world-2026"
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	result = nonWord.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// FromURL returns the last non-empty path segment of a page URL, which
// WordPress uses as the post slug. Returns "" for a bare host.
func FromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	p := strings.TrimRight(u.Path, "/")
	if p == "" {
		return ""
	}
	return path.Base(p)
}
