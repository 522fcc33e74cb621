// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package htmltext turns HTML into plain text for word counting, prompts
// and content-health analysis.
package htmltext

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	tagPattern        = regexp.MustCompile(`(?s)<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// boilerplate lists the elements dropped before extracting page text.
const boilerplate = "script, style, noscript, nav, footer, header, aside, form, iframe, svg"

// StripTags replaces every tag with a space, decodes entities and
// collapses whitespace. Adjacent block elements therefore never glue
// their words together.
func StripTags(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}

// WordCount counts whitespace-separated words in the visible text of s.
func WordCount(s string) int {
	return len(strings.Fields(StripTags(s)))
}

// Page is the readable part of a crawled document.
type Page struct {
	Title string
	Text  string
}

// ExtractText parses a full HTML document, removes navigation and script
// blocks, and returns the title and the remaining text of the main
// content area (article, then main, then body).
func ExtractText(doc string) (Page, error) {
	d, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return Page{}, fmt.Errorf("parsing html: %w", err)
	}
	d.Find(boilerplate).Remove()

	title := strings.TrimSpace(d.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(d.Find("h1").First().Text())
	}
	if og, ok := d.Find(`meta[property="og:title"]`).Attr("content"); ok && title == "" {
		title = strings.TrimSpace(og)
	}

	root := d.Find("article").First()
	if root.Length() == 0 {
		root = d.Find("main").First()
	}
	if root.Length() == 0 {
		root = d.Find("body").First()
	}
	inner, err := root.Html()
	if err != nil {
		return Page{}, fmt.Errorf("rendering content: %w", err)
	}
	return Page{Title: title, Text: StripTags(inner)}, nil
}

// Truncate shortens text to at most n words, for prompt budgets.
func Truncate(text string, n int) string {
	words := strings.Fields(text)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + " ..."
}
