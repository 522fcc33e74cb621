// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package sitemap discovers the pages of the target site, crawls their
// text and scores how badly each one needs a rewrite.
package sitemap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"contentforge/internal/fetch"
	"contentforge/internal/models"
	"contentforge/internal/slug"
)

const (
	// maxDepth bounds sitemap index nesting.
	maxDepth = 3
	// maxSitemaps bounds the number of sitemap files fetched per discovery.
	maxSitemaps = 50
)

// Fetcher is the subset of the resilient fetch client used here.
type Fetcher interface {
	Do(ctx context.Context, req *fetch.Request) (*fetch.Response, error)
}

// Discover fetches sitemapURL, follows nested sitemap indexes and returns
// one page per distinct URL, aged relative to now.
func Discover(ctx context.Context, f Fetcher, sitemapURL string, now time.Time) ([]models.SitemapPage, error) {
	d := &discovery{fetcher: f, seen: make(map[string]bool), visited: make(map[string]bool)}
	if err := d.walk(ctx, sitemapURL, 0); err != nil {
		return nil, err
	}
	for i := range d.pages {
		d.pages[i].Age(now)
	}
	slog.Info("sitemap discovered", "sitemap", sitemapURL, "pages", len(d.pages), "files", len(d.visited))
	return d.pages, nil
}

type discovery struct {
	fetcher Fetcher
	seen    map[string]bool
	visited map[string]bool
	pages   []models.SitemapPage
}

func (d *discovery) walk(ctx context.Context, url string, depth int) error {
	if d.visited[url] || len(d.visited) >= maxSitemaps {
		return nil
	}
	d.visited[url] = true

	req := fetch.Get(url)
	req.Header.Set("Accept", "application/xml,text/xml;q=0.9,*/*;q=0.8")
	resp, err := d.fetcher.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("fetching sitemap %s: %w", url, err)
	}
	doc, err := Parse(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: %w", url, err)
	}

	for _, child := range doc.Children {
		if depth+1 > maxDepth {
			slog.Warn("sitemap index nested too deep, skipping", "sitemap", child)
			continue
		}
		// A broken child sitemap should not hide the others.
		if err := d.walk(ctx, child, depth+1); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Warn("child sitemap failed", "sitemap", child, "error", err)
		}
	}

	for _, e := range doc.Entries {
		if d.seen[e.Loc] {
			continue
		}
		d.seen[e.Loc] = true
		s := slug.FromURL(e.Loc)
		d.pages = append(d.pages, models.SitemapPage{
			URL:          e.Loc,
			Slug:         s,
			Title:        titleFromSlug(s),
			LastMod:      e.LastMod,
			PublishState: models.PublishStateNone,
		})
	}
	return nil
}

// titleFromSlug gives a readable placeholder title until the page is
// crawled.
func titleFromSlug(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
