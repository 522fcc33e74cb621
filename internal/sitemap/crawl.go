// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package sitemap

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"contentforge/internal/fetch"
	"contentforge/internal/htmltext"
	"contentforge/internal/models"
	"contentforge/internal/runner"
)

// EventKind tags a crawl event.
type EventKind string

const (
	EventProgress EventKind = "progress"
	EventResult   EventKind = "result"
	EventError    EventKind = "error"
)

// Event is one message from a running crawl. Progress events carry the
// counters; the single final event is either a result carrying every page
// or an error.
type Event struct {
	Kind      EventKind
	Completed int
	Total     int
	Pages     []models.SitemapPage
	Err       error
}

// Crawler discovers and crawls a site in the background.
type Crawler struct {
	fetcher     Fetcher
	concurrency int
	now         func() time.Time
}

// NewCrawler creates a crawler that fetches up to concurrency pages at once.
func NewCrawler(f Fetcher, concurrency int) *Crawler {
	return &Crawler{fetcher: f, concurrency: concurrency, now: time.Now}
}

// Start runs discovery and crawling on its own goroutine and returns the
// event stream, which callers must drain until it is closed after the
// final event. Cancelling ctx stops the crawl at the next page boundary;
// pages finished by then are still delivered in the result.
func (c *Crawler) Start(ctx context.Context, sitemapURL string) <-chan Event {
	events := make(chan Event, 16)
	go func() {
		defer close(events)
		send := func(ev Event) { events <- ev }

		pages, err := Discover(ctx, c.fetcher, sitemapURL, c.now())
		if err != nil {
			send(Event{Kind: EventError, Err: err})
			return
		}
		send(Event{Kind: EventProgress, Completed: 0, Total: len(pages)})

		var mu sync.Mutex
		idx := make([]int, len(pages))
		for i := range idx {
			idx[i] = i
		}
		err = runner.Run(ctx, idx, func(ctx context.Context, i int) error {
			page := pages[i]
			c.crawlPage(ctx, &page)
			mu.Lock()
			pages[i] = page
			mu.Unlock()
			return nil
		}, runner.Options{
			Concurrency: c.concurrency,
			OnProgress: func(done, total int) {
				send(Event{Kind: EventProgress, Completed: done, Total: total})
			},
			ShouldStop: func() bool { return ctx.Err() != nil },
		})
		if err != nil {
			send(Event{Kind: EventError, Err: err})
			return
		}
		send(Event{Kind: EventResult, Completed: len(pages), Total: len(pages), Pages: pages})
	}()
	return events
}

// crawlPage fills the page text, word count and title. A failed fetch
// leaves the page as discovered.
func (c *Crawler) crawlPage(ctx context.Context, page *models.SitemapPage) {
	resp, err := c.fetcher.Do(ctx, fetch.Get(page.URL))
	if err != nil {
		slog.Warn("page crawl failed", "url", page.URL, "error", err)
		return
	}
	doc, err := htmltext.ExtractText(string(resp.Body))
	if err != nil {
		slog.Warn("page unparseable", "url", page.URL, "error", err)
		return
	}
	if doc.Title != "" {
		page.Title = doc.Title
	}
	page.CrawledText = doc.Text
	page.WordCount = htmltext.WordCount(doc.Text)
}
