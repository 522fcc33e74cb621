// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package studio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"contentforge/internal/models"
	"contentforge/internal/runner"
	"contentforge/internal/sitemap"
)

// StartCrawl discovers and crawls sitemapURL in the background. The
// crawled pages are merged into the working set when the crawl ends.
func (s *Studio) StartCrawl(sitemapURL string) (Task, error) {
	if s.deps.Crawler == nil {
		return Task{}, fmt.Errorf("%w: crawler", ErrDisabled)
	}
	if sitemapURL == "" {
		return Task{}, errors.New("studio: sitemap URL is required")
	}

	task := s.newTask(TaskCrawl, 0)
	log := slog.With("task", task.ID, "sitemap", sitemapURL)
	log.Info("crawl started")

	s.background(func(ctx context.Context) {
		var err error
		for ev := range s.deps.Crawler.Start(ctx, sitemapURL) {
			switch ev.Kind {
			case sitemap.EventProgress:
				s.progressTask(task.ID, ev.Completed, ev.Total)
			case sitemap.EventResult:
				s.progressTask(task.ID, ev.Completed, ev.Total)
				merged := s.mergePages(ev.Pages)
				s.persistPages(ctx, merged)
				log.Info("crawl finished", "pages", len(merged))
			case sitemap.EventError:
				err = ev.Err
				log.Error("crawl failed", "error", err)
			}
		}
		s.finishTask(task.ID, err)
	})
	return task, nil
}

// mergePages adds crawled pages, keeping the health verdict and publish
// state already recorded for a known URL.
func (s *Studio) mergePages(pages []models.SitemapPage) []models.SitemapPage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.SitemapPage, 0, len(pages))
	for _, p := range pages {
		if old, ok := s.pages[p.URL]; ok {
			if p.HealthScore == nil && p.Priority == "" {
				p.HealthScore, p.Priority, p.Justification = old.HealthScore, old.Priority, old.Justification
			}
			if old.PublishState == models.PublishStateUpdated {
				p.PublishState = old.PublishState
			}
		}
		if p.PublishState == "" {
			p.PublishState = models.PublishStateNone
		}
		s.putPageLocked(p)
		out = append(out, p)
	}
	return out
}

// StartAnalysis scores the health of the pages at urls, or of every
// known page when urls is empty.
func (s *Studio) StartAnalysis(urls []string) (Task, error) {
	if s.deps.Analyzer == nil {
		return Task{}, fmt.Errorf("%w: analyzer", ErrDisabled)
	}

	s.mu.RLock()
	if len(urls) == 0 {
		urls = append([]string(nil), s.pageOrder...)
	}
	for _, u := range urls {
		if _, ok := s.pages[u]; !ok {
			s.mu.RUnlock()
			return Task{}, fmt.Errorf("%w: %q", ErrNotFound, u)
		}
	}
	s.mu.RUnlock()
	urls = dedupe(urls)
	if len(urls) == 0 {
		return Task{}, errors.New("studio: no pages to analyse")
	}

	task := s.newTask(TaskAnalyse, len(urls))
	log := slog.With("task", task.ID)
	log.Info("health analysis started", "pages", len(urls))

	s.background(func(ctx context.Context) {
		var analysed []models.SitemapPage
		err := runner.Run(ctx, urls, func(ctx context.Context, u string) error {
			s.mu.RLock()
			page, ok := s.pages[u]
			s.mu.RUnlock()
			if !ok {
				return nil
			}
			page = s.deps.Analyzer.Analyze(ctx, page)
			s.mu.Lock()
			s.putPageLocked(page)
			analysed = append(analysed, page)
			s.mu.Unlock()
			return nil
		}, runner.Options{
			Concurrency: s.opts.Concurrency,
			OnProgress:  func(done, total int) { s.progressTask(task.ID, done, total) },
			ShouldStop:  func() bool { return ctx.Err() != nil },
		})
		s.persistPages(ctx, analysed)
		s.finishTask(task.ID, err)
		log.Info("health analysis finished", "analysed", len(analysed), "error", err)
	})
	return task, nil
}
