// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package studio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"contentforge/internal/links"
	"contentforge/internal/models"
	"contentforge/internal/pipeline"
	"contentforge/internal/quality"
	"contentforge/internal/runner"
)

// maxStatusText bounds the error diagnostic kept on an item.
const maxStatusText = 200

// StartGeneration queues the items and generates them in the background,
// at most Options.Concurrency at a time. One item's failure never stops
// the batch. An item already queued or generating is refused with
// ErrBusy. It returns the task tracking the batch.
func (s *Studio) StartGeneration(ids []string) (Task, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return Task{}, errors.New("studio: no items to generate")
	}

	s.mu.Lock()
	for _, id := range ids {
		it, ok := s.items[id]
		if !ok {
			s.mu.Unlock()
			return Task{}, fmt.Errorf("%w: %q", ErrNotFound, id)
		}
		if _, waiting := s.queued[id]; waiting || it.Status == models.ItemStatusGenerating {
			s.mu.Unlock()
			return Task{}, fmt.Errorf("%w: %q", ErrBusy, id)
		}
	}
	batch := uuid.NewString()
	queued := make([]models.ContentItem, 0, len(ids))
	for _, id := range ids {
		s.queued[id] = batch
		delete(s.stopped, id)
		it := s.items[id].WithStatus(models.ItemStatusIdle, "Queued")
		s.items[id] = it
		queued = append(queued, it)
	}
	// The link targets are frozen for the whole batch.
	pages := links.FromSitemap(s.pagesLocked())
	s.mu.Unlock()

	for _, it := range queued {
		s.persistItem(s.ctx, it)
	}

	task := s.newTask(TaskGenerate, len(ids))
	log := slog.With("task", task.ID)
	log.Info("generation batch started", "items", len(ids), "concurrency", s.opts.Concurrency, "link_targets", len(pages))

	s.background(func(ctx context.Context) {
		err := runner.Run(ctx, ids, func(ctx context.Context, id string) error {
			defer s.dequeue(batch, id)
			s.generateOne(ctx, id, pages)
			return nil
		}, runner.Options{
			Concurrency: s.opts.Concurrency,
			OnProgress:  func(done, total int) { s.progressTask(task.ID, done, total) },
			ShouldStop:  func() bool { return ctx.Err() != nil },
		})
		// Items the runner never reached are released too.
		s.dequeue(batch, ids...)
		s.finishTask(task.ID, err)
		log.Info("generation batch finished", "error", err)
	})
	return task, nil
}

// dequeue releases ids still held by batch.
func (s *Studio) dequeue(batch string, ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if s.queued[id] == batch {
			delete(s.queued, id)
		}
	}
}

func (s *Studio) generateOne(ctx context.Context, id string, pages []links.Page) {
	item, ok := s.Item(id)
	if !ok {
		return
	}
	if s.isStopped(id) {
		s.setItem(ctx, item.WithStatus(models.ItemStatusIdle, "Stopped"))
		return
	}

	item = item.WithStatus(models.ItemStatusGenerating, "Starting")
	s.setItem(ctx, item)

	gc, err := s.deps.Generator.Run(ctx, pipeline.Request{
		Item:     item,
		Pages:    pages,
		Stopped:  func() bool { return ctx.Err() != nil || s.isStopped(id) },
		Progress: func(text string) { s.setStatusText(id, text) },
	})
	if err != nil && ctx.Err() != nil && !errors.Is(err, pipeline.ErrStopped) {
		err = pipeline.ErrStopped
	}

	next := outcome(item, gc, err)
	s.setItem(ctx, next)
	if err != nil {
		slog.Warn("item generation ended without an article", "item", id, "status", next.Status, "error", err)
	}
}

// outcome maps a pipeline result onto the item's next state.
func outcome(item models.ContentItem, gc *models.GeneratedContent, err error) models.ContentItem {
	if err == nil {
		return item.WithContent(gc).WithStatus(models.ItemStatusDone,
			fmt.Sprintf("Generated %d words", gc.WordCount))
	}
	if errors.Is(err, pipeline.ErrStopped) {
		return item.WithStatus(models.ItemStatusIdle, "Stopped")
	}

	var short *quality.ContentTooShortError
	if errors.As(err, &short) {
		if gc != nil {
			item = item.WithContent(gc)
		}
		return item.WithStatus(models.ItemStatusError,
			fmt.Sprintf("Content too short: %d words (minimum %d), kept for review", short.Words, short.Min))
	}

	var flagged *pipeline.TopicFlaggedError
	if errors.As(err, &flagged) {
		return item.WithStatus(models.ItemStatusError, truncate("Topic flagged: "+strings.Join(flagged.Categories, ", "), maxStatusText))
	}
	return item.WithStatus(models.ItemStatusError, truncate(err.Error(), maxStatusText))
}

func (s *Studio) pagesLocked() []models.SitemapPage {
	out := make([]models.SitemapPage, 0, len(s.pageOrder))
	for _, u := range s.pageOrder {
		out = append(out, s.pages[u])
	}
	return out
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
