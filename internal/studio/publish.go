// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package studio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"contentforge/internal/models"
	"contentforge/internal/runner"
	"contentforge/internal/slug"
	"contentforge/internal/wordpress"
)

// Publish sends a finished item to WordPress. Rewrites update the post
// that lives at the original slug and mark their sitemap page updated.
// A failure leaves the item and its article untouched so it can be
// retried.
func (s *Studio) Publish(ctx context.Context, id, status string) (*wordpress.Result, error) {
	if s.deps.Publisher == nil || !s.deps.Publisher.Configured() {
		return nil, fmt.Errorf("%w: wordpress", ErrDisabled)
	}
	item, ok := s.Item(id)
	if !ok {
		return nil, ErrNotFound
	}
	if item.Status != models.ItemStatusDone || item.Generated == nil {
		return nil, ErrNotReady
	}

	opts := wordpress.PublishOptions{Status: status}
	if item.IsRewrite() {
		opts.Slug = slug.FromURL(item.OriginalURL)
	}

	res, err := s.deps.Publisher.Publish(ctx, item.Generated, opts)
	if err != nil {
		slog.Warn("publish failed", "item", id, "error", err)
		return nil, fmt.Errorf("publishing %q: %w", id, err)
	}

	if item.IsRewrite() {
		s.markPageUpdated(ctx, item.OriginalURL)
	}
	if s.deps.PublishLog != nil {
		s.deps.PublishLog.Log(context.WithoutCancel(ctx), id, res.PostID, res.Link, res.Updated)
	}

	verb := "Published"
	if res.Updated {
		verb = "Updated"
	}
	if cur, ok := s.Item(id); ok {
		s.setItem(ctx, cur.WithStatus(cur.Status, fmt.Sprintf("%s post %d", verb, res.PostID)))
	}
	return res, nil
}

// PublishOutcome is the per-item result of a batch publish.
type PublishOutcome struct {
	ID      string `json:"id"`
	PostID  int    `json:"post_id,omitempty"`
	Link    string `json:"link,omitempty"`
	Updated bool   `json:"updated,omitempty"`
	Error   string `json:"error,omitempty"`
	Remedy  string `json:"remedy,omitempty"`
}

// PublishBatch publishes the items concurrently and reports each outcome
// in input order.
func (s *Studio) PublishBatch(ctx context.Context, ids []string, status string) []PublishOutcome {
	ids = dedupe(ids)
	out := make([]PublishOutcome, len(ids))
	idx := make([]int, len(ids))
	for i := range idx {
		idx[i] = i
	}

	var mu sync.Mutex
	_ = runner.Run(ctx, idx, func(ctx context.Context, i int) error {
		o := PublishOutcome{ID: ids[i]}
		res, err := s.Publish(ctx, ids[i], status)
		if err != nil {
			o.Error = err.Error()
			o.Remedy = wordpress.Diagnose(err)
		} else {
			o.PostID, o.Link, o.Updated = res.PostID, res.Link, res.Updated
		}
		mu.Lock()
		out[i] = o
		mu.Unlock()
		return nil
	}, runner.Options{
		Concurrency: s.opts.Concurrency,
		ShouldStop:  func() bool { return ctx.Err() != nil },
	})

	for i := range out {
		if out[i].ID == "" {
			out[i] = PublishOutcome{ID: ids[i], Error: "not attempted: request cancelled"}
		}
	}
	return out
}

func (s *Studio) markPageUpdated(ctx context.Context, url string) {
	s.mu.Lock()
	if p, ok := s.pages[url]; ok {
		p.PublishState = models.PublishStateUpdated
		s.pages[url] = p
	}
	s.mu.Unlock()

	if s.deps.Pages == nil {
		return
	}
	if err := s.deps.Pages.MarkUpdated(context.WithoutCancel(ctx), url); err != nil {
		slog.Error("failed to persist page publish state", "url", url, "error", err)
	}
}
