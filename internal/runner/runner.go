// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package runner executes independent work items with bounded parallelism.
// It backs batch generation, sitemap crawling, health analysis and bulk
// publishing.
package runner

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Options tunes a Run call. The zero value runs one worker with no
// progress reporting and no stop predicate.
type Options struct {
	// Concurrency is the number of workers. Values below 1 mean 1.
	Concurrency int

	// OnProgress fires once per finished item with the running count.
	// Calls are serialized, so completed increases by one each time.
	OnProgress func(completed, total int)

	// ShouldStop is polled by every worker before it pulls the next item.
	// Once it reports true the queue is drained and in-flight items are
	// left to finish.
	ShouldStop func() bool
}

// Run feeds items to process through a shared queue drained by
// opts.Concurrency workers. Items are pulled in input order but may finish
// in any order. Run returns the first error returned by process; after an
// error, workers stop pulling new items. Callers that want a failed item
// to not affect the rest of the batch should record the failure and
// return nil from process.
func Run[T any](ctx context.Context, items []T, process func(context.Context, T) error, opts Options) error {
	workers := opts.Concurrency
	if workers < 1 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}
	if workers == 0 {
		return nil
	}

	queue := make(chan T, len(items))
	for _, it := range items {
		queue <- it
	}
	close(queue)

	var (
		mu        sync.Mutex
		completed int
		total     = len(items)
	)
	finished := func() {
		if opts.OnProgress == nil {
			return
		}
		mu.Lock()
		completed++
		opts.OnProgress(completed, total)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	for range workers {
		g.Go(func() error {
			for {
				if gctx.Err() != nil {
					return nil
				}
				if opts.ShouldStop != nil && opts.ShouldStop() {
					for range queue {
					}
					return nil
				}
				item, ok := <-queue
				if !ok {
					return nil
				}
				if err := process(gctx, item); err != nil {
					return err
				}
				finished()
			}
		})
	}
	return g.Wait()
}
