// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package studio owns the working set of an editing session: the content
// items, the discovered sitemap pages and the background tasks that act
// on them. Items move idle → generating → done|error; every transition
// replaces the item in the collection and is written through to the
// store when one is configured. Long operations (generation batches,
// crawls, health analysis) run in the background on the concurrency
// runner and report progress as a Task.
package studio

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"contentforge/internal/models"
	"contentforge/internal/pipeline"
	"contentforge/internal/sitemap"
	"contentforge/internal/wordpress"
)

var (
	// ErrNotFound means no item or page has the given identity.
	ErrNotFound = errors.New("studio: not found")
	// ErrBusy means the item is generating and cannot be replaced or queued.
	ErrBusy = errors.New("studio: item is generating")
	// ErrNotReady means the item has no finished article to publish.
	ErrNotReady = errors.New("studio: item has no finished article")
	// ErrDisabled means the collaborator for the operation is not configured.
	ErrDisabled = errors.New("studio: not configured")
)

// Generator produces articles; *pipeline.Pipeline satisfies it.
type Generator interface {
	Run(ctx context.Context, req pipeline.Request) (*models.GeneratedContent, error)
}

// Publisher sends articles to WordPress; *wordpress.Client satisfies it.
type Publisher interface {
	Configured() bool
	Publish(ctx context.Context, gc *models.GeneratedContent, opts wordpress.PublishOptions) (*wordpress.Result, error)
}

// Analyzer scores page health; *sitemap.Analyzer satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, page models.SitemapPage) models.SitemapPage
}

// Crawler discovers and crawls a sitemap; *sitemap.Crawler satisfies it.
type Crawler interface {
	Start(ctx context.Context, sitemapURL string) <-chan sitemap.Event
}

// ItemStore persists items.
type ItemStore interface {
	Save(ctx context.Context, item models.ContentItem) error
}

// PageStore persists pages.
type PageStore interface {
	SaveAll(ctx context.Context, pages []models.SitemapPage) error
	MarkUpdated(ctx context.Context, url string) error
}

// PublishLog records successful publishes.
type PublishLog interface {
	Log(ctx context.Context, itemID string, postID int, link string, updated bool)
}

// Deps are the studio's collaborators. Generator is required; the rest
// disable their operations when nil.
type Deps struct {
	Generator  Generator
	Publisher  Publisher
	Analyzer   Analyzer
	Crawler    Crawler
	Items      ItemStore
	Pages      PageStore
	PublishLog PublishLog
}

// Options tune the background work.
type Options struct {
	// Concurrency bounds in-flight items per batch.
	Concurrency int
}

// Studio is safe for concurrent use.
type Studio struct {
	deps Deps
	opts Options

	mu        sync.RWMutex
	items     map[string]models.ContentItem
	itemOrder []string
	pages     map[string]models.SitemapPage
	pageOrder []string
	stopped   map[string]bool
	// queued maps an item waiting in or running through a generation
	// batch to that batch's ID.
	queued map[string]string
	tasks     map[string]*Task

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an empty studio. Background tasks run until Close.
func New(deps Deps, opts Options) *Studio {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Studio{
		deps:    deps,
		opts:    opts,
		items:   make(map[string]models.ContentItem),
		pages:   make(map[string]models.SitemapPage),
		stopped: make(map[string]bool),
		queued:  make(map[string]string),
		tasks:   make(map[string]*Task),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Close cancels background tasks and waits for them to return.
func (s *Studio) Close() {
	s.cancel()
	s.wg.Wait()
}

// Wait blocks until every background task has finished.
func (s *Studio) Wait() {
	s.wg.Wait()
}

// Restore loads a persisted working set. Items that were mid-generation
// when the process stopped come back idle.
func (s *Studio) Restore(items []models.ContentItem, pages []models.SitemapPage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range items {
		if it.Status == models.ItemStatusGenerating {
			it = it.WithStatus(models.ItemStatusIdle, "Interrupted")
		}
		s.putItemLocked(it)
	}
	for _, p := range pages {
		s.putPageLocked(p)
	}
	slog.Info("studio restored", "items", len(items), "pages", len(pages))
}

// NewItem describes an item to plan.
type NewItem struct {
	Title string          `json:"title"`
	Kind  models.ItemKind `json:"kind"`
}

// AddItems creates idle items keyed by title. An existing item with the
// same title is replaced unless it is generating.
func (s *Studio) AddItems(ctx context.Context, in []NewItem) ([]models.ContentItem, error) {
	var created []models.ContentItem
	s.mu.Lock()
	for _, n := range in {
		title := strings.TrimSpace(n.Title)
		if title == "" {
			s.mu.Unlock()
			return nil, errors.New("studio: item title is required")
		}
		kind := n.Kind
		switch kind {
		case models.ItemKindPillar, models.ItemKindCluster, models.ItemKindStandard:
		case "":
			kind = models.ItemKindStandard
		default:
			s.mu.Unlock()
			return nil, errors.New("studio: unknown item kind " + string(kind))
		}
		if cur, ok := s.items[title]; ok && cur.Status == models.ItemStatusGenerating {
			s.mu.Unlock()
			return nil, ErrBusy
		}
		created = append(created, models.ContentItem{
			ID: title, Title: title, Kind: kind, Status: models.ItemStatusIdle, StatusText: "Planned",
		})
	}
	for _, it := range created {
		s.putItemLocked(it)
	}
	s.mu.Unlock()

	for _, it := range created {
		s.persistItem(ctx, it)
	}
	return created, nil
}

// AddRewrite creates an item that rewrites the sitemap page at url.
func (s *Studio) AddRewrite(ctx context.Context, url string) (models.ContentItem, error) {
	s.mu.Lock()
	page, ok := s.pages[url]
	if !ok {
		s.mu.Unlock()
		return models.ContentItem{}, ErrNotFound
	}
	title := page.Title
	if title == "" {
		title = page.URL
	}
	if cur, ok := s.items[title]; ok && cur.Status == models.ItemStatusGenerating {
		s.mu.Unlock()
		return models.ContentItem{}, ErrBusy
	}
	item := models.ContentItem{
		ID:          title,
		Title:       title,
		Kind:        models.ItemKindStandard,
		Status:      models.ItemStatusIdle,
		StatusText:  "Rewrite planned",
		CrawledText: page.CrawledText,
		OriginalURL: page.URL,
	}
	s.putItemLocked(item)
	s.mu.Unlock()

	s.persistItem(ctx, item)
	return item, nil
}

// Items returns every item in insertion order.
func (s *Studio) Items() []models.ContentItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ContentItem, 0, len(s.itemOrder))
	for _, id := range s.itemOrder {
		out = append(out, s.items[id])
	}
	return out
}

// Item returns the item with id.
func (s *Studio) Item(id string) (models.ContentItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	return it, ok
}

// Pages returns every known sitemap page in discovery order.
func (s *Studio) Pages() []models.SitemapPage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.SitemapPage, 0, len(s.pageOrder))
	for _, u := range s.pageOrder {
		out = append(out, s.pages[u])
	}
	return out
}

// Stop asks the item's generation to halt at its next checkpoint. A
// queued item is skipped when its turn comes.
func (s *Studio) Stop(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return ErrNotFound
	}
	s.stopped[id] = true
	slog.Info("stop requested", "item", id)
	return nil
}

func (s *Studio) isStopped(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stopped[id]
}

// setItem replaces the item and writes it through.
func (s *Studio) setItem(ctx context.Context, item models.ContentItem) {
	s.mu.Lock()
	s.putItemLocked(item)
	s.mu.Unlock()
	s.persistItem(ctx, item)
}

// setStatusText updates the in-memory status text only; progress text is
// too chatty to persist.
func (s *Studio) setStatusText(id, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if it, ok := s.items[id]; ok {
		it.StatusText = text
		s.items[id] = it
	}
}

func (s *Studio) putItemLocked(item models.ContentItem) {
	if _, ok := s.items[item.ID]; !ok {
		s.itemOrder = append(s.itemOrder, item.ID)
	}
	s.items[item.ID] = item
}

func (s *Studio) putPageLocked(p models.SitemapPage) {
	if _, ok := s.pages[p.URL]; !ok {
		s.pageOrder = append(s.pageOrder, p.URL)
	}
	s.pages[p.URL] = p
}

func (s *Studio) persistItem(ctx context.Context, item models.ContentItem) {
	if s.deps.Items == nil {
		return
	}
	if err := s.deps.Items.Save(context.WithoutCancel(ctx), item); err != nil {
		slog.Error("failed to persist item", "item", item.ID, "status", item.Status, "error", err)
	}
}

func (s *Studio) persistPages(ctx context.Context, pages []models.SitemapPage) {
	if s.deps.Pages == nil || len(pages) == 0 {
		return
	}
	if err := s.deps.Pages.SaveAll(context.WithoutCancel(ctx), pages); err != nil {
		slog.Error("failed to persist pages", "count", len(pages), "error", err)
	}
}

// background runs fn on the studio's lifetime context.
func (s *Studio) background(fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(s.ctx)
	}()
}
