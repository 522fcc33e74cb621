// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers of the operator API. The
// operator plans items, starts generation and crawl tasks, polls their
// progress and publishes finished articles to WordPress.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"contentforge/internal/models"
	"contentforge/internal/store"
	"contentforge/internal/studio"
	"contentforge/internal/wordpress"
)

// defaultLogLimit is how many publish log entries a listing returns.
const defaultLogLimit = 50

// Providers switches the active text provider; *ai.Registry satisfies it.
type Providers interface {
	Available() []string
	ActiveName() string
	SetActive(name string) error
}

// SiteVerifier checks the WordPress credentials; *wordpress.Client satisfies it.
type SiteVerifier interface {
	Configured() bool
	VerifyAuth(ctx context.Context) (*wordpress.User, error)
}

// Purger empties the derived-data cache.
type Purger interface {
	Purge(ctx context.Context) (int, error)
}

// PublishHistory lists recent publishes; *store.PublishLogStore satisfies it.
type PublishHistory interface {
	Recent(ctx context.Context, limit int) ([]store.PublishEntry, error)
}

// Previewer renders an article as a standalone page; *render.Renderer
// satisfies it.
type Previewer interface {
	Preview(w http.ResponseWriter, gc *models.GeneratedContent)
}

// OperatorDeps are the operator's collaborators. Studio and Providers are
// required; the others disable their endpoints when nil.
type OperatorDeps struct {
	Studio    *studio.Studio
	Providers Providers
	Site      SiteVerifier
	Cache     Purger
	History   PublishHistory
	Preview   Previewer
}

// Operator groups the operator API handlers.
type Operator struct {
	studio    *studio.Studio
	providers Providers
	site      SiteVerifier
	cache     Purger
	history   PublishHistory
	preview   Previewer
}

// NewOperator creates the operator handler group.
func NewOperator(deps OperatorDeps) *Operator {
	return &Operator{
		studio:    deps.Studio,
		providers: deps.Providers,
		site:      deps.Site,
		cache:     deps.Cache,
		history:   deps.History,
		preview:   deps.Preview,
	}
}

// --- Items ---

// ListItems returns every content item in insertion order.
func (o *Operator) ListItems(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, o.studio.Items())
}

type addItemsRequest struct {
	Items []studio.NewItem `json:"items"`
}

// AddItems plans new items or replaces idle ones with the same title.
func (o *Operator) AddItems(w http.ResponseWriter, r *http.Request) {
	var req addItemsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := validateNewItems(req.Items); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	items, err := o.studio.AddItems(r.Context(), req.Items)
	if err != nil {
		writeStudioError(w, err)
		return
	}
	slog.Info("items planned", "count", len(items))
	writeJSON(w, http.StatusCreated, items)
}

// GetItem returns one item.
func (o *Operator) GetItem(w http.ResponseWriter, r *http.Request) {
	item, ok := o.studio.Item(pathID(r))
	if !ok {
		writeError(w, http.StatusNotFound, "Item not found.")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// ItemContent returns the finished article body as HTML.
func (o *Operator) ItemContent(w http.ResponseWriter, r *http.Request) {
	item, ok := o.studio.Item(pathID(r))
	if !ok {
		writeError(w, http.StatusNotFound, "Item not found.")
		return
	}
	if item.Generated == nil {
		writeError(w, http.StatusConflict, "Item has no generated article.")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(item.Generated.Content))
}

// ItemPreview renders the finished article as a full page with its SEO
// metadata.
func (o *Operator) ItemPreview(w http.ResponseWriter, r *http.Request) {
	if o.preview == nil {
		writeError(w, http.StatusServiceUnavailable, "Preview is not configured.")
		return
	}
	item, ok := o.studio.Item(pathID(r))
	if !ok {
		writeError(w, http.StatusNotFound, "Item not found.")
		return
	}
	if item.Generated == nil {
		writeError(w, http.StatusConflict, "Item has no generated article.")
		return
	}
	o.preview.Preview(w, item.Generated)
}

// StopItem asks a generating or queued item to stop.
func (o *Operator) StopItem(w http.ResponseWriter, r *http.Request) {
	if err := o.studio.Stop(pathID(r)); err != nil {
		writeStudioError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type publishRequest struct {
	IDs    []string `json:"ids"`
	Status string   `json:"status"`
}

// PublishItem publishes one finished item.
func (o *Operator) PublishItem(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	if msg := validateStatus(req.Status); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	id := pathID(r)
	res, err := o.studio.Publish(r.Context(), id, req.Status)
	if err != nil {
		slog.Warn("publish failed", "id", id, "error", err)
		writeStudioError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, studio.PublishOutcome{ID: id, PostID: res.PostID, Link: res.Link, Updated: res.Updated})
}

// PublishBatch publishes several items and reports each outcome.
func (o *Operator) PublishBatch(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := validateIDs(req.IDs); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if msg := validateStatus(req.Status); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	writeJSON(w, http.StatusOK, o.studio.PublishBatch(r.Context(), req.IDs, req.Status))
}

type generateRequest struct {
	IDs []string `json:"ids"`
}

// Generate starts a generation batch and returns its task.
func (o *Operator) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := validateIDs(req.IDs); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	task, err := o.studio.StartGeneration(req.IDs)
	if err != nil {
		writeStudioError(w, err)
		return
	}
	slog.Info("generation started", "task", task.ID, "items", len(req.IDs), "provider", o.providers.ActiveName())
	writeJSON(w, http.StatusAccepted, task)
}

// --- Pages ---

// ListPages returns the discovered sitemap pages.
func (o *Operator) ListPages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, o.studio.Pages())
}

type urlRequest struct {
	URL string `json:"url"`
}

// Rewrite turns a crawled page into a rewrite item.
func (o *Operator) Rewrite(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := validatePageURL(req.URL); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	item, err := o.studio.AddRewrite(r.Context(), req.URL)
	if err != nil {
		writeStudioError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// Crawl starts discovering and crawling a sitemap.
func (o *Operator) Crawl(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := validatePageURL(req.URL); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	task, err := o.studio.StartCrawl(req.URL)
	if err != nil {
		writeStudioError(w, err)
		return
	}
	slog.Info("crawl started", "task", task.ID, "sitemap", req.URL)
	writeJSON(w, http.StatusAccepted, task)
}

type analyseRequest struct {
	URLs []string `json:"urls"`
}

// Analyse starts health scoring for the given pages, or all of them.
func (o *Operator) Analyse(w http.ResponseWriter, r *http.Request) {
	var req analyseRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	task, err := o.studio.StartAnalysis(req.URLs)
	if err != nil {
		writeStudioError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, task)
}

// --- Tasks ---

// ListTasks returns every task, newest first.
func (o *Operator) ListTasks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, o.studio.Tasks())
}

// GetTask returns one task's progress.
func (o *Operator) GetTask(w http.ResponseWriter, r *http.Request) {
	task, ok := o.studio.Task(pathID(r))
	if !ok {
		writeError(w, http.StatusNotFound, "Task not found.")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// --- Providers ---

type providersResponse struct {
	Active    string   `json:"active"`
	Available []string `json:"available"`
}

// ListProviders reports the configured text providers.
func (o *Operator) ListProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, providersResponse{Active: o.providers.ActiveName(), Available: o.providers.Available()})
}

type setProviderRequest struct {
	Name string `json:"name"`
}

// SetProvider switches the active text provider.
func (o *Operator) SetProvider(w http.ResponseWriter, r *http.Request) {
	var req setProviderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := o.providers.SetActive(req.Name); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	slog.Info("ai provider switched", "provider", req.Name)
	o.ListProviders(w, r)
}

// --- WordPress, cache, history ---

// VerifySite checks the WordPress credentials.
func (o *Operator) VerifySite(w http.ResponseWriter, r *http.Request) {
	if o.site == nil || !o.site.Configured() {
		writeError(w, http.StatusServiceUnavailable, "WordPress is not configured.")
		return
	}
	user, err := o.site.VerifyAuth(r.Context())
	if err != nil {
		writeStudioError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// PurgeCache empties the derived-data cache.
func (o *Operator) PurgeCache(w http.ResponseWriter, r *http.Request) {
	if o.cache == nil {
		writeError(w, http.StatusServiceUnavailable, "Cache is not configured.")
		return
	}
	n, err := o.cache.Purge(r.Context())
	if err != nil {
		slog.Error("cache purge failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Cache purge failed.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"purged": n})
}

// PublishLog lists recent publishes. The limit query parameter caps the
// number of entries.
func (o *Operator) PublishLog(w http.ResponseWriter, r *http.Request) {
	if o.history == nil {
		writeJSON(w, http.StatusOK, []store.PublishEntry{})
		return
	}
	limit := defaultLogLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500.")
			return
		}
		limit = n
	}
	entries, err := o.history.Recent(r.Context(), limit)
	if err != nil {
		slog.Error("failed to list publish log", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load publish log.")
		return
	}
	if entries == nil {
		entries = []store.PublishEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
