// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// ItemKind tags the editorial role of a content item. Pillar pages carry a
// higher word-count floor than cluster and standard posts.
type ItemKind string

const (
	ItemKindPillar   ItemKind = "pillar"
	ItemKindCluster  ItemKind = "cluster"
	ItemKindStandard ItemKind = "standard"
)

// ItemStatus is the lifecycle state of a content item.
type ItemStatus string

const (
	ItemStatusIdle       ItemStatus = "idle"
	ItemStatusGenerating ItemStatus = "generating"
	ItemStatusDone       ItemStatus = "done"
	ItemStatusError      ItemStatus = "error"
)

// ContentItem is the unit of work moved through the generation pipeline.
// ID is usually the title. Items are never deleted; a new value replaces
// the old one in its collection on every transition.
type ContentItem struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Kind        ItemKind          `json:"kind"`
	Status      ItemStatus        `json:"status"`
	StatusText  string            `json:"status_text"`
	Generated   *GeneratedContent `json:"generated,omitempty"`
	CrawledText string            `json:"crawled_text,omitempty"`
	OriginalURL string            `json:"original_url,omitempty"`
}

// IsRewrite reports whether the item rewrites an existing page.
func (i *ContentItem) IsRewrite() bool {
	return i.OriginalURL != ""
}

// WithStatus returns a copy of the item in the given state.
func (i ContentItem) WithStatus(status ItemStatus, text string) ContentItem {
	i.Status = status
	i.StatusText = text
	return i
}

// WithContent returns a copy of the item carrying the generated artifact.
func (i ContentItem) WithContent(gc *GeneratedContent) ContentItem {
	i.Generated = gc
	return i
}
