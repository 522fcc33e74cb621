// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// publish_log.go records every successful WordPress publish for audit:
// which item, which post, and whether it replaced an existing post.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// PublishLogStore handles publish history.
type PublishLogStore struct {
	db *sql.DB
}

// NewPublishLogStore creates a new PublishLogStore.
func NewPublishLogStore(db *sql.DB) *PublishLogStore {
	return &PublishLogStore{db: db}
}

// Log records a publish event.
func (s *PublishLogStore) Log(ctx context.Context, itemID string, postID int, link string, updated bool) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO publish_log (item_id, post_id, link, updated)
		VALUES ($1, $2, $3, $4)
	`, itemID, postID, link, updated)
	if err != nil {
		// The post is already live; a missing audit row must not fail the publish.
		slog.Warn("failed to log publish",
			"item", itemID,
			"post_id", postID,
			"error", err,
		)
		return
	}
	slog.Debug("publish logged", "item", itemID, "post_id", postID)
}

// PublishEntry is one recorded publish.
type PublishEntry struct {
	ID          int64     `json:"id"`
	ItemID      string    `json:"item_id"`
	PostID      int       `json:"post_id"`
	Link        string    `json:"link"`
	Updated     bool      `json:"updated"`
	PublishedAt time.Time `json:"published_at"`
}

// Recent returns the latest publish events, newest first.
func (s *PublishLogStore) Recent(ctx context.Context, limit int) ([]PublishEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, item_id, post_id, link, updated, published_at
		FROM publish_log
		ORDER BY published_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query publish log: %w", err)
	}
	defer rows.Close()

	var entries []PublishEntry
	for rows.Next() {
		var e PublishEntry
		if err := rows.Scan(&e.ID, &e.ItemID, &e.PostID, &e.Link, &e.Updated, &e.PublishedAt); err != nil {
			return nil, fmt.Errorf("scan publish log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
