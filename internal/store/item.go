// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store persists content items, discovered sitemap pages and the
// publish history in PostgreSQL. Every write is an upsert keyed on the
// domain identity (item ID, page URL), so repeating a transition is safe.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"contentforge/internal/models"
)

// ItemStore handles content item persistence.
type ItemStore struct {
	db *sql.DB
}

// NewItemStore creates a new ItemStore.
func NewItemStore(db *sql.DB) *ItemStore {
	return &ItemStore{db: db}
}

// Save inserts the item or replaces the stored row with the same ID.
func (s *ItemStore) Save(ctx context.Context, item models.ContentItem) error {
	var generated []byte
	if item.Generated != nil {
		var err error
		if generated, err = json.Marshal(item.Generated); err != nil {
			return fmt.Errorf("encode generated content %q: %w", item.ID, err)
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO content_items (id, title, kind, status, status_text, original_url, crawled_text, generated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			kind = EXCLUDED.kind,
			status = EXCLUDED.status,
			status_text = EXCLUDED.status_text,
			original_url = EXCLUDED.original_url,
			crawled_text = EXCLUDED.crawled_text,
			generated = EXCLUDED.generated,
			updated_at = now()
	`, item.ID, item.Title, string(item.Kind), string(item.Status), item.StatusText,
		item.OriginalURL, item.CrawledText, nullJSON(generated))
	if err != nil {
		return fmt.Errorf("upsert item %q: %w", item.ID, err)
	}
	return nil
}

// FindByID returns the item with id, or nil if it does not exist.
func (s *ItemStore) FindByID(ctx context.Context, id string) (*models.ContentItem, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, kind, status, status_text, original_url, crawled_text, generated
		FROM content_items WHERE id = $1
	`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find item %q: %w", id, err)
	}
	return item, nil
}

// List returns every item in creation order.
func (s *ItemStore) List(ctx context.Context) ([]models.ContentItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, kind, status, status_text, original_url, crawled_text, generated
		FROM content_items ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []models.ContentItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (*models.ContentItem, error) {
	var (
		item      models.ContentItem
		kind      string
		status    string
		generated []byte
	)
	if err := row.Scan(&item.ID, &item.Title, &kind, &status, &item.StatusText,
		&item.OriginalURL, &item.CrawledText, &generated); err != nil {
		return nil, err
	}
	item.Kind = models.ItemKind(kind)
	item.Status = models.ItemStatus(status)
	if len(generated) > 0 {
		var gc models.GeneratedContent
		if err := json.Unmarshal(generated, &gc); err != nil {
			return nil, fmt.Errorf("decode generated content %q: %w", item.ID, err)
		}
		item.Generated = &gc
	}
	return &item, nil
}

// nullJSON maps an empty payload to SQL NULL.
func nullJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
