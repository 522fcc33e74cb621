// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"contentforge/internal/models"
)

// PageStore handles sitemap page persistence.
type PageStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewPageStore creates a new PageStore.
func NewPageStore(db *sql.DB) *PageStore {
	return &PageStore{db: db, now: time.Now}
}

// SaveAll upserts pages in one transaction.
func (s *PageStore) SaveAll(ctx context.Context, pages []models.SitemapPage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin page upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sitemap_pages (url, title, slug, last_mod, word_count, crawled_text,
			health_score, priority, justification, publish_state)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (url) DO UPDATE SET
			title = EXCLUDED.title,
			slug = EXCLUDED.slug,
			last_mod = EXCLUDED.last_mod,
			word_count = EXCLUDED.word_count,
			crawled_text = EXCLUDED.crawled_text,
			health_score = EXCLUDED.health_score,
			priority = EXCLUDED.priority,
			justification = EXCLUDED.justification,
			publish_state = EXCLUDED.publish_state,
			updated_at = now()
	`)
	if err != nil {
		return fmt.Errorf("prepare page upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range pages {
		state := p.PublishState
		if state == "" {
			state = models.PublishStateNone
		}
		_, err := stmt.ExecContext(ctx, p.URL, p.Title, p.Slug, p.LastMod, p.WordCount,
			p.CrawledText, p.HealthScore, string(p.Priority), p.Justification, string(state))
		if err != nil {
			return fmt.Errorf("upsert page %q: %w", p.URL, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit page upsert: %w", err)
	}
	return nil
}

// List returns every stored page ordered by URL, with age fields filled.
func (s *PageStore) List(ctx context.Context) ([]models.SitemapPage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT url, title, slug, last_mod, word_count, crawled_text,
			health_score, priority, justification, publish_state
		FROM sitemap_pages ORDER BY url
	`)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	now := s.now()
	var pages []models.SitemapPage
	for rows.Next() {
		var (
			p        models.SitemapPage
			lastMod  sql.NullTime
			score    sql.NullInt64
			priority string
			state    string
		)
		if err := rows.Scan(&p.URL, &p.Title, &p.Slug, &lastMod, &p.WordCount, &p.CrawledText,
			&score, &priority, &p.Justification, &state); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		if lastMod.Valid {
			t := lastMod.Time
			p.LastMod = &t
		}
		if score.Valid {
			v := int(score.Int64)
			p.HealthScore = &v
		}
		p.Priority = models.UpdatePriority(priority)
		p.PublishState = models.PublishState(state)
		p.Age(now)
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// MarkUpdated records that the page at url was rewritten and republished.
func (s *PageStore) MarkUpdated(ctx context.Context, url string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sitemap_pages SET publish_state = $2, updated_at = now() WHERE url = $1
	`, url, string(models.PublishStateUpdated))
	if err != nil {
		return fmt.Errorf("mark page %q updated: %w", url, err)
	}
	return nil
}
