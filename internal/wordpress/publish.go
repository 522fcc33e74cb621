// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package wordpress

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"mime"
	"strings"

	"contentforge/internal/models"
)

// PublishOptions control a publish call.
type PublishOptions struct {
	// Status is the WordPress post status; empty means "draft".
	Status string
	// Slug overrides the artifact's slug, for rewrites of existing pages.
	Slug string
}

// Result describes the saved post.
type Result struct {
	PostID  int
	Link    string
	Updated bool
	// MediaURLs maps image placeholders to their uploaded URLs.
	MediaURLs map[string]string
}

// Publish uploads every image that carries a payload, swaps the inline
// payloads for the media URLs, then creates the post or updates the
// existing one with the same slug. gc is not modified.
func (c *Client) Publish(ctx context.Context, gc *models.GeneratedContent, opts PublishOptions) (*Result, error) {
	if gc == nil {
		return nil, errors.New("wordpress: nothing to publish")
	}
	status := opts.Status
	if status == "" {
		status = "draft"
	}
	slug := gc.Slug
	if opts.Slug != "" {
		slug = opts.Slug
	}

	content := gc.Content
	res := &Result{MediaURLs: make(map[string]string)}
	featured := 0
	for i, img := range gc.ImageDetails {
		if len(img.Data) == 0 {
			continue
		}
		filename := fmt.Sprintf("%s-%d%s", slug, i+1, extension(img.ContentType))
		m, err := c.UploadMedia(ctx, filename, img.ContentType, img.Data, img.Title, img.AltText, img.Title)
		if err != nil {
			return nil, fmt.Errorf("uploading %s: %w", img.Placeholder, err)
		}
		if featured == 0 {
			featured = m.ID
		}
		res.MediaURLs[img.Placeholder] = m.SourceURL
		content = substituteImage(content, img, m.SourceURL)
		slog.Info("media uploaded", "slug", slug, "media_id", m.ID)
	}

	existing, err := c.FindPostBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("looking up post %q: %w", slug, err)
	}
	id := 0
	if existing != nil {
		id = existing.ID
		res.Updated = true
	}

	post, err := c.SavePost(ctx, id, PostInput{
		Title:         gc.Title,
		Content:       content,
		Status:        status,
		Slug:          slug,
		Excerpt:       gc.MetaDescription,
		FeaturedMedia: featured,
	})
	if err != nil {
		return nil, fmt.Errorf("saving post %q: %w", slug, err)
	}
	res.PostID, res.Link = post.ID, post.Link
	slog.Info("post published", "slug", slug, "post_id", post.ID, "updated", res.Updated, "status", status)
	return res, nil
}

// substituteImage points every reference to img at url: the inline data
// URI, an archive URL, or a placeholder that was never rendered.
func substituteImage(content string, img models.ImageDetail, url string) string {
	if uri := img.DataURI(); uri != "" {
		content = strings.ReplaceAll(content, uri, html.EscapeString(url))
	}
	if img.URL != "" {
		content = strings.ReplaceAll(content, html.EscapeString(img.URL), html.EscapeString(url))
	}
	if img.Placeholder != "" && strings.Contains(content, img.Placeholder) {
		fig := fmt.Sprintf(`<figure class="wp-block-image size-large"><img src="%s" alt="%s"/></figure>`, html.EscapeString(url), html.EscapeString(img.AltText))
		content = strings.ReplaceAll(content, img.Placeholder, fig)
	}
	return content
}

func extension(contentType string) string {
	switch contentType {
	case "image/png", "":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	}
	if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}
