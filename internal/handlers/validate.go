package handlers

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"contentforge/internal/studio"
)

// Validation limits for operator input.
const (
	maxTitleLen   = 300
	maxBatchItems = 200
	maxURLLen     = 2048
	maxBodyBytes  = 1 << 20
)

// postStatuses are the WordPress statuses a publish may request.
var postStatuses = map[string]bool{
	"": true, "draft": true, "publish": true, "pending": true, "private": true, "future": true,
}

// validateNewItems checks planned items and returns the first error found.
func validateNewItems(items []studio.NewItem) string {
	if len(items) == 0 {
		return "At least one item is required."
	}
	if len(items) > maxBatchItems {
		return fmt.Sprintf("Too many items (max %d).", maxBatchItems)
	}
	for _, it := range items {
		title := strings.TrimSpace(it.Title)
		if title == "" {
			return "Title is required."
		}
		if utf8.RuneCountInString(title) > maxTitleLen {
			return "Title is too long (max 300 characters)."
		}
	}
	return ""
}

// validateIDs checks a batch of item IDs.
func validateIDs(ids []string) string {
	if len(ids) == 0 {
		return "At least one item ID is required."
	}
	if len(ids) > maxBatchItems {
		return fmt.Sprintf("Too many items (max %d).", maxBatchItems)
	}
	return ""
}

// validateStatus checks a requested WordPress post status.
func validateStatus(status string) string {
	if !postStatuses[status] {
		return "Unknown post status " + fmt.Sprintf("%q", status) + "."
	}
	return ""
}

// validatePageURL checks an absolute http(s) URL such as a sitemap.
func validatePageURL(raw string) string {
	if raw == "" {
		return "URL is required."
	}
	if len(raw) > maxURLLen {
		return "URL is too long."
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "URL must be an absolute http or https address."
	}
	return ""
}
