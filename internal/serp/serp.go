// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package serp queries the Serper search API for organic results and
// videos. Requests carry the API key header, so they always go direct.
package serp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"contentforge/internal/fetch"
	"contentforge/internal/models"
)

const defaultBaseURL = "https://google.serper.dev"

// Results bundles the organic and video answers for one query.
type Results struct {
	Organic []models.SearchResult `json:"organic"`
	Videos  []models.VideoRef     `json:"videos"`
}

// Client talks to Serper.
type Client struct {
	apiKey  string
	baseURL string
	fetch   *fetch.Client
}

// New creates a client. An empty baseURL uses the public endpoint.
func New(apiKey, baseURL string, fc *fetch.Client) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{apiKey: apiKey, baseURL: strings.TrimRight(baseURL, "/"), fetch: fc}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

type serperResponse struct {
	Organic []models.SearchResult `json:"organic"`
	Videos  []struct {
		Title string `json:"title"`
		Link  string `json:"link"`
	} `json:"videos"`
}

// Search returns organic results for query.
func (c *Client) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	var resp serperResponse
	if err := c.post(ctx, "/search", query, &resp); err != nil {
		return nil, err
	}
	return resp.Organic, nil
}

// Videos returns video results for query. Entries whose link has no
// recognisable video ID are dropped.
func (c *Client) Videos(ctx context.Context, query string) ([]models.VideoRef, error) {
	var resp serperResponse
	if err := c.post(ctx, "/videos", query, &resp); err != nil {
		return nil, err
	}
	out := make([]models.VideoRef, 0, len(resp.Videos))
	for _, v := range resp.Videos {
		id := VideoID(v.Link)
		if id == "" {
			continue
		}
		out = append(out, models.VideoRef{Title: v.Title, Link: v.Link, VideoID: id})
	}
	return out, nil
}

// UniqueVideos runs each query in order and keeps the first limit videos
// with distinct IDs. A failing query is skipped unless every query fails.
func (c *Client) UniqueVideos(ctx context.Context, queries []string, limit int) ([]models.VideoRef, error) {
	seen := make(map[string]bool)
	var out []models.VideoRef
	var lastErr error
	failed := 0
	for _, q := range queries {
		if len(out) >= limit {
			break
		}
		vids, err := c.Videos(ctx, q)
		if err != nil {
			lastErr = err
			failed++
			continue
		}
		for _, v := range vids {
			if seen[v.VideoID] {
				continue
			}
			seen[v.VideoID] = true
			out = append(out, v)
			if len(out) >= limit {
				break
			}
		}
	}
	if failed > 0 && failed == len(queries) {
		return nil, lastErr
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path, query string, out any) error {
	body, err := json.Marshal(map[string]any{"q": query})
	if err != nil {
		return fmt.Errorf("serp: encoding request: %w", err)
	}
	req := &fetch.Request{
		Method: http.MethodPost,
		URL:    c.baseURL + path,
		Header: http.Header{},
		Body:   body,
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.fetch.DoAuthenticated(ctx, req)
	if err != nil {
		return fmt.Errorf("serp %s: %w", path, err)
	}
	if !resp.OK() {
		return fmt.Errorf("serp %s: status %d: %s", path, resp.StatusCode, truncate(string(resp.Body), 200))
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("serp %s: decoding response: %w", path, err)
	}
	return nil
}

var youtubePathID = regexp.MustCompile(`^/(?:embed/|shorts/|v/|live/)?([A-Za-z0-9_-]{11})(?:[/?]|$)`)

// VideoID extracts the YouTube video ID from a watch, short, embed or
// youtu.be link. It returns "" for anything else.
func VideoID(link string) string {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	host = strings.TrimPrefix(host, "m.")
	switch host {
	case "youtube.com", "youtube-nocookie.com":
		if v := u.Query().Get("v"); len(v) == 11 {
			return v
		}
		if m := youtubePathID.FindStringSubmatch(u.Path); m != nil {
			return m[1]
		}
	case "youtu.be":
		if m := youtubePathID.FindStringSubmatch(u.Path); m != nil {
			return m[1]
		}
	}
	return ""
}

// VideoQueries phrases the searches used to source videos for a topic.
func VideoQueries(topic string) []string {
	return []string{
		topic,
		topic + " tutorial",
		topic + " explained",
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
