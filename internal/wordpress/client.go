// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package wordpress publishes generated articles through the WordPress
// REST API using application-password Basic authentication. Every call
// goes through the authenticated mode of the fetch layer, so credentials
// are never sent through a relay.
package wordpress

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"contentforge/internal/fetch"
)

// ErrAuth means WordPress rejected the credentials (401 or 403).
var ErrAuth = errors.New("wordpress: authentication failed")

// ErrConnectivity means the site could not be reached at all.
var ErrConnectivity = errors.New("wordpress: site unreachable")

// APIError is any other non-2xx answer.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("wordpress: %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("wordpress: %d: %s", e.StatusCode, e.Message)
}

// Diagnose turns a publishing error into advice for the operator.
func Diagnose(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuth):
		return "WordPress rejected the credentials. Check the username and that the application password is current and has author rights."
	case errors.Is(err, ErrConnectivity):
		return "The WordPress site could not be reached. Check the site URL, that the REST API is enabled, and that no firewall blocks API requests."
	case errors.As(err, &apiErr):
		return fmt.Sprintf("WordPress returned an error (%d): %s", apiErr.StatusCode, apiErr.Message)
	}
	return err.Error()
}

// Doer is the authenticated request path of the fetch layer.
type Doer interface {
	DoAuthenticated(ctx context.Context, req *fetch.Request) (*fetch.Response, error)
}

// Client calls one WordPress site.
type Client struct {
	apiBase    string
	auth       string
	configured bool
	doer       Doer
}

// New creates a client for siteURL, e.g. "https://blog.example.com".
func New(siteURL, username, appPassword string, doer Doer) *Client {
	creds := base64.StdEncoding.EncodeToString([]byte(username + ":" + appPassword))
	return &Client{
		apiBase:    strings.TrimRight(siteURL, "/") + "/wp-json/wp/v2",
		auth:       "Basic " + creds,
		configured: siteURL != "" && username != "" && appPassword != "",
		doer:       doer,
	}
}

// Configured reports whether a site and credentials are set.
func (c *Client) Configured() bool {
	return c != nil && c.configured
}

// User is the authenticated account.
type User struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// VerifyAuth checks the credentials by fetching the current user.
func (c *Client) VerifyAuth(ctx context.Context) (*User, error) {
	var u User
	if err := c.call(ctx, http.MethodGet, "/users/me?context=edit", nil, "", &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Media is an uploaded attachment.
type Media struct {
	ID        int    `json:"id"`
	SourceURL string `json:"source_url"`
}

// UploadMedia uploads an image as a multipart form.
func (c *Client) UploadMedia(ctx context.Context, filename, contentType string, data []byte, title, altText, caption string) (*Media, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("wordpress: building upload: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("wordpress: building upload: %w", err)
	}
	for k, v := range map[string]string{"title": title, "alt_text": altText, "caption": caption} {
		if err := mw.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("wordpress: building upload: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("wordpress: building upload: %w", err)
	}

	var m Media
	if err := c.call(ctx, http.MethodPost, "/media", body.Bytes(), mw.FormDataContentType(), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Post is the subset of a post this package reads back.
type Post struct {
	ID   int    `json:"id"`
	Link string `json:"link"`
	Slug string `json:"slug"`
}

// FindPostBySlug returns the post with slug, or nil when none exists.
// Drafts and scheduled posts are included.
func (c *Client) FindPostBySlug(ctx context.Context, slug string) (*Post, error) {
	q := url.Values{"slug": {slug}, "status": {"publish,future,draft,pending,private"}}
	var posts []Post
	if err := c.call(ctx, http.MethodGet, "/posts?"+q.Encode(), nil, "", &posts); err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, nil
	}
	return &posts[0], nil
}

// PostInput is the body of a create or update.
type PostInput struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	Status        string `json:"status"`
	Slug          string `json:"slug"`
	Excerpt       string `json:"excerpt,omitempty"`
	FeaturedMedia int    `json:"featured_media,omitempty"`
}

// SavePost creates a post, or updates post id when id is non-zero.
func (c *Client) SavePost(ctx context.Context, id int, in PostInput) (*Post, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("wordpress: encoding post: %w", err)
	}
	path := "/posts"
	if id != 0 {
		path = fmt.Sprintf("/posts/%d", id)
	}
	var p Post
	if err := c.call(ctx, http.MethodPost, path, body, "application/json", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) call(ctx context.Context, method, path string, body []byte, contentType string, out any) error {
	req := &fetch.Request{Method: method, URL: c.apiBase + path, Header: http.Header{}, Body: body}
	req.Header.Set("Authorization", c.auth)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.doer.DoAuthenticated(ctx, req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnectivity, err)
	}
	if !resp.OK() {
		return classify(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		// Security plugins and CDNs answer 200 with an HTML challenge page.
		return &APIError{StatusCode: resp.StatusCode, Code: "invalid_json", Message: "response is not JSON: " + snippet(resp.Body)}
	}
	return nil
}

type wpError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func classify(resp *fetch.Response) error {
	var e wpError
	if json.Unmarshal(resp.Body, &e) != nil || e.Message == "" {
		e.Message = snippet(resp.Body)
	}
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w (%d): %s", ErrAuth, resp.StatusCode, e.Message)
	}
	return &APIError{StatusCode: resp.StatusCode, Code: e.Code, Message: e.Message}
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
