// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "encoding/base64"

// ImageDetail plans one article image. Placeholder is the literal token
// embedded in the HTML until an image (or nothing) replaces it.
type ImageDetail struct {
	Prompt      string `json:"prompt"`
	AltText     string `json:"altText"`
	Title       string `json:"title"`
	Placeholder string `json:"placeholder"`
	ContentType string `json:"contentType,omitempty"`
	// Data is the generated payload. It is kept until publishing uploads
	// it, so it survives persistence of the artifact.
	Data []byte `json:"data,omitempty"`
	// URL is set once the image has been stored somewhere addressable
	// (object storage or the WordPress media library).
	URL string `json:"url,omitempty"`
}

// HasImage reports whether an image payload or a stored URL is attached.
func (d *ImageDetail) HasImage() bool {
	return len(d.Data) > 0 || d.URL != ""
}

// SocialCopy holds short promotional variants for each network.
type SocialCopy struct {
	Twitter  string `json:"twitter"`
	LinkedIn string `json:"linkedIn"`
	Facebook string `json:"facebook"`
}

// GeneratedContent is the artifact produced by the pipeline. Content never
// contains schema markup; Schema is carried separately.
type GeneratedContent struct {
	Title            string         `json:"title"`
	Slug             string         `json:"slug"`
	MetaDescription  string         `json:"metaDescription"`
	PrimaryKeyword   string         `json:"primaryKeyword"`
	SemanticKeywords []string       `json:"semanticKeywords"`
	Content          string         `json:"content"`
	ImageDetails     []ImageDetail  `json:"imageDetails"`
	Strategy         map[string]any `json:"strategy"`
	Schema           map[string]any `json:"jsonLdSchema"`
	SocialCopy       SocialCopy     `json:"socialMediaCopy"`
	WordCount        int            `json:"wordCount"`
	HumanScore       int            `json:"humanScore"`
}

// SearchResult is one organic search result.
type SearchResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet,omitempty"`
}

// VideoRef is a video surfaced by the search provider.
type VideoRef struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	VideoID string `json:"videoId"`
}

// DataURI renders the image payload as an inline data URI. It returns ""
// when no payload is attached.
func (d *ImageDetail) DataURI() string {
	if len(d.Data) == 0 {
		return ""
	}
	ct := d.ContentType
	if ct == "" {
		ct = "image/png"
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(d.Data)
}
