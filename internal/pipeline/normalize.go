// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package pipeline

import (
	"fmt"
	"strings"

	"contentforge/internal/models"
	"contentforge/internal/slug"
)

// ImagePlaceholder returns the fixed token for the n-th image (1-based).
func ImagePlaceholder(n int) string {
	return fmt.Sprintf("[IMAGE_%d_PLACEHOLDER]", n)
}

// defaultImageCount is the number of images planned per article.
const defaultImageCount = 2

// Normalize turns a loosely shaped model answer into a GeneratedContent
// with every field populated. Missing values get defaults derived from
// fallbackTitle. When the answer plans no images, two are synthesised,
// and any image placeholder absent from the content is inserted at a
// paragraph boundary.
func Normalize(raw map[string]any, fallbackTitle string) *models.GeneratedContent {
	gc := &models.GeneratedContent{
		Title:            firstString(raw, "title"),
		Slug:             firstString(raw, "slug"),
		MetaDescription:  firstString(raw, "metaDescription", "meta_description"),
		PrimaryKeyword:   firstString(raw, "primaryKeyword", "primary_keyword"),
		SemanticKeywords: stringList(raw["semanticKeywords"]),
		Content:          firstString(raw, "content", "introduction"),
		Strategy:         objectOr(raw["strategy"]),
		Schema:           objectOr(raw["jsonLdSchema"]),
	}
	if gc.Title == "" {
		gc.Title = fallbackTitle
	}
	if gc.Slug == "" {
		gc.Slug = slug.Generate(gc.Title)
	} else {
		gc.Slug = slug.Generate(gc.Slug)
	}
	if gc.MetaDescription == "" {
		gc.MetaDescription = truncateRunes(gc.Title, 155)
	}
	if gc.PrimaryKeyword == "" {
		gc.PrimaryKeyword = strings.ToLower(gc.Title)
	}
	if gc.SemanticKeywords == nil {
		gc.SemanticKeywords = []string{}
	}
	if social, ok := raw["socialMediaCopy"].(map[string]any); ok {
		gc.SocialCopy = models.SocialCopy{
			Twitter:  firstString(social, "twitter"),
			LinkedIn: firstString(social, "linkedIn", "linkedin"),
			Facebook: firstString(social, "facebook"),
		}
	}

	gc.ImageDetails = imageDetails(raw["imageDetails"], gc.Title)
	gc.Content = ensurePlaceholders(gc.Content, gc.ImageDetails)
	return gc
}

func imageDetails(v any, title string) []models.ImageDetail {
	var out []models.ImageDetail
	if list, ok := v.([]any); ok {
		for _, entry := range list {
			m, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			d := models.ImageDetail{
				Prompt:  firstString(m, "prompt"),
				AltText: firstString(m, "altText", "alt_text", "alt"),
				Title:   firstString(m, "title"),
			}
			if d.Prompt == "" {
				continue
			}
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		out = []models.ImageDetail{
			{
				Prompt:  fmt.Sprintf("A clean, professional editorial photograph illustrating %q, natural light, no text", title),
				AltText: title,
				Title:   title,
			},
			{
				Prompt:  fmt.Sprintf("A detailed illustration showing a practical example of %q, modern flat style, no text", title),
				AltText: title + " example",
				Title:   title + " in practice",
			},
		}
	}
	if len(out) > defaultImageCount {
		out = out[:defaultImageCount]
	}
	// Tokens are fixed by position so assembly can place them.
	for i := range out {
		out[i].Placeholder = ImagePlaceholder(i + 1)
		if out[i].AltText == "" {
			out[i].AltText = title
		}
		if out[i].Title == "" {
			out[i].Title = out[i].AltText
		}
	}
	return out
}

// ensurePlaceholders inserts each missing image token after a closing
// paragraph tag, spreading them through the content. Content without
// paragraphs gets the tokens appended.
func ensurePlaceholders(content string, images []models.ImageDetail) string {
	var missing []string
	for _, img := range images {
		if !strings.Contains(content, img.Placeholder) {
			missing = append(missing, img.Placeholder)
		}
	}
	if len(missing) == 0 {
		return content
	}

	paras := strings.Split(content, "</p>")
	boundaries := len(paras) - 1
	if boundaries == 0 {
		return strings.TrimSpace(content + "\n" + strings.Join(missing, "\n"))
	}
	at := make(map[int][]string)
	for i, tok := range missing {
		idx := (i * boundaries) / len(missing)
		at[idx] = append(at[idx], tok)
	}
	var b strings.Builder
	for i, p := range paras {
		b.WriteString(p)
		if i < boundaries {
			b.WriteString("</p>")
			for _, tok := range at[i] {
				b.WriteString("\n" + tok + "\n")
			}
		}
	}
	return b.String()
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// stringList accepts a JSON array of strings, of objects with a textual
// field, or a comma-separated string.
func stringList(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			switch x := e.(type) {
			case string:
				if s := strings.TrimSpace(x); s != "" {
					out = append(out, s)
				}
			case map[string]any:
				if s := firstString(x, "heading", "title", "question", "text", "keyword"); s != "" {
					out = append(out, s)
				}
			}
		}
		return out
	case string:
		var out []string
		for _, s := range strings.Split(t, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func objectOr(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
