// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package pipeline

import (
	"fmt"
	"strings"

	"contentforge/internal/htmltext"
	"contentforge/internal/links"
	"contentforge/internal/models"
)

const keywordsSystemPrompt = `You are an SEO keyword researcher. For the given topic return 10 to 15
semantically related keywords and phrases a searcher would also use.
Respond with JSON only: {"keywords": ["...", "..."]}`

const outlineSystemPrompt = `You are a senior SEO content strategist. Plan a long-form blog article.
Respond with one JSON object only, with these fields:
  "title": compelling H1 title,
  "slug": lowercase-hyphenated URL slug,
  "metaDescription": at most 155 characters,
  "primaryKeyword": string,
  "semanticKeywords": array of strings,
  "outline": ordered array of 10 H2 heading strings,
  "keyTakeaways": array of exactly 8 short bullet strings,
  "faqs": array of exactly 8 question strings,
  "imageDetails": array of exactly 2 objects {"prompt", "altText", "title"},
  "introduction": HTML paragraphs introducing the article,
  "conclusion": HTML paragraphs closing the article,
  "strategy": object with "targetAudience", "searchIntent" and "angle",
  "jsonLdSchema": schema.org Article object,
  "socialMediaCopy": object with "twitter", "linkedIn" and "facebook".
Never put <script> tags or JSON-LD inside "introduction" or "conclusion".`

const sectionSystemPrompt = `You are an expert writer producing one section of a long-form article.
Write 250 to 400 words of HTML using <p>, <ul>, <ol>, <li>, <strong> and <h3> only.
Do not repeat the section heading. Do not wrap the answer in code fences.
When a listed internal page is relevant, link it inline with exactly this syntax:
[INTERNAL_LINK slug="page-slug" text="anchor text"]
Use only slugs from the list. Write plainly: no filler, no clichés.`

const faqSystemPrompt = `You answer one frequently asked question for a blog article.
Write 60 to 120 words of HTML using <p> and <strong> only. Answer directly in the first sentence.
Do not repeat the question. Do not wrap the answer in code fences.`

// research bundles everything stage 1 learned about the topic.
type research struct {
	serp     []models.SearchResult
	videos   []models.VideoRef
	keywords []string
}

func keywordsPrompt(title string) string {
	return "Topic: " + title
}

func outlinePrompt(item models.ContentItem, r research, pages []links.Page) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\nArticle type: %s\n", item.Title, item.Kind)
	if len(r.keywords) > 0 {
		fmt.Fprintf(&b, "Semantic keywords: %s\n", strings.Join(r.keywords, ", "))
	}
	if len(r.serp) > 0 {
		b.WriteString("\nCurrent top search results (cover what they cover, then go further):\n")
		for i, s := range r.serp {
			if i == 8 {
				break
			}
			fmt.Fprintf(&b, "- %s: %s\n", s.Title, s.Snippet)
		}
	}
	if item.IsRewrite() {
		fmt.Fprintf(&b, "\nThis rewrites the existing page %s. Keep its subject and improve depth, accuracy and freshness.\n", item.OriginalURL)
		if item.CrawledText != "" {
			fmt.Fprintf(&b, "Existing text:\n%s\n", htmltext.Truncate(item.CrawledText, 1500))
		}
	}
	writePages(&b, pages)
	return b.String()
}

func sectionPrompt(gc *models.GeneratedContent, heading string, index, total int, r research, pages []links.Page) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Article: %s\nPrimary keyword: %s\n", gc.Title, gc.PrimaryKeyword)
	if kw := append(append([]string{}, gc.SemanticKeywords...), r.keywords...); len(kw) > 0 {
		fmt.Fprintf(&b, "Weave in where natural: %s\n", strings.Join(kw, ", "))
	}
	fmt.Fprintf(&b, "\nWrite section %d of %d: %s\n", index+1, total, heading)
	writePages(&b, pages)
	return b.String()
}

func faqPrompt(gc *models.GeneratedContent, question string) string {
	return fmt.Sprintf("Article: %s\nPrimary keyword: %s\n\nQuestion: %s", gc.Title, gc.PrimaryKeyword, question)
}

// maxPromptPages caps the internal page list sent with each prompt.
const maxPromptPages = 60

func writePages(b *strings.Builder, pages []links.Page) {
	if len(pages) == 0 {
		return
	}
	b.WriteString("\nInternal pages available for linking (slug: title):\n")
	for i, p := range pages {
		if i == maxPromptPages {
			break
		}
		fmt.Fprintf(b, "- %s: %s\n", p.Slug, p.Title)
	}
}
