// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package pipeline

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"regexp"
	"strings"

	"contentforge/internal/ai"
	"contentforge/internal/htmltext"
	"contentforge/internal/links"
	"contentforge/internal/models"
	"contentforge/internal/quality"
)

// ReferencesPlaceholder marks where the reference list goes.
const ReferencesPlaceholder = "[REFERENCES_PLACEHOLDER]"

// Embed positions are fixed: they count sections, not content. Outlines
// shorter than a position simply never receive that embed.
const (
	firstVideoAfter  = 3
	secondImageAfter = 5
	secondVideoAfter = 7
)

var (
	leadingHeading = regexp.MustCompile(`(?is)^\s*<h[12][^>]*>.*?</h[12]>\s*`)
	imageToken     = regexp.MustCompile(`\[IMAGE_\d+_PLACEHOLDER\]`)
	scriptBlock    = regexp.MustCompile(`(?is)<script\b.*?</script\s*>`)
)

func stripLeadingHeading(body string) string {
	return leadingHeading.ReplaceAllString(body, "")
}

// assemble joins the introduction, takeaways, sections, FAQs and
// conclusion. The first image stays where the introduction carries it;
// the second image and both videos go at fixed section positions.
func assemble(gc *models.GeneratedContent, plan outlinePlan, sections, answers []string, videos []models.VideoRef) string {
	var b strings.Builder

	intro := gc.Content
	for i := 1; i < len(gc.ImageDetails); i++ {
		intro = strings.ReplaceAll(intro, gc.ImageDetails[i].Placeholder, "")
	}
	b.WriteString(strings.TrimSpace(intro))
	b.WriteString("\n")

	if len(plan.takeaways) > 0 {
		b.WriteString(`<div class="key-takeaways"><h2>Key Takeaways</h2><ul>`)
		for _, t := range plan.takeaways {
			fmt.Fprintf(&b, "<li>%s</li>", html.EscapeString(t))
		}
		b.WriteString("</ul></div>\n")
	}

	for i, body := range sections {
		fmt.Fprintf(&b, "<h2>%s</h2>\n%s\n", html.EscapeString(plan.headings[i]), body)
		switch i + 1 {
		case firstVideoAfter:
			if len(videos) > 0 {
				b.WriteString(videoEmbed(videos[0]))
			}
		case secondImageAfter:
			if len(gc.ImageDetails) > 1 {
				b.WriteString(gc.ImageDetails[1].Placeholder + "\n")
			}
		case secondVideoAfter:
			if len(videos) > 1 {
				b.WriteString(videoEmbed(videos[1]))
			}
		}
	}

	if len(answers) > 0 {
		b.WriteString("<h2>Frequently Asked Questions</h2>\n")
		for i, a := range answers {
			fmt.Fprintf(&b, "<h3>%s</h3>\n%s\n", html.EscapeString(plan.faqs[i]), a)
		}
	}
	if plan.conclusion != "" {
		fmt.Fprintf(&b, "<h2>Conclusion</h2>\n%s\n", plan.conclusion)
	}
	b.WriteString(ReferencesPlaceholder)
	return b.String()
}

func videoEmbed(v models.VideoRef) string {
	return fmt.Sprintf(`<figure class="wp-block-embed is-type-video"><iframe width="560" height="315" src="https://www.youtube.com/embed/%s" title="%s" frameborder="0" allow="accelerometer; clipboard-write; encrypted-media; picture-in-picture" allowfullscreen></iframe></figure>`+"\n",
		html.EscapeString(v.VideoID), html.EscapeString(v.Title))
}

// countableText renders placeholders the way readers will see them, so
// the word-count gate does not count token syntax.
func countableText(content string) string {
	s := imageToken.ReplaceAllString(content, "")
	s = strings.ReplaceAll(s, ReferencesPlaceholder, "")
	return links.StripPlaceholders(s)
}

// finish runs stage 4 on gc.Content.
func (p *Pipeline) finish(ctx context.Context, item models.ContentItem, gc *models.GeneratedContent, r research, pages []links.Page) error {
	content := gc.Content

	floor := p.opts.Limits.MinFor(item.Kind)
	words, err := quality.CheckWordCount(countableText(content), floor, p.opts.Limits.Max)
	if err != nil {
		return &quality.ContentTooShortError{Content: content, Words: words, Min: floor}
	}
	gc.HumanScore = quality.HumanScore(content)
	if gc.HumanScore < 70 {
		slog.Warn("article reads machine-written", "item", item.ID, "human_score", gc.HumanScore)
	}

	content, added := links.Process(content, pages, p.opts.MinInternalLinks)
	slog.Debug("internal links processed", "item", item.ID, "injected", added)
	if links.HasPlaceholders(content) {
		slog.Warn("malformed internal link tokens removed", "item", item.ID)
		content = links.StripPlaceholders(content)
	}

	content = quality.FixDuplicateVideos(content, r.videos)
	content = strings.Replace(content, ReferencesPlaceholder, p.references(r.serp), 1)
	content = p.placeImages(ctx, gc, content)

	if scriptBlock.MatchString(content) {
		slog.Warn("script block removed from content", "item", item.ID)
		content = scriptBlock.ReplaceAllString(content, "")
	}
	content = imageToken.ReplaceAllString(content, "")

	gc.Content = content
	gc.WordCount = htmltext.WordCount(content)
	return nil
}

func (p *Pipeline) references(serp []models.SearchResult) string {
	n := min(len(serp), p.opts.References)
	if n == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(`<h2>References</h2><ul class="references">`)
	for _, s := range serp[:n] {
		fmt.Fprintf(&b, `<li><a href="%s" target="_blank" rel="nofollow noopener">%s</a></li>`,
			html.EscapeString(s.Link), html.EscapeString(s.Title))
	}
	b.WriteString("</ul>")
	return b.String()
}

type drawnImage struct {
	data        []byte
	contentType string
}

// placeImages draws every planned image whose placeholder made it into
// the content and swaps the placeholder for a figure. A failed image
// leaves an HTML comment; with no image provider at all the placeholders
// are simply removed.
func (p *Pipeline) placeImages(ctx context.Context, gc *models.GeneratedContent, content string) string {
	canDraw := p.deps.Images != nil && p.deps.Images.SupportsImageGeneration()
	for i := range gc.ImageDetails {
		d := &gc.ImageDetails[i]
		if !strings.Contains(content, d.Placeholder) {
			continue
		}
		if !canDraw {
			content = strings.ReplaceAll(content, d.Placeholder, "")
			continue
		}

		img, err := ai.Invoke(ctx, p.deps.Gateway, func(ctx context.Context) (drawnImage, error) {
			data, ct, err := p.deps.Images.GenerateImage(ctx, d.Prompt)
			return drawnImage{data, ct}, err
		})
		if err != nil {
			slog.Warn("image generation failed", "placeholder", d.Placeholder, "error", err)
			content = strings.ReplaceAll(content, d.Placeholder, fmt.Sprintf("<!-- image omitted: %s -->", strings.ReplaceAll(d.Title, "--", "-")))
			continue
		}
		data, ct := img.data, img.contentType
		d.Data, d.ContentType = data, ct

		src := d.DataURI()
		if p.deps.Archive != nil {
			if url, err := p.deps.Archive.PutImage(ctx, data, ct); err != nil {
				slog.Warn("image archive failed, embedding inline", "error", err)
			} else {
				d.URL, src = url, url
			}
		}
		content = strings.ReplaceAll(content, d.Placeholder, Figure(*d, src))
	}
	return content
}

// Figure renders an image block.
func Figure(d models.ImageDetail, src string) string {
	return fmt.Sprintf(`<figure class="wp-block-image size-large"><img src="%s" alt="%s" title="%s"/><figcaption>%s</figcaption></figure>`,
		html.EscapeString(src), html.EscapeString(d.AltText), html.EscapeString(d.Title), html.EscapeString(d.Title))
}
