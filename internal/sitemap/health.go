// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package sitemap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"contentforge/internal/ai"
	"contentforge/internal/htmltext"
	"contentforge/internal/jsonrepair"
	"contentforge/internal/models"
)

const healthSystemPrompt = `You are an SEO content auditor. Judge whether a published blog post
needs a rewrite, considering depth, accuracy, freshness, structure and search intent.
Respond with JSON only:
{"healthScore": integer 0-100, "updatePriority": "Critical" | "High" | "Medium" | "Healthy",
 "justification": one or two sentences}`

// Analyzer scores page health with an AI provider.
type Analyzer struct {
	gen     ai.TextGenerator
	gateway *ai.Gateway
	now     func() time.Time
}

// NewAnalyzer creates an analyzer. A nil gateway uses the defaults.
func NewAnalyzer(gen ai.TextGenerator, gateway *ai.Gateway) *Analyzer {
	if gateway == nil {
		gateway = ai.NewGateway()
	}
	return &Analyzer{gen: gen, gateway: gateway, now: time.Now}
}

type healthVerdict struct {
	HealthScore   *float64 `json:"healthScore"`
	Priority      string   `json:"updatePriority"`
	Justification string   `json:"justification"`
}

// Analyze returns page with its health fields filled. Age and staleness
// are computed locally. A provider or parse failure marks the page with
// the Error priority instead of returning an error, so one bad page does
// not stop a batch.
func (a *Analyzer) Analyze(ctx context.Context, page models.SitemapPage) models.SitemapPage {
	page.Age(a.now())

	text, err := a.gateway.Generate(ctx, a.gen, healthSystemPrompt, healthPrompt(page), ai.GenerateOptions{JSON: true})
	if err == nil {
		var v healthVerdict
		if err = jsonrepair.Decode(text, &v); err == nil {
			if v.HealthScore == nil {
				err = fmt.Errorf("verdict has no health score")
			} else {
				score := clamp(int(*v.HealthScore+0.5), 0, 100)
				page.HealthScore = &score
				page.Priority = priority(v.Priority, score)
				page.Justification = strings.TrimSpace(v.Justification)
				return page
			}
		}
	}

	slog.Warn("health analysis failed", "url", page.URL, "error", err)
	page.HealthScore = nil
	page.Priority = models.PriorityError
	page.Justification = err.Error()
	return page
}

func healthPrompt(p models.SitemapPage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "URL: %s\nTitle: %s\nWord count: %d\n", p.URL, p.Title, p.WordCount)
	if p.DaysOld != nil {
		fmt.Fprintf(&b, "Last modified: %d days ago\n", *p.DaysOld)
	} else {
		b.WriteString("Last modified: unknown\n")
	}
	if p.CrawledText != "" {
		fmt.Fprintf(&b, "\nContent:\n%s\n", htmltext.Truncate(p.CrawledText, 1200))
	} else {
		b.WriteString("\nContent: not crawled\n")
	}
	return b.String()
}

// priority accepts the model's label when it is one of the known values
// and otherwise derives one from the score.
func priority(label string, score int) models.UpdatePriority {
	for _, p := range []models.UpdatePriority{models.PriorityCritical, models.PriorityHigh, models.PriorityMedium, models.PriorityHealthy} {
		if strings.EqualFold(strings.TrimSpace(label), string(p)) {
			return p
		}
	}
	switch {
	case score < 40:
		return models.PriorityCritical
	case score < 60:
		return models.PriorityHigh
	case score < 80:
		return models.PriorityMedium
	}
	return models.PriorityHealthy
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
