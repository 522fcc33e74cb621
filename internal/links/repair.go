// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package links

import (
	"html"
	"log/slog"
	"regexp"
	"strings"
)

// repairThreshold is the score a page must exceed to adopt a placeholder.
const repairThreshold = 50

var wordSplit = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// Score rates how well a page title matches anchor text. Exact match adds
// 100, title containing the anchor adds 60, anchor containing the title
// adds 50, and the mean of the two word-overlap percentages is added on
// top. Words of two characters or fewer are ignored for overlap.
func Score(anchor, title string) float64 {
	a := strings.ToLower(strings.TrimSpace(html.UnescapeString(anchor)))
	t := strings.ToLower(strings.TrimSpace(title))
	if a == "" || t == "" {
		return 0
	}

	var score float64
	if a == t {
		score += 100
	}
	if strings.Contains(t, a) {
		score += 60
	}
	if strings.Contains(a, t) {
		score += 50
	}

	aw := significantWords(a)
	tw := significantWords(t)
	if len(aw) == 0 || len(tw) == 0 {
		return score
	}
	inTitle := make(map[string]bool, len(tw))
	for _, w := range tw {
		inTitle[w] = true
	}
	overlap := 0
	for _, w := range aw {
		if inTitle[w] {
			overlap++
		}
	}
	anchorPct := float64(overlap) / float64(len(aw)) * 100
	titlePct := float64(overlap) / float64(len(tw)) * 100
	return score + (anchorPct+titlePct)/2
}

func significantWords(s string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, w := range wordSplit.Split(s, -1) {
		if len([]rune(w)) <= 2 || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

// Repair leaves placeholders with a known slug alone and points every
// other placeholder at the best-scoring page. When no page scores above
// the threshold the placeholder is replaced by its anchor text.
func Repair(s string, pages []Page) string {
	idx := newIndex(pages)
	return placeholderPattern.ReplaceAllStringFunc(s, func(tok string) string {
		l := parseToken(tok)
		slug, text := l.Slug, l.Text
		if _, ok := idx[slug]; ok {
			return tok
		}

		var best *Page
		var bestScore float64
		for i := range pages {
			if sc := Score(text, pages[i].Title); sc > bestScore {
				best, bestScore = &pages[i], sc
			}
		}
		if best != nil && bestScore > repairThreshold {
			slog.Debug("internal link repaired", "from", slug, "to", best.Slug, "score", bestScore)
			return Placeholder(best.Slug, text)
		}
		slog.Debug("internal link dropped", "slug", slug, "text", text)
		return text
	})
}
