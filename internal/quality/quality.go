// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package quality holds the deterministic checks applied to an assembled
// article: the word-count gate, the human-likeness score and duplicate
// video correction.
package quality

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"contentforge/internal/htmltext"
	"contentforge/internal/models"
)

// Limits are the word-count bounds per item kind.
type Limits struct {
	MinStandard int
	MinPillar   int
	Max         int
}

// DefaultLimits match the editorial targets for standard and pillar posts.
var DefaultLimits = Limits{MinStandard: 1800, MinPillar: 3500, Max: 4500}

// MinFor returns the floor for kind. Cluster posts use the standard floor.
func (l Limits) MinFor(kind models.ItemKind) int {
	if kind == models.ItemKindPillar {
		return l.MinPillar
	}
	return l.MinStandard
}

// ContentTooShortError carries the assembled article that failed the
// word-count gate so it can be reviewed or continued by hand.
type ContentTooShortError struct {
	Content string
	Words   int
	Min     int
}

func (e *ContentTooShortError) Error() string {
	return fmt.Sprintf("content too short: %d words, minimum %d", e.Words, e.Min)
}

// CheckWordCount counts visible words in content. Below min it returns a
// *ContentTooShortError; above max it only logs.
func CheckWordCount(content string, min, max int) (int, error) {
	words := htmltext.WordCount(content)
	if words < min {
		return words, &ContentTooShortError{Content: content, Words: words, Min: min}
	}
	if max > 0 && words > max {
		slog.Warn("content over word limit", "words", words, "max", max)
	}
	return words, nil
}

// cliches are phrases that mark text as machine-written.
var cliches = []string{
	"delve into",
	"in today's fast-paced world",
	"in today's digital age",
	"in the realm of",
	"it's important to note",
	"it is important to note",
	"navigating the complexities",
	"a testament to",
	"unlock the power",
	"unleash the power",
	"game-changer",
	"in conclusion",
	"embark on a journey",
	"tapestry",
	"ever-evolving landscape",
	"seamlessly integrate",
	"harness the power",
	"elevate your",
	"look no further",
	"when it comes to",
}

const (
	clichePenalty         = 10
	longSentencePenalty   = 15
	longSentenceThreshold = 25
)

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

// HumanScore rates how human the text reads, from 0 to 100. Each
// occurrence of a cliché costs 10 points, and an average sentence longer
// than 25 words costs a flat 15.
func HumanScore(content string) int {
	text := htmltext.StripTags(content)
	lower := strings.ToLower(text)

	penalty := 0
	for _, c := range cliches {
		penalty += strings.Count(lower, c) * clichePenalty
	}

	var sentences, words int
	for _, s := range sentenceSplit.Split(text, -1) {
		if n := len(strings.Fields(s)); n > 0 {
			sentences++
			words += n
		}
	}
	if sentences > 0 && float64(words)/float64(sentences) > longSentenceThreshold {
		penalty += longSentencePenalty
	}

	return max(100-penalty, 0)
}

var embedPattern = regexp.MustCompile(`(<iframe[^>]*?src="https?://(?:www\.)?youtube(?:-nocookie)?\.com/embed/)([A-Za-z0-9_-]+)`)

// EmbeddedVideoIDs lists the YouTube IDs embedded in content, in order.
func EmbeddedVideoIDs(content string) []string {
	var ids []string
	for _, m := range embedPattern.FindAllStringSubmatch(content, -1) {
		ids = append(ids, m[2])
	}
	return ids
}

// FixDuplicateVideos handles the case where every embed carries the same
// video although distinct videos were intended: the second embed is
// switched to the second intended video when that one differs.
func FixDuplicateVideos(content string, intended []models.VideoRef) string {
	ids := EmbeddedVideoIDs(content)
	if len(ids) < 2 || len(intended) < 2 {
		return content
	}
	for _, id := range ids[1:] {
		if id != ids[0] {
			return content
		}
	}
	replacement := intended[1].VideoID
	if replacement == "" || replacement == ids[0] {
		return content
	}

	seen := 0
	fixed := embedPattern.ReplaceAllStringFunc(content, func(tag string) string {
		seen++
		if seen != 2 {
			return tag
		}
		m := embedPattern.FindStringSubmatch(tag)
		return m[1] + replacement
	})
	slog.Info("duplicate video embed corrected", "from", ids[0], "to", replacement)
	return fixed
}
