// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package links

import (
	"log/slog"
	"regexp"
	"strings"
)

// minPhraseLen is the shortest phrase worth turning into a link.
const minPhraseLen = 10

// Phrases returns the search phrases for a title in priority order: the
// full title, the title without its last word, then without its first
// word. Phrases of minPhraseLen characters or fewer are dropped.
func Phrases(title string) []string {
	words := strings.Fields(title)
	if len(words) < 2 {
		return nil
	}
	candidates := []string{
		strings.Join(words, " "),
		strings.Join(words[:len(words)-1], " "),
		strings.Join(words[1:], " "),
	}
	seen := make(map[string]bool)
	var out []string
	for _, c := range candidates {
		key := strings.ToLower(c)
		if len(c) <= minPhraseLen || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}

// EnforceQuota injects placeholders until s holds at least min links to
// known pages. Candidates are pages not yet linked whose titles have more
// than one word, tried in the order given. For each candidate the first
// phrase occurring in body text (outside tags, anchors and placeholders,
// on word boundaries) becomes the anchor. It returns the new HTML and the
// number of links added. A shortfall is logged.
func EnforceQuota(s string, pages []Page, min int) (string, int) {
	have := CountValid(s, pages)
	if have >= min {
		return s, 0
	}

	linked := make(map[string]bool)
	for _, l := range Find(s) {
		linked[l.Slug] = true
	}

	added := 0
	for _, p := range pages {
		if have+added >= min {
			break
		}
		if linked[p.Slug] || len(strings.Fields(p.Title)) < 2 {
			continue
		}
		for _, phrase := range Phrases(p.Title) {
			start, end, ok := findInText(s, phrase)
			if !ok {
				continue
			}
			s = s[:start] + Placeholder(p.Slug, s[start:end]) + s[end:]
			linked[p.Slug] = true
			added++
			break
		}
	}

	if deficit := min - have - added; deficit > 0 {
		slog.Warn("internal link quota not met", "have", have+added, "min", min, "deficit", deficit)
	}
	return s, added
}

// findInText locates the first case-insensitive occurrence of phrase that
// sits in text content on word boundaries.
func findInText(s, phrase string) (int, int, bool) {
	re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(phrase))
	if err != nil {
		return 0, 0, false
	}
	for _, loc := range re.FindAllStringIndex(s, -1) {
		start, end := loc[0], loc[1]
		if !boundaryBefore(s, start) || !boundaryAfter(s, end) {
			continue
		}
		if insideTag(s, start) || insideAnchor(s, start) || insidePlaceholder(s, start) {
			continue
		}
		return start, end, true
	}
	return 0, 0, false
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	c := s[i-1]
	return isSpace(c) || c == '>' || c == '(' || c == '"'
}

func boundaryAfter(s string, i int) bool {
	if i == len(s) {
		return true
	}
	c := s[i]
	return isSpace(c) || c == '<' || strings.IndexByte(".,;:!?)\"'", c) >= 0
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\t' || c == '\r'
}

func insideTag(s string, i int) bool {
	return strings.LastIndexByte(s[:i], '<') > strings.LastIndexByte(s[:i], '>')
}

func insidePlaceholder(s string, i int) bool {
	open := strings.LastIndex(s[:i], "[INTERNAL_LINK")
	return open >= 0 && open > strings.LastIndexByte(s[:i], ']')
}

var anchorOpen = regexp.MustCompile(`(?i)<a[\s>]`)

func insideAnchor(s string, i int) bool {
	before := s[:i]
	opens := anchorOpen.FindAllStringIndex(before, -1)
	if len(opens) == 0 {
		return false
	}
	last := opens[len(opens)-1][0]
	return !strings.Contains(strings.ToLower(before[last:]), "</a>")
}
