// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package jsonrepair pulls a single JSON value out of noisy model output.
// Models wrap JSON in prose and code fences, leave trailing commas, and
// stop mid-object when they hit a token limit; Extract undoes all three.
package jsonrepair

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// maxSnippet bounds how much of the attempted text a ParseError carries.
const maxSnippet = 500

var (
	fenceMarker   = regexp.MustCompile("```(?:json|JSON)?")
	trailingComma = regexp.MustCompile(`,(\s*[}\]])`)
)

// ParseError is returned when no valid JSON could be recovered.
// Text is the candidate that was last attempted.
type ParseError struct {
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	snippet := e.Text
	if len(snippet) > maxSnippet {
		snippet = snippet[:maxSnippet] + "..."
	}
	return fmt.Sprintf("jsonrepair: %v (attempted: %s)", e.Err, snippet)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Extract returns a JSON-parseable string recovered from text.
// Valid input is returned unchanged, so Extract is idempotent.
func Extract(text string) (string, error) {
	if json.Valid([]byte(text)) {
		return text, nil
	}

	cleaned := strings.TrimSpace(fenceMarker.ReplaceAllString(text, ""))
	cleaned = trailingComma.ReplaceAllString(cleaned, "$1")

	start := strings.IndexAny(cleaned, "{[")
	if start < 0 {
		return "", &ParseError{Text: cleaned, Err: fmt.Errorf("no JSON object or array found")}
	}

	candidate, closers := balancedSpan(cleaned[start:])
	if closers != "" {
		slog.Warn("json response truncated, auto-closing", "missing", closers)
		candidate += closers
	}

	if json.Valid([]byte(candidate)) {
		return candidate, nil
	}

	candidate = trailingComma.ReplaceAllString(candidate, "$1")
	if json.Valid([]byte(candidate)) {
		return candidate, nil
	}

	var probe any
	err := json.Unmarshal([]byte(candidate), &probe)
	return "", &ParseError{Text: candidate, Err: err}
}

// Decode extracts JSON from text and unmarshals it into v.
func Decode(text string, v any) error {
	raw, err := Extract(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return &ParseError{Text: raw, Err: err}
	}
	return nil
}

// balancedSpan scans s, which starts with '{' or '[', until the opening
// bracket is balanced. Brackets inside string literals are ignored and a
// backslash always escapes the next byte. When s ends first, the returned
// closers string holds what is needed to balance it, including a closing
// quote if the scan stopped inside a string. An escape sequence cut off at
// the end of s is dropped from span.
func balancedSpan(s string) (span, closers string) {
	var (
		stack    []byte
		inString bool
		escaped  bool
	)
	lastUnicode := -1 // offset of the most recent \u escape

	for i := 0; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			if c == 'u' {
				lastUnicode = i - 1
			}
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch c {
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			if len(stack) == 0 {
				return s[:i+1], ""
			}
		}
	}

	if escaped {
		s = s[:len(s)-1]
	} else if inString && lastUnicode >= 0 && len(s)-lastUnicode < 6 {
		s = s[:lastUnicode]
	}

	var b strings.Builder
	if inString {
		b.WriteByte('"')
	}
	for i := len(stack) - 1; i >= 0; i-- {
		b.WriteByte(stack[i])
	}
	return s, b.String()
}
