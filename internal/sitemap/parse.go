// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package sitemap

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"
)

// Entry is one <url> of a sitemap.
type Entry struct {
	Loc     string
	LastMod *time.Time
}

// Document is a parsed sitemap file. Exactly one of Entries or Children
// is populated: Children for a sitemap index.
type Document struct {
	Entries  []Entry
	Children []string
}

type xmlURLSet struct {
	URLs []struct {
		Loc     string `xml:"loc"`
		LastMod string `xml:"lastmod"`
	} `xml:"url"`
}

type xmlIndex struct {
	Sitemaps []struct {
		Loc string `xml:"loc"`
	} `xml:"sitemap"`
}

// Parse decodes a sitemap or sitemap index, telling them apart by the
// root element.
func Parse(body []byte) (*Document, error) {
	root, err := rootElement(body)
	if err != nil {
		return nil, err
	}

	switch root {
	case "sitemapindex":
		var idx xmlIndex
		if err := xml.Unmarshal(body, &idx); err != nil {
			return nil, fmt.Errorf("parse sitemap index: %w", err)
		}
		doc := &Document{}
		for _, s := range idx.Sitemaps {
			if loc := strings.TrimSpace(s.Loc); loc != "" {
				doc.Children = append(doc.Children, loc)
			}
		}
		return doc, nil

	case "urlset":
		var set xmlURLSet
		if err := xml.Unmarshal(body, &set); err != nil {
			return nil, fmt.Errorf("parse sitemap: %w", err)
		}
		doc := &Document{}
		for _, u := range set.URLs {
			loc := strings.TrimSpace(u.Loc)
			if loc == "" {
				continue
			}
			e := Entry{Loc: loc}
			if t, ok := parseLastMod(u.LastMod); ok {
				e.LastMod = &t
			}
			doc.Entries = append(doc.Entries, e)
		}
		return doc, nil
	}
	return nil, fmt.Errorf("parse sitemap: unexpected root element <%s>", root)
}

func rootElement(body []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", fmt.Errorf("parse sitemap: no root element: %w", err)
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se.Name.Local, nil
		}
	}
}

// lastModLayouts are the W3C datetime forms seen in the wild.
var lastModLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseLastMod(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range lastModLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
