package handlers

import (
	"strings"
	"testing"

	"contentforge/internal/studio"
)

func TestValidateNewItems(t *testing.T) {
	tests := []struct {
		name  string
		items []studio.NewItem
		want  string
	}{
		{"valid", []studio.NewItem{{Title: "Cold Brew"}}, ""},
		{"empty batch", nil, "At least one"},
		{"blank title", []studio.NewItem{{Title: "  "}}, "Title is required"},
		{"long title", []studio.NewItem{{Title: strings.Repeat("a", 301)}}, "too long"},
		{"too many", make([]studio.NewItem, maxBatchItems+1), "Too many"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := validateNewItems(tt.items)
			if tt.want == "" && got != "" || tt.want != "" && !strings.Contains(got, tt.want) {
				t.Errorf("validateNewItems = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateStatus(t *testing.T) {
	for _, s := range []string{"", "draft", "publish", "private"} {
		if msg := validateStatus(s); msg != "" {
			t.Errorf("validateStatus(%q) = %q", s, msg)
		}
	}
	if validateStatus("trash") == "" {
		t.Error("trash accepted")
	}
}

func TestValidatePageURL(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"https://site.test/sitemap.xml", true},
		{"http://site.test/post/", true},
		{"", false},
		{"ftp://site.test/sitemap.xml", false},
		{"/sitemap.xml", false},
		{"https://" + strings.Repeat("a", maxURLLen), false},
	}
	for _, tt := range tests {
		if got := validatePageURL(tt.in) == ""; got != tt.ok {
			t.Errorf("validatePageURL(%q) ok = %v, want %v", tt.in, got, tt.ok)
		}
	}
}
