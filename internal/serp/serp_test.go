// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package serp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"contentforge/internal/fetch"
)

func TestVideoID(t *testing.T) {
	tests := []struct {
		link string
		want string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtube.com/watch?v=dQw4w9WgXcQ&t=42", "dQw4w9WgXcQ"},
		{"https://m.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ?si=abc", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://vimeo.com/123456", ""},
		{"https://www.youtube.com/watch", ""},
		{"not a url %%", ""},
	}
	for _, tt := range tests {
		if got := VideoID(tt.link); got != tt.want {
			t.Errorf("VideoID(%q) = %q, want %q", tt.link, got, tt.want)
		}
	}
}

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New("secret", srv.URL, fetch.New(fetch.WithRelays(nil)))
}

func TestSearch(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/search" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-API-KEY") != "secret" {
			t.Errorf("missing api key header")
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["q"] != "go generics" {
			t.Errorf("q = %q", body["q"])
		}
		w.Write([]byte(`{"organic":[{"title":"A","link":"https://a.test","snippet":"s"},{"title":"B","link":"https://b.test"}]}`))
	})

	got, err := c.Search(context.Background(), "go generics")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 || got[0].Title != "A" || got[1].Link != "https://b.test" {
		t.Errorf("got %+v", got)
	}
}

func TestSearch_ErrorStatus(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"bad key"}`))
	})
	if _, err := c.Search(context.Background(), "x"); err == nil {
		t.Fatal("expected error for 403")
	}
}

func TestUniqueVideos(t *testing.T) {
	calls := 0
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		switch calls {
		case 1:
			w.Write([]byte(`{"videos":[
				{"title":"one","link":"https://www.youtube.com/watch?v=aaaaaaaaaaa"},
				{"title":"not yt","link":"https://vimeo.com/1"}
			]}`))
		case 2:
			w.Write([]byte(`{"videos":[
				{"title":"one again","link":"https://youtu.be/aaaaaaaaaaa"},
				{"title":"two","link":"https://youtu.be/bbbbbbbbbbb"}
			]}`))
		default:
			w.Write([]byte(`{"videos":[{"title":"three","link":"https://youtu.be/ccccccccccc"}]}`))
		}
	})

	got, err := c.UniqueVideos(context.Background(), VideoQueries("sourdough"), 2)
	if err != nil {
		t.Fatalf("UniqueVideos: %v", err)
	}
	if len(got) != 2 || got[0].VideoID != "aaaaaaaaaaa" || got[1].VideoID != "bbbbbbbbbbb" {
		t.Errorf("got %+v", got)
	}
	if calls != 2 {
		t.Errorf("queried %d times, want 2 (limit reached)", calls)
	}
}

func TestUniqueVideos_AllFail(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	if _, err := c.UniqueVideos(context.Background(), []string{"a", "b"}, 2); err == nil {
		t.Fatal("expected error when every query fails")
	}
}

func TestConfigured(t *testing.T) {
	var nilClient *Client
	if nilClient.Configured() {
		t.Error("nil client reported configured")
	}
	if New("", "", nil).Configured() {
		t.Error("keyless client reported configured")
	}
	if !New("k", "", nil).Configured() {
		t.Error("keyed client not configured")
	}
}
