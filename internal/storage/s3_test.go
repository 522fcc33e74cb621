// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestNew_Unconfigured(t *testing.T) {
	a, err := New("", "", "", "", "", "")
	if a != nil || err != nil {
		t.Errorf("New with empty config = (%v, %v), want (nil, nil)", a, err)
	}
	a, err = New("https://s3.test", "", "ak", "sk", "", "")
	if a != nil || err != nil {
		t.Errorf("New without bucket = (%v, %v), want (nil, nil)", a, err)
	}
}

func TestFileURLAndKeyFromURL(t *testing.T) {
	a, _ := New("https://s3.test/", "eu", "ak", "sk", "media", "")
	if got := a.FileURL("generated/x.png"); got != "https://s3.test/media/generated/x.png" {
		t.Errorf("FileURL = %q", got)
	}
	if key, ok := a.KeyFromURL("https://s3.test/media/generated/x.png"); !ok || key != "generated/x.png" {
		t.Errorf("KeyFromURL = %q, %v", key, ok)
	}
	if _, ok := a.KeyFromURL("https://other.test/media/x.png"); ok {
		t.Error("foreign URL accepted")
	}

	cdn, _ := New("https://s3.test", "eu", "ak", "sk", "media", "https://cdn.test/")
	if got := cdn.FileURL("k.png"); got != "https://cdn.test/k.png" {
		t.Errorf("FileURL with CDN = %q", got)
	}
	if key, ok := cdn.KeyFromURL("https://cdn.test/k.png"); !ok || key != "k.png" {
		t.Errorf("KeyFromURL with CDN = %q, %v", key, ok)
	}
}

func TestPutImage(t *testing.T) {
	var (
		mu     sync.Mutex
		method string
		path   string
		ctype  string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		method, path, ctype = r.Method, r.URL.Path, r.Header.Get("Content-Type")
		mu.Unlock()
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a, err := New(srv.URL, "us-east-1", "ak", "sk", "media", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	a.now = func() time.Time { return time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC) }

	url, err := a.PutImage(context.Background(), []byte("jpegdata"), "image/jpeg")
	if err != nil {
		t.Fatalf("PutImage: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if method != http.MethodPut {
		t.Errorf("method = %s, want PUT", method)
	}
	keyPattern := regexp.MustCompile(`^/media/generated/2026/03/[0-9a-f-]{36}\.jpg$`)
	if !keyPattern.MatchString(path) {
		t.Errorf("object path = %q", path)
	}
	if ctype != "image/jpeg" {
		t.Errorf("content type = %q", ctype)
	}
	if !strings.HasPrefix(url, srv.URL+"/media/generated/2026/03/") {
		t.Errorf("url = %q", url)
	}
}

func TestPutImage_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`<?xml version="1.0"?><Error><Code>AccessDenied</Code><Message>denied</Message></Error>`))
	}))
	defer srv.Close()

	a, _ := New(srv.URL, "", "ak", "sk", "media", "")
	if _, err := a.PutImage(context.Background(), []byte("x"), ""); err == nil {
		t.Fatal("expected error on 403")
	}
}
