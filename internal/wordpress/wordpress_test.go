// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package wordpress

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"contentforge/internal/fetch"
	"contentforge/internal/models"
)

const (
	testUser = "editor"
	testPass = "abcd efgh ijkl mnop"
)

// fakeWP emulates the REST endpoints the publisher uses.
type fakeWP struct {
	mu           sync.Mutex
	existingSlug string
	uploads      []map[string]string
	saved        map[string]any
	savedPath    string
}

func (f *fakeWP) handler(t *testing.T) http.Handler {
	wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte(testUser+":"+testPass))
	api := f.routes(t)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != wantAuth {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"code":"rest_not_logged_in","message":"You are not currently logged in."}`))
			return
		}
		api.ServeHTTP(w, r)
	})
}

func (f *fakeWP) routes(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /wp-json/wp/v2/users/me", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":7,"name":"Editor","slug":"editor"}`))
	})
	mux.HandleFunc("POST /wp-json/wp/v2/media", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("multipart: %v", err)
		}
		file, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("file part: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(file)
		f.mu.Lock()
		f.uploads = append(f.uploads, map[string]string{
			"filename": hdr.Filename,
			"data":     string(data),
			"title":    r.FormValue("title"),
			"alt_text": r.FormValue("alt_text"),
			"caption":  r.FormValue("caption"),
		})
		n := len(f.uploads)
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"id": 500 + n, "source_url": fmt.Sprintf("https://wp.test/uploads/img%d.png", n)})
	})
	mux.HandleFunc("GET /wp-json/wp/v2/posts", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("slug") == f.existingSlug {
			w.Write([]byte(`[{"id":42,"link":"https://wp.test/` + f.existingSlug + `/","slug":"` + f.existingSlug + `"}]`))
			return
		}
		w.Write([]byte(`[]`))
	})
	save := func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.saved, f.savedPath = body, r.URL.Path
		f.mu.Unlock()
		id := 100
		if strings.HasSuffix(r.URL.Path, "/42") {
			id = 42
		}
		json.NewEncoder(w).Encode(map[string]any{"id": id, "link": "https://wp.test/" + body["slug"].(string) + "/"})
	}
	mux.HandleFunc("POST /wp-json/wp/v2/posts", save)
	mux.HandleFunc("POST /wp-json/wp/v2/posts/{id}", save)
	return mux
}

func newTestClient(t *testing.T, f *fakeWP, user, pass string) (*Client, *atomic.Int32) {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)

	var relayHits atomic.Int32
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		relayHits.Add(1)
	}))
	t.Cleanup(relay.Close)

	fc := fetch.New(fetch.WithRelays([]fetch.Relay{fetch.Relay(relay.URL + "/?u=%s")}))
	return New(srv.URL+"/", user, pass, fc), &relayHits
}

func article() *models.GeneratedContent {
	img1 := models.ImageDetail{Placeholder: "[IMAGE_1_PLACEHOLDER]", Title: "Jar", AltText: "cold brew jar", ContentType: "image/png", Data: []byte("one")}
	img2 := models.ImageDetail{Placeholder: "[IMAGE_2_PLACEHOLDER]", Title: "Grounds", AltText: "grounds", ContentType: "image/jpeg", Data: []byte("two")}
	return &models.GeneratedContent{
		Title:           "Cold Brew at Home",
		Slug:            "cold-brew-at-home",
		MetaDescription: "All about cold brew.",
		Content: `<p>Intro</p><figure><img src="` + img1.DataURI() + `" alt="cold brew jar"/></figure>` +
			`<p>Body</p><figure><img src="` + img2.DataURI() + `" alt="grounds"/></figure>`,
		ImageDetails: []models.ImageDetail{img1, img2},
	}
}

func TestVerifyAuth(t *testing.T) {
	c, _ := newTestClient(t, &fakeWP{}, testUser, testPass)
	u, err := c.VerifyAuth(context.Background())
	if err != nil {
		t.Fatalf("VerifyAuth: %v", err)
	}
	if u.ID != 7 || u.Slug != "editor" {
		t.Errorf("user = %+v", u)
	}
}

func TestVerifyAuth_BadCredentials(t *testing.T) {
	c, relayHits := newTestClient(t, &fakeWP{}, testUser, "wrong")
	_, err := c.VerifyAuth(context.Background())
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("err = %v, want ErrAuth", err)
	}
	if errors.Is(err, ErrConnectivity) {
		t.Error("auth failure classified as connectivity")
	}
	if !strings.Contains(err.Error(), "not currently logged in") {
		t.Errorf("WordPress message dropped: %v", err)
	}
	if relayHits.Load() != 0 {
		t.Error("credentialed request went through a relay")
	}
	if !strings.Contains(Diagnose(err), "credentials") {
		t.Errorf("Diagnose = %q", Diagnose(err))
	}
}

func TestConnectivityFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := New(srv.URL, testUser, testPass, fetch.New())

	_, err := c.VerifyAuth(context.Background())
	if !errors.Is(err, ErrConnectivity) || !errors.Is(err, fetch.ErrCredentialsDirectOnly) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(Diagnose(err), "could not be reached") {
		t.Errorf("Diagnose = %q", Diagnose(err))
	}
}

func TestAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":"rest_invalid_param","message":"Invalid parameter(s): status"}`))
	}))
	t.Cleanup(srv.Close)
	c := New(srv.URL, testUser, testPass, fetch.New())

	_, err := c.SavePost(context.Background(), 0, PostInput{Title: "x", Status: "bogus"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v", err)
	}
	if apiErr.StatusCode != 400 || apiErr.Code != "rest_invalid_param" {
		t.Errorf("apiErr = %+v", apiErr)
	}
	if errors.Is(err, ErrAuth) || errors.Is(err, ErrConnectivity) {
		t.Error("API error misclassified")
	}
}

func TestNonJSONSuccessIsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>Checking your browser</html>`))
	}))
	t.Cleanup(srv.Close)
	c := New(srv.URL, testUser, testPass, fetch.New())

	var apiErr *APIError
	if _, err := c.VerifyAuth(context.Background()); !errors.As(err, &apiErr) || apiErr.Code != "invalid_json" {
		t.Errorf("err = %v", err)
	}
}

func TestPublish_CreatesPostWithUploadedMedia(t *testing.T) {
	f := &fakeWP{}
	c, _ := newTestClient(t, f, testUser, testPass)
	gc := article()
	original := gc.Content

	res, err := c.Publish(context.Background(), gc, PublishOptions{})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if res.PostID != 100 || res.Updated || res.Link != "https://wp.test/cold-brew-at-home/" {
		t.Errorf("result = %+v", res)
	}
	if len(f.uploads) != 2 {
		t.Fatalf("uploads = %d, want 2", len(f.uploads))
	}
	if u := f.uploads[1]; u["filename"] != "cold-brew-at-home-2.jpg" || u["data"] != "two" || u["alt_text"] != "grounds" || u["caption"] != "Grounds" {
		t.Errorf("upload = %+v", u)
	}

	content := f.saved["content"].(string)
	if strings.Contains(content, "data:image") {
		t.Error("inline payload not replaced")
	}
	if !strings.Contains(content, "https://wp.test/uploads/img1.png") || !strings.Contains(content, "https://wp.test/uploads/img2.png") {
		t.Errorf("media urls missing: %s", content)
	}
	if f.saved["status"] != "draft" || f.saved["excerpt"] != "All about cold brew." || f.saved["featured_media"] != float64(501) {
		t.Errorf("post body = %+v", f.saved)
	}
	if gc.Content != original {
		t.Error("Publish modified the artifact")
	}
}

func TestPublish_AfterPersistenceRoundTrip(t *testing.T) {
	raw, err := json.Marshal(article())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var restored models.GeneratedContent
	if err := json.Unmarshal(raw, &restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	f := &fakeWP{}
	c, _ := newTestClient(t, f, testUser, testPass)
	if _, err := c.Publish(context.Background(), &restored, PublishOptions{}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(f.uploads) != 2 {
		t.Fatalf("uploads = %d, want 2", len(f.uploads))
	}
	if content := f.saved["content"].(string); strings.Contains(content, "data:image") {
		t.Errorf("inline payload reached the post: %s", content)
	}
}

func TestPublish_UpdatesExistingSlug(t *testing.T) {
	f := &fakeWP{existingSlug: "old-post"}
	c, _ := newTestClient(t, f, testUser, testPass)
	gc := article()
	gc.ImageDetails = nil

	res, err := c.Publish(context.Background(), gc, PublishOptions{Status: "publish", Slug: "old-post"})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !res.Updated || res.PostID != 42 || f.savedPath != "/wp-json/wp/v2/posts/42" {
		t.Errorf("res = %+v path = %s", res, f.savedPath)
	}
	if f.saved["slug"] != "old-post" || f.saved["status"] != "publish" {
		t.Errorf("post body = %+v", f.saved)
	}
}

func TestPublish_UploadFailureStops(t *testing.T) {
	c, _ := newTestClient(t, &fakeWP{}, testUser, "wrong")
	_, err := c.Publish(context.Background(), article(), PublishOptions{})
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("err = %v", err)
	}
}

func TestSubstituteImage(t *testing.T) {
	img := models.ImageDetail{Placeholder: "[IMAGE_1_PLACEHOLDER]", AltText: `a "b"`, URL: "https://s3.test/x.png?a=1&b=2"}
	in := `<img src="https://s3.test/x.png?a=1&amp;b=2"/> [IMAGE_1_PLACEHOLDER]`
	got := substituteImage(in, img, "https://wp.test/y.png")
	if strings.Contains(got, "s3.test") || strings.Contains(got, "[IMAGE_1") {
		t.Errorf("substituteImage = %s", got)
	}
	if !strings.Contains(got, `alt="a &#34;b&#34;"`) {
		t.Errorf("alt not escaped: %s", got)
	}
}

func TestConfigured(t *testing.T) {
	if New("", "u", "p", nil).Configured() || New("https://x", "u", "", nil).Configured() {
		t.Error("partial config reported as configured")
	}
	if !New("https://x", "u", "p", nil).Configured() {
		t.Error("full config not configured")
	}
}
