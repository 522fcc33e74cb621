// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// statusServer answers every request with status and body and counts hits.
func statusServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

// relayServer echoes the wrapped target URL so tests can check wrapping.
func relayServer(t *testing.T, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(status)
		w.Write([]byte("relayed:" + r.URL.Query().Get("url")))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestDo_DirectSuccessSkipsRelays(t *testing.T) {
	direct, _ := statusServer(t, http.StatusOK, "hello")
	relay, relayHits := relayServer(t, http.StatusOK)

	c := New(WithRelays([]Relay{Relay(relay.URL + "/?url=%s")}))
	resp, err := c.Do(context.Background(), Get(direct.URL))
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if string(resp.Body) != "hello" || resp.Via != direct.URL {
		t.Errorf("resp = %q via %q", resp.Body, resp.Via)
	}
	if relayHits.Load() != 0 {
		t.Errorf("relay hit %d times, want 0", relayHits.Load())
	}
}

func TestDo_FallsBackThroughRelays(t *testing.T) {
	direct, _ := statusServer(t, http.StatusForbidden, "blocked")
	badRelay, badHits := relayServer(t, http.StatusBadGateway)
	goodRelay, goodHits := relayServer(t, http.StatusOK)

	c := New(WithRelays([]Relay{
		Relay(badRelay.URL + "/?url=%s"),
		Relay(goodRelay.URL + "/?url=%s"),
	}))
	resp, err := c.Do(context.Background(), Get(direct.URL+"/sitemap.xml"))
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if want := "relayed:" + direct.URL + "/sitemap.xml"; string(resp.Body) != want {
		t.Errorf("body = %q, want %q", resp.Body, want)
	}
	if badHits.Load() != 1 || goodHits.Load() != 1 {
		t.Errorf("relay hits bad=%d good=%d", badHits.Load(), goodHits.Load())
	}
}

func TestDo_AllStrategiesFail(t *testing.T) {
	direct, _ := statusServer(t, http.StatusInternalServerError, "")
	relay, _ := relayServer(t, http.StatusServiceUnavailable)

	c := New(WithRelays([]Relay{Relay(relay.URL + "/?url=%s")}))
	_, err := c.Do(context.Background(), Get(direct.URL))

	var exhausted *RelayExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected *RelayExhaustedError, got %v", err)
	}
	if len(exhausted.Failures) != 2 {
		t.Errorf("failures = %v, want 2 entries", exhausted.Failures)
	}
}

func TestDo_TimeoutTriggersRelay(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(slow.Close)
	relay, relayHits := relayServer(t, http.StatusOK)

	c := New(
		WithRelays([]Relay{Relay(relay.URL + "/?url=%s")}),
		WithTimeouts(100*time.Millisecond, 0),
	)
	if _, err := c.Do(context.Background(), Get(slow.URL)); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if relayHits.Load() != 1 {
		t.Errorf("relay hits = %d, want 1", relayHits.Load())
	}
}

func TestDo_CallerHeadersOverrideBrowserHeaders(t *testing.T) {
	var gotUA, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
	}))
	t.Cleanup(srv.Close)

	req := Get(srv.URL)
	req.Header.Set("Accept", "application/xml")
	if _, err := New(WithRelays(nil)).Do(context.Background(), req); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if gotAccept != "application/xml" {
		t.Errorf("Accept = %q", gotAccept)
	}
	if gotUA == "" || gotUA == "Go-http-client/1.1" {
		t.Errorf("User-Agent = %q, want browser identity", gotUA)
	}
}

func TestDoAuthenticated_CredentialedNeverRelays(t *testing.T) {
	direct, _ := statusServer(t, http.StatusInternalServerError, "wp broke")
	relay, relayHits := relayServer(t, http.StatusOK)
	c := New(WithRelays([]Relay{Relay(relay.URL + "/?url=%s")}))

	req := Get(direct.URL + "/wp-json/wp/v2/users/me")
	req.Header.Set("Authorization", "Basic abc")

	resp, err := c.DoAuthenticated(context.Background(), req)
	if err != nil {
		t.Fatalf("DoAuthenticated: %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want raw 500", resp.StatusCode)
	}
	if relayHits.Load() != 0 {
		t.Errorf("credentialed request was relayed %d times", relayHits.Load())
	}
}

func TestDoAuthenticated_CredentialedUnreachable(t *testing.T) {
	direct, _ := statusServer(t, http.StatusOK, "")
	target := direct.URL
	direct.Close()

	req := Get(target)
	req.Header.Set("Authorization", "Basic abc")

	_, err := New().DoAuthenticated(context.Background(), req)
	if !errors.Is(err, ErrCredentialsDirectOnly) {
		t.Errorf("err = %v, want ErrCredentialsDirectOnly", err)
	}
}

func TestDoAuthenticated_Accepts4xxWithoutRelay(t *testing.T) {
	direct, _ := statusServer(t, http.StatusUnauthorized, "nope")
	relay, relayHits := relayServer(t, http.StatusOK)
	c := New(WithRelays([]Relay{Relay(relay.URL + "/?url=%s")}))

	resp, err := c.DoAuthenticated(context.Background(), Get(direct.URL))
	if err != nil {
		t.Fatalf("DoAuthenticated: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
	if relayHits.Load() != 0 {
		t.Errorf("4xx should be returned without relaying")
	}
}

func TestRelayWrap(t *testing.T) {
	got := Relay("https://relay.example/?u=%s").Wrap("https://site.test/a?b=c")
	want := "https://relay.example/?u=https%3A%2F%2Fsite.test%2Fa%3Fb%3Dc"
	if got != want {
		t.Errorf("Wrap = %q, want %q", got, want)
	}
}

func TestWithRateLimit(t *testing.T) {
	srv, hits := statusServer(t, http.StatusOK, "ok")
	c := New(WithRelays(nil), WithRateLimit(1000, 1))

	for i := 0; i < 3; i++ {
		if _, err := c.Do(context.Background(), Get(srv.URL)); err != nil {
			t.Fatalf("Do #%d: %v", i, err)
		}
	}
	if hits.Load() != 3 {
		t.Errorf("hits = %d, want 3", hits.Load())
	}
}
