// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// ---------- Helpers ----------

// capture records the last request a test server received.
type capture struct {
	path    string
	headers http.Header
	body    map[string]any
}

// newCaptureServer responds with status and body and records each request.
func newCaptureServer(t *testing.T, status int, body any, extraHeaders map[string]string) (*httptest.Server, *capture) {
	t.Helper()
	c := &capture{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.path = r.URL.Path
		c.headers = r.Header.Clone()
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &c.body)
		for k, v := range extraHeaders {
			w.Header().Set(k, v)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv, c
}

func openAIBody(text string) openAIResponse {
	return openAIResponse{Choices: []openAIChoice{{Message: openAIMessage{Role: "assistant", Content: text}}}}
}

// =====================================================================
// OpenAI / Mistral
// =====================================================================

func TestOpenAIGenerate_JSONModeAndHeaders(t *testing.T) {
	srv, c := newCaptureServer(t, http.StatusOK, openAIBody(`{"ok":true}`), nil)
	p := newOpenAI(ProviderConfig{APIKey: "sk-test", Model: "gpt-4o", BaseURL: srv.URL})

	got, err := p.Generate(context.Background(), "sys", "user", GenerateOptions{JSON: true})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != `{"ok":true}` {
		t.Errorf("got %q", got)
	}
	if c.path != "/chat/completions" {
		t.Errorf("path = %q", c.path)
	}
	if auth := c.headers.Get("Authorization"); auth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", auth)
	}
	rf, _ := c.body["response_format"].(map[string]any)
	if rf["type"] != "json_object" {
		t.Errorf("response_format = %v, want json_object", c.body["response_format"])
	}
}

func TestOpenAIGenerate_NoResponseFormatForText(t *testing.T) {
	srv, c := newCaptureServer(t, http.StatusOK, openAIBody("<p>hi</p>"), nil)
	p := newOpenAI(ProviderConfig{APIKey: "k", Model: "gpt-4o", BaseURL: srv.URL})

	if _, err := p.Generate(context.Background(), "s", "u", GenerateOptions{}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, ok := c.body["response_format"]; ok {
		t.Error("response_format should be omitted for text calls")
	}
}

func TestOpenAIGenerate_APIErrorCarriesRetryAfter(t *testing.T) {
	srv, _ := newCaptureServer(t, http.StatusTooManyRequests, map[string]string{"error": "slow down"},
		map[string]string{"Retry-After": "3"})
	p := newOpenAI(ProviderConfig{APIKey: "k", Model: "gpt-4o", BaseURL: srv.URL})

	_, err := p.Generate(context.Background(), "s", "u", GenerateOptions{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests || apiErr.RetryAfter != "3" {
		t.Errorf("APIError = %+v", apiErr)
	}
	if !IsRetryable(err) {
		t.Error("429 should be retryable")
	}
}

func TestOpenAIGenerate_NoChoices(t *testing.T) {
	srv, _ := newCaptureServer(t, http.StatusOK, openAIResponse{}, nil)
	p := newOpenAI(ProviderConfig{APIKey: "k", BaseURL: srv.URL})

	if _, err := p.Generate(context.Background(), "s", "u", GenerateOptions{}); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestOpenAIGenerateImage(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("fake-png"))
	srv, c := newCaptureServer(t, http.StatusOK, map[string]any{
		"data": []map[string]string{{"b64_json": encoded}},
	}, nil)
	p := newOpenAI(ProviderConfig{APIKey: "k", ModelImage: "gpt-image-1", BaseURL: srv.URL})

	img, ct, err := p.GenerateImage(context.Background(), "a lighthouse")
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if string(img) != "fake-png" || ct != "image/png" {
		t.Errorf("got %q %q", img, ct)
	}
	if c.path != "/images/generations" || c.body["prompt"] != "a lighthouse" {
		t.Errorf("request path=%q body=%v", c.path, c.body)
	}
}

func TestMistral_NameAndNoImages(t *testing.T) {
	srv, _ := newCaptureServer(t, http.StatusOK, openAIBody("bonjour"), nil)
	p := newMistral(ProviderConfig{APIKey: "k", Model: "mistral-large-latest", ModelImage: "x", BaseURL: srv.URL})

	if p.Name() != "mistral" {
		t.Errorf("Name = %q", p.Name())
	}
	got, err := p.Generate(context.Background(), "s", "u", GenerateOptions{})
	if err != nil || got != "bonjour" {
		t.Errorf("Generate = %q, %v", got, err)
	}
	if _, _, err := p.GenerateImage(context.Background(), "x"); err == nil {
		t.Error("mistral should not generate images")
	}
}

// =====================================================================
// Claude
// =====================================================================

func TestClaudeGenerate_JSONInstructionAppended(t *testing.T) {
	srv, c := newCaptureServer(t, http.StatusOK, claudeResponse{
		Content: []claudeContentBlock{{Type: "text", Text: `{"a":1}`}},
	}, nil)
	p := newClaude(ProviderConfig{APIKey: "ck", Model: "claude-sonnet-4-6", BaseURL: srv.URL})

	got, err := p.Generate(context.Background(), "Be terse.", "go", GenerateOptions{JSON: true})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != `{"a":1}` {
		t.Errorf("got %q", got)
	}
	if c.headers.Get("x-api-key") != "ck" || c.headers.Get("anthropic-version") == "" {
		t.Errorf("headers = %v", c.headers)
	}
	sys, _ := c.body["system"].(string)
	if !strings.HasPrefix(sys, "Be terse.") || !strings.Contains(sys, "valid JSON") {
		t.Errorf("system = %q", sys)
	}
}

// =====================================================================
// Gemini
// =====================================================================

func TestGeminiGenerate(t *testing.T) {
	srv, c := newCaptureServer(t, http.StatusOK, geminiResponse{
		Candidates: []geminiCandidate{{Content: geminiContent{Parts: []geminiPart{{Text: "hi"}}}}},
	}, nil)
	p := newGemini(ProviderConfig{APIKey: "gk", Model: "gemini-2.5-pro", BaseURL: srv.URL})

	got, err := p.Generate(context.Background(), "s", "u", GenerateOptions{JSON: true})
	if err != nil || got != "hi" {
		t.Fatalf("Generate = %q, %v", got, err)
	}
	if c.path != "/v1beta/models/gemini-2.5-pro:generateContent" {
		t.Errorf("path = %q", c.path)
	}
	if c.headers.Get("x-goog-api-key") != "gk" {
		t.Errorf("x-goog-api-key = %q", c.headers.Get("x-goog-api-key"))
	}
	gc, _ := c.body["generationConfig"].(map[string]any)
	if gc["responseMimeType"] != "application/json" {
		t.Errorf("generationConfig = %v", c.body["generationConfig"])
	}
}

func TestGeminiGenerateImage(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("jpeg-bytes"))
	srv, _ := newCaptureServer(t, http.StatusOK, geminiResponse{
		Candidates: []geminiCandidate{{Content: geminiContent{Parts: []geminiPart{
			{Text: "here you go"},
			{InlineData: &geminiInlineData{MimeType: "image/jpeg", Data: encoded}},
		}}}},
	}, nil)
	p := newGemini(ProviderConfig{APIKey: "gk", ModelImage: "gemini-2.5-flash-image", BaseURL: srv.URL})

	img, ct, err := p.GenerateImage(context.Background(), "a fox")
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if string(img) != "jpeg-bytes" || ct != "image/jpeg" {
		t.Errorf("got %q %q", img, ct)
	}
}

func TestGeminiGenerateImage_RequiresModel(t *testing.T) {
	p := newGemini(ProviderConfig{APIKey: "gk"})
	if _, _, err := p.GenerateImage(context.Background(), "x"); err == nil {
		t.Fatal("expected error without image model")
	}
}
