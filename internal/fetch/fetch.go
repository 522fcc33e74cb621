// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package fetch performs HTTP requests that survive hostile networks: a
// direct attempt with browser-like headers first, then an ordered list of
// public relay endpoints. Credentialed requests never go through a relay
// because relays strip the Authorization header.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout bounds each general attempt (direct or per relay).
	DefaultTimeout = 20 * time.Second
	// AuthTimeout bounds authenticated calls, which include media uploads.
	AuthTimeout = 30 * time.Second
	// maxBodySize caps how much of a response body is buffered (20MB).
	maxBodySize = 20 * 1024 * 1024
)

// Relay is a URL template with a single %s that receives the
// query-escaped target URL.
type Relay string

// Wrap returns the relay URL for target.
func (r Relay) Wrap(target string) string {
	return fmt.Sprintf(string(r), url.QueryEscape(target))
}

// DefaultRelays are public CORS relays, tried in order.
var DefaultRelays = []Relay{
	"https://corsproxy.io/?url=%s",
	"https://api.allorigins.win/raw?url=%s",
	"https://api.codetabs.com/v1/proxy?quest=%s",
}

// browserHeaders are sent on every attempt unless the caller overrides them.
var browserHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,application/json;q=0.8,*/*;q=0.7",
	"Accept-Language": "en-US,en;q=0.9",
}

// credentialHeaders mark a request as authenticated.
var credentialHeaders = []string{"Authorization", "X-Api-Key", "X-Wp-Nonce"}

// ErrCredentialsDirectOnly is returned when an authenticated request could
// not reach the target directly. Relaying it would strip the credentials.
var ErrCredentialsDirectOnly = errors.New("fetch: credentialed request failed on the direct path and cannot be relayed")

// Request is a replayable HTTP request. Body is buffered so every attempt
// can resend it.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Get builds a GET request for rawURL.
func Get(rawURL string) *Request {
	return &Request{Method: http.MethodGet, URL: rawURL, Header: http.Header{}}
}

// Response is a fully buffered HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// Via is the URL that actually answered: the target or a relay URL.
	Via string
}

// OK reports a 2xx status.
func (r *Response) OK() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

// RelayExhaustedError reports that the direct path and every relay failed.
type RelayExhaustedError struct {
	URL      string
	Failures []string
	Last     error
}

func (e *RelayExhaustedError) Error() string {
	return fmt.Sprintf("fetch %s: all strategies failed: %s", e.URL, strings.Join(e.Failures, "; "))
}

func (e *RelayExhaustedError) Unwrap() error { return e.Last }

// Client performs resilient requests. The zero value is not usable; call New.
type Client struct {
	http        *http.Client
	relays      []Relay
	timeout     time.Duration
	authTimeout time.Duration
	limiter     *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithRelays replaces the relay list. An empty list disables relaying.
func WithRelays(relays []Relay) Option {
	return func(c *Client) { c.relays = relays }
}

// WithTimeouts overrides the general and authenticated per-attempt timeouts.
func WithTimeouts(general, auth time.Duration) Option {
	return func(c *Client) {
		if general > 0 {
			c.timeout = general
		}
		if auth > 0 {
			c.authTimeout = auth
		}
	}
}

// WithHTTPClient swaps the underlying transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRateLimit paces attempts to rps requests per second, so bulk crawls
// stay polite to the target site and the relays.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// New creates a Client with default relays and timeouts.
func New(opts ...Option) *Client {
	c := &Client{
		http:        &http.Client{},
		relays:      DefaultRelays,
		timeout:     DefaultTimeout,
		authTimeout: AuthTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do tries the direct path, then each relay, and returns the first 2xx
// response. It fails only after every strategy has failed.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	return c.tryAll(ctx, req, c.timeout, (*Response).OK)
}

// DoAuthenticated is the variant for the publishing API. Any 2xx or 4xx
// response is returned so callers can tell auth failures from connectivity
// failures. If req carries a credential header only the direct path is
// used and its outcome is returned untouched.
func (c *Client) DoAuthenticated(ctx context.Context, req *Request) (*Response, error) {
	okOr4xx := func(r *Response) bool {
		return r.OK() || (r.StatusCode >= 400 && r.StatusCode < 500)
	}

	if !hasCredentials(req.Header) {
		return c.tryAll(ctx, req, c.authTimeout, okOr4xx)
	}

	resp, err := c.attempt(ctx, req, req.URL, c.authTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCredentialsDirectOnly, err)
	}
	return resp, nil
}

func (c *Client) tryAll(ctx context.Context, req *Request, timeout time.Duration, accept func(*Response) bool) (*Response, error) {
	targets := make([]string, 0, len(c.relays)+1)
	targets = append(targets, req.URL)
	for _, r := range c.relays {
		targets = append(targets, r.Wrap(req.URL))
	}

	var (
		failures []string
		last     error
	)
	for i, target := range targets {
		resp, err := c.attempt(ctx, req, target, timeout)
		if err == nil && accept(resp) {
			if i > 0 {
				slog.Debug("fetch succeeded via relay", "url", req.URL, "relay", target)
			}
			return resp, nil
		}
		if err == nil {
			err = fmt.Errorf("HTTP %d", resp.StatusCode)
		}
		last = err
		failures = append(failures, fmt.Sprintf("%s: %v", strategyName(i), err))

		if ctx.Err() != nil {
			break
		}
		if i < len(targets)-1 {
			slog.Warn("fetch attempt failed, trying next strategy", "url", req.URL, "strategy", strategyName(i), "error", err)
		}
	}
	return nil, &RelayExhaustedError{URL: req.URL, Failures: failures, Last: last}
}

// attempt sends req to target with its own timeout.
func (c *Client) attempt(ctx context.Context, req *Request, target string, timeout time.Duration) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range browserHeaders {
		httpReq.Header.Set(k, v)
	}
	for k, vs := range req.Header {
		httpReq.Header.Del(k)
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("timeout after %s: %w", timeout, err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data, Via: target}, nil
}

func hasCredentials(h http.Header) bool {
	for _, k := range credentialHeaders {
		if h.Get(k) != "" {
			return true
		}
	}
	return false
}

func strategyName(i int) string {
	if i == 0 {
		return "direct"
	}
	return fmt.Sprintf("relay %d", i)
}
