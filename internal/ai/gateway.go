// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultMaxAttempts is how many times Invoke calls before giving up.
	DefaultMaxAttempts = 5
	// DefaultBaseDelay is the exponential backoff base for 5xx and transient errors.
	DefaultBaseDelay = 5 * time.Second
	// retryAfterBuffer is added on top of a server-provided Retry-After.
	retryAfterBuffer = 500 * time.Millisecond
	// maxJitter bounds the random component of a backoff delay.
	maxJitter = time.Second
)

// nonRetriablePhrases mark provider errors that will fail the same way on
// every attempt: oversized prompts and bad credentials.
var nonRetriablePhrases = []string{
	"context length",
	"context_length",
	"maximum context",
	"token limit",
	"too many tokens",
	"api key not valid",
	"invalid api key",
	"invalid_api_key",
	"incorrect api key",
	"api_key_invalid",
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

type retryAfterer interface {
	RetryAfterValue() string
}

// Gateway retries provider calls with failure-aware backoff. It holds no
// mutable state, so one value is shared by every pipeline.
type Gateway struct {
	MaxAttempts int
	BaseDelay   time.Duration
	// RateLimitDelay is the backoff base for 429 responses that carry no
	// usable Retry-After. It defaults to twice BaseDelay.
	RateLimitDelay time.Duration

	// Sleep and Jitter are swapped out in tests.
	Sleep  func(ctx context.Context, d time.Duration) error
	Jitter func() time.Duration
	Now    func() time.Time
}

// NewGateway returns a gateway with the default attempt count and delays.
func NewGateway() *Gateway {
	return &Gateway{MaxAttempts: DefaultMaxAttempts, BaseDelay: DefaultBaseDelay}
}

// Invoke runs call until it succeeds, fails with a non-retriable error, or
// the gateway runs out of attempts. The last error is returned unchanged.
func Invoke[T any](ctx context.Context, g *Gateway, call func(context.Context) (T, error)) (T, error) {
	var zero T
	if g == nil {
		g = NewGateway()
	}
	attempts := g.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		out, err := call(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if ctx.Err() != nil || !IsRetryable(err) {
			return zero, err
		}
		if attempt == attempts-1 {
			break
		}

		delay := g.Delay(err, attempt)
		slog.Warn("ai call failed, retrying",
			"attempt", attempt+1,
			"max_attempts", attempts,
			"sleep", delay.String(),
			"error", err,
		)
		if err := g.sleep(ctx, delay); err != nil {
			return zero, err
		}
	}
	return zero, lastErr
}

// Generate is Invoke specialised to a single text generation call.
func (g *Gateway) Generate(ctx context.Context, gen TextGenerator, systemPrompt, userPrompt string, opts GenerateOptions) (string, error) {
	return Invoke(ctx, g, func(ctx context.Context) (string, error) {
		return gen.Generate(ctx, systemPrompt, userPrompt, opts)
	})
}

// IsRetryable classifies err. Client errors other than 429, oversized
// prompts, and invalid keys are final; 429, 5xx and anything unclassified
// are worth another attempt.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, phrase := range nonRetriablePhrases {
		if strings.Contains(msg, phrase) {
			return false
		}
	}

	status := StatusCode(err)
	if status >= 400 && status < 500 && status != http.StatusTooManyRequests {
		return false
	}
	return true
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var sc httpStatusCoder
	if errors.As(err, &sc) {
		return sc.HTTPStatusCode()
	}
	return 0
}

// Delay computes how long to wait before retry number attempt+1.
func (g *Gateway) Delay(err error, attempt int) time.Duration {
	if StatusCode(err) == http.StatusTooManyRequests {
		var ra retryAfterer
		if errors.As(err, &ra) {
			if d, ok := parseRetryAfter(ra.RetryAfterValue(), g.now()); ok {
				return d
			}
		}
		base := g.RateLimitDelay
		if base <= 0 {
			base = 2 * g.baseDelay()
		}
		return g.backoff(base, attempt)
	}
	return g.backoff(g.baseDelay(), attempt)
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(v string, now time.Time) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil && secs >= 0 {
		return time.Duration(secs*float64(time.Second)) + retryAfterBuffer, true
	}
	if t, err := http.ParseTime(v); err == nil {
		delta := t.Sub(now)
		if delta < 0 {
			delta = 0
		}
		return delta + retryAfterBuffer, true
	}
	return 0, false
}

func (g *Gateway) backoff(base time.Duration, attempt int) time.Duration {
	return base*time.Duration(1<<attempt) + g.jitter()
}

func (g *Gateway) baseDelay() time.Duration {
	if g.BaseDelay <= 0 {
		return DefaultBaseDelay
	}
	return g.BaseDelay
}

func (g *Gateway) jitter() time.Duration {
	if g.Jitter != nil {
		return g.Jitter()
	}
	return time.Duration(rand.Int64N(int64(maxJitter)))
}

func (g *Gateway) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

func (g *Gateway) sleep(ctx context.Context, d time.Duration) error {
	if g.Sleep != nil {
		return g.Sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
