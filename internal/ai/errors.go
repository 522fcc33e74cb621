// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import "fmt"

// APIError is a non-200 response from a provider. RetryAfter is the raw
// Retry-After header value, if any.
type APIError struct {
	Provider   string
	StatusCode int
	RetryAfter string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

// HTTPStatusCode exposes the status to classifiers outside this package.
func (e *APIError) HTTPStatusCode() int { return e.StatusCode }

// RetryAfterValue exposes the raw Retry-After header.
func (e *APIError) RetryAfterValue() string { return e.RetryAfter }
