// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package cache stores derived pipeline data (SERP results, video lists,
// semantic keywords) under content-addressed keys with a fixed TTL.
//
// Entries are idempotent derivations of their key, so concurrent writers
// need no coordination: the last write wins.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"
)

// DefaultTTL is how long an entry stays visible.
const DefaultTTL = 24 * time.Hour

// Store is a TTL-bounded key/value store. A miss and an expired entry are
// indistinguishable to callers.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
}

// Key derives a cache key from an operation name and its input. Inputs
// differing only in case or surrounding whitespace share a key.
func Key(op, input string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(input))))
	return op + ":" + hex.EncodeToString(sum[:12])
}

// GetJSON decodes a cached JSON value into v. A corrupt entry counts as a
// miss.
func GetJSON(ctx context.Context, s Store, key string, v any) bool {
	data, ok := s.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		slog.Warn("cache entry undecodable", "key", key, "error", err)
		return false
	}
	return true
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("cache entry unencodable", "key", key, "error", err)
		return
	}
	s.Set(ctx, key, data)
}
