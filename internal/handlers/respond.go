// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"contentforge/internal/studio"
	"contentforge/internal/wordpress"
)

// errorBody is the shape of every error response.
type errorBody struct {
	Error  string `json:"error"`
	Remedy string `json:"remedy,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// pathID reads the {id} route parameter. Item IDs are titles, so they
// arrive percent-encoded.
func pathID(r *http.Request) string {
	raw := chi.URLParam(r, "id")
	if id, err := url.PathUnescape(raw); err == nil {
		return id
	}
	return raw
}

// writeStudioError maps studio and publishing errors onto HTTP statuses.
func writeStudioError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, studio.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, studio.ErrBusy), errors.Is(err, studio.ErrNotReady):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, studio.ErrDisabled):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, wordpress.ErrAuth), errors.Is(err, wordpress.ErrConnectivity):
		writeJSON(w, http.StatusBadGateway, errorBody{Error: err.Error(), Remedy: wordpress.Diagnose(err)})
	default:
		var apiErr *wordpress.APIError
		if errors.As(err, &apiErr) {
			writeJSON(w, http.StatusBadGateway, errorBody{Error: err.Error(), Remedy: wordpress.Diagnose(err)})
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
	}
}
