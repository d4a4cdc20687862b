// Copyright (c) 2025-2026 ParentFacile
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler implements the HTTP endpoints of the ParentFacile API.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/parentfacile/parentfacile/internal/model"
	"github.com/parentfacile/parentfacile/internal/service"
)

// Error kinds carried in the JSON error envelope.
const (
	KindValidation   = "validation"
	KindConflict     = "conflict"
	KindNotFound     = "not_found"
	KindFileMissing  = "file_missing"
	KindUnauthorized = "unauthorized"
	KindRateLimited  = "rate_limited"
	KindInternal     = "internal"
)

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, statusCode int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"ok":      false,
		"kind":    kind,
		"message": message,
	})
}

// writeJSONSuccess writes a JSON success response.
func writeJSONSuccess(w http.ResponseWriter, data map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	if data == nil {
		data = make(map[string]any)
	}
	data["ok"] = true
	_ = json.NewEncoder(w).Encode(data)
}

// writeServiceError maps a service error to its JSON error response.
func writeServiceError(w http.ResponseWriter, err error) {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSONError(w, http.StatusBadRequest, KindValidation, ve.Error())
	case errors.Is(err, service.ErrDuplicateKey):
		writeJSONError(w, http.StatusConflict, KindConflict, "doc_key déjà utilisé")
	case errors.Is(err, service.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, KindNotFound, "Document introuvable")
	default:
		slog.Error("request failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, KindInternal, "Erreur interne")
	}
}
