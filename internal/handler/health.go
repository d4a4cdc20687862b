// Copyright (c) 2025-2026 ParentFacile
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"net/http"

	"github.com/parentfacile/parentfacile/internal/config"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	db  *sql.DB
	env string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db *sql.DB, cfg *config.Config) *HealthHandler {
	return &HealthHandler{db: db, env: cfg.Env}
}

// Health handles GET /api/health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	dbStatus := "up"
	if err := h.db.PingContext(r.Context()); err != nil {
		dbStatus = "down"
	}
	writeJSONSuccess(w, map[string]any{
		"db":  dbStatus,
		"env": h.env,
	})
}
