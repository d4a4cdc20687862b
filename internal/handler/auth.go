// Copyright (c) 2025-2026 ParentFacile
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/parentfacile/parentfacile/internal/auth"
	"github.com/parentfacile/parentfacile/internal/config"
	"github.com/parentfacile/parentfacile/internal/middleware"
	"github.com/parentfacile/parentfacile/internal/store"
)

// AuthHandler handles admin login, logout and session introspection.
type AuthHandler struct {
	cfg     *config.Config
	queries *store.Queries
	tokens  *auth.TokenService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(cfg *config.Config, db *sql.DB, tokens *auth.TokenService) *AuthHandler {
	return &AuthHandler{cfg: cfg, queries: store.New(db), tokens: tokens}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// checkCredentials verifies the password against the configured credentials.
// The supplied email must match the configured admin email in every mode.
// A configured hash wins over a configured plaintext password, which wins
// over the database row. Every failure collapses to false so the response
// never reveals which check ran.
func (h *AuthHandler) checkCredentials(r *http.Request, email, password string) bool {
	if !strings.EqualFold(email, h.cfg.AdminEmail) {
		return false
	}

	if h.cfg.AdminPasswordHash != "" {
		return auth.CheckPassword(password, h.cfg.AdminPasswordHash)
	}
	if h.cfg.AdminPassword != "" {
		// Plaintext comparison is a development-only convenience.
		return password == h.cfg.AdminPassword
	}

	u, err := h.queries.GetAdminByEmail(r.Context(), email)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Error("admin lookup failed", "error", err)
		}
		return false
	}
	return auth.CheckPassword(password, u.PasswordHash)
}

// Login handles POST /api/admin/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, KindValidation, "Corps JSON invalide")
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		writeJSONError(w, http.StatusBadRequest, KindValidation, "email et password sont requis")
		return
	}

	if !h.checkCredentials(r, email, req.Password) {
		writeJSONError(w, http.StatusUnauthorized, KindUnauthorized, "Identifiants invalides")
		return
	}

	token, err := h.tokens.Mint(strings.ToLower(email))
	if err != nil {
		slog.Error("token mint failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, KindInternal, "Erreur interne")
		return
	}

	if h.cfg.TokenStrategy.UsesCookie() {
		http.SetCookie(w, h.sessionCookie(token, int(h.tokens.Expiry().Seconds())))
	}

	data := map[string]any{
		"user": map[string]any{"email": strings.ToLower(email), "role": auth.RoleAdmin},
	}
	if h.cfg.TokenStrategy.UsesBearer() {
		data["token"] = token
	}
	writeJSONSuccess(w, data)
}

// Me handles GET /api/admin/me. It always answers 200: an absent or invalid
// token yields a null user instead of an error, so the frontend can probe
// the session without handling 401s.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	raw := middleware.TokenFromRequest(r, h.cfg.TokenStrategy, h.cfg.CookieName)
	if raw == "" {
		writeJSONSuccess(w, map[string]any{"user": nil})
		return
	}

	ident, err := h.tokens.Verify(raw)
	if err != nil {
		writeJSONSuccess(w, map[string]any{"user": nil})
		return
	}
	writeJSONSuccess(w, map[string]any{
		"user": map[string]any{"email": ident.Email, "role": ident.Role},
	})
}

// Logout handles POST /api/admin/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if h.cfg.TokenStrategy.UsesCookie() {
		http.SetCookie(w, h.sessionCookie("", -1))
	}
	writeJSONSuccess(w, nil)
}

func (h *AuthHandler) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}
