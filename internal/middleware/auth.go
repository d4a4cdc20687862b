// Copyright (c) 2025-2026 ParentFacile
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for admin authentication,
// rate limiting and request timeouts.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/parentfacile/parentfacile/internal/auth"
	"github.com/parentfacile/parentfacile/internal/config"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// ContextKeyAdmin is the context key holding the authenticated admin identity.
const ContextKeyAdmin ContextKey = "admin"

// apiError is the JSON error envelope shared by every endpoint.
type apiError struct {
	OK      bool   `json:"ok"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// WriteAPIError writes a JSON error response.
func WriteAPIError(w http.ResponseWriter, statusCode int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(apiError{OK: false, Kind: kind, Message: message})
}

// TokenFromRequest extracts the raw admin token according to the configured
// strategy: the auth cookie, the Authorization bearer header, or either.
// Returns "" when no token is present.
func TokenFromRequest(r *http.Request, strategy config.TokenStrategy, cookieName string) string {
	if strategy.UsesCookie() {
		if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
			return c.Value
		}
	}
	if strategy.UsesBearer() {
		h := r.Header.Get("Authorization")
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") && parts[1] != "" {
			return parts[1]
		}
	}
	return ""
}

// RequireAdmin creates middleware that rejects requests without a valid
// admin token. On success the verified identity is added to the request
// context.
func RequireAdmin(tokens *auth.TokenService, strategy config.TokenStrategy, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := TokenFromRequest(r, strategy, cookieName)
			if raw == "" {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentification requise")
				return
			}

			ident, err := tokens.Verify(raw)
			if err != nil {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Jeton invalide ou expiré")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyAdmin, *ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAdmin retrieves the authenticated admin identity from the request
// context. Returns nil outside RequireAdmin.
func GetAdmin(r *http.Request) *auth.Identity {
	ident, ok := r.Context().Value(ContextKeyAdmin).(auth.Identity)
	if !ok {
		return nil
	}
	return &ident
}
