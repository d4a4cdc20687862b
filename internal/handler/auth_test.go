// Copyright (c) 2025-2026 ParentFacile
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/parentfacile/parentfacile/internal/store"
)

func postJSON(t *testing.T, path string, payload any) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestLoginSetsCookieAndReturnsToken(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(postJSON(t, "/api/admin/login", map[string]string{
		"email":    "Admin@ParentFacile.fr", // case-insensitive
		"password": testPassword,
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rec.Code, rec.Body)
	}

	var resp struct {
		OK    bool   `json:"ok"`
		Token string `json:"token"`
		User  struct {
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
	}
	decodeJSON(t, rec, &resp)
	if !resp.OK || resp.Token == "" {
		t.Errorf("body = %+v", resp)
	}
	if resp.User.Email != "admin@parentfacile.fr" || resp.User.Role != "admin" {
		t.Errorf("user = %+v", resp.User)
	}

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == app.cfg.CookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("no session cookie set")
	}
	if !cookie.HttpOnly || cookie.Value == "" {
		t.Errorf("cookie = %+v", cookie)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	app := newTestApp(t)

	for name, payload := range map[string]map[string]string{
		"wrong password": {"email": app.cfg.AdminEmail, "password": "nope"},
		"wrong email":    {"email": "intruder@exemple.fr", "password": testPassword},
	} {
		rec := app.do(postJSON(t, "/api/admin/login", payload))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", name, rec.Code)
		}
		var resp struct {
			Kind    string `json:"kind"`
			Message string `json:"message"`
		}
		decodeJSON(t, rec, &resp)
		if resp.Kind != "unauthorized" {
			t.Errorf("%s: kind = %q", name, resp.Kind)
		}
		// One generic message regardless of which credential was wrong.
		if resp.Message != "Identifiants invalides" {
			t.Errorf("%s: message = %q", name, resp.Message)
		}
	}
}

func TestLoginValidation(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(postJSON(t, "/api/admin/login", map[string]string{"email": "", "password": ""}))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty credentials: %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/admin/login", bytes.NewBufferString("{broken"))
	if rec := app.do(req); rec.Code != http.StatusBadRequest {
		t.Errorf("broken JSON: %d", rec.Code)
	}
}

func TestLoginFallsBackToSeededAccount(t *testing.T) {
	app := newTestApp(t)
	// Without env credentials the database row is the reference.
	app.cfg.AdminPassword = ""

	if err := store.SeedAdmin(context.Background(), app.db, app.cfg.AdminEmail, "db-s3cret"); err != nil {
		t.Fatal(err)
	}

	rec := app.do(postJSON(t, "/api/admin/login", map[string]string{
		"email":    app.cfg.AdminEmail,
		"password": "db-s3cret",
	}))
	if rec.Code != http.StatusOK {
		t.Errorf("seeded login: %d %s", rec.Code, rec.Body)
	}

	rec = app.do(postJSON(t, "/api/admin/login", map[string]string{
		"email":    app.cfg.AdminEmail,
		"password": "wrong",
	}))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("seeded login bad password: %d", rec.Code)
	}
}

func TestLoginRejectsUnconfiguredEmail(t *testing.T) {
	app := newTestApp(t)
	// Even in database-fallback mode a row for another email is no way in.
	app.cfg.AdminPassword = ""

	if err := store.SeedAdmin(context.Background(), app.db, "other@parentfacile.fr", "db-s3cret"); err != nil {
		t.Fatal(err)
	}

	rec := app.do(postJSON(t, "/api/admin/login", map[string]string{
		"email":    "other@parentfacile.fr",
		"password": "db-s3cret",
	}))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unconfigured email login: %d %s", rec.Code, rec.Body)
	}
}

func TestMeReportsSession(t *testing.T) {
	app := newTestApp(t)
	token := app.login(t)

	// Valid token, via header.
	req := httptest.NewRequest(http.MethodGet, "/api/admin/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := app.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: %d", rec.Code)
	}
	var resp struct {
		OK   bool `json:"ok"`
		User *struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	decodeJSON(t, rec, &resp)
	if !resp.OK || resp.User == nil || resp.User.Email != "admin@parentfacile.fr" {
		t.Errorf("me body = %+v", resp)
	}

	// No token: still 200, user null.
	rec = app.do(httptest.NewRequest(http.MethodGet, "/api/admin/me", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("anonymous me: %d", rec.Code)
	}
	resp.User = nil
	decodeJSON(t, rec, &resp)
	if !resp.OK || resp.User != nil {
		t.Errorf("anonymous me body = %s", rec.Body)
	}

	// Garbage token: same null-user 200.
	req = httptest.NewRequest(http.MethodGet, "/api/admin/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = app.do(req)
	resp.User = nil
	decodeJSON(t, rec, &resp)
	if rec.Code != http.StatusOK || resp.User != nil {
		t.Errorf("garbage me: %d %s", rec.Code, rec.Body)
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(httptest.NewRequest(http.MethodPost, "/api/admin/logout", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: %d", rec.Code)
	}

	var cleared *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == app.cfg.CookieName {
			cleared = c
		}
	}
	if cleared == nil {
		t.Fatal("logout set no cookie")
	}
	if cleared.Value != "" || cleared.MaxAge >= 0 {
		t.Errorf("cookie not cleared: %+v", cleared)
	}
}
